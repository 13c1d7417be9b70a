package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/bootstrap"
	mid "github.com/OFFIS-RIT/diagramkg/internal/server/middleware"
	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/linker"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, keywords, err := bootstrap.OpenPostgres(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer pool.Close()

	docs, err := bootstrap.OpenDocuments(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to mongo", "err", err)
	}
	defer docs.Close(context.Background())

	app := &mid.App{
		Documents: docs,
		Keywords:  keywords,
	}

	if g, err := bootstrap.OpenGraph(ctx); err != nil {
		logger.Warn("Neo4j unavailable, health will report it", "err", err)
	} else {
		defer g.Close(context.Background())
		app.Graph = g
	}

	if links, err := bootstrap.OpenLinks(ctx); err != nil {
		logger.Warn("Image links disabled", "err", err)
	} else {
		app.Links = links
	}

	relatedCache, rdb, err := bootstrap.OpenRelatedCache(ctx)
	if err != nil {
		logger.Warn("Redis unavailable, related diagrams are not cached", "err", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	app.Related = linker.New(keywords, app.Links, relatedCache)

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
