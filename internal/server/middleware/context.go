package middleware

import (
	"context"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/linker"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"

	"github.com/labstack/echo/v4"
)

// RelatedFinder looks up diagrams sharing keywords with a diagram.
type RelatedFinder interface {
	Related(ctx context.Context, diagramID string) ([]string, []linker.RelatedDiagram, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentReader reads raw annotation documents.
type DocumentReader interface {
	Pinger
	GetDocument(ctx context.Context, id string) (*common.Document, error)
}

type App struct {
	Documents DocumentReader
	Keywords  store.KeywordStore
	Graph     Pinger
	Links     store.LinkGenerator
	Related   RelatedFinder
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
