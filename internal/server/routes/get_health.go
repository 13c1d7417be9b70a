package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const storeAlive = "alive"

// HealthHandler reports the liveness of every backing store.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status   string `json:"status"`
		Mongo    string `json:"mongo"`
		Postgres string `json:"postgres"`
		Neo4j    string `json:"neo4j"`
	}

	app := c.(*middleware.AppContext).App
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	res := healthResponse{
		Status:   "ok",
		Mongo:    pingStatus(ctx, app.Documents),
		Postgres: pingStatus(ctx, app.Keywords),
		Neo4j:    pingStatus(ctx, app.Graph),
	}

	code := http.StatusOK
	for _, s := range []string{res.Mongo, res.Postgres, res.Neo4j} {
		if s != storeAlive {
			res.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	return c.JSON(code, res)
}

func pingStatus(ctx context.Context, p middleware.Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return storeAlive
}
