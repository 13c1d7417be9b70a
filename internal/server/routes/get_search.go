package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/diagramkg/internal/server/middleware"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SearchLimit caps the number of search results.
const SearchLimit = 20

// SearchDiagramsHandler finds diagrams whose id, category or any entity text
// contains the query.
func SearchDiagramsHandler(c echo.Context) error {
	type searchParams struct {
		Query string `query:"q" validate:"required,min=2"`
	}

	type searchResult struct {
		DiagramID   string `json:"diagram_id"`
		Category    string `json:"category"`
		StoragePath string `json:"storage_path"`
	}

	data := new(searchParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query must be at least 2 characters"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	diagrams, err := app.Keywords.SearchDiagrams(ctx, data.Query, SearchLimit)
	if err != nil {
		logger.Error("[Server] Search failed", "query", data.Query, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	results := make([]searchResult, 0, len(diagrams))
	for _, d := range diagrams {
		path := d.StoragePath
		if app.Links != nil {
			if link, err := app.Links.DownloadLink(ctx, d.ID); err == nil {
				path = link
			} else {
				logger.Warn("[Server] Failed to presign image", "diagram_id", d.ID, "err", err)
			}
		}
		results = append(results, searchResult{
			DiagramID:   d.ID,
			Category:    d.Category,
			StoragePath: path,
		})
	}

	return c.JSON(http.StatusOK, results)
}
