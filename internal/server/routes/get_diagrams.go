package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/diagramkg/internal/server/middleware"
	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"

	"github.com/labstack/echo/v4"
)

type diagramParams struct {
	DiagramID string `param:"id" validate:"required"`
}

// GetDiagramHandler returns the raw annotation document of a diagram.
func GetDiagramHandler(c echo.Context) error {
	type diagramResponse struct {
		DiagramID string           `json:"diagram_id"`
		RawData   *common.Document `json:"raw_data"`
		Message   string           `json:"message"`
	}

	data := new(diagramParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc, err := app.Documents.GetDocument(ctx, data.DiagramID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Diagram not found"})
	}
	if err != nil {
		logger.Error("[Server] Failed to load document", "diagram_id", data.DiagramID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, diagramResponse{
		DiagramID: data.DiagramID,
		RawData:   doc,
		Message:   "Raw annotation document",
	})
}

// GetDiagramImageHandler redirects to a presigned link of the diagram image.
func GetDiagramImageHandler(c echo.Context) error {
	data := new(diagramParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	app := c.(*middleware.AppContext).App
	if app.Links == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Image links are not configured"})
	}

	link, err := app.Links.DownloadLink(c.Request().Context(), data.DiagramID)
	if err != nil || link == "" {
		logger.Warn("[Server] Failed to presign image", "diagram_id", data.DiagramID, "err", err)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Could not create image link"})
	}

	return c.Redirect(http.StatusFound, link)
}
