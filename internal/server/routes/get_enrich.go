package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/diagramkg/internal/server/middleware"
	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/linker"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
	"github.com/OFFIS-RIT/diagramkg/pkg/template"

	"github.com/labstack/echo/v4"
)

// EnrichDiagramHandler returns the template view of a diagram together with
// other diagrams sharing its concepts.
func EnrichDiagramHandler(c echo.Context) error {
	type enrichParams struct {
		DiagramID string `param:"id" validate:"required"`
		Template  string `query:"template"`
	}

	type enrichResponse struct {
		DiagramID        string                  `json:"diagram_id"`
		Title            string                  `json:"title"`
		GroupType        string                  `json:"group_type"`
		TemplateType     string                  `json:"template_type"`
		Data             template.View           `json:"data"`
		RelatedKnowledge []linker.RelatedDiagram `json:"related_knowledge"`
	}

	data := new(enrichParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	diagram, err := app.Keywords.GetDiagram(ctx, data.DiagramID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Diagram not found"})
	}
	if err != nil {
		logger.Error("[Server] Failed to load diagram", "diagram_id", data.DiagramID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	var doc *common.Document
	if app.Documents != nil {
		doc, err = app.Documents.GetDocument(ctx, data.DiagramID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logger.Warn("[Server] Failed to load document, serving empty view", "diagram_id", data.DiagramID, "err", err)
			}
			doc = nil
		}
	}

	kind := template.KindForGroup(diagram.GroupType)
	if data.Template != "" {
		kind = template.ParseKind(data.Template)
	}

	related := []linker.RelatedDiagram{}
	if app.Related != nil {
		_, found, err := app.Related.Related(ctx, data.DiagramID)
		if err != nil {
			logger.Warn("[Server] Failed to find related diagrams", "diagram_id", data.DiagramID, "err", err)
		} else {
			related = found
		}
	}

	groupType := diagram.GroupType
	if groupType == "" {
		groupType = common.UnknownText
	}

	return c.JSON(http.StatusOK, enrichResponse{
		DiagramID:        data.DiagramID,
		Title:            "Diagram about " + diagram.Category,
		GroupType:        groupType,
		TemplateType:     kind.String(),
		Data:             template.Project(kind, diagram, doc),
		RelatedKnowledge: related,
	})
}
