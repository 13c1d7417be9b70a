package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/resolve"
)

// AI2D relationship categories that carry a label attachment or a link
// between two objects. Every other category is kept verbatim and ignored by
// the projections.
var (
	attachmentCategories = map[string]bool{
		string(common.CategoryIntraObject): true,
		"intraObjectLabel":                 true,
		"intraObjectTextLinkage":           true,
	}
	connectionCategories = map[string]bool{
		string(common.CategoryInterObject): true,
		"interObjectLinkage":               true,
	}
)

type rawText struct {
	ID        string      `json:"id"`
	Value     string      `json:"value"`
	UTF8Value string      `json:"utf8_value"`
	BBox      common.BBox `json:"bbox"`
}

type rawBlob struct {
	ID   string      `json:"id"`
	BBox common.BBox `json:"bbox"`
}

type rawRelationship struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Origin      string `json:"origin"`
	Target      string `json:"target"`
	Destination string `json:"destination"`
	Relation    string `json:"relation"`
}

type rawAnnotation struct {
	Text          common.Entries[rawText]         `json:"text"`
	Blobs         common.Entries[rawBlob]         `json:"blobs"`
	Relationships common.Entries[rawRelationship] `json:"relationships"`
}

// ParseAnnotation converts one annotation file into a Document.
//
// Relationships may name their far end "target" or "destination". Label
// attachments are oriented so the shape is the origin and the text the
// target, whichever way round the file lists them. Boxes are kept only in
// the four value form.
func ParseAnnotation(diagramID, category string, data []byte) (*common.Document, error) {
	var raw rawAnnotation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse annotation of %s: %w", diagramID, err)
	}

	doc := &common.Document{
		ID:            diagramID,
		Category:      category,
		Text:          common.Entries[common.TextEntity]{},
		Blobs:         common.Entries[common.BlobEntity]{},
		Relationships: common.Entries[common.Relationship]{},
	}

	for _, e := range raw.Text {
		doc.Text.Set(e.Key, common.TextEntity{
			ID:        e.Value.ID,
			Value:     e.Value.Value,
			UTF8Value: e.Value.UTF8Value,
			BBox:      validBox(e.Value.BBox),
		})
	}
	for _, e := range raw.Blobs {
		doc.Blobs.Set(e.Key, common.BlobEntity{
			ID:   e.Value.ID,
			BBox: validBox(e.Value.BBox),
		})
	}

	texts := doc.Text.Index()
	for _, e := range raw.Relationships {
		r := e.Value
		target := r.Target
		if target == "" {
			target = r.Destination
		}
		rel := common.Relationship{
			ID:       r.ID,
			Category: common.RelationCategory(r.Category),
			Origin:   r.Origin,
			Target:   target,
			Relation: r.Relation,
		}

		switch {
		case attachmentCategories[r.Category]:
			rel.Category = common.CategoryIntraObject
			_, originIsText := texts[rel.Origin]
			_, targetIsText := texts[rel.Target]
			if originIsText && !targetIsText {
				rel.Origin, rel.Target = rel.Target, rel.Origin
			}
		case connectionCategories[r.Category]:
			rel.Category = common.CategoryInterObject
		}

		doc.Relationships.Set(e.Key, rel)
	}

	doc.Normalize()
	return doc, nil
}

func validBox(b common.BBox) common.BBox {
	if b.Valid() {
		return b
	}
	return nil
}

// KeywordRows lists the keyword index rows of a document: one row per text
// entity carrying its content, and one row without content per blob.
func KeywordRows(doc *common.Document) []common.KeywordRow {
	if doc == nil {
		return nil
	}

	rows := make([]common.KeywordRow, 0, len(doc.Text)+len(doc.Blobs))
	for _, e := range doc.Text {
		row := common.KeywordRow{
			DiagramID: doc.ID,
			EntityID:  e.Key,
			Type:      common.EntityTypeText,
		}
		if content, ok := resolve.TextContent(e.Value); ok {
			row.Content = &content
		}
		rows = append(rows, row)
	}
	for _, e := range doc.Blobs {
		rows = append(rows, common.KeywordRow{
			DiagramID: doc.ID,
			EntityID:  e.Key,
			Type:      common.EntityTypeBlob,
		})
	}
	return rows
}
