package pgdb

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Diagram struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	GroupType   pgtype.Text `json:"group_type"`
	StoragePath pgtype.Text `json:"storage_path"`
}

type Entity struct {
	DiagramID string      `json:"diagram_id"`
	EntityID  string      `json:"entity_id"`
	Type      string      `json:"type"`
	Content   pgtype.Text `json:"content"`
}
