package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getDiagramByID = `-- name: GetDiagramByID :one
SELECT id, category, group_type, storage_path
FROM diagrams
WHERE id = $1
`

func (q *Queries) GetDiagramByID(ctx context.Context, id string) (Diagram, error) {
	row := q.db.QueryRow(ctx, getDiagramByID, id)
	var i Diagram
	err := row.Scan(
		&i.ID,
		&i.Category,
		&i.GroupType,
		&i.StoragePath,
	)
	return i, err
}

const searchDiagrams = `-- name: SearchDiagrams :many
SELECT DISTINCT d.id, d.category, d.group_type, d.storage_path
FROM diagrams d
LEFT JOIN entities e ON d.id = e.diagram_id
WHERE d.id ILIKE $1
   OR d.category ILIKE $1
   OR e.content ILIKE $1
LIMIT $2
`

type SearchDiagramsParams struct {
	Pattern string `json:"pattern"`
	Limit   int32  `json:"limit"`
}

func (q *Queries) SearchDiagrams(ctx context.Context, arg SearchDiagramsParams) ([]Diagram, error) {
	rows, err := q.db.Query(ctx, searchDiagrams, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Diagram
	for rows.Next() {
		var i Diagram
		if err := rows.Scan(
			&i.ID,
			&i.Category,
			&i.GroupType,
			&i.StoragePath,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertDiagram = `-- name: UpsertDiagram :exec
INSERT INTO diagrams (id, category, group_type, storage_path)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET category = EXCLUDED.category,
    group_type = EXCLUDED.group_type,
    storage_path = EXCLUDED.storage_path
`

type UpsertDiagramParams struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	GroupType   pgtype.Text `json:"group_type"`
	StoragePath pgtype.Text `json:"storage_path"`
}

func (q *Queries) UpsertDiagram(ctx context.Context, arg UpsertDiagramParams) error {
	_, err := q.db.Exec(ctx, upsertDiagram,
		arg.ID,
		arg.Category,
		arg.GroupType,
		arg.StoragePath,
	)
	return err
}

const ping = `-- name: Ping :one
SELECT 1
`

func (q *Queries) Ping(ctx context.Context) (int32, error) {
	row := q.db.QueryRow(ctx, ping)
	var column_1 int32
	err := row.Scan(&column_1)
	return column_1, err
}
