package pgdb

import (
	"context"
)

const getDiagramKeywords = `-- name: GetDiagramKeywords :many
SELECT DISTINCT content
FROM entities
WHERE diagram_id = $1 AND type = 'text' AND content IS NOT NULL
`

func (q *Queries) GetDiagramKeywords(ctx context.Context, diagramID string) ([]string, error) {
	rows, err := q.db.Query(ctx, getDiagramKeywords, diagramID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		items = append(items, content)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findKeywordMatches = `-- name: FindKeywordMatches :many
SELECT DISTINCT e.diagram_id, d.category, e.content AS matched_keyword
FROM entities e
JOIN diagrams d ON e.diagram_id = d.id
WHERE e.content = ANY($1::text[])
  AND e.type = 'text'
  AND e.diagram_id <> $2
LIMIT $3
`

type FindKeywordMatchesParams struct {
	Keywords  []string `json:"keywords"`
	ExcludeID string   `json:"exclude_id"`
	Limit     int32    `json:"limit"`
}

type FindKeywordMatchesRow struct {
	DiagramID      string `json:"diagram_id"`
	Category       string `json:"category"`
	MatchedKeyword string `json:"matched_keyword"`
}

func (q *Queries) FindKeywordMatches(ctx context.Context, arg FindKeywordMatchesParams) ([]FindKeywordMatchesRow, error) {
	rows, err := q.db.Query(ctx, findKeywordMatches, arg.Keywords, arg.ExcludeID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FindKeywordMatchesRow
	for rows.Next() {
		var i FindKeywordMatchesRow
		if err := rows.Scan(&i.DiagramID, &i.Category, &i.MatchedKeyword); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteDiagramEntities = `-- name: DeleteDiagramEntities :exec
DELETE FROM entities
WHERE diagram_id = $1
`

func (q *Queries) DeleteDiagramEntities(ctx context.Context, diagramID string) error {
	_, err := q.db.Exec(ctx, deleteDiagramEntities, diagramID)
	return err
}

type CopyEntitiesParams struct {
	DiagramID string  `json:"diagram_id"`
	EntityID  string  `json:"entity_id"`
	Type      string  `json:"type"`
	Content   *string `json:"content"`
}
