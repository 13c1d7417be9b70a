package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// iteratorForCopyEntities implements pgx.CopyFromSource.
type iteratorForCopyEntities struct {
	rows                 []CopyEntitiesParams
	skippedFirstNextCall bool
}

func (r *iteratorForCopyEntities) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForCopyEntities) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].DiagramID,
		r.rows[0].EntityID,
		r.rows[0].Type,
		r.rows[0].Content,
	}, nil
}

func (r iteratorForCopyEntities) Err() error {
	return nil
}

func (q *Queries) CopyEntities(ctx context.Context, arg []CopyEntitiesParams) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"entities"}, []string{"diagram_id", "entity_id", "type", "content"}, &iteratorForCopyEntities{rows: arg})
}
