package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	pgdb "github.com/OFFIS-RIT/diagramkg/pkg/db/pgx"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const copyChunkSize = 1000

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	CopyFrom(ctx context.Context, tableName pgxv5.Identifier, columnNames []string, rowSrc pgxv5.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgxv5.Tx, error)
	Ping(ctx context.Context) error
}

// KeywordDBStorage implements store.KeywordStore on PostgreSQL. It reads the
// diagrams and entities tables and rewrites them during ingestion.
type KeywordDBStorage struct {
	conn pgxIConn
}

// NewKeywordDBStorageWithConnection creates a KeywordDBStorage on an existing
// pool and verifies the connection.
func NewKeywordDBStorageWithConnection(ctx context.Context, conn pgxIConn) (*KeywordDBStorage, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &KeywordDBStorage{conn: conn}, nil
}

func (s *KeywordDBStorage) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *KeywordDBStorage) GetDiagram(ctx context.Context, id string) (common.Diagram, error) {
	q := pgdb.New(s.conn)
	row, err := q.GetDiagramByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Diagram{}, store.ErrNotFound
		}
		return common.Diagram{}, fmt.Errorf("failed to get diagram %s: %w", id, err)
	}
	return toDiagram(row), nil
}

// SearchDiagrams matches query as a case-insensitive substring of the diagram
// id, its category or any of its entity contents.
func (s *KeywordDBStorage) SearchDiagrams(ctx context.Context, query string, limit int) ([]common.Diagram, error) {
	q := pgdb.New(s.conn)
	rows, err := q.SearchDiagrams(ctx, pgdb.SearchDiagramsParams{
		Pattern: "%" + query + "%",
		Limit:   int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search diagrams: %w", err)
	}

	out := make([]common.Diagram, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDiagram(r))
	}
	return out, nil
}

func (s *KeywordDBStorage) DiagramKeywords(ctx context.Context, diagramID string) ([]string, error) {
	q := pgdb.New(s.conn)
	keywords, err := q.GetDiagramKeywords(ctx, diagramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get keywords: %w", err)
	}
	return store.Distinct(keywords), nil
}

func (s *KeywordDBStorage) FindKeywordMatches(
	ctx context.Context,
	keywords []string,
	excludeID string,
	limit int,
) ([]common.KeywordMatch, error) {
	if len(keywords) == 0 {
		return []common.KeywordMatch{}, nil
	}

	q := pgdb.New(s.conn)
	rows, err := q.FindKeywordMatches(ctx, pgdb.FindKeywordMatchesParams{
		Keywords:  keywords,
		ExcludeID: excludeID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find keyword matches: %w", err)
	}

	out := make([]common.KeywordMatch, 0, len(rows))
	for _, r := range rows {
		out = append(out, common.KeywordMatch{
			DiagramID: r.DiagramID,
			Category:  r.Category,
			Keyword:   r.MatchedKeyword,
		})
	}
	return out, nil
}

func (s *KeywordDBStorage) UpsertDiagram(ctx context.Context, d common.Diagram) error {
	q := pgdb.New(s.conn)
	err := q.UpsertDiagram(ctx, pgdb.UpsertDiagramParams{
		ID:          d.ID,
		Category:    cleanText(d.Category),
		GroupType:   optionalText(d.GroupType),
		StoragePath: optionalText(d.StoragePath),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert diagram %s: %w", d.ID, err)
	}
	return nil
}

// ReplaceEntities swaps the keyword rows of a diagram in one transaction.
func (s *KeywordDBStorage) ReplaceEntities(ctx context.Context, diagramID string, rows []common.KeywordRow) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := pgdb.New(s.conn).WithTx(tx)
	if err := qtx.DeleteDiagramEntities(ctx, diagramID); err != nil {
		return fmt.Errorf("failed to delete entities of %s: %w", diagramID, err)
	}

	params := make([]pgdb.CopyEntitiesParams, 0, len(rows))
	for _, r := range rows {
		var content *string
		if r.Content != nil {
			c := cleanText(*r.Content)
			content = &c
		}
		params = append(params, pgdb.CopyEntitiesParams{
			DiagramID: diagramID,
			EntityID:  r.EntityID,
			Type:      r.Type,
			Content:   content,
		})
	}

	for batch := range store.Batches(params, copyChunkSize) {
		if _, err := qtx.CopyEntities(ctx, batch); err != nil {
			return fmt.Errorf("failed to copy entities of %s: %w", diagramID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit entities of %s: %w", diagramID, err)
	}
	return nil
}

func toDiagram(r pgdb.Diagram) common.Diagram {
	return common.Diagram{
		ID:          r.ID,
		Category:    r.Category,
		GroupType:   r.GroupType.String,
		StoragePath: r.StoragePath.String,
	}
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: cleanText(s), Valid: true}
}
