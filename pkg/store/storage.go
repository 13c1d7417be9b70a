package store

import (
	"context"
	"errors"
	"iter"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
)

// ErrNotFound is returned by stores when the requested diagram does not exist.
var ErrNotFound = errors.New("not found")

// DocumentStore holds the raw annotation document of every diagram, keyed by
// diagram id.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*common.Document, error)

	// DiagramIDs iterates the ids of all stored documents. Iteration stops at
	// the first error, which is yielded with an empty id.
	DiagramIDs(ctx context.Context) iter.Seq2[string, error]
	CountDocuments(ctx context.Context) (int64, error)

	UpsertDocument(ctx context.Context, doc *common.Document) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// KeywordStore holds the relational diagram metadata and the keyword index,
// one row per annotated entity.
type KeywordStore interface {
	GetDiagram(ctx context.Context, id string) (common.Diagram, error)
	SearchDiagrams(ctx context.Context, query string, limit int) ([]common.Diagram, error)

	// DiagramKeywords returns the distinct non-null text contents indexed for
	// a diagram.
	DiagramKeywords(ctx context.Context, diagramID string) ([]string, error)

	// FindKeywordMatches returns text rows of other diagrams whose content
	// equals one of keywords, joined to the owning diagram's category.
	FindKeywordMatches(ctx context.Context, keywords []string, excludeID string, limit int) ([]common.KeywordMatch, error)

	UpsertDiagram(ctx context.Context, diagram common.Diagram) error
	ReplaceEntities(ctx context.Context, diagramID string, rows []common.KeywordRow) error
	Ping(ctx context.Context) error
}

// GraphStore applies projections to the knowledge graph. ApplyProjection must
// be idempotent.
type GraphStore interface {
	ApplyProjection(ctx context.Context, projection common.Projection) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// LinkGenerator produces time-limited download links for diagram images.
type LinkGenerator interface {
	DownloadLink(ctx context.Context, diagramID string) (string, error)
}
