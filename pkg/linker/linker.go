// Package linker suggests other diagrams that share text concepts with a
// given diagram.
package linker

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
)

// MaxRelated caps the number of suggestions per diagram.
const MaxRelated = 10

// RelationAppearsIn is the relation of every suggestion.
const RelationAppearsIn = "appears_in"

// RelatedDiagram is one suggestion: concept was found in another diagram.
type RelatedDiagram struct {
	Concept        string `json:"concept"`
	FoundInDiagram string `json:"found_in_diagram"`
	Category       string `json:"category"`
	Relation       string `json:"relation"`
	ThumbnailURL   string `json:"thumbnail_url"`
}

// Result is the cacheable outcome of a lookup.
type Result struct {
	Keywords []string         `json:"keywords"`
	Related  []RelatedDiagram `json:"related"`
}

// Cache stores results per diagram id. Implementations must expire entries
// before the embedded thumbnail links do.
type Cache interface {
	Get(ctx context.Context, diagramID string) (Result, bool, error)
	Set(ctx context.Context, diagramID string, result Result) error
}

type Linker struct {
	keywords store.KeywordStore
	links    store.LinkGenerator
	cache    Cache
}

// New creates a Linker. links and cache may be nil.
func New(keywords store.KeywordStore, links store.LinkGenerator, cache Cache) *Linker {
	return &Linker{keywords: keywords, links: links, cache: cache}
}

// Related returns the distinct text keywords of a diagram and up to
// MaxRelated other diagrams containing any of them, in discovery order.
// A diagram without keywords yields two empty lists and no error.
func (l *Linker) Related(ctx context.Context, diagramID string) ([]string, []RelatedDiagram, error) {
	if l.cache != nil {
		cached, ok, err := l.cache.Get(ctx, diagramID)
		if err != nil {
			logger.Warn("[Linker] Cache read failed", "diagram_id", diagramID, "err", err)
		} else if ok {
			return cached.Keywords, cached.Related, nil
		}
	}

	result, err := l.lookup(ctx, diagramID)
	if err != nil {
		return nil, nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, diagramID, result); err != nil {
			logger.Warn("[Linker] Cache write failed", "diagram_id", diagramID, "err", err)
		}
	}

	return result.Keywords, result.Related, nil
}

func (l *Linker) lookup(ctx context.Context, diagramID string) (Result, error) {
	result := Result{Keywords: []string{}, Related: []RelatedDiagram{}}

	keywords, err := l.keywords.DiagramKeywords(ctx, diagramID)
	if err != nil {
		return result, fmt.Errorf("failed to load keywords of %s: %w", diagramID, err)
	}
	keywords = store.Distinct(keywords)
	if len(keywords) == 0 {
		return result, nil
	}
	result.Keywords = keywords

	matches, err := l.keywords.FindKeywordMatches(ctx, keywords, diagramID, MaxRelated)
	if err != nil {
		return result, fmt.Errorf("failed to find related diagrams of %s: %w", diagramID, err)
	}

	for _, m := range matches {
		if len(result.Related) == MaxRelated {
			break
		}
		if m.DiagramID == diagramID {
			continue
		}
		result.Related = append(result.Related, RelatedDiagram{
			Concept:        m.Keyword,
			FoundInDiagram: m.DiagramID,
			Category:       m.Category,
			Relation:       RelationAppearsIn,
			ThumbnailURL:   l.thumbnail(ctx, m.DiagramID),
		})
	}

	return result, nil
}

func (l *Linker) thumbnail(ctx context.Context, diagramID string) string {
	if l.links == nil {
		return ""
	}
	url, err := l.links.DownloadLink(ctx, diagramID)
	if err != nil {
		logger.Debug("[Linker] No thumbnail link", "diagram_id", diagramID, "err", err)
		return ""
	}
	return url
}
