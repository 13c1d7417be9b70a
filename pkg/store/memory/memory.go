// Package memory provides in-process implementations of the store
// interfaces, used for dry runs and tests.
package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
)

// Edge is a typed connection between two concepts.
type Edge struct {
	Origin   string
	Target   string
	Relation string
}

// GraphStore keeps diagram nodes, concept nodes and their edges in memory.
// Like the Neo4j store, every write is a merge on the natural key.
type GraphStore struct {
	mu          sync.RWMutex
	diagrams    map[string]string
	concepts    map[string]struct{}
	contains    map[string]map[string]struct{}
	connections map[Edge]struct{}
}

func NewGraphStore() *GraphStore {
	return &GraphStore{
		diagrams:    make(map[string]string),
		concepts:    make(map[string]struct{}),
		contains:    make(map[string]map[string]struct{}),
		connections: make(map[Edge]struct{}),
	}
}

func (g *GraphStore) ApplyProjection(ctx context.Context, p common.Projection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.diagrams[p.DiagramID] = p.StoragePath
	set, ok := g.contains[p.DiagramID]
	if !ok {
		set = make(map[string]struct{})
		g.contains[p.DiagramID] = set
	}
	for _, name := range p.Contains {
		g.concepts[name] = struct{}{}
		set[name] = struct{}{}
	}
	for _, c := range p.Connections {
		g.concepts[c.Origin] = struct{}{}
		g.concepts[c.Target] = struct{}{}
		set[c.Origin] = struct{}{}
		set[c.Target] = struct{}{}
		g.connections[Edge{Origin: c.Origin, Target: c.Target, Relation: c.Relation}] = struct{}{}
	}
	return nil
}

func (g *GraphStore) Ping(ctx context.Context) error  { return ctx.Err() }
func (g *GraphStore) Close(ctx context.Context) error { return nil }

// StoragePath returns the storage path of a diagram node.
func (g *GraphStore) StoragePath(diagramID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	path, ok := g.diagrams[diagramID]
	return path, ok
}

// Concepts returns all concept names, sorted.
func (g *GraphStore) Concepts() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.concepts))
	for name := range g.concepts {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Contains returns the concepts a diagram contains, sorted.
func (g *GraphStore) Contains(diagramID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.contains[diagramID]))
	for name := range g.contains[diagramID] {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Edges returns all concept connections ordered by origin, target and relation.
func (g *GraphStore) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.connections))
	for e := range g.connections {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edge) int {
		return cmp.Or(
			cmp.Compare(a.Origin, b.Origin),
			cmp.Compare(a.Target, b.Target),
			cmp.Compare(a.Relation, b.Relation),
		)
	})
	return out
}

// DocumentStore keeps documents in insertion order.
type DocumentStore struct {
	mu    sync.RWMutex
	docs  map[string]*common.Document
	order []string
}

func NewDocumentStore(docs ...*common.Document) *DocumentStore {
	s := &DocumentStore{docs: make(map[string]*common.Document)}
	for _, d := range docs {
		_ = s.UpsertDocument(context.Background(), d)
	}
	return s
}

func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*common.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (s *DocumentStore) DiagramIDs(ctx context.Context) iter.Seq2[string, error] {
	s.mu.RLock()
	ids := slices.Clone(s.order)
	s.mu.RUnlock()

	return func(yield func(string, error) bool) {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (s *DocumentStore) CountDocuments(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.order)), nil
}

func (s *DocumentStore) UpsertDocument(ctx context.Context, doc *common.Document) error {
	if doc == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *DocumentStore) Close(ctx context.Context) error { return nil }
