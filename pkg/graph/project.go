package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/resolve"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
)

// minFallbackRunes is the minimum length of a text promoted to a concept when
// a diagram has no connections. Single characters are usually label noise.
const minFallbackRunes = 2

// DefaultStoragePrefix is prepended to the diagram id to build the storage
// path attribute of diagram nodes.
const DefaultStoragePrefix = "ai2d/raw/"

// Project plans the graph mutations for one diagram. With at least one
// connection the diagram contains exactly the connection endpoints; without
// connections it contains every distinct known text of more than one
// character.
func Project(diagramID, storagePath string, res resolve.Resolution, connections []common.Connection) common.Projection {
	p := common.Projection{
		DiagramID:   diagramID,
		StoragePath: storagePath,
		Contains:    []string{},
		Connections: []common.Connection{},
	}

	if len(connections) == 0 {
		p.Fallback = true
		p.Contains = append(p.Contains, res.Concepts(minFallbackRunes)...)
		return p
	}

	seen := make(map[string]struct{}, len(connections)*2)
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		p.Contains = append(p.Contains, name)
	}
	for _, c := range connections {
		add(c.Origin)
		add(c.Target)
	}
	p.Connections = append(p.Connections, connections...)

	return p
}

// Projector loads diagram documents and applies their projection to a graph
// store.
//
// A Projector should be created using NewProjector.
type Projector struct {
	docs          store.DocumentStore
	graph         store.GraphStore
	storagePrefix string
	maxRetries    int
}

// NewProjectorParams defines the configuration of a Projector.
//
// StoragePrefix defaults to DefaultStoragePrefix. MaxRetries bounds the
// attempts per store call and defaults to 3.
type NewProjectorParams struct {
	Documents     store.DocumentStore
	Graph         store.GraphStore
	StoragePrefix string
	MaxRetries    int
}

// NewProjector creates a Projector from params.
func NewProjector(params NewProjectorParams) (*Projector, error) {
	if params.Documents == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if params.Graph == nil {
		return nil, fmt.Errorf("graph store is required")
	}

	prefix := params.StoragePrefix
	if prefix == "" {
		prefix = DefaultStoragePrefix
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Projector{
		docs:          params.Documents,
		graph:         params.Graph,
		storagePrefix: prefix,
		maxRetries:    maxRetries,
	}, nil
}

// StoragePath returns the storage path attribute for a diagram id.
func (p *Projector) StoragePath(diagramID string) string {
	return p.storagePrefix + diagramID
}

// Plan loads a diagram document and computes its projection without applying
// it. Missing documents yield store.ErrNotFound.
func (p *Projector) Plan(ctx context.Context, diagramID string) (common.Projection, error) {
	doc, err := util.RetryWithContext(ctx, p.maxRetries, func(ctx context.Context) (*common.Document, error) {
		doc, err := p.docs.GetDocument(ctx, diagramID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, util.Permanent(err)
		}
		if err == nil && doc == nil {
			return nil, util.Permanent(store.ErrNotFound)
		}
		return doc, err
	})
	if err != nil {
		return common.Projection{}, fmt.Errorf("failed to load document %s: %w", diagramID, err)
	}

	res := resolve.Resolve(doc)
	connections := Classify(doc.Relationships, res)
	return Project(diagramID, p.StoragePath(diagramID), res, connections), nil
}

// ProjectDiagram plans and applies the projection of one diagram.
func (p *Projector) ProjectDiagram(ctx context.Context, diagramID string) (common.Projection, error) {
	projection, err := p.Plan(ctx, diagramID)
	if err != nil {
		return common.Projection{}, err
	}

	err = util.RetryErrWithContext(ctx, p.maxRetries, func(ctx context.Context) error {
		return p.graph.ApplyProjection(ctx, projection)
	})
	if err != nil {
		return common.Projection{}, fmt.Errorf("failed to apply projection of %s: %w", diagramID, err)
	}

	return projection, nil
}
