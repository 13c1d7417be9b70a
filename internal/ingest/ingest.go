// Package ingest loads an AI2D style dataset into the document and keyword
// stores: annotations/<id>.json files plus a categories.json mapping diagram
// ids to categories.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/graph"
	"github.com/OFFIS-RIT/diagramkg/pkg/loader"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	AnnotationsDir = "annotations"
	CategoriesFile = "categories.json"
)

// DocumentWriter stores raw documents.
type DocumentWriter interface {
	UpsertDocument(ctx context.Context, doc *common.Document) error
}

// KeywordWriter stores diagram metadata and the keyword index.
type KeywordWriter interface {
	UpsertDiagram(ctx context.Context, d common.Diagram) error
	ReplaceEntities(ctx context.Context, diagramID string, rows []common.KeywordRow) error
}

// Report summarises an ingestion run.
type Report struct {
	Ingested int64         `json:"ingested"`
	Failed   int64         `json:"failed"`
	Duration time.Duration `json:"duration"`
}

type Ingester struct {
	loader        loader.FileLoader
	documents     DocumentWriter
	keywords      KeywordWriter
	storagePrefix string
	parallel      int
	maxRetries    int
}

// NewIngesterParams configures an Ingester. StoragePrefix defaults to
// graph.DefaultStoragePrefix, Parallel to 4 and MaxRetries to 3.
type NewIngesterParams struct {
	Loader        loader.FileLoader
	Documents     DocumentWriter
	Keywords      KeywordWriter
	StoragePrefix string
	Parallel      int
	MaxRetries    int
}

func NewIngester(params NewIngesterParams) (*Ingester, error) {
	if params.Loader == nil {
		return nil, fmt.Errorf("file loader is required")
	}
	if params.Documents == nil || params.Keywords == nil {
		return nil, fmt.Errorf("document and keyword stores are required")
	}
	prefix := params.StoragePrefix
	if prefix == "" {
		prefix = graph.DefaultStoragePrefix
	}
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 4
	}
	retries := params.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Ingester{
		loader:        params.Loader,
		documents:     params.Documents,
		keywords:      params.Keywords,
		storagePrefix: prefix,
		parallel:      parallel,
		maxRetries:    retries,
	}, nil
}

// LoadCategories reads the categories file below root. A missing file is
// logged and yields an empty mapping.
func (i *Ingester) LoadCategories(ctx context.Context, root string) map[string]string {
	categories := map[string]string{}
	data, err := i.loader.ReadFile(ctx, i.loader.Join(root, CategoriesFile))
	if err != nil {
		logger.Warn("[Ingest] No categories file, diagrams will have no category", "root", root, "err", err)
		return categories
	}
	if err := json.Unmarshal(data, &categories); err != nil {
		logger.Warn("[Ingest] Failed to parse categories file", "root", root, "err", err)
		return map[string]string{}
	}
	return categories
}

// Run ingests every annotation below root. Files that fail are logged and
// counted; only a failure to list the annotations aborts the run.
func (i *Ingester) Run(ctx context.Context, root string) (Report, error) {
	start := time.Now()
	report := Report{}

	categories := i.LoadCategories(ctx, root)
	files, err := i.loader.ListFiles(ctx, i.loader.Join(root, AnnotationsDir))
	if err != nil {
		return report, fmt.Errorf("failed to list annotations: %w", err)
	}

	logger.Info("[Ingest] Starting ingestion", "root", root, "files", len(files), "categories", len(categories))

	mu := sync.Mutex{}
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(i.parallel)

	for _, path := range files {
		if !strings.HasSuffix(path, ".json") {
			continue
		}
		if gCtx.Err() != nil {
			break
		}

		file := loader.NewDatasetFile(path, i.loader)
		eg.Go(func() error {
			id := file.ID()
			err := i.IngestFile(gCtx, file, categories[id])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				logger.Error("[Ingest] Failed to ingest annotation", "file", file.Path, "err", err)
				return nil
			}
			report.Ingested++
			return nil
		})
	}
	_ = eg.Wait()

	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.Info("[Ingest] Ingestion completed", "ingested", report.Ingested, "failed", report.Failed, "duration", report.Duration)
	return report, nil
}

// IngestFile parses one annotation file and writes it to both stores.
func (i *Ingester) IngestFile(ctx context.Context, file loader.DatasetFile, category string) error {
	data, err := file.Read(ctx)
	if err != nil {
		return err
	}

	id := file.ID()
	doc, err := ParseAnnotation(id, category, data)
	if err != nil {
		return err
	}

	return i.Store(ctx, doc)
}

// Store upserts the document, its diagram row and its keyword rows.
func (i *Ingester) Store(ctx context.Context, doc *common.Document) error {
	diagram := common.Diagram{
		ID:          doc.ID,
		Category:    doc.Category,
		GroupType:   GroupForCategory(doc.Category),
		StoragePath: i.storagePrefix + doc.ID,
	}

	if err := util.RetryErrWithContext(ctx, i.maxRetries, func(ctx context.Context) error {
		return i.documents.UpsertDocument(ctx, doc)
	}); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}

	if err := util.RetryErrWithContext(ctx, i.maxRetries, func(ctx context.Context) error {
		return i.keywords.UpsertDiagram(ctx, diagram)
	}); err != nil {
		return fmt.Errorf("failed to store diagram %s: %w", doc.ID, err)
	}

	rows := KeywordRows(doc)
	if err := util.RetryErrWithContext(ctx, i.maxRetries, func(ctx context.Context) error {
		return i.keywords.ReplaceEntities(ctx, doc.ID, rows)
	}); err != nil {
		return fmt.Errorf("failed to store keywords of %s: %w", doc.ID, err)
	}

	logger.Debug("[Ingest] Stored diagram", "diagram_id", doc.ID, "category", doc.Category, "entities", len(rows))
	return nil
}
