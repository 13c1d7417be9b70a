// Package bootstrap opens the stores and clients shared by the server, the
// worker and the CLI from environment configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/diagramkg/internal/corpus"
	"github.com/OFFIS-RIT/diagramkg/internal/storage"
	"github.com/OFFIS-RIT/diagramkg/internal/util"
	"github.com/OFFIS-RIT/diagramkg/pkg/cache"
	"github.com/OFFIS-RIT/diagramkg/pkg/graph"
	"github.com/OFFIS-RIT/diagramkg/pkg/leaselock"
	"github.com/OFFIS-RIT/diagramkg/pkg/linker"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger/console"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
	mongostore "github.com/OFFIS-RIT/diagramkg/pkg/store/mongo"
	neo4jstore "github.com/OFFIS-RIT/diagramkg/pkg/store/neo4j"
	pgxstore "github.com/OFFIS-RIT/diagramkg/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

// InitLogger installs the console logger for component, at debug level when
// DEBUG=true and in the LOG_FORMAT format.
func InitLogger(component string) {
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:     util.GetEnvBool("DEBUG", false),
		Component: component,
		Format:    util.GetEnvString("LOG_FORMAT", "text"),
	}))
}

// OpenPostgres connects the pool behind the keyword store and the lease lock.
func OpenPostgres(ctx context.Context) (*pgxpool.Pool, *pgxstore.KeywordDBStorage, error) {
	url, err := util.RequireEnv("DATABASE_URL")
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	keywords, err := pgxstore.NewKeywordDBStorageWithConnection(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, keywords, nil
}

func OpenDocuments(ctx context.Context) (*mongostore.DocumentDBStorage, error) {
	return mongostore.NewDocumentDBStorage(ctx, mongostore.NewDocumentDBStorageParams{
		URL:      util.GetEnvString("MONGO_URL", "mongodb://localhost:27017"),
		Database: util.GetEnvString("MONGO_DB_NAME", "ai2d"),
	})
}

func OpenGraph(ctx context.Context) (*neo4jstore.GraphDBStorage, error) {
	g, err := neo4jstore.NewGraphDBStorage(ctx, neo4jstore.NewGraphDBStorageParams{
		URI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		User:     util.GetEnv("NEO4J_USER"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
	if err != nil {
		return nil, err
	}
	g.EnsureSchema(ctx)
	return g, nil
}

// OpenLinks creates the image link presigner.
func OpenLinks(ctx context.Context) (*storage.Presigner, error) {
	cfg := storage.ConfigFromEnv()
	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewPresigner(storage.NewPresignerParams{
		Client:    client,
		Config:    cfg,
		KeyPrefix: util.GetEnvString("STORAGE_KEY_PREFIX", storage.DefaultKeyPrefix),
		Expiry:    util.GetEnvSeconds("LINK_EXPIRY_SECONDS", storage.DefaultLinkExpiry),
	})
}

// OpenRelatedCache connects the related-diagram cache. Without REDIS_ADDR it
// returns a nil cache and the linker runs uncached.
func OpenRelatedCache(ctx context.Context) (linker.Cache, *goredis.Client, error) {
	addr := util.GetEnv("REDIS_ADDR")
	if addr == "" {
		logger.Info("[Bootstrap] REDIS_ADDR not set, related diagrams are not cached")
		return nil, nil, nil
	}
	rdb, err := cache.NewRedisClient(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	ttl := util.GetEnvSeconds("RELATED_CACHE_TTL_SECONDS", 10*time.Minute)
	return cache.NewJSON[linker.Result](rdb, "related:", ttl), rdb, nil
}

func NewProjector(docs store.DocumentStore, g store.GraphStore) (*graph.Projector, error) {
	return graph.NewProjector(graph.NewProjectorParams{
		Documents:     docs,
		Graph:         g,
		StoragePrefix: util.GetEnvString("STORAGE_KEY_PREFIX", graph.DefaultStoragePrefix),
	})
}

// NewCorpusRunner builds the lease guarded full synchronisation.
func NewCorpusRunner(pool *pgxpool.Pool, docs store.DocumentStore, projector graph.DiagramProjector) (*corpus.Runner, error) {
	syncer, err := graph.NewSynchronizer(graph.NewSynchronizerParams{
		Projector:     projector,
		Parallel:      util.GetEnvInt("SYNC_PARALLEL", 4),
		ProgressEvery: util.GetEnvInt("SYNC_PROGRESS_EVERY", 100),
	})
	if err != nil {
		return nil, err
	}

	var locker corpus.Locker
	if pool != nil {
		locker = leaselock.New(pool)
	}
	return corpus.NewRunner(corpus.NewRunnerParams{
		Lister:       docs,
		Synchronizer: syncer,
		Locker:       locker,
	})
}
