// Package neo4j implements store.GraphStore on Neo4j.
//
// The graph has two node labels, Diagram keyed by id and Concept keyed by
// name, a CONTAINS relationship from diagrams to concepts and a typed
// CONNECTED_TO relationship between concepts. Every write is a MERGE on those
// keys so applying a projection twice changes nothing.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const mergeDiagramQuery = `
MERGE (d:Diagram {id: $diagram_id})
SET d.storage_path = $storage_path
`

const mergeContainsQuery = `
MATCH (d:Diagram {id: $diagram_id})
UNWIND $contains AS name
MERGE (c:Concept {name: name})
MERGE (d)-[:CONTAINS]->(c)
`

const mergeConnectionsQuery = `
UNWIND $connections AS conn
MERGE (c1:Concept {name: conn.origin})
MERGE (c2:Concept {name: conn.target})
MERGE (c1)-[:CONNECTED_TO {type: conn.relation}]->(c2)
`

var schemaQueries = []string{
	`CREATE CONSTRAINT diagram_id_unique IF NOT EXISTS FOR (d:Diagram) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT concept_name_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.name IS UNIQUE`,
}

type GraphDBStorage struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewGraphDBStorageParams configures the Neo4j connection. User defaults to
// "neo4j".
type NewGraphDBStorageParams struct {
	URI            string
	User           string
	Password       string
	Database       string
	MaxPoolSize    int
	ConnectTimeout time.Duration
}

// NewGraphDBStorage creates the driver and verifies connectivity.
func NewGraphDBStorage(ctx context.Context, params NewGraphDBStorageParams) (*GraphDBStorage, error) {
	if params.URI == "" {
		return nil, fmt.Errorf("missing neo4j uri")
	}
	user := params.User
	if user == "" {
		user = "neo4j"
	}
	timeout := params.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	auth := neo4j.BasicAuth(user, params.Password, "")
	driver, err := neo4j.NewDriverWithContext(params.URI, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
		cfg.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	return &GraphDBStorage{driver: driver, database: params.Database}, nil
}

// EnsureSchema creates the uniqueness constraints backing the merge keys.
// Failures are logged and ignored since restricted users may not create
// constraints.
func (s *GraphDBStorage) EnsureSchema(ctx context.Context) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	for _, q := range schemaQueries {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			logger.Warn("[Neo4j] Schema init failed (continuing)", "err", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

// ApplyProjection writes one projection in a single transaction.
func (s *GraphDBStorage) ApplyProjection(ctx context.Context, p common.Projection) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range projectionStatements(p) {
			res, err := tx.Run(ctx, stmt.query, stmt.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply projection of %s: %w", p.DiagramID, err)
	}
	return nil
}

func (s *GraphDBStorage) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *GraphDBStorage) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type statement struct {
	query  string
	params map[string]any
}

// projectionStatements translates a projection into Cypher statements. Empty
// parts of the projection produce no statement.
func projectionStatements(p common.Projection) []statement {
	out := []statement{{
		query: mergeDiagramQuery,
		params: map[string]any{
			"diagram_id":   p.DiagramID,
			"storage_path": p.StoragePath,
		},
	}}

	if len(p.Contains) > 0 {
		names := make([]any, 0, len(p.Contains))
		for _, n := range p.Contains {
			names = append(names, n)
		}
		out = append(out, statement{
			query: mergeContainsQuery,
			params: map[string]any{
				"diagram_id": p.DiagramID,
				"contains":   names,
			},
		})
	}

	if len(p.Connections) > 0 {
		conns := make([]any, 0, len(p.Connections))
		for _, c := range p.Connections {
			conns = append(conns, map[string]any{
				"origin":   c.Origin,
				"target":   c.Target,
				"relation": c.Relation,
			})
		}
		out = append(out, statement{
			query:  mergeConnectionsQuery,
			params: map[string]any{"connections": conns},
		})
	}

	return out
}
