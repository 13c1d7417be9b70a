package neo4j

import (
	"context"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectionStatementsWithConnections(t *testing.T) {
	p := common.Projection{
		DiagramID:   "D1",
		StoragePath: "ai2d/raw/D1",
		Contains:    []string{"Frog", "Egg"},
		Connections: []common.Connection{{Origin: "Frog", Target: "Egg", Relation: "arrowHeadTail"}},
	}

	stmts := projectionStatements(p)
	require.Len(t, stmts, 3)

	assert.Equal(t, map[string]any{"diagram_id": "D1", "storage_path": "ai2d/raw/D1"}, stmts[0].params)
	assert.Equal(t, []any{"Frog", "Egg"}, stmts[1].params["contains"])
	assert.Equal(t, []any{
		map[string]any{"origin": "Frog", "target": "Egg", "relation": "arrowHeadTail"},
	}, stmts[2].params["connections"])

	for _, s := range stmts {
		assert.NotContains(t, s.query, "CREATE ", "projection writes must be merges")
		assert.True(t, strings.Contains(s.query, "MERGE"))
	}
}

func TestProjectionStatementsEmpty(t *testing.T) {
	stmts := projectionStatements(common.Projection{DiagramID: "D5", Fallback: true})
	require.Len(t, stmts, 1)
	assert.Equal(t, mergeDiagramQuery, stmts[0].query)
}

func TestNewGraphDBStorageRequiresURI(t *testing.T) {
	_, err := NewGraphDBStorage(context.Background(), NewGraphDBStorageParams{})
	assert.Error(t, err)
}
