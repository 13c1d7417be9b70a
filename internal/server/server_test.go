package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mid "github.com/OFFIS-RIT/diagramkg/internal/server/middleware"
	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/linker"
	"github.com/OFFIS-RIT/diagramkg/pkg/store"
	"github.com/OFFIS-RIT/diagramkg/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeywords struct {
	diagrams map[string]common.Diagram
	search   []common.Diagram
	query    string
	err      error
}

func (f *fakeKeywords) GetDiagram(_ context.Context, id string) (common.Diagram, error) {
	if f.err != nil {
		return common.Diagram{}, f.err
	}
	d, ok := f.diagrams[id]
	if !ok {
		return common.Diagram{}, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeKeywords) SearchDiagrams(_ context.Context, query string, _ int) ([]common.Diagram, error) {
	f.query = query
	return f.search, f.err
}

func (f *fakeKeywords) DiagramKeywords(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeKeywords) FindKeywordMatches(context.Context, []string, string, int) ([]common.KeywordMatch, error) {
	return nil, nil
}
func (f *fakeKeywords) UpsertDiagram(context.Context, common.Diagram) error { return nil }
func (f *fakeKeywords) ReplaceEntities(context.Context, string, []common.KeywordRow) error {
	return nil
}
func (f *fakeKeywords) Ping(context.Context) error { return f.err }

type fakeLinks struct {
	err error
}

func (f fakeLinks) DownloadLink(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://r2.example.com/ai2d/raw/" + id + "?sig=1", nil
}

type fakeRelated struct {
	related []linker.RelatedDiagram
	err     error
}

func (f fakeRelated) Related(context.Context, string) ([]string, []linker.RelatedDiagram, error) {
	return nil, f.related, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func partsDoc() *common.Document {
	doc := &common.Document{ID: "12.png", Category: "partsOfA"}
	doc.Text.Set("T1", common.TextEntity{ID: "T1", Value: "Leaf"})
	doc.Text.Set("T2", common.TextEntity{ID: "T2", Value: "Stem"})
	doc.Blobs.Set("B1", common.BlobEntity{ID: "B1", BBox: common.BBox{1, 2, 3, 4}})
	doc.Relationships.Set("R1", common.Relationship{ID: "R1", Category: common.CategoryIntraObject, Origin: "B1", Target: "T1"})
	return doc
}

func newTestApp() *mid.App {
	return &mid.App{
		Documents: memory.NewDocumentStore(partsDoc()),
		Keywords: &fakeKeywords{diagrams: map[string]common.Diagram{
			"12.png":   {ID: "12.png", Category: "partsOfA", GroupType: "Structure"},
			"4859.png": {ID: "4859.png", Category: "lifeCycles"},
		}},
		Graph: memory.NewGraphStore(),
		Links: fakeLinks{},
		Related: fakeRelated{related: []linker.RelatedDiagram{{
			Concept:        "Leaf",
			FoundInDiagram: "77.png",
			Category:       "partsOfA",
			Relation:       linker.RelationAppearsIn,
		}}},
	}
}

func do(t *testing.T, app *mid.App, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := New(app)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestApp(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "alive", body["mongo"])
	assert.Equal(t, "alive", body["postgres"])
	assert.Equal(t, "alive", body["neo4j"])
}

func TestHealthDegraded(t *testing.T) {
	app := newTestApp()
	app.Graph = failingPinger{}

	rec, body := do(t, app, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["neo4j"])
}

func TestSearch(t *testing.T) {
	app := newTestApp()
	kw := app.Keywords.(*fakeKeywords)
	kw.search = []common.Diagram{{ID: "4859.png", Category: "lifeCycles", StoragePath: "ai2d/raw/4859.png"}}

	rec, _ := do(t, app, "/api/v1/search?q=frog")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frog", kw.query)

	var results []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "4859.png", results[0]["diagram_id"])
	assert.Equal(t, "https://r2.example.com/ai2d/raw/4859.png?sig=1", results[0]["storage_path"])
}

func TestSearchKeepsStoredPathWhenSigningFails(t *testing.T) {
	app := newTestApp()
	app.Links = fakeLinks{err: errors.New("no credentials")}
	app.Keywords.(*fakeKeywords).search = []common.Diagram{{ID: "D1", StoragePath: "ai2d/raw/D1"}}

	rec, _ := do(t, app, "/api/v1/search?q=D1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage_path":"ai2d/raw/D1"`)
}

func TestSearchRejectsShortQuery(t *testing.T) {
	rec, _ := do(t, newTestApp(), "/api/v1/search?q=f")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, newTestApp(), "/api/v1/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEmpty(t *testing.T) {
	rec, _ := do(t, newTestApp(), "/api/v1/search?q=nothing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetDiagram(t *testing.T) {
	rec, body := do(t, newTestApp(), "/api/v1/diagrams/12.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12.png", body["diagram_id"])
	raw := body["raw_data"].(map[string]any)
	assert.Equal(t, "partsOfA", raw["category"])

	rec, _ = do(t, newTestApp(), "/api/v1/diagrams/missing.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDiagramImage(t *testing.T) {
	rec, _ := do(t, newTestApp(), "/api/v1/diagrams/12.png/image")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://r2.example.com/ai2d/raw/12.png?sig=1", rec.Header().Get("Location"))

	app := newTestApp()
	app.Links = fakeLinks{err: errors.New("no credentials")}
	rec, _ = do(t, app, "/api/v1/diagrams/12.png/image")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrichStructure(t *testing.T) {
	rec, body := do(t, newTestApp(), "/api/v1/enrich/12.png")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "12.png", body["diagram_id"])
	assert.Equal(t, "Diagram about partsOfA", body["title"])
	assert.Equal(t, "Structure", body["group_type"])
	assert.Equal(t, "structure_view", body["template_type"])

	data := body["data"].(map[string]any)
	parts := data["parts"].([]any)
	require.Len(t, parts, 2)
	leaf := parts[0].(map[string]any)
	assert.Equal(t, "Leaf", leaf["name"])
	assert.Equal(t, []any{float64(1), float64(2), float64(3), float64(4)}, leaf["bbox"])

	related := body["related_knowledge"].([]any)
	require.Len(t, related, 1)
	assert.Equal(t, "77.png", related[0].(map[string]any)["found_in_diagram"])
}

func TestEnrichMissingDocumentAndGroup(t *testing.T) {
	app := newTestApp()
	app.Related = fakeRelated{err: errors.New("postgres down")}

	rec, body := do(t, app, "/api/v1/enrich/4859.png")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Unknown", body["group_type"])
	assert.Equal(t, "process_view", body["template_type"])
	data := body["data"].(map[string]any)
	assert.Empty(t, data["stages"])
	assert.Equal(t, []any{}, body["related_knowledge"])
}

func TestEnrichTemplateOverride(t *testing.T) {
	rec, body := do(t, newTestApp(), "/api/v1/enrich/12.png?template=process_view")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "process_view", body["template_type"])

	rec, body = do(t, newTestApp(), "/api/v1/enrich/12.png?template=mindmap")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unknown", body["template_type"])
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["fallback"])
	assert.NotNil(t, data["raw"])
}

func TestEnrichNotFound(t *testing.T) {
	rec, _ := do(t, newTestApp(), "/api/v1/enrich/nope.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
