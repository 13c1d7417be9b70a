package linker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeywords struct {
	keywords     map[string][]string
	matches      []common.KeywordMatch
	keywordCalls int
	lastLimit    int
	err          error
}

func (f *fakeKeywords) GetDiagram(ctx context.Context, id string) (common.Diagram, error) {
	return common.Diagram{ID: id}, nil
}

func (f *fakeKeywords) SearchDiagrams(ctx context.Context, query string, limit int) ([]common.Diagram, error) {
	return nil, nil
}

func (f *fakeKeywords) DiagramKeywords(ctx context.Context, diagramID string) ([]string, error) {
	f.keywordCalls++
	return f.keywords[diagramID], f.err
}

func (f *fakeKeywords) FindKeywordMatches(ctx context.Context, keywords []string, excludeID string, limit int) ([]common.KeywordMatch, error) {
	f.lastLimit = limit
	return f.matches, nil
}

func (f *fakeKeywords) UpsertDiagram(ctx context.Context, diagram common.Diagram) error { return nil }
func (f *fakeKeywords) ReplaceEntities(ctx context.Context, diagramID string, rows []common.KeywordRow) error {
	return nil
}
func (f *fakeKeywords) Ping(ctx context.Context) error { return nil }

type fakeLinks struct {
	fail map[string]bool
}

func (f fakeLinks) DownloadLink(ctx context.Context, id string) (string, error) {
	if f.fail[id] {
		return "", errors.New("presign failed")
	}
	return "https://cdn.example/ai2d/raw/" + id, nil
}

type mapCache struct {
	data map[string]Result
	sets int
}

func (m *mapCache) Get(ctx context.Context, id string) (Result, bool, error) {
	r, ok := m.data[id]
	return r, ok, nil
}

func (m *mapCache) Set(ctx context.Context, id string, r Result) error {
	m.sets++
	m.data[id] = r
	return nil
}

func TestRelated(t *testing.T) {
	ks := &fakeKeywords{
		keywords: map[string][]string{"D1": {"Frog", "Egg", "Frog"}},
		matches: []common.KeywordMatch{
			{DiagramID: "D7", Category: "lifeCycles", Keyword: "Frog"},
			{DiagramID: "D9", Category: "foodChainsWebs", Keyword: "Egg"},
		},
	}
	l := New(ks, fakeLinks{fail: map[string]bool{"D9": true}}, nil)

	keywords, related, err := l.Related(context.Background(), "D1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Frog", "Egg"}, keywords)
	assert.Equal(t, MaxRelated, ks.lastLimit)
	assert.Equal(t, []RelatedDiagram{
		{Concept: "Frog", FoundInDiagram: "D7", Category: "lifeCycles", Relation: "appears_in", ThumbnailURL: "https://cdn.example/ai2d/raw/D7"},
		{Concept: "Egg", FoundInDiagram: "D9", Category: "foodChainsWebs", Relation: "appears_in", ThumbnailURL: ""},
	}, related)
}

func TestRelatedCapsAndExcludesSelf(t *testing.T) {
	ks := &fakeKeywords{keywords: map[string][]string{"D1": {"Sun"}}}
	ks.matches = append(ks.matches, common.KeywordMatch{DiagramID: "D1", Keyword: "Sun"})
	for i := range 15 {
		ks.matches = append(ks.matches, common.KeywordMatch{DiagramID: fmt.Sprintf("X%d", i), Keyword: "Sun"})
	}
	l := New(ks, nil, nil)

	_, related, err := l.Related(context.Background(), "D1")
	require.NoError(t, err)
	require.Len(t, related, MaxRelated)
	for i, r := range related {
		assert.NotEqual(t, "D1", r.FoundInDiagram)
		assert.Equal(t, fmt.Sprintf("X%d", i), r.FoundInDiagram)
	}
}

func TestRelatedWithoutKeywords(t *testing.T) {
	ks := &fakeKeywords{matches: []common.KeywordMatch{{DiagramID: "D2", Keyword: "Sun"}}}
	l := New(ks, nil, nil)

	keywords, related, err := l.Related(context.Background(), "D1")
	require.NoError(t, err)
	assert.Empty(t, keywords)
	assert.Empty(t, related)
	assert.NotNil(t, keywords)
	assert.NotNil(t, related)
}

func TestRelatedStoreError(t *testing.T) {
	ks := &fakeKeywords{err: errors.New("connection refused")}
	_, _, err := New(ks, nil, nil).Related(context.Background(), "D1")
	assert.Error(t, err)
}

func TestRelatedUsesCache(t *testing.T) {
	ks := &fakeKeywords{
		keywords: map[string][]string{"D1": {"Frog"}},
		matches:  []common.KeywordMatch{{DiagramID: "D7", Keyword: "Frog"}},
	}
	c := &mapCache{data: map[string]Result{}}
	l := New(ks, nil, c)
	ctx := context.Background()

	first, _, err := l.Related(ctx, "D1")
	require.NoError(t, err)
	second, related, err := l.Related(ctx, "D1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, related, 1)
	assert.Equal(t, 1, ks.keywordCalls)
	assert.Equal(t, 1, c.sets)
}
