package graph

import (
	"testing"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textEntry(id, value string) common.Entry[common.TextEntity] {
	return common.Entry[common.TextEntity]{Key: id, Value: common.TextEntity{ID: id, Value: value}}
}

func blobEntry(id string) common.Entry[common.BlobEntity] {
	return common.Entry[common.BlobEntity]{Key: id, Value: common.BlobEntity{ID: id}}
}

func relEntry(id string, cat common.RelationCategory, origin, target, relation string) common.Entry[common.Relationship] {
	return common.Entry[common.Relationship]{Key: id, Value: common.Relationship{
		ID: id, Category: cat, Origin: origin, Target: target, Relation: relation,
	}}
}

func lifeCycleDoc() *common.Document {
	return &common.Document{
		ID: "D1",
		Text: common.Entries[common.TextEntity]{
			textEntry("T1", "Frog"),
			textEntry("T2", "Egg"),
		},
		Relationships: common.Entries[common.Relationship]{
			relEntry("R1", common.CategoryInterObject, "T1", "T2", "arrowHeadTail"),
		},
	}
}

func TestClassifyConnection(t *testing.T) {
	doc := lifeCycleDoc()
	got := Classify(doc.Relationships, resolve.Resolve(doc))

	require.Len(t, got, 1)
	assert.Equal(t, common.Connection{Origin: "Frog", Target: "Egg", Relation: "arrowHeadTail"}, got[0])
}

func TestClassifyFilters(t *testing.T) {
	doc := &common.Document{
		Text: common.Entries[common.TextEntity]{
			textEntry("T1", "Sun"),
			textEntry("T2", "Water"),
			textEntry("T3", "  "),
			textEntry("T4", "Sun"),
		},
		Blobs: common.Entries[common.BlobEntity]{blobEntry("B1"), blobEntry("B2")},
		Relationships: common.Entries[common.Relationship]{
			relEntry("R1", common.CategoryIntraObject, "B1", "T1", ""),
			relEntry("R2", common.CategoryInterObject, "B1", "T2", ""),
			relEntry("R3", common.CategoryInterObject, "T1", "T3", "arrow"),
			relEntry("R4", common.CategoryInterObject, "T1", "T4", "arrow"),
			relEntry("R5", common.CategoryInterObject, "B2", "T2", "arrow"),
			relEntry("R6", common.CategoryInterObject, "T1", "T2", ""),
			relEntry("R7", "arrowDescriptor", "T1", "T2", "arrow"),
			relEntry("R8", common.CategoryInterObject, "T1", "T404", "arrow"),
		},
	}

	got := Classify(doc.Relationships, resolve.Resolve(doc))

	// R2 and R6 collapse into one related_to connection. R3 has a blank end,
	// R4 is a self loop, R5 starts at an unlabeled blob, R7 is not a
	// connection and R8 points to an unknown id.
	assert.Equal(t, []common.Connection{
		{Origin: "Sun", Target: "Water", Relation: common.DefaultRelation},
	}, got)
}

func TestClassifyIsIdempotent(t *testing.T) {
	doc := lifeCycleDoc()
	res := resolve.Resolve(doc)

	first := Classify(doc.Relationships, res)
	second := Classify(doc.Relationships, res)
	assert.Equal(t, first, second)
}

func TestClassifyEmpty(t *testing.T) {
	got := Classify(nil, resolve.Resolve(nil))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
