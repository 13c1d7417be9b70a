package common

// Diagram is the relational metadata of one annotated diagram image.
// It is created by ingestion and is read-only for the graph and template
// projections.
type Diagram struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	GroupType   string `json:"group_type"`
	StoragePath string `json:"storage_path,omitempty"`
}

// BBox is an optional bounding box in the form [x, y, width, height].
type BBox []int

// Valid reports whether the box carries all four coordinates.
func (b BBox) Valid() bool {
	return len(b) == 4
}

// TextEntity is a text label annotated on a diagram. Its identifier is only
// unique within the owning diagram.
type TextEntity struct {
	ID        string `json:"id" bson:"id"`
	Value     string `json:"value,omitempty" bson:"value,omitempty"`
	UTF8Value string `json:"utf8_value,omitempty" bson:"utf8_value,omitempty"`
	BBox      BBox   `json:"bbox,omitempty" bson:"bbox,omitempty"`
}

// BlobEntity is a shape annotated on a diagram. Blobs carry no text of their
// own; they are named through attachment relationships.
type BlobEntity struct {
	ID   string `json:"id" bson:"id"`
	BBox BBox   `json:"bbox,omitempty" bson:"bbox,omitempty"`
}

// RelationCategory classifies a relationship between two annotations.
type RelationCategory string

const (
	// CategoryIntraObject marks an attachment: the target text labels the origin shape.
	CategoryIntraObject RelationCategory = "intraObject"
	// CategoryInterObject marks a connection between two shapes, e.g. an arrow.
	CategoryInterObject RelationCategory = "interObject"
)

const (
	// DefaultRelation is used when a connection carries no relation label.
	DefaultRelation = "related_to"
	// UnknownText is the placeholder content of text entities without content.
	UnknownText = "Unknown"
)

// Relationship links two annotations of the same diagram.
type Relationship struct {
	ID       string           `json:"id" bson:"id"`
	Category RelationCategory `json:"category" bson:"category"`
	Origin   string           `json:"origin" bson:"origin"`
	Target   string           `json:"target" bson:"target"`
	Relation string           `json:"relation,omitempty" bson:"relation,omitempty"`
}

// RelationType returns the relation label or DefaultRelation when unset.
func (r Relationship) RelationType() string {
	if r.Relation == "" {
		return DefaultRelation
	}
	return r.Relation
}

// Document is the raw annotation bundle of one diagram as kept in the
// document store. Entity maps keep the key order of the source document.
type Document struct {
	ID            string                `json:"id" bson:"_id"`
	Category      string                `json:"category,omitempty" bson:"category,omitempty"`
	Text          Entries[TextEntity]   `json:"text" bson:"text"`
	Blobs         Entries[BlobEntity]   `json:"blobs" bson:"blobs"`
	Relationships Entries[Relationship] `json:"relationships" bson:"relationships"`
}

// Connection is a resolved, graph-worthy link between two concepts.
type Connection struct {
	Origin   string `json:"origin"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Projection is the set of idempotent graph mutations derived from one
// diagram. Applying the same projection twice must leave the graph unchanged.
//
// Contains lists every concept the diagram node is linked to, including the
// endpoints of Connections.
type Projection struct {
	DiagramID   string       `json:"diagram_id"`
	StoragePath string       `json:"storage_path"`
	Contains    []string     `json:"contains"`
	Connections []Connection `json:"connections"`
	Fallback    bool         `json:"fallback"`
}

// Entity types stored in the keyword index.
const (
	EntityTypeText = "text"
	EntityTypeBlob = "blob"
)

// KeywordRow is one row of the keyword index. Content is nil for entities
// without text.
type KeywordRow struct {
	DiagramID string  `json:"diagram_id"`
	EntityID  string  `json:"entity_id"`
	Type      string  `json:"type"`
	Content   *string `json:"content"`
}

// KeywordMatch is a keyword index hit in another diagram.
type KeywordMatch struct {
	DiagramID string `json:"diagram_id"`
	Category  string `json:"category"`
	Keyword   string `json:"keyword"`
}

// Normalize fills missing entity and relationship identifiers from their
// map keys. Documents loaded from raw dataset files often omit them.
func (d *Document) Normalize() {
	for i := range d.Text {
		if d.Text[i].Value.ID == "" {
			d.Text[i].Value.ID = d.Text[i].Key
		}
	}
	for i := range d.Blobs {
		if d.Blobs[i].Value.ID == "" {
			d.Blobs[i].Value.ID = d.Blobs[i].Key
		}
	}
	for i := range d.Relationships {
		if d.Relationships[i].Value.ID == "" {
			d.Relationships[i].Value.ID = d.Relationships[i].Key
		}
	}
}
