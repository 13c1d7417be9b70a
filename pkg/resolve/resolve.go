// Package resolve maps the raw annotation identifiers of a diagram to the
// text they stand for.
//
// Text entities resolve to their own content. Shapes resolve to the text that
// labels them through an intraObject attachment. Resolution is a single hop:
// a shape only ever inherits the direct content of the text it is attached
// to, never content that text itself inherited.
package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
)

// Resolution is the per-diagram mapping from annotation identifier to
// canonical text, plus the text→blob attachment map used to borrow geometry.
type Resolution struct {
	names    map[string]string
	unknown  map[string]bool
	textBlob map[string]string
	order    []string
}

// TextContent returns the content of a text entity. The primary value wins
// over the encoded value; ok is false when both are blank.
func TextContent(t common.TextEntity) (content string, ok bool) {
	if v := strings.TrimSpace(t.Value); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(t.UTF8Value); v != "" {
		return v, true
	}
	return common.UnknownText, false
}

// Resolve builds the Resolution of a document. A nil document or one without
// text entities yields an empty Resolution.
func Resolve(doc *common.Document) Resolution {
	r := Resolution{
		names:    make(map[string]string),
		unknown:  make(map[string]bool),
		textBlob: make(map[string]string),
	}
	if doc == nil {
		return r
	}

	for _, entry := range doc.Text {
		if _, seen := r.names[entry.Key]; seen {
			continue
		}
		content, ok := TextContent(entry.Value)
		r.set(entry.Key, content, !ok)
	}

	// Attachments copy from the seeded text content only. Since text ids are
	// never overwritten, nothing inherited can be inherited again.
	blobs := doc.Blobs.Index()
	for _, entry := range doc.Relationships {
		rel := entry.Value
		if rel.Category != common.CategoryIntraObject {
			continue
		}
		if rel.Origin == "" || rel.Target == "" {
			continue
		}
		textEnt, isText := doc.Text.Get(rel.Target)
		if !isText {
			continue
		}

		if _, isBlob := blobs[rel.Origin]; isBlob {
			if _, taken := r.textBlob[rel.Target]; !taken {
				r.textBlob[rel.Target] = rel.Origin
			}
		}

		if _, taken := r.names[rel.Origin]; taken {
			continue
		}
		content, ok := TextContent(textEnt)
		r.set(rel.Origin, content, !ok)
	}

	return r
}

func (r *Resolution) set(id, content string, unknown bool) {
	r.names[id] = content
	if unknown {
		r.unknown[id] = true
	}
	r.order = append(r.order, id)
}

// Len returns the number of resolved identifiers.
func (r Resolution) Len() int {
	return len(r.names)
}

// Name returns the resolved text of id, including the "Unknown" placeholder
// for text entities without content.
func (r Resolution) Name(id string) (string, bool) {
	name, ok := r.names[id]
	return name, ok
}

// Known returns the resolved text of id only when it is real, non-empty
// content and not the placeholder.
func (r Resolution) Known(id string) (string, bool) {
	name, ok := r.names[id]
	if !ok || r.unknown[id] || name == "" {
		return "", false
	}
	return name, true
}

// BlobFor returns the blob a text entity is attached to, if any.
func (r Resolution) BlobFor(textID string) (string, bool) {
	blob, ok := r.textBlob[textID]
	return blob, ok
}

// IDs returns the resolved identifiers in resolution order.
func (r Resolution) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Concepts returns the distinct known texts in resolution order. Texts with
// fewer than minRunes characters are skipped.
func (r Resolution) Concepts(minRunes int) []string {
	seen := make(map[string]struct{}, len(r.order))
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		name, ok := r.Known(id)
		if !ok {
			continue
		}
		if utf8.RuneCountInString(name) < minRunes {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
