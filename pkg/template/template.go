// Package template projects a diagram document into one of a closed set of
// view models.
package template

import (
	"fmt"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/resolve"
)

// Kind selects the view a document is projected into.
type Kind int

const (
	KindUnknown Kind = iota
	KindStructure
	KindProcess
)

const (
	structureName = "structure_view"
	processName   = "process_view"

	// EndStep marks a stage without an outgoing connection.
	EndStep = "End"

	// GroupStructure is the group type that selects the structure view.
	GroupStructure = "Structure"
)

// ParseKind maps a selector string to a Kind. Unrecognised selectors yield
// KindUnknown.
func ParseKind(s string) Kind {
	switch s {
	case structureName:
		return KindStructure
	case processName:
		return KindProcess
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindStructure:
		return structureName
	case KindProcess:
		return processName
	default:
		return "unknown"
	}
}

// KindForGroup chooses the default view for a diagram group type.
func KindForGroup(groupType string) Kind {
	if groupType == GroupStructure {
		return KindStructure
	}
	return KindProcess
}

// View is the result of a projection. Exactly one concrete type per Kind.
type View interface {
	Kind() Kind
}

type Part struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	BBox        common.BBox `json:"bbox"`
}

type StructureView struct {
	Summary string `json:"summary"`
	Parts   []Part `json:"parts"`
}

func (StructureView) Kind() Kind { return KindStructure }

type Stage struct {
	Step        int    `json:"step"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NextStep    string `json:"next_step"`
}

type ProcessView struct {
	Summary string  `json:"summary"`
	Stages  []Stage `json:"stages"`
}

func (ProcessView) Kind() Kind { return KindProcess }

// RawView passes the document through unchanged.
type RawView struct {
	Fallback bool             `json:"fallback"`
	Raw      *common.Document `json:"raw"`
}

func (RawView) Kind() Kind { return KindUnknown }

// Project builds the view of kind for a document. A nil document yields an
// empty view of the requested kind.
func Project(kind Kind, diagram common.Diagram, doc *common.Document) View {
	switch kind {
	case KindStructure:
		return projectStructure(diagram, doc)
	case KindProcess:
		return projectProcess(doc)
	default:
		return RawView{Fallback: true, Raw: doc}
	}
}

func projectStructure(diagram common.Diagram, doc *common.Document) StructureView {
	view := StructureView{Parts: []Part{}}
	if doc == nil {
		view.Summary = summarizeParts(0)
		return view
	}

	res := resolve.Resolve(doc)
	blobs := doc.Blobs.Index()

	for _, entry := range doc.Text {
		name, _ := res.Name(entry.Key)
		part := Part{
			ID:          entry.Key,
			Name:        name,
			Description: fmt.Sprintf("Part %q of a %s diagram", name, categoryOf(diagram, doc)),
			BBox:        entry.Value.BBox,
		}
		if blobID, ok := res.BlobFor(entry.Key); ok {
			if blob, ok := blobs[blobID]; ok && blob.BBox.Valid() {
				part.BBox = blob.BBox
			}
		}
		if part.BBox == nil {
			part.BBox = common.BBox{}
		}
		view.Parts = append(view.Parts, part)
	}

	view.Summary = summarizeParts(len(view.Parts))
	return view
}

func summarizeParts(n int) string {
	if n == 1 {
		return "The structure consists of 1 part."
	}
	return fmt.Sprintf("The structure consists of %d parts.", n)
}

// projectProcess lists stages in text encounter order. This is not the order
// of the connection chain.
func projectProcess(doc *common.Document) ProcessView {
	view := ProcessView{Stages: []Stage{}}
	if doc == nil {
		view.Summary = summarizeStages(0)
		return view
	}

	res := resolve.Resolve(doc)

	next := make(map[string]string)
	for _, entry := range doc.Relationships {
		rel := entry.Value
		if rel.Category != common.CategoryInterObject {
			continue
		}
		origin, ok := res.Known(rel.Origin)
		if !ok {
			continue
		}
		target, ok := res.Known(rel.Target)
		if !ok || target == origin {
			continue
		}
		if _, taken := next[origin]; !taken {
			next[origin] = target
		}
	}

	for _, entry := range doc.Text {
		name, ok := res.Known(entry.Key)
		if !ok {
			continue
		}
		step := len(view.Stages) + 1
		nextStep, ok := next[name]
		if !ok {
			nextStep = EndStep
		}
		view.Stages = append(view.Stages, Stage{
			Step:        step,
			Name:        name,
			Description: fmt.Sprintf("Step %d: %s", step, name),
			NextStep:    nextStep,
		})
	}

	view.Summary = summarizeStages(len(view.Stages))
	return view
}

func summarizeStages(n int) string {
	if n == 1 {
		return "The process has 1 stage."
	}
	return fmt.Sprintf("The process has %d stages.", n)
}

func categoryOf(diagram common.Diagram, doc *common.Document) string {
	if diagram.Category != "" {
		return diagram.Category
	}
	if doc != nil && doc.Category != "" {
		return doc.Category
	}
	return common.UnknownText
}
