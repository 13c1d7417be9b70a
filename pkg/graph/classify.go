package graph

import (
	"strings"

	"github.com/OFFIS-RIT/diagramkg/pkg/common"
	"github.com/OFFIS-RIT/diagramkg/pkg/resolve"
)

type connectionKey struct {
	origin, target, relation string
}

// Classify turns the interObject relationships of a diagram into connections
// between named concepts. Relationships whose endpoints do not both resolve to
// real text are dropped, as are self loops. The result keeps document order and
// contains each (origin, target, relation) triple once.
func Classify(rels common.Entries[common.Relationship], res resolve.Resolution) []common.Connection {
	seen := make(map[connectionKey]struct{})
	out := make([]common.Connection, 0)

	for _, entry := range rels {
		rel := entry.Value
		if rel.Category != common.CategoryInterObject {
			continue
		}

		origin, ok := res.Known(rel.Origin)
		if !ok {
			continue
		}
		target, ok := res.Known(rel.Target)
		if !ok {
			continue
		}
		origin = strings.TrimSpace(origin)
		target = strings.TrimSpace(target)
		if origin == "" || target == "" || origin == target {
			continue
		}

		conn := common.Connection{
			Origin:   origin,
			Target:   target,
			Relation: rel.RelationType(),
		}
		key := connectionKey{conn.Origin, conn.Target, conn.Relation}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, conn)
	}

	return out
}
