package ingest

import "github.com/OFFIS-RIT/diagramkg/pkg/template"

// Group types of the AI2D categories.
const (
	GroupStructure      = template.GroupStructure
	GroupCycle          = "Cycle"
	GroupProcess        = "Process"
	GroupClassification = "Classification"
)

var categoryGroups = map[string]string{
	"partsOfA":                  GroupStructure,
	"partsOfTheEarth":           GroupStructure,
	"atomStructure":             GroupStructure,
	"volcano":                   GroupStructure,
	"rockStrata":                GroupStructure,
	"solarSystem":               GroupStructure,
	"circuits":                  GroupStructure,
	"lifeCycles":                GroupCycle,
	"rockCycle":                 GroupCycle,
	"waterCNPCycle":             GroupCycle,
	"moonPhaseEquinox":          GroupCycle,
	"foodChainsWebs":            GroupProcess,
	"photosynthesisRespiration": GroupProcess,
	"lightEclipse":              GroupProcess,
	"faultsEarthquakes":         GroupProcess,
	"typesOf":                   GroupClassification,
}

// GroupForCategory returns the group type of a category, or "" when the
// category is unknown.
func GroupForCategory(category string) string {
	return categoryGroups[category]
}
