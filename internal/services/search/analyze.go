package search

import (
	"regexp"
	"strings"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// uuidPattern matches the 8-4-4-4-12 hex identifier shape used by the
// catalogue.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

var (
	temporalPattern = regexp.MustCompile(`(?i)\b(\d{4}|\d{4}s|recent|historic|long.term|decad|annual|monthly|seasonal)`)
	spatialPattern  = regexp.MustCompile(`(?i)\b(uk|england|scotland|wales|ireland|north|south|east|west|coastal|upland|lowland|catchment|watershed|national park)\b`)
)

// synonyms is the static domain expansion map for environmental queries.
var synonyms = map[string][]string{
	"soil":        {"land", "sediment", "substrate", "earth"},
	"water":       {"aquatic", "hydrological", "hydrology", "aquifer"},
	"river":       {"stream", "watercourse", "fluvial", "tributary"},
	"rain":        {"rainfall", "precipitation", "downfall"},
	"climate":     {"weather", "meteorological", "atmospheric"},
	"species":     {"taxa", "biodiversity", "organism", "fauna", "flora"},
	"carbon":      {"co2", "greenhouse gas", "sequestration", "organic matter"},
	"pollution":   {"contamination", "contaminant", "pollutant"},
	"flood":       {"inundation", "floodplain", "flooding"},
	"habitat":     {"ecosystem", "biotope", "environment"},
	"temperature": {"thermal", "heat", "warming"},
	"nitrogen":    {"nitrate", "nitrite", "nutrient"},
	"phosphorus":  {"phosphate", "nutrient"},
	"woodland":    {"forest", "tree", "canopy"},
	"peat":        {"peatland", "bog", "mire", "fen"},
}

// DetectQueryType classifies a query for routing: UUID shape, quoted
// title, short (at most two tokens), or normal.
func DetectQueryType(query string) models.QueryType {
	if uuidPattern.MatchString(query) {
		return models.QueryTypeExactID
	}
	if isQuoted(query) {
		return models.QueryTypeExactTitle
	}
	if len(strings.Fields(query)) <= 2 {
		return models.QueryTypeShort
	}
	return models.QueryTypeNormal
}

func isQuoted(query string) bool {
	if len(query) < 2 {
		return false
	}
	first, last := query[0], query[len(query)-1]
	return (first == '"' && last == '"') || (first == '\'' && last == '\'')
}

func stripQuotes(query string) string {
	return strings.Trim(query, `"'`)
}

// AnalyzeQuery detects temporal and spatial intent and expands the query
// with domain synonyms, skipping tokens already present.
func AnalyzeQuery(query string) (models.QueryAnalysis, string) {
	analysis := models.QueryAnalysis{
		HasTemporalIntent: temporalPattern.MatchString(query),
		HasSpatialIntent:  spatialPattern.MatchString(query),
	}

	words := strings.Fields(strings.ToLower(query))
	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[w] = struct{}{}
	}

	var added []string
	for _, w := range words {
		for _, syn := range synonyms[w] {
			if _, ok := present[syn]; ok {
				continue
			}
			present[syn] = struct{}{}
			added = append(added, syn)
		}
	}

	expanded := query
	if len(added) > 0 {
		expanded = query + " " + strings.Join(added, " ")
	}
	analysis.ExpandedTerms = added
	return analysis, expanded
}
