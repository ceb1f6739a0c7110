package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

func TestDetectQueryType(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected models.QueryType
	}{
		{"uuid", "7a8b9c0d-1234-5678-9abc-def012345678", models.QueryTypeExactID},
		{"uppercase uuid", "7A8B9C0D-1234-5678-9ABC-DEF012345678", models.QueryTypeExactID},
		{"uuid with extra text", "dataset 7a8b9c0d-1234-5678-9abc-def012345678", models.QueryTypeNormal},
		{"double quoted", `"River Water Quality"`, models.QueryTypeExactTitle},
		{"single quoted", "'River Water Quality'", models.QueryTypeExactTitle},
		{"one word", "soil", models.QueryTypeShort},
		{"two words", "soil carbon", models.QueryTypeShort},
		{"three words", "soil carbon stocks", models.QueryTypeNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectQueryType(tt.query))
		})
	}
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "River Water", stripQuotes(`"River Water"`))
	assert.Equal(t, "River Water", stripQuotes("'River Water'"))
	assert.Equal(t, "plain", stripQuotes("plain"))
}

func TestAnalyzeQueryIntent(t *testing.T) {
	analysis, _ := AnalyzeQuery("soil moisture 2020 england")
	assert.True(t, analysis.HasTemporalIntent)
	assert.True(t, analysis.HasSpatialIntent)

	analysis, _ = AnalyzeQuery("butterfly abundance")
	assert.False(t, analysis.HasTemporalIntent)
	assert.False(t, analysis.HasSpatialIntent)
}

func TestAnalyzeQueryExpansion(t *testing.T) {
	analysis, expanded := AnalyzeQuery("soil carbon stocks")
	assert.Equal(t, []string{
		"land", "sediment", "substrate", "earth",
		"co2", "greenhouse gas", "sequestration", "organic matter",
	}, analysis.ExpandedTerms)
	assert.Equal(t, "soil carbon stocks land sediment substrate earth co2 greenhouse gas sequestration organic matter", expanded)
}

func TestAnalyzeQuerySkipsPresentTerms(t *testing.T) {
	// "stream" is already in the query, so the river expansion omits it.
	analysis, _ := AnalyzeQuery("river stream data")
	assert.Equal(t, []string{"watercourse", "fluvial", "tributary"}, analysis.ExpandedTerms)
}

func TestAnalyzeQueryNoSynonyms(t *testing.T) {
	analysis, expanded := AnalyzeQuery("glider telemetry archive")
	assert.Empty(t, analysis.ExpandedTerms)
	assert.Equal(t, "glider telemetry archive", expanded)
}
