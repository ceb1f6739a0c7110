package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

const sampleCatalogueJSON = `{
	"id": "12345678-1234-1234-1234-123456789abc",
	"title": "Land Cover Map 2021",
	"description": "UK land cover classification at 10m resolution.",
	"lineage": "Derived from Sentinel-2 imagery.",
	"keywordsTheme": [{"value": "land cover"}, {"value": "mapping"}],
	"keywordsPlace": ["United Kingdom", {"value": "land cover"}],
	"topicCategories": ["environment", "imageryBaseMapsEarthCover", "notARealTopic"],
	"boundingBoxes": [{
		"westBoundLongitude": -8.65,
		"eastBoundLongitude": "1.77",
		"southBoundLatitude": 49.86,
		"northBoundLatitude": 60.86
	}],
	"temporalExtents": [{"begin": "2021-01-01", "end": "2021-12-31T23:59:59Z"}],
	"responsibleParties": [
		{"givenName": "Ada", "familyName": "Lovelace", "role": "author",
		 "email": "ada@example.org", "nameIdentifier": "https://orcid.org/0000-0001-2345-6789"},
		{"organisationName": "UKCEH", "role": "publisher"},
		{"role": "pointOfContact"}
	],
	"onlineResources": [
		{"url": "https://example.org/data.zip", "name": "Download", "function": "download"},
		{"url": "https://example.org/info", "function": "information"},
		{"name": "no url, skipped"}
	],
	"relationships": [
		{"target": "parent-id", "relation": "https://vocabs/relation/memberOf"},
		{"target": "old-id", "relation": "https://vocabs/relation/supersedes"}
	],
	"infoLinks": [
		{"url": "https://example.org/docs/methodology.pdf", "name": "Methodology report"}
	]
}`

func TestCatalogueJSONParserParse(t *testing.T) {
	ds, err := NewCatalogueJSONParser().Parse([]byte(sampleCatalogueJSON))
	require.NoError(t, err)

	assert.Equal(t, "12345678-1234-1234-1234-123456789abc", ds.Identifier)
	assert.Equal(t, "Land Cover Map 2021", ds.Title)
	assert.Equal(t, "UK land cover classification at 10m resolution.", ds.Abstract)
	assert.Equal(t, "Derived from Sentinel-2 imagery.", ds.Lineage)
	assert.Equal(t, "catalogue_json", ds.SourceFormat)

	// Keyword groups are merged and deduplicated in order.
	assert.Equal(t, []string{"land cover", "mapping", "United Kingdom"}, ds.Keywords)

	// Unknown topic codes are dropped.
	assert.Equal(t, []models.TopicCategory{models.TopicEnvironment, models.TopicImageryBaseMaps}, ds.TopicCategories)

	require.NotNil(t, ds.BoundingBox)
	assert.InDelta(t, -8.65, ds.BoundingBox.West, 1e-9)
	assert.InDelta(t, 1.77, ds.BoundingBox.East, 1e-9)

	require.NotNil(t, ds.TemporalExtent)
	assert.Equal(t, "2021-01-01", ds.TemporalExtent.Start.Format("2006-01-02"))
	assert.Equal(t, "2021-12-31", ds.TemporalExtent.End.Format("2006-01-02"))

	// The nameless party is skipped.
	require.Len(t, ds.ResponsibleParties, 2)
	assert.Equal(t, "Ada Lovelace", ds.ResponsibleParties[0].Name)
	assert.Equal(t, models.RoleAuthor, ds.ResponsibleParties[0].Role)
	assert.Equal(t, "https://orcid.org/0000-0001-2345-6789", ds.ResponsibleParties[0].ORCID)
	assert.Equal(t, "UKCEH", ds.ResponsibleParties[1].Organisation)

	require.Len(t, ds.Distributions, 2)
	assert.Equal(t, models.AccessDownload, ds.Distributions[0].AccessType)
	assert.Equal(t, models.AccessFileAccess, ds.Distributions[1].AccessType)

	require.Len(t, ds.RelatedDocuments, 2)
	assert.Equal(t, models.RelationParent, ds.RelatedDocuments[0].RelationshipType)
	assert.Equal(t, models.RelationRevisionOf, ds.RelatedDocuments[1].RelationshipType)

	require.Len(t, ds.SupportingDocs, 1)
	assert.Equal(t, "methodology.pdf", ds.SupportingDocs[0].Filename)
	assert.Equal(t, "Methodology report", ds.SupportingDocs[0].Description)

	assert.Equal(t, models.AccessLevelPublic, ds.AccessLevel)
}

func TestCatalogueJSONParserRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "<xml/>"},
		{"missing id", `{"title": "Untitled"}`},
		{"missing title", `{"id": "abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalogueJSONParser().Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Equal(t, models.ErrKindParse, models.KindOf(err))
		})
	}
}

func TestCatalogueJSONParserMalformedBoundingBox(t *testing.T) {
	content := `{
		"id": "abc", "title": "Box test",
		"boundingBoxes": [{"westBoundLongitude": "not a number",
			"eastBoundLongitude": 1, "southBoundLatitude": 2, "northBoundLatitude": 3}]
	}`

	ds, err := NewCatalogueJSONParser().Parse([]byte(content))
	require.NoError(t, err)
	assert.Nil(t, ds.BoundingBox)
}

func TestRegistryDetectAndParse(t *testing.T) {
	registry := NewRegistry()

	t.Run("sniffs json", func(t *testing.T) {
		ds, err := registry.Parse([]byte(`  {"id": "abc", "title": "Sniffed"}`), "", "")
		require.NoError(t, err)
		assert.Equal(t, "Sniffed", ds.Title)
	})

	t.Run("content type routing", func(t *testing.T) {
		ds, err := registry.Parse([]byte(`{"id": "abc", "title": "Typed"}`), "", "application/json; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, "Typed", ds.Title)
	})

	t.Run("unparseable content", func(t *testing.T) {
		_, err := registry.Parse([]byte("plain text"), "", "")
		require.Error(t, err)
		assert.Equal(t, models.ErrKindParse, models.KindOf(err))
	})
}
