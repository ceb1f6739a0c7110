package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

func TestAllowedAccessLevels(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected []models.AccessLevel
	}{
		{"anonymous", RoleAnonymous, []models.AccessLevel{models.AccessLevelPublic}},
		{"unknown role treated as anonymous", Role("intern"), []models.AccessLevel{models.AccessLevelPublic}},
		{"researcher", RoleResearcher, []models.AccessLevel{models.AccessLevelPublic, models.AccessLevelRestricted}},
		{"admin", RoleAdmin, []models.AccessLevel{models.AccessLevelPublic, models.AccessLevelRestricted, models.AccessLevelAdminOnly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := AllowedAccessLevels(tt.role)
			assert.Len(t, allowed, len(tt.expected))
			for _, level := range tt.expected {
				assert.Contains(t, allowed, level)
			}
		})
	}
}

func TestFilterDatasetsByAccess(t *testing.T) {
	datasets := []*models.Dataset{
		{Identifier: "pub", AccessLevel: models.AccessLevelPublic},
		{Identifier: "res", AccessLevel: models.AccessLevelRestricted},
		{Identifier: "adm", AccessLevel: models.AccessLevelAdminOnly},
		{Identifier: "blank"}, // missing level defaults to public
	}

	anon := FilterDatasetsByAccess(datasets, RoleAnonymous)
	require.Len(t, anon, 2)
	assert.Equal(t, "pub", anon[0].Identifier)
	assert.Equal(t, "blank", anon[1].Identifier)

	researcher := FilterDatasetsByAccess(datasets, RoleResearcher)
	require.Len(t, researcher, 3)
	assert.Equal(t, "pub", researcher[0].Identifier)
	assert.Equal(t, "res", researcher[1].Identifier)
	assert.Equal(t, "blank", researcher[2].Identifier)

	admin := FilterDatasetsByAccess(datasets, RoleAdmin)
	assert.Len(t, admin, 4)
}

func TestFilterResultsByAccess(t *testing.T) {
	results := []models.SearchResult{
		{Identifier: "adm", AccessLevel: models.AccessLevelAdminOnly},
		{Identifier: "res", AccessLevel: models.AccessLevelRestricted},
		{Identifier: "pub", AccessLevel: models.AccessLevelPublic},
	}

	filtered := FilterResultsByAccess(results, RoleResearcher)
	require.Len(t, filtered, 2)
	// Order is preserved, not re-ranked.
	assert.Equal(t, "res", filtered[0].Identifier)
	assert.Equal(t, "pub", filtered[1].Identifier)
}

func TestRedactPII(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"email",
			"Contact jane.doe+data@example.ac.uk for access.",
			"Contact [EMAIL REDACTED] for access.",
		},
		{
			"uk phone",
			"Call 01491 692562 during office hours.",
			"Call [PHONE REDACTED] during office hours.",
		},
		{
			"international phone",
			"Call +44 1491 692562 during office hours.",
			"Call [PHONE REDACTED] during office hours.",
		},
		{
			"postcode",
			"The site office is at OX10 8BB near Wallingford.",
			"The site office is at [POSTCODE REDACTED] near Wallingford.",
		},
		{
			"multiple kinds",
			"Email admin@ceh.ac.uk or visit BA1 2CD.",
			"Email [EMAIL REDACTED] or visit [POSTCODE REDACTED].",
		},
		{
			"clean text untouched",
			"Long-term monitoring of upland streams.",
			"Long-term monitoring of upland streams.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedactPII(tt.input))
		})
	}
}

func TestCheckQuerySensitivity(t *testing.T) {
	assert.True(t, CheckQuerySensitivity("embargoed nest site locations"))
	assert.True(t, CheckQuerySensitivity("Protected species sightings map"))
	assert.True(t, CheckQuerySensitivity("data marked CONFIDENTIAL"))
	assert.False(t, CheckQuerySensitivity("river flow gauging stations"))
}
