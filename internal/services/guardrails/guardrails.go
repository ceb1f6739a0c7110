// Package guardrails enforces role-based dataset visibility and redacts
// personally identifiable information from user-facing text. Everything
// here is pure and safe for concurrent use.
package guardrails

import (
	"regexp"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// Role names the caller's authorisation level. Unknown roles are treated
// as anonymous.
type Role string

const (
	RoleAnonymous  Role = ""
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
)

var sensitivePattern = regexp.MustCompile(`(?i)\b(embargoed|sensitive|protected.species|restricted.area|classified|confidential)\b`)

type piiRule struct {
	pattern     *regexp.Regexp
	replacement string
}

var piiRules = []piiRule{
	{regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`), "[EMAIL REDACTED]"},
	{regexp.MustCompile(`(?:\+44|0044|0)(?:\s?\d){9,10}\b`), "[PHONE REDACTED]"},
	{regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}\b`), "[POSTCODE REDACTED]"},
}

// AllowedAccessLevels returns the access levels visible to a role.
// Anonymous and unknown roles see public only; access is cumulative.
func AllowedAccessLevels(role Role) map[models.AccessLevel]struct{} {
	switch role {
	case RoleAdmin:
		return map[models.AccessLevel]struct{}{
			models.AccessLevelPublic:     {},
			models.AccessLevelRestricted: {},
			models.AccessLevelAdminOnly:  {},
		}
	case RoleResearcher:
		return map[models.AccessLevel]struct{}{
			models.AccessLevelPublic:     {},
			models.AccessLevelRestricted: {},
		}
	default:
		return map[models.AccessLevel]struct{}{
			models.AccessLevelPublic: {},
		}
	}
}

// FilterDatasetsByAccess drops datasets the role may not see, preserving
// input order. A missing access level defaults to public.
func FilterDatasetsByAccess(datasets []*models.Dataset, role Role) []*models.Dataset {
	allowed := AllowedAccessLevels(role)
	filtered := make([]*models.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		level := ds.AccessLevel
		if level == "" {
			level = models.AccessLevelPublic
		}
		if _, ok := allowed[level]; ok {
			filtered = append(filtered, ds)
		}
	}
	return filtered
}

// FilterResultsByAccess applies the same policy to search results.
func FilterResultsByAccess(results []models.SearchResult, role Role) []models.SearchResult {
	allowed := AllowedAccessLevels(role)
	filtered := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		level := r.AccessLevel
		if level == "" {
			level = models.AccessLevelPublic
		}
		if _, ok := allowed[level]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// RedactPII replaces email addresses, UK phone numbers, and UK postcodes
// with placeholders.
func RedactPII(text string) string {
	for _, rule := range piiRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return text
}

// CheckQuerySensitivity reports whether a query touches sensitive topics.
func CheckQuerySensitivity(query string) bool {
	return sensitivePattern.MatchString(query)
}
