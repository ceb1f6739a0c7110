package models

import (
	"fmt"
	"strings"
	"time"
)

// AccessLevel controls dataset visibility by user role.
type AccessLevel string

const (
	AccessLevelPublic     AccessLevel = "public"
	AccessLevelRestricted AccessLevel = "restricted"
	AccessLevelAdminOnly  AccessLevel = "admin_only"
)

// AccessLevelFromString coerces an arbitrary string to an AccessLevel.
// Unknown or empty values default to public.
func AccessLevelFromString(s string) AccessLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "restricted":
		return AccessLevelRestricted
	case "admin_only", "adminonly", "admin-only":
		return AccessLevelAdminOnly
	default:
		return AccessLevelPublic
	}
}

// PartyRole is a responsible-party role code from ISO 19115 CI_RoleCode.
type PartyRole string

const (
	RoleResourceProvider       PartyRole = "resourceProvider"
	RoleCustodian              PartyRole = "custodian"
	RoleOwner                  PartyRole = "owner"
	RoleUser                   PartyRole = "user"
	RoleDistributor            PartyRole = "distributor"
	RoleOriginator             PartyRole = "originator"
	RolePointOfContact         PartyRole = "pointOfContact"
	RolePrincipalInvestigator  PartyRole = "principalInvestigator"
	RoleProcessor              PartyRole = "processor"
	RolePublisher              PartyRole = "publisher"
	RoleAuthor                 PartyRole = "author"
	RoleSponsor                PartyRole = "sponsor"
	RoleCoAuthor               PartyRole = "coAuthor"
	RoleCollaborator           PartyRole = "collaborator"
	RoleEditor                 PartyRole = "editor"
	RoleMediator               PartyRole = "mediator"
	RoleRightsHolder           PartyRole = "rightsHolder"
	RoleContributor            PartyRole = "contributor"
	RoleFunder                 PartyRole = "funder"
	RoleStakeholder            PartyRole = "stakeholder"
	RoleOther                  PartyRole = "other"
)

var partyRoles = []PartyRole{
	RoleResourceProvider, RoleCustodian, RoleOwner, RoleUser, RoleDistributor,
	RoleOriginator, RolePointOfContact, RolePrincipalInvestigator, RoleProcessor,
	RolePublisher, RoleAuthor, RoleSponsor, RoleCoAuthor, RoleCollaborator,
	RoleEditor, RoleMediator, RoleRightsHolder, RoleContributor, RoleFunder,
	RoleStakeholder,
}

// PartyRoleFromString parses a role code, falling back to RoleOther for
// unknown values. Matching is exact first, then case/separator insensitive.
func PartyRoleFromString(s string) PartyRole {
	if s == "" {
		return RoleOther
	}
	for _, r := range partyRoles {
		if string(r) == s {
			return r
		}
	}
	folded := foldCode(s)
	for _, r := range partyRoles {
		if foldCode(string(r)) == folded {
			return r
		}
	}
	return RoleOther
}

// AccessType describes how a distribution can be accessed.
type AccessType string

const (
	AccessDownload   AccessType = "download"
	AccessFileAccess AccessType = "fileAccess"
	AccessOrder      AccessType = "order"
	AccessOffline    AccessType = "offline"
	AccessOther      AccessType = "other"
)

var accessTypes = []AccessType{AccessDownload, AccessFileAccess, AccessOrder, AccessOffline}

// AccessTypeFromString parses an access type, falling back to AccessOther.
func AccessTypeFromString(s string) AccessType {
	if s == "" {
		return AccessOther
	}
	for _, a := range accessTypes {
		if string(a) == s {
			return a
		}
	}
	folded := foldCode(s)
	for _, a := range accessTypes {
		if foldCode(string(a)) == folded {
			return a
		}
	}
	return AccessOther
}

// RelationshipType is a document relationship from ISO 19115
// DS_AssociationTypeCode.
type RelationshipType string

const (
	RelationParent                 RelationshipType = "parent"
	RelationChild                  RelationshipType = "child"
	RelationSibling                RelationshipType = "sibling"
	RelationCrossReference         RelationshipType = "crossReference"
	RelationSource                 RelationshipType = "source"
	RelationSeries                 RelationshipType = "series"
	RelationDependency             RelationshipType = "dependency"
	RelationRevisionOf             RelationshipType = "revisionOf"
	RelationPartOfSeamlessDatabase RelationshipType = "partOfSeamlessDatabase"
	RelationStereoMate             RelationshipType = "stereoMate"
	RelationIsComposedOf           RelationshipType = "isComposedOf"
	RelationCollectiveTitle        RelationshipType = "collectiveTitle"
	RelationLargerWorkCitation     RelationshipType = "largerWorkCitation"
	RelationOther                  RelationshipType = "other"
)

var relationshipTypes = []RelationshipType{
	RelationParent, RelationChild, RelationSibling, RelationCrossReference,
	RelationSource, RelationSeries, RelationDependency, RelationRevisionOf,
	RelationPartOfSeamlessDatabase, RelationStereoMate, RelationIsComposedOf,
	RelationCollectiveTitle, RelationLargerWorkCitation,
}

// RelationshipTypeFromString parses a relationship code, falling back to
// RelationOther.
func RelationshipTypeFromString(s string) RelationshipType {
	if s == "" {
		return RelationOther
	}
	for _, r := range relationshipTypes {
		if string(r) == s {
			return r
		}
	}
	folded := foldCode(s)
	for _, r := range relationshipTypes {
		if foldCode(string(r)) == folded {
			return r
		}
	}
	return RelationOther
}

// TopicCategory is an ISO 19115 MD_TopicCategoryCode value.
type TopicCategory string

const (
	TopicFarming                 TopicCategory = "farming"
	TopicBiota                   TopicCategory = "biota"
	TopicBoundaries              TopicCategory = "boundaries"
	TopicClimatology             TopicCategory = "climatologyMeteorologyAtmosphere"
	TopicEconomy                 TopicCategory = "economy"
	TopicElevation               TopicCategory = "elevation"
	TopicEnvironment             TopicCategory = "environment"
	TopicGeoscientific           TopicCategory = "geoscientificInformation"
	TopicHealth                  TopicCategory = "health"
	TopicImageryBaseMaps         TopicCategory = "imageryBaseMapsEarthCover"
	TopicIntelligenceMilitary    TopicCategory = "intelligenceMilitary"
	TopicInlandWaters            TopicCategory = "inlandWaters"
	TopicLocation                TopicCategory = "location"
	TopicOceans                  TopicCategory = "oceans"
	TopicPlanningCadastre        TopicCategory = "planningCadastre"
	TopicSociety                 TopicCategory = "society"
	TopicStructure               TopicCategory = "structure"
	TopicTransportation          TopicCategory = "transportation"
	TopicUtilitiesCommunication  TopicCategory = "utilitiesCommunication"
	TopicExtraTerrestrial        TopicCategory = "extraTerrestrial"
	TopicDisaster                TopicCategory = "disaster"
)

var topicCategories = []TopicCategory{
	TopicFarming, TopicBiota, TopicBoundaries, TopicClimatology, TopicEconomy,
	TopicElevation, TopicEnvironment, TopicGeoscientific, TopicHealth,
	TopicImageryBaseMaps, TopicIntelligenceMilitary, TopicInlandWaters,
	TopicLocation, TopicOceans, TopicPlanningCadastre, TopicSociety,
	TopicStructure, TopicTransportation, TopicUtilitiesCommunication,
	TopicExtraTerrestrial, TopicDisaster,
}

// TopicCategoryFromString parses a topic category. Unknown codes return
// ok=false so callers can drop them silently.
func TopicCategoryFromString(s string) (TopicCategory, bool) {
	for _, t := range topicCategories {
		if string(t) == s {
			return t, true
		}
	}
	folded := foldCode(s)
	for _, t := range topicCategories {
		if foldCode(string(t)) == folded {
			return t, true
		}
	}
	return "", false
}

// foldCode normalises enumeration codes for lenient matching.
func foldCode(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// BoundingBox is a geographic extent in WGS84. East < west is legal and
// indicates an antimeridian crossing.
type BoundingBox struct {
	West  float64 `json:"west"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
	North float64 `json:"north"`
}

// Validate checks coordinate ranges and the north/south ordering.
func (b *BoundingBox) Validate() error {
	if b.West < -180 || b.West > 180 {
		return NewValidationError(fmt.Sprintf("west %g out of range [-180, 180]", b.West))
	}
	if b.East < -180 || b.East > 180 {
		return NewValidationError(fmt.Sprintf("east %g out of range [-180, 180]", b.East))
	}
	if b.South < -90 || b.South > 90 {
		return NewValidationError(fmt.Sprintf("south %g out of range [-90, 90]", b.South))
	}
	if b.North < -90 || b.North > 90 {
		return NewValidationError(fmt.Sprintf("north %g out of range [-90, 90]", b.North))
	}
	if b.North < b.South {
		return NewValidationError(fmt.Sprintf("north %g must be >= south %g", b.North, b.South))
	}
	return nil
}

// Center returns the midpoint (longitude, latitude), handling antimeridian
// crossing.
func (b *BoundingBox) Center() (float64, float64) {
	var lon float64
	if b.East < b.West {
		lon = (b.West + b.East + 360) / 2
		for lon > 180 {
			lon -= 360
		}
	} else {
		lon = (b.West + b.East) / 2
	}
	return lon, (b.South + b.North) / 2
}

// TemporalExtent is the time period covered by a dataset. Either end may be
// nil for open-ended ranges.
type TemporalExtent struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Validate checks that End is not before Start when both are present.
func (t *TemporalExtent) Validate() error {
	if t.Start != nil && t.End != nil && t.End.Before(*t.Start) {
		return NewValidationError(fmt.Sprintf("temporal extent end %s before start %s",
			t.End.Format("2006-01-02"), t.Start.Format("2006-01-02")))
	}
	return nil
}

// IsOngoing reports whether the dataset is still being collected.
func (t *TemporalExtent) IsOngoing() bool {
	return t.Start != nil && t.End == nil
}

// ResponsibleParty is a person or organisation with a role in relation to
// the dataset (ISO 19115 CI_Responsibility).
type ResponsibleParty struct {
	Name         string    `json:"name,omitempty"`
	Organisation string    `json:"organisation,omitempty"`
	Role         PartyRole `json:"role"`
	Email        string    `json:"email,omitempty"`
	ORCID        string    `json:"orcid,omitempty"`
}

// Validate requires at least one of name or organisation.
func (p *ResponsibleParty) Validate() error {
	if p.Name == "" && p.Organisation == "" {
		return NewValidationError("responsible party requires a name or organisation")
	}
	return nil
}

// DisplayName returns a human-readable label for the party.
func (p *ResponsibleParty) DisplayName() string {
	switch {
	case p.Name != "" && p.Organisation != "":
		return fmt.Sprintf("%s (%s)", p.Name, p.Organisation)
	case p.Name != "":
		return p.Name
	case p.Organisation != "":
		return p.Organisation
	default:
		return "Unknown"
	}
}

// Distribution describes one way of accessing the dataset's data.
type Distribution struct {
	URL         string     `json:"url"`
	Name        string     `json:"name,omitempty"`
	Format      string     `json:"format,omitempty"`
	AccessType  AccessType `json:"access_type"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	Description string     `json:"description,omitempty"`
}

// RelatedDocument references another dataset or document.
type RelatedDocument struct {
	Identifier       string           `json:"identifier"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Title            string           `json:"title,omitempty"`
	URL              string           `json:"url,omitempty"`
}

// SupportingDocument is associated documentation such as a methodology
// report or data dictionary.
type SupportingDocument struct {
	Filename      string `json:"filename"`
	URL           string `json:"url,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
	Description   string `json:"description,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
}

// Dataset is the canonical metadata record all parsers produce, regardless
// of source format. Identifier is the primary key across every store.
type Dataset struct {
	Identifier string `json:"identifier" badgerhold:"key"`
	Title      string `json:"title"`
	Abstract   string `json:"abstract,omitempty"`
	Lineage    string `json:"lineage,omitempty"`

	Keywords        []string        `json:"keywords,omitempty"`
	TopicCategories []TopicCategory `json:"topic_categories,omitempty"`

	BoundingBox    *BoundingBox    `json:"bounding_box,omitempty"`
	TemporalExtent *TemporalExtent `json:"temporal_extent,omitempty"`

	ResponsibleParties []ResponsibleParty   `json:"responsible_parties,omitempty"`
	Distributions      []Distribution       `json:"distributions,omitempty"`
	RelatedDocuments   []RelatedDocument    `json:"related_documents,omitempty"`
	SupportingDocs     []SupportingDocument `json:"supporting_documents,omitempty"`

	AccessLevel AccessLevel `json:"access_level"`

	// Provenance. RawDocument is never persisted to the main store.
	SourceFormat string `json:"source_format,omitempty"`
	RawDocument  string `json:"-"`

	// Embedding is a derived projection of the embed text; it may be absent
	// or stale without affecting domain identity.
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate enforces the domain invariants from the canonical model.
func (d *Dataset) Validate() error {
	if d.Identifier == "" {
		return NewValidationError("identifier is required")
	}
	if d.Title == "" {
		return NewValidationError("title is required")
	}
	if d.BoundingBox != nil {
		if err := d.BoundingBox.Validate(); err != nil {
			return err
		}
	}
	if d.TemporalExtent != nil {
		if err := d.TemporalExtent.Validate(); err != nil {
			return err
		}
	}
	for i := range d.ResponsibleParties {
		if err := d.ResponsibleParties[i].Validate(); err != nil {
			return err
		}
	}
	for _, dist := range d.Distributions {
		if dist.URL == "" {
			return NewValidationError("distribution URL is required")
		}
		if dist.SizeBytes < 0 {
			return NewValidationError("distribution size must be >= 0")
		}
	}
	return nil
}

// Normalize cleans the record in place: keywords are deduplicated
// case-sensitively with insertion order preserved, empty strings dropped,
// and the access level defaulted.
func (d *Dataset) Normalize() {
	d.Keywords = CleanKeywords(d.Keywords)
	if d.AccessLevel == "" {
		d.AccessLevel = AccessLevelPublic
	}
}

// EmbedText returns the text projected into the embedding space.
func (d *Dataset) EmbedText() string {
	return d.Title + "\n\n" + d.Abstract
}

// SearchText combines title, abstract, and keywords for indexing.
func (d *Dataset) SearchText() string {
	parts := []string{d.Title}
	if d.Abstract != "" {
		parts = append(parts, d.Abstract)
	}
	if len(d.Keywords) > 0 {
		parts = append(parts, strings.Join(d.Keywords, " "))
	}
	return strings.Join(parts, " ")
}

// Publisher returns the first publisher party, or nil.
func (d *Dataset) Publisher() *ResponsibleParty {
	for i := range d.ResponsibleParties {
		if d.ResponsibleParties[i].Role == RolePublisher {
			return &d.ResponsibleParties[i]
		}
	}
	return nil
}

// CleanKeywords removes empty strings and duplicates while preserving
// insertion order.
func CleanKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keywords))
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		cleaned = append(cleaned, kw)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// ParseFlexibleDate accepts the date layouts the catalogue emits:
// YYYY-MM-DD, YYYY/MM/DD, bare YYYY, or the leading date of an ISO
// timestamp.
func ParseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}
