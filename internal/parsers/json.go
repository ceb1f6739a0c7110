package parsers

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// Catalogue JSON groups keywords into several sibling arrays; they are
// merged into one deduplicated list.
var jsonKeywordFields = []string{
	"keywordsOther",
	"keywordsPlace",
	"keywordsProject",
	"keywordsTheme",
	"keywordsInstrument",
}

// CatalogueJSONParser maps the catalogue's flat JSON document shape to the
// canonical Dataset.
type CatalogueJSONParser struct{}

// NewCatalogueJSONParser creates the catalogue JSON parser.
func NewCatalogueJSONParser() *CatalogueJSONParser {
	return &CatalogueJSONParser{}
}

func (p *CatalogueJSONParser) FormatName() string {
	return "catalogue_json"
}

func (p *CatalogueJSONParser) SupportedContentTypes() []string {
	return []string{"application/json", "json"}
}

func (p *CatalogueJSONParser) CanParse(contentType string) bool {
	return contentTypeSupported(p.SupportedContentTypes(), contentType)
}

// Parse builds a Dataset from a catalogue JSON document. Identifier and
// title are required; everything else degrades to absent fields.
func (p *CatalogueJSONParser) Parse(content []byte) (*models.Dataset, error) {
	if !gjson.ValidBytes(content) {
		return nil, models.NewParseError("invalid JSON document", nil)
	}
	doc := gjson.ParseBytes(content)

	identifier := doc.Get("id").String()
	if identifier == "" {
		return nil, models.NewParseError("missing required field: id", nil)
	}
	title := doc.Get("title").String()
	if title == "" {
		return nil, models.NewParseError("missing required field: title", nil)
	}

	ds := &models.Dataset{
		Identifier:         identifier,
		Title:              title,
		Abstract:           doc.Get("description").String(),
		Lineage:            doc.Get("lineage").String(),
		Keywords:           p.parseKeywords(doc),
		TopicCategories:    p.parseTopicCategories(doc),
		BoundingBox:        p.parseBoundingBox(doc),
		TemporalExtent:     p.parseTemporalExtent(doc),
		ResponsibleParties: p.parseResponsibleParties(doc),
		Distributions:      p.parseDistributions(doc),
		RelatedDocuments:   p.parseRelationships(doc),
		SupportingDocs:     p.parseSupportingDocuments(doc),
		SourceFormat:       p.FormatName(),
		RawDocument:        string(content),
	}
	ds.Normalize()

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (p *CatalogueJSONParser) parseKeywords(doc gjson.Result) []string {
	var keywords []string
	for _, field := range jsonKeywordFields {
		doc.Get(field).ForEach(func(_, kw gjson.Result) bool {
			switch {
			case kw.IsObject():
				if v := kw.Get("value").String(); v != "" {
					keywords = append(keywords, v)
				}
			case kw.Type == gjson.String:
				keywords = append(keywords, kw.String())
			}
			return true
		})
	}
	return keywords
}

func (p *CatalogueJSONParser) parseTopicCategories(doc gjson.Result) []models.TopicCategory {
	var categories []models.TopicCategory
	doc.Get("topicCategories").ForEach(func(_, tc gjson.Result) bool {
		value := tc.String()
		if tc.IsObject() {
			value = tc.Get("value").String()
		}
		if value == "" {
			return true
		}
		// Unknown codes are dropped, not coerced.
		if cat, ok := models.TopicCategoryFromString(value); ok {
			categories = append(categories, cat)
		}
		return true
	})
	return categories
}

// parseBoundingBox uses the first entry of boundingBoxes. Malformed
// coordinates yield an absent box rather than an error.
func (p *CatalogueJSONParser) parseBoundingBox(doc gjson.Result) *models.BoundingBox {
	boxes := doc.Get("boundingBoxes").Array()
	if len(boxes) == 0 {
		return nil
	}
	box := boxes[0]

	west, ok1 := jsonFloat(box.Get("westBoundLongitude"))
	east, ok2 := jsonFloat(box.Get("eastBoundLongitude"))
	south, ok3 := jsonFloat(box.Get("southBoundLatitude"))
	north, ok4 := jsonFloat(box.Get("northBoundLatitude"))
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	return &models.BoundingBox{West: west, East: east, South: south, North: north}
}

func jsonFloat(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (p *CatalogueJSONParser) parseTemporalExtent(doc gjson.Result) *models.TemporalExtent {
	extents := doc.Get("temporalExtents").Array()
	if len(extents) == 0 {
		return nil
	}
	extent := extents[0]

	var te models.TemporalExtent
	if t, err := models.ParseFlexibleDate(extent.Get("begin").String()); err == nil {
		te.Start = &t
	}
	if t, err := models.ParseFlexibleDate(extent.Get("end").String()); err == nil {
		te.End = &t
	}
	if te.Start == nil && te.End == nil {
		return nil
	}
	return &te
}

func (p *CatalogueJSONParser) parseResponsibleParties(doc gjson.Result) []models.ResponsibleParty {
	var parties []models.ResponsibleParty
	doc.Get("responsibleParties").ForEach(func(_, party gjson.Result) bool {
		var nameParts []string
		if given := party.Get("givenName").String(); given != "" {
			nameParts = append(nameParts, given)
		}
		if family := party.Get("familyName").String(); family != "" {
			nameParts = append(nameParts, family)
		}
		name := strings.Join(nameParts, " ")
		organisation := party.Get("organisationName").String()

		// Parties without any identity are skipped.
		if name == "" && organisation == "" {
			return true
		}

		var orcid string
		if nameID := party.Get("nameIdentifier").String(); strings.Contains(nameID, "orcid.org") {
			orcid = nameID
		}

		parties = append(parties, models.ResponsibleParty{
			Name:         name,
			Organisation: organisation,
			Role:         models.PartyRoleFromString(party.Get("role").String()),
			Email:        party.Get("email").String(),
			ORCID:        orcid,
		})
		return true
	})
	return parties
}

func (p *CatalogueJSONParser) parseDistributions(doc gjson.Result) []models.Distribution {
	var distributions []models.Distribution
	doc.Get("onlineResources").ForEach(func(_, resource gjson.Result) bool {
		url := resource.Get("url").String()
		if url == "" {
			return true
		}

		var accessType models.AccessType
		switch strings.ToLower(resource.Get("function").String()) {
		case "download":
			accessType = models.AccessDownload
		case "fileaccess", "information":
			accessType = models.AccessFileAccess
		case "order":
			accessType = models.AccessOrder
		default:
			accessType = models.AccessOther
		}

		distributions = append(distributions, models.Distribution{
			URL:         url,
			Name:        resource.Get("name").String(),
			Description: resource.Get("description").String(),
			AccessType:  accessType,
		})
		return true
	})
	return distributions
}

func (p *CatalogueJSONParser) parseRelationships(doc gjson.Result) []models.RelatedDocument {
	var related []models.RelatedDocument
	doc.Get("relationships").ForEach(func(_, rel gjson.Result) bool {
		target := rel.Get("target").String()
		if target == "" {
			return true
		}
		related = append(related, models.RelatedDocument{
			Identifier:       target,
			RelationshipType: mapRelationURI(rel.Get("relation").String()),
			URL:              rel.Get("url").String(),
		})
		return true
	})
	return related
}

// mapRelationURI maps the catalogue's relation URIs onto the association
// type enumeration.
func mapRelationURI(relationURI string) models.RelationshipType {
	uri := strings.ToLower(relationURI)
	switch {
	case strings.Contains(uri, "memberof"), strings.Contains(uri, "parent"):
		return models.RelationParent
	case strings.Contains(uri, "child"):
		return models.RelationChild
	case strings.Contains(uri, "supersedes"), strings.Contains(uri, "revision"):
		return models.RelationRevisionOf
	case strings.Contains(uri, "source"):
		return models.RelationSource
	case strings.Contains(uri, "series"):
		return models.RelationSeries
	default:
		return models.RelationOther
	}
}

func (p *CatalogueJSONParser) parseSupportingDocuments(doc gjson.Result) []models.SupportingDocument {
	var documents []models.SupportingDocument
	doc.Get("infoLinks").ForEach(func(_, info gjson.Result) bool {
		url := info.Get("url").String()
		if url == "" {
			return true
		}
		filename := url
		if i := strings.LastIndexByte(url, '/'); i >= 0 {
			filename = url[i+1:]
		}
		documents = append(documents, models.SupportingDocument{
			Filename:    filename,
			URL:         url,
			Description: info.Get("name").String(),
		})
		return true
	})
	return documents
}

var _ Parser = (*CatalogueJSONParser)(nil)
