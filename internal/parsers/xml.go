package parsers

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// ISO19115Parser extracts metadata from ISO 19115 XML (UK GEMINI profile).
// Element matching is by local name, so the GMD/GCO/GML namespace prefixes
// do not have to be declared here.
type ISO19115Parser struct{}

// NewISO19115Parser creates the ISO 19115 XML parser.
func NewISO19115Parser() *ISO19115Parser {
	return &ISO19115Parser{}
}

func (p *ISO19115Parser) FormatName() string {
	return "iso19115"
}

func (p *ISO19115Parser) SupportedContentTypes() []string {
	return []string{"application/xml", "text/xml", "gemini"}
}

func (p *ISO19115Parser) CanParse(contentType string) bool {
	return contentTypeSupported(p.SupportedContentTypes(), contentType)
}

type gmdDocument struct {
	FileIdentifier     gmdString               `xml:"fileIdentifier"`
	IdentificationInfo []gmdIdentificationInfo `xml:"identificationInfo"`
	DistributionInfo   []gmdDistributionInfo   `xml:"distributionInfo"`
	DataQualityInfo    []gmdDataQualityInfo    `xml:"dataQualityInfo"`
}

type gmdString struct {
	Value string `xml:"CharacterString"`
}

type gmdIdentificationInfo struct {
	DataIdentification gmdDataIdentification `xml:"MD_DataIdentification"`
}

type gmdDataIdentification struct {
	Citation            gmdCitation   `xml:"citation>CI_Citation"`
	Abstract            gmdString     `xml:"abstract"`
	PointOfContact      []gmdParty    `xml:"pointOfContact>CI_ResponsibleParty"`
	DescriptiveKeywords []gmdKeywords `xml:"descriptiveKeywords>MD_Keywords"`
	TopicCategories     []string      `xml:"topicCategory>MD_TopicCategoryCode"`
	Extents             []gmdExtent   `xml:"extent>EX_Extent"`
}

type gmdCitation struct {
	Title                 gmdString  `xml:"title"`
	CitedResponsibleParty []gmdParty `xml:"citedResponsibleParty>CI_ResponsibleParty"`
}

type gmdKeywords struct {
	Keywords []gmdString `xml:"keyword"`
}

type gmdParty struct {
	IndividualName   gmdString   `xml:"individualName"`
	OrganisationName gmdString   `xml:"organisationName"`
	Role             gmdCodeList `xml:"role>CI_RoleCode"`
	Contact          struct {
		Email gmdString `xml:"CI_Contact>address>CI_Address>electronicMailAddress"`
	} `xml:"contactInfo"`
}

type gmdCodeList struct {
	CodeListValue string `xml:"codeListValue,attr"`
	Text          string `xml:",chardata"`
}

func (c gmdCodeList) Code() string {
	if c.CodeListValue != "" {
		return c.CodeListValue
	}
	return strings.TrimSpace(c.Text)
}

type gmdExtent struct {
	GeographicElements []gmdBoundingBox `xml:"geographicElement>EX_GeographicBoundingBox"`
	TemporalElements   []gmdTimeElement `xml:"temporalElement>EX_TemporalExtent>extent>TimePeriod"`
}

type gmdBoundingBox struct {
	West  string `xml:"westBoundLongitude>Decimal"`
	East  string `xml:"eastBoundLongitude>Decimal"`
	South string `xml:"southBoundLatitude>Decimal"`
	North string `xml:"northBoundLatitude>Decimal"`
}

type gmdTimeElement struct {
	BeginPosition string `xml:"beginPosition"`
	EndPosition   string `xml:"endPosition"`
}

type gmdDistributionInfo struct {
	OnlineResources []gmdOnlineResource `xml:"MD_Distribution>transferOptions>MD_DigitalTransferOptions>onLine>CI_OnlineResource"`
}

type gmdOnlineResource struct {
	Linkage     string      `xml:"linkage>URL"`
	Name        gmdString   `xml:"name"`
	Description gmdString   `xml:"description"`
	Function    gmdCodeList `xml:"function>CI_OnLineFunctionCode"`
}

type gmdDataQualityInfo struct {
	LineageStatement gmdString `xml:"DQ_DataQuality>lineage>LI_Lineage>statement"`
}

// Parse builds a Dataset from an ISO 19115 document. File identifier and
// title are required; optional sections with malformed values are dropped
// silently.
func (p *ISO19115Parser) Parse(content []byte) (*models.Dataset, error) {
	var doc gmdDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, models.NewParseError("invalid XML document", err)
	}

	identifier := strings.TrimSpace(doc.FileIdentifier.Value)
	if identifier == "" {
		return nil, models.NewParseError("missing required field: fileIdentifier", nil)
	}

	var ident *gmdDataIdentification
	for i := range doc.IdentificationInfo {
		ident = &doc.IdentificationInfo[i].DataIdentification
		break
	}
	if ident == nil {
		return nil, models.NewParseError("missing required field: title", nil)
	}
	title := strings.TrimSpace(ident.Citation.Title.Value)
	if title == "" {
		return nil, models.NewParseError("missing required field: title", nil)
	}

	ds := &models.Dataset{
		Identifier:         identifier,
		Title:              title,
		Abstract:           strings.TrimSpace(ident.Abstract.Value),
		Lineage:            p.lineage(&doc),
		Keywords:           p.keywords(ident),
		TopicCategories:    p.topicCategories(ident),
		BoundingBox:        p.boundingBox(ident),
		TemporalExtent:     p.temporalExtent(ident),
		ResponsibleParties: p.responsibleParties(ident),
		Distributions:      p.distributions(&doc),
		SourceFormat:       p.FormatName(),
		RawDocument:        string(content),
	}
	ds.Normalize()

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (p *ISO19115Parser) lineage(doc *gmdDocument) string {
	for _, dq := range doc.DataQualityInfo {
		if s := strings.TrimSpace(dq.LineageStatement.Value); s != "" {
			return s
		}
	}
	return ""
}

func (p *ISO19115Parser) keywords(ident *gmdDataIdentification) []string {
	var keywords []string
	for _, group := range ident.DescriptiveKeywords {
		for _, kw := range group.Keywords {
			if v := strings.TrimSpace(kw.Value); v != "" {
				keywords = append(keywords, v)
			}
		}
	}
	return keywords
}

func (p *ISO19115Parser) topicCategories(ident *gmdDataIdentification) []models.TopicCategory {
	var categories []models.TopicCategory
	for _, tc := range ident.TopicCategories {
		// Unknown codes are dropped.
		if cat, ok := models.TopicCategoryFromString(strings.TrimSpace(tc)); ok {
			categories = append(categories, cat)
		}
	}
	return categories
}

// boundingBox uses the first geographic element. Coordinates that fail to
// parse as decimals yield an absent box.
func (p *ISO19115Parser) boundingBox(ident *gmdDataIdentification) *models.BoundingBox {
	for _, extent := range ident.Extents {
		for _, bbox := range extent.GeographicElements {
			west, err1 := strconv.ParseFloat(strings.TrimSpace(bbox.West), 64)
			east, err2 := strconv.ParseFloat(strings.TrimSpace(bbox.East), 64)
			south, err3 := strconv.ParseFloat(strings.TrimSpace(bbox.South), 64)
			north, err4 := strconv.ParseFloat(strings.TrimSpace(bbox.North), 64)
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				return nil
			}
			return &models.BoundingBox{West: west, East: east, South: south, North: north}
		}
	}
	return nil
}

func (p *ISO19115Parser) temporalExtent(ident *gmdDataIdentification) *models.TemporalExtent {
	for _, extent := range ident.Extents {
		for _, tp := range extent.TemporalElements {
			var te models.TemporalExtent
			if t, err := models.ParseFlexibleDate(tp.BeginPosition); err == nil {
				te.Start = &t
			}
			if t, err := models.ParseFlexibleDate(tp.EndPosition); err == nil {
				te.End = &t
			}
			if te.Start == nil && te.End == nil {
				return nil
			}
			return &te
		}
	}
	return nil
}

func (p *ISO19115Parser) responsibleParties(ident *gmdDataIdentification) []models.ResponsibleParty {
	raw := make([]gmdParty, 0, len(ident.PointOfContact)+len(ident.Citation.CitedResponsibleParty))
	raw = append(raw, ident.PointOfContact...)
	raw = append(raw, ident.Citation.CitedResponsibleParty...)

	var parties []models.ResponsibleParty
	for _, party := range raw {
		name := strings.TrimSpace(party.IndividualName.Value)
		org := strings.TrimSpace(party.OrganisationName.Value)
		if name == "" && org == "" {
			continue
		}
		parties = append(parties, models.ResponsibleParty{
			Name:         name,
			Organisation: org,
			Role:         models.PartyRoleFromString(party.Role.Code()),
			Email:        strings.TrimSpace(party.Contact.Email.Value),
		})
	}
	return parties
}

func (p *ISO19115Parser) distributions(doc *gmdDocument) []models.Distribution {
	var distributions []models.Distribution
	for _, di := range doc.DistributionInfo {
		for _, online := range di.OnlineResources {
			url := strings.TrimSpace(online.Linkage)
			if url == "" {
				continue
			}
			distributions = append(distributions, models.Distribution{
				URL:         url,
				Name:        strings.TrimSpace(online.Name.Value),
				Description: strings.TrimSpace(online.Description.Value),
				AccessType:  models.AccessTypeFromString(online.Function.Code()),
			})
		}
	}
	return distributions
}

var _ Parser = (*ISO19115Parser)(nil)
