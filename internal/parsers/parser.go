// Package parsers converts raw catalogue documents into the canonical
// Dataset model. A registry dispatches by explicit format name, content
// type, or content sniffing.
package parsers

import (
	"bytes"
	"strings"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// Parser converts one source format into a Dataset.
type Parser interface {
	FormatName() string
	SupportedContentTypes() []string
	CanParse(contentType string) bool
	Parse(content []byte) (*models.Dataset, error)
}

// Registry holds the known parsers. Dispatch is linear; the list is small.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry with the default parsers registered.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewCatalogueJSONParser())
	r.Register(NewISO19115Parser())
	return r
}

// Register appends a parser to the dispatch list.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for _, p := range r.parsers {
		names = append(names, p.FormatName())
	}
	return names
}

// ForFormat returns the parser with the given format name, or nil.
func (r *Registry) ForFormat(format string) Parser {
	for _, p := range r.parsers {
		if p.FormatName() == format {
			return p
		}
	}
	return nil
}

// ForContentType returns the first parser accepting the content type, or nil.
func (r *Registry) ForContentType(contentType string) Parser {
	for _, p := range r.parsers {
		if p.CanParse(contentType) {
			return p
		}
	}
	return nil
}

// Detect sniffs the content's leading non-whitespace byte: '{' or '['
// selects the JSON parser, '<' the XML parser.
func (r *Registry) Detect(content []byte) Parser {
	trimmed := bytes.TrimLeft(content, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		return r.ForContentType("application/json")
	case '<':
		return r.ForContentType("application/xml")
	}
	return nil
}

// Parse selects a parser by explicit format name first, then content-type
// hint, then content sniffing, and runs it.
func (r *Registry) Parse(content []byte, format, contentType string) (*models.Dataset, error) {
	var p Parser
	if format != "" {
		p = r.ForFormat(format)
	}
	if p == nil && contentType != "" {
		p = r.ForContentType(contentType)
	}
	if p == nil {
		p = r.Detect(content)
	}
	if p == nil {
		return nil, models.NewParseError("no parser for content", nil)
	}
	return p.Parse(content)
}

// normalizeContentType strips parameters and lowercases a MIME type so
// "application/json; charset=utf-8" matches "application/json".
func normalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func contentTypeSupported(supported []string, contentType string) bool {
	ct := normalizeContentType(contentType)
	for _, s := range supported {
		if s == ct {
			return true
		}
	}
	return false
}
