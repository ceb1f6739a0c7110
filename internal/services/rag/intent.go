package rag

import (
	"regexp"
	"strings"
)

// Intent is the coarse classification of an incoming question. Non-search
// intents are answered from canned text without retrieval.
type Intent string

const (
	IntentSearch          Intent = "search"
	IntentGreeting        Intent = "greeting"
	IntentHelp            Intent = "help"
	IntentAbout           Intent = "about"
	IntentAcknowledgement Intent = "acknowledgement"
	IntentNonsense        Intent = "nonsense"
	IntentTooShort        Intent = "too_short"
)

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|greetings|good morning|good afternoon|good evening)[\s!?,.:]*$`),
	regexp.MustCompile(`^(how are you|whats up|what's up|sup)[\s!?,.:]*$`),
	regexp.MustCompile(`^(yo|hiya|howdy)[\s!?,.:]*$`),
}

var helpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(help|how do i|how to use|what can you do|how does this work)[\s!?,.:]*`),
	regexp.MustCompile(`^(what is this|explain|guide me)[\s!?,.:]*`),
}

var aboutPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(who are you|what are you|tell me about yourself|about)[\s!?,.:]*$`),
	regexp.MustCompile(`^(what is this system|what is the catalogue)[\s!?,.:]*`),
}

var nonsensePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[^a-zA-Z0-9]*$`),
	regexp.MustCompile(`^(.)\1{3,}$`),
}

var acknowledgements = map[string]struct{}{
	"yes": {}, "no": {}, "ok": {}, "okay": {}, "thanks": {}, "thank you": {},
	"bye": {}, "goodbye": {}, "cool": {}, "nice": {}, "great": {},
}

var cannedResponses = map[Intent]string{
	IntentTooShort: "Please enter a search query. You can ask about topics like 'water quality', 'soil carbon', or 'climate data'.",
	IntentNonsense: "I didn't understand that. Try searching for environmental topics like 'river water quality' or 'land cover mapping'.",
	IntentGreeting: "Hello! I can help you find UK environmental datasets. Try asking about:\n\n" +
		"• Water quality monitoring data\n• Soil and land cover surveys\n• Climate and weather records\n• Biodiversity observations\n\n" +
		"What topic are you interested in?",
	IntentHelp: "This system searches the environmental dataset catalogue. You can:\n\n" +
		"• Ask questions like 'What water quality data is available?'\n" +
		"• Search for topics: 'soil carbon UK peatlands'\n" +
		"• Find specific data: 'river Thames monitoring'\n\n" +
		"Results are ranked using hybrid search (keywords + semantic similarity).",
	IntentAbout: "I'm a search assistant for the environmental dataset catalogue. I help you find UK environmental datasets.\n\n" +
		"The system uses hybrid search combining keyword matching with semantic similarity to find relevant datasets.",
	IntentAcknowledgement: "Is there anything else you'd like to search for? You can ask about environmental topics like water quality, soil data, climate records, or biodiversity.",
}

// ClassifyIntent maps a question to an intent. Search is the default; the
// canned answer for non-search intents comes from CannedResponse.
func ClassifyIntent(question string) Intent {
	clean := strings.TrimSpace(question)
	lower := strings.ToLower(clean)

	if len(clean) < 2 {
		return IntentTooShort
	}
	for _, p := range nonsensePatterns {
		if p.MatchString(lower) {
			return IntentNonsense
		}
	}
	for _, p := range greetingPatterns {
		if p.MatchString(lower) {
			return IntentGreeting
		}
	}
	for _, p := range helpPatterns {
		if p.MatchString(lower) {
			return IntentHelp
		}
	}
	for _, p := range aboutPatterns {
		if p.MatchString(lower) {
			return IntentAbout
		}
	}
	if _, ok := acknowledgements[lower]; ok {
		return IntentAcknowledgement
	}
	return IntentSearch
}

// CannedResponse returns the fixed answer for a non-search intent.
func CannedResponse(intent Intent) string {
	return cannedResponses[intent]
}
