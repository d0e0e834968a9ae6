package answer

import (
	"strings"
	"unicode/utf8"
)

// OverrideRule replaces a sanitized answer with the no-information reply when it matches.
// raw is the model output before sanitizing.
type OverrideRule struct {
	Name    string
	Matches func(question, raw, cleaned string) bool
}

var (
	// specificFactCues mark questions that ask for a concrete address, figure or contact.
	specificFactCues = []string{
		"adres", "tačn", "tacn", "koliko", "iznos", "broj telefon", "telefon", "email", "e-mail",
		"radno vrijeme", "datum", "kada tačno", "gdje se nalaz",
	}
	// deflectionPhrases are the ways a model avoids giving the asked-for fact.
	deflectionPhrases = []string{
		"obratite se", "kontaktirajte", "posjetite", "posetite", "preporučujem da", "preporučujemo da",
		"nemam informacij", "nemam podat", "nemam tačn", "ne mogu da", "ne mogu vam", "nije mi poznat",
		"zvaničnoj web", "zvaničnom sajtu", "web stranic",
	}
	// genericPhrases mark answers that carry no content of their own.
	genericPhrases = []string{
		"nemam informacij", "trenutno nemam", "ne znam", "ne mogu da odgovorim", "nije moguće odgovoriti",
	}
)

const shortGenericRunes = 80

// DefaultOverrides returns the override checks in evaluation order.
func DefaultOverrides() []OverrideRule {
	return []OverrideRule{
		{Name: "empty", Matches: func(_, _, cleaned string) bool {
			return strings.TrimSpace(cleaned) == ""
		}},
		{Name: "specific-fact-deflection", Matches: func(question, raw, _ string) bool {
			return containsAny(strings.ToLower(question), specificFactCues) &&
				containsAny(strings.ToLower(raw), deflectionPhrases)
		}},
		{Name: "short-generic", Matches: func(_, _, cleaned string) bool {
			return utf8.RuneCountInString(cleaned) < shortGenericRunes &&
				containsAny(strings.ToLower(cleaned), genericPhrases)
		}},
		{Name: "dangling-comma", Matches: func(_, _, cleaned string) bool {
			return strings.HasSuffix(strings.TrimSpace(cleaned), ",")
		}},
	}
}

// firstOverride returns the name of the first matching rule, or "".
func firstOverride(rules []OverrideRule, question, raw, cleaned string) string {
	for _, rule := range rules {
		if rule.Matches(question, raw, cleaned) {
			return rule.Name
		}
	}
	return ""
}
