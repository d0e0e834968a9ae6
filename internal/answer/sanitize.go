package answer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is one named text transform applied to a raw model answer.
type Rule struct {
	Name  string
	Apply func(text string) string
}

var (
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*(.*?)\*`)
	headingPattern    = regexp.MustCompile(`(?m)^#+ `)
	numberedPattern   = regexp.MustCompile(`(?m)^\d+\.\s+`)
	dashPattern       = regexp.MustCompile(`(?m)^-\s+`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
	boilerplateSource = []string{
		`Ako imate još.*`,
		`Nadam se da.*`,
		`Hvala na razumevanju.*`,
		`Obratite se.*`,
		`Srdačno.*`,
		`Uživajte.*`,
		`Veselim se.*`,
		`Imate još pitanja.*`,
		`Za dodatne informacije.*`,
		`Ako imaš.*`,
		`Slagam se.*`,
		`^U redu.*`,
		`SEPA Q&A.*`,
		`pdf:SEPA_QnA.*`,
		`str\.\s*\d+.*`,
		`\(.*pdf.*\).*`,
	}
	boilerplatePatterns = compileAll(boilerplateSource, "(?im)")

	// artifactMarkers flag lines that only carry source references.
	artifactMarkers = []string{"SEPA Q&A", "pdf:", "str.", "(pdf", "[1]", "[2]", "[3]"}
)

const (
	greeting          = "Zdravo!"
	longAnswerRunes   = 500
	shortLeadRunes    = 100
	greetingMinLength = 50
)

func compileAll(sources []string, flags string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(sources))
	for i, src := range sources {
		out[i] = regexp.MustCompile(flags + src)
	}
	return out
}

// DefaultRules returns the sanitize pipeline in application order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "strip-greeting", Apply: stripGreeting},
		{Name: "markdown-bold", Apply: func(s string) string { return boldPattern.ReplaceAllString(s, "$1") }},
		{Name: "markdown-italic", Apply: func(s string) string { return italicPattern.ReplaceAllString(s, "$1") }},
		{Name: "markdown-heading", Apply: func(s string) string { return headingPattern.ReplaceAllString(s, "") }},
		{Name: "numbered-list", Apply: func(s string) string { return numberedPattern.ReplaceAllString(s, "") }},
		{Name: "list-dash", Apply: func(s string) string { return dashPattern.ReplaceAllString(s, "- ") }},
		{Name: "boilerplate", Apply: stripBoilerplate},
		{Name: "collapse-blank-lines", Apply: func(s string) string { return blankRunPattern.ReplaceAllString(s, "\n\n") }},
		{Name: "drop-artifact-lines", Apply: dropArtifactLines},
		{Name: "keep-lead", Apply: keepLead},
		{Name: "trim", Apply: strings.TrimSpace},
	}
}

// Sanitize runs text through rules in order.
func Sanitize(text string, rules []Rule) string {
	for _, rule := range rules {
		text = rule.Apply(text)
	}
	return text
}

// stripGreeting removes the greeting from long answers; a bare greeting reply is kept.
func stripGreeting(text string) string {
	if !strings.HasPrefix(strings.TrimSpace(text), greeting) || utf8.RuneCountInString(text) <= greetingMinLength {
		return text
	}
	return strings.TrimSpace(strings.ReplaceAll(text, greeting, ""))
}

func stripBoilerplate(text string) string {
	for _, pattern := range boilerplatePatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	return text
}

func dropArtifactLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" || containsAny(clean, artifactMarkers) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// keepLead cuts long multi-line answers with a short first line down to two lines.
func keepLead(text string) string {
	if utf8.RuneCountInString(text) <= longAnswerRunes || !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	if utf8.RuneCountInString(lines[0]) >= shortLeadRunes {
		return text
	}
	if len(lines) > 2 {
		lines = lines[:2]
	}
	return strings.Join(lines, "\n")
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
