package service

import (
	"strings"
	"unicode"

	"github.com/radulovicigor/CBCGchatbot/internal/answer"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// Reserved answer ids for pre-filtered questions.
const (
	IDInappropriate = "inappropriate"
	IDGreeting      = "greeting"
	IDUnclear       = "unclear"
)

// UnclearReply asks the user to rephrase.
const UnclearReply = "Molim vas da preciznije postavite pitanje o SEPA plaćanjima."

// Prefilter answers a question before retrieval with a canned reply.
type Prefilter struct {
	Name     string
	AnswerID string
	Reply    string
	Matches  func(question string) bool
}

var (
	blockedTerms = []string{"kurva", "kurac", "jebem", "jebi", "picka", "pička", "sr*ane", "gluposti", "idiot"}

	greetingWords = map[string]struct{}{
		"ćao": {}, "cao": {}, "zdravo": {}, "pozdrav": {}, "hello": {}, "hi": {}, "hej": {}, "hey": {},
		"dobro": {}, "dobar": {}, "jutro": {}, "dan": {}, "veče": {}, "vece": {}, "kako": {}, "si": {}, "ste": {},
	}
)

// DefaultPrefilters returns the pre-retrieval checks in order.
func DefaultPrefilters() []Prefilter {
	return []Prefilter{
		{Name: "inappropriate", AnswerID: IDInappropriate, Reply: answer.InappropriateReply, Matches: isInappropriate},
		{Name: "greeting", AnswerID: IDGreeting, Reply: answer.GreetingReply, Matches: isGreetingOnly},
		{Name: "unclear", AnswerID: IDUnclear, Reply: UnclearReply, Matches: isUnclear},
	}
}

func isInappropriate(question string) bool {
	lower := strings.ToLower(question)
	for _, term := range blockedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// isGreetingOnly reports whether every word of question is a greeting.
// "Zdravo, šta je SEPA?" is a real question and passes through.
func isGreetingOnly(question string) bool {
	tokens := document.Tokenize(question)
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if _, ok := greetingWords[token]; !ok {
			return false
		}
	}
	return true
}

// vowels covers both Montenegrin scripts.
const vowels = "aeiouy" + "аеиоу"

// isUnclear catches input with almost no letters or with no vowel in any word.
func isUnclear(question string) bool {
	letters := 0
	for _, r := range question {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 {
		return true
	}
	for _, token := range document.Tokenize(question) {
		if document.IsNumeric(token) || strings.ContainsAny(token, vowels) {
			return false
		}
	}
	return true
}

func firstPrefilter(filters []Prefilter, question string) (Prefilter, bool) {
	for _, f := range filters {
		if f.Matches(question) {
			return f, true
		}
	}
	return Prefilter{}, false
}
