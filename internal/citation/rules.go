package citation

import (
	"strings"
	"unicode/utf8"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// Input is what the cascade decides on.
type Input struct {
	Question string
	Answer   string
	Docs     []document.Document
}

// EarlyRule vetoes a citation before any document is scored.
type EarlyRule struct {
	Name    string
	Matches func(in Input, th Thresholds) bool
}

var (
	smallTalkWords   = toSet("ćao", "cao", "zdravo", "pozdrav", "hello", "hi", "hej", "hey", "hvala")
	smallTalkPhrases = []string{"dobro jutro", "dobar dan", "dobro dan", "dobro veče", "dobro vece", "kako si", "kako ste"}

	deflectionPhrases = []string{
		"nemam informacij", "trenutno nemam", "ne znam", "ne mogu da odgovorim",
		"nemam tu informaciju", "nemam pouzdan izvor", "zadržite profesionalni",
	}
)

// IsSmallTalk reports whether question contains a greeting or small-talk phrase.
func IsSmallTalk(question string) bool {
	lower := strings.ToLower(question)
	if containsAny(lower, smallTalkPhrases) {
		return true
	}
	for _, token := range document.Tokenize(lower) {
		if _, ok := smallTalkWords[token]; ok {
			return true
		}
	}
	return false
}

// DefaultEarlyRules returns the disqualification checks in order.
func DefaultEarlyRules() []EarlyRule {
	return []EarlyRule{
		{Name: "small-talk", Matches: func(in Input, _ Thresholds) bool {
			return IsSmallTalk(in.Question)
		}},
		{Name: "deflection", Matches: func(in Input, _ Thresholds) bool {
			return containsAny(strings.ToLower(in.Answer), deflectionPhrases)
		}},
		{Name: "short-answer", Matches: func(in Input, th Thresholds) bool {
			return utf8.RuneCountInString(in.Answer) < th.MinAnswerLength
		}},
		{Name: "no-documents", Matches: func(in Input, _ Thresholds) bool {
			return len(in.Docs) == 0
		}},
	}
}

// candidate is a scored document.
type candidate struct {
	doc     document.Document
	score   int
	matched int
	// support counts answer keywords and numbers found in the document.
	support int
}

// gateInput carries the per-answer facts the gates depend on.
type gateInput struct {
	keywordSetSize  int
	answerTermCount int
	strict          bool
}

// gate is a per-candidate eligibility check.
type gate struct {
	name string
	pass func(c candidate, in gateInput, th Thresholds) bool
}

var gates = []gate{
	{name: "min-keyword-matches", pass: func(c candidate, in gateInput, th Thresholds) bool {
		return c.matched >= th.minKeywordMatches(in.keywordSetSize)
	}},
	{name: "title-or-early-match", pass: func(c candidate, _ gateInput, _ Thresholds) bool {
		return c.matched > 0
	}},
	{name: "consider-score", pass: func(c candidate, _ gateInput, th Thresholds) bool {
		return c.score >= th.ConsiderScore
	}},
	{name: "answer-support", pass: func(c candidate, in gateInput, th Thresholds) bool {
		return c.support >= th.minAnswerSupport(in.strict || in.answerTermCount >= th.LargeKeywordSet)
	}},
}

func failedGate(c candidate, in gateInput, th Thresholds) string {
	for _, g := range gates {
		if !g.pass(c, in, th) {
			return g.name
		}
	}
	return ""
}
