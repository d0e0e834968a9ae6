// Package citation decides whether an answer gets a supporting source.
//
// Selection is a veto cascade: early disqualification, keyword filtering and
// scoring, per-candidate gates, answer-support verification and an optional
// judge double-check. Any stage can end with no citation; none can add one.
package citation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// Selector picks at most one citation for an answer.
type Selector struct {
	judge      Judge
	thresholds Thresholds
	early      []EarlyRule
}

// NewSelector creates a Selector. judge may be nil.
func NewSelector(judge Judge, thresholds Thresholds) *Selector {
	return &Selector{
		judge:      judge,
		thresholds: thresholds,
		early:      DefaultEarlyRules(),
	}
}

// Select returns the citation for answer, or nil when no document is trustworthy enough.
func (s *Selector) Select(ctx context.Context, question, answer string, docs []document.Document) *document.Citation {
	logger := contextutil.LoggerFromContext(ctx)

	cit, reason := s.decide(ctx, Input{Question: question, Answer: answer, Docs: docs})
	if cit == nil {
		logger.DebugContext(ctx, "no citation", "reason", reason)
		return nil
	}
	logger.DebugContext(ctx, "citation selected", "source", cit.Source, "title", cit.Title)
	return cit
}

// decide runs the cascade and names the stage that vetoed, if any.
func (s *Selector) decide(ctx context.Context, in Input) (*document.Citation, string) {
	th := s.thresholds

	for _, rule := range s.early {
		if rule.Matches(in, th) {
			return nil, rule.Name
		}
	}

	qKeywords := questionKeywords(in.Question, th.MinKeywordLength)
	qDomains := domainsOf(strings.ToLower(in.Question))
	aKeywords := Keywords(in.Answer, th.MinKeywordLength)
	aNumbers := numbers(in.Answer)
	aTerms := append(append([]string{}, aKeywords...), aNumbers...)
	strict := th.strictAnswer(in.Answer)

	facts := gateInput{keywordSetSize: len(qKeywords), answerTermCount: len(aTerms), strict: strict}
	best, reason := s.bestCandidate(ctx, in.Docs, qKeywords, qDomains, aTerms, facts)
	if best == nil {
		return nil, reason
	}
	if best.score < th.selectScore(strict) {
		return nil, "select-score"
	}

	if reason := s.verify(in, qKeywords, qDomains, aKeywords, best.doc); reason != "" {
		return nil, reason
	}

	if reason := s.doubleCheck(ctx, in, best.doc); reason != "" {
		return nil, reason
	}

	return newCitation(best.doc, th.MaxTitleLength), ""
}

func (s *Selector) bestCandidate(ctx context.Context, docs []document.Document, qKeywords []string, qDomains map[string]struct{}, aTerms []string, facts gateInput) (*candidate, string) {
	logger := contextutil.LoggerFromContext(ctx)
	th := s.thresholds

	var best *candidate
	reason := "no-keyword-match"
	for _, doc := range docs {
		c := s.score(doc, qKeywords, qDomains, aTerms)
		if c.matched == 0 {
			continue
		}
		if failed := failedGate(c, facts, th); failed != "" {
			logger.DebugContext(ctx, "citation candidate rejected",
				"doc_id", doc.ID, "gate", failed, "score", c.score, "matched", c.matched, "support", c.support)
			reason = failed
			continue
		}
		if best == nil || c.score > best.score {
			best = &c
		}
	}
	return best, reason
}

// score counts question keywords in the title and early content, adds the domain bonus
// and counts answer terms found anywhere in the document.
func (s *Selector) score(doc document.Document, qKeywords []string, qDomains map[string]struct{}, aTerms []string) candidate {
	th := s.thresholds
	title := strings.ToLower(doc.Title)
	early := strings.ToLower(document.Truncate(doc.Content, th.EarlyContentLength))

	c := candidate{doc: doc}
	for _, kw := range qKeywords {
		inTitle := strings.Contains(title, kw)
		inEarly := strings.Contains(early, kw)
		if inTitle {
			c.score += th.TitleMatchScore
		}
		if inEarly {
			c.score += th.ContentMatchScore
		}
		if inTitle || inEarly {
			c.matched++
		}
	}

	for _, d := range domains {
		if _, ok := qDomains[d.name]; !ok {
			continue
		}
		switch {
		case containsAny(title, d.stems):
			c.score += th.DomainTitleBonus
		case containsAny(early, d.stems):
			c.score += th.DomainContentBonus
		}
	}

	c.support = countIn(title+" "+strings.ToLower(doc.Content), aTerms)
	return c
}

// verify re-checks the winner against the answer itself.
func (s *Selector) verify(in Input, qKeywords []string, qDomains map[string]struct{}, aKeywords []string, doc document.Document) string {
	th := s.thresholds
	body := strings.ToLower(doc.Title + " " + doc.Content)

	long := make([]string, 0, len(aKeywords))
	for _, kw := range aKeywords {
		if utf8.RuneCountInString(kw) >= th.LongTokenLength {
			long = append(long, kw)
		}
	}
	if countIn(body, long) < th.MinVerifiedAnswerTokens {
		return "answer-not-in-document"
	}

	answerLower := strings.ToLower(in.Answer)
	overlap := countIn(answerLower, qKeywords)
	if len(qKeywords) > 0 && overlap == 0 {
		return "question-answer-mismatch"
	}

	for name := range domainsOf(answerLower) {
		if _, asked := qDomains[name]; !asked && overlap < th.MinDriftOverlap {
			return "domain-drift"
		}
	}
	return ""
}

// doubleCheck asks the judge; a judge error keeps the textual verdict.
func (s *Selector) doubleCheck(ctx context.Context, in Input, doc document.Document) string {
	if s.judge == nil {
		return ""
	}
	logger := contextutil.LoggerFromContext(ctx)

	answers, err := s.judge.AnswersQuestion(ctx, in.Question, in.Answer)
	if err != nil {
		logger.WarnContext(ctx, "judge unavailable, keeping textual verdict", "error", err)
		return ""
	}
	if !answers {
		return "judge-off-topic"
	}

	supports, err := s.judge.SupportsAnswer(ctx, in.Answer, doc)
	if err != nil {
		logger.WarnContext(ctx, "judge unavailable, keeping textual verdict", "error", err)
		return ""
	}
	if !supports {
		return "judge-unsupported"
	}
	return ""
}

func newCitation(doc document.Document, maxTitle int) *document.Citation {
	return &document.Citation{
		Title:       document.Truncate(doc.Title, maxTitle),
		URL:         doc.URL,
		Source:      doc.Source,
		Page:        doc.Page,
		PublishedAt: doc.PublishedAt,
	}
}
