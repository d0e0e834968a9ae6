// Package lexical ranks documents by keyword overlap with a query.
package lexical

import (
	"sort"
	"strings"
	"time"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

const (
	titleWeight    = 3
	substringBonus = 5
	newsBonus      = 2
)

// Scored pairs a document with its lexical score.
type Scored struct {
	Doc   document.Document
	Score int
}

// Score computes the lexical relevance of doc for query.
//
// The score is three points per query token found in the title, one per token
// found in the content, five if the whole query appears verbatim, two for news
// items, plus the document's recency bonus.
func Score(query string, doc document.Document, now time.Time) int {
	queryTokens := document.WordSet(query)
	titleTokens := document.WordSet(doc.Title)
	contentTokens := document.WordSet(doc.Content)

	score := 0
	for token := range queryTokens {
		if _, ok := titleTokens[token]; ok {
			score += titleWeight
		}
		if _, ok := contentTokens[token]; ok {
			score++
		}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle != "" {
		if strings.Contains(strings.ToLower(doc.Content), needle) || strings.Contains(strings.ToLower(doc.Title), needle) {
			score += substringBonus
		}
	}

	if doc.Type == document.TypeNews {
		score += newsBonus
	}

	return score + document.RecencyBonus(doc.PublishedAt, now)
}

// Search returns up to k documents with a positive score, best first.
// Ties keep the corpus order.
func Search(query string, docs []document.Document, k int, now time.Time) []Scored {
	if k <= 0 || len(docs) == 0 {
		return nil
	}

	scored := make([]Scored, 0, len(docs))
	for _, doc := range docs {
		if s := Score(query, doc, now); s > 0 {
			scored = append(scored, Scored{Doc: doc, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Documents strips the scores from a ranking.
func Documents(scored []Scored) []document.Document {
	docs := make([]document.Document, len(scored))
	for i, s := range scored {
		docs[i] = s.Doc
	}
	return docs
}
