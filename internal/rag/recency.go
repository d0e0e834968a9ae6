package rag

import (
	"strings"
	"time"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// DefaultRecencyWindowDays bounds what counts as current when a query asks for it.
const DefaultRecencyWindowDays = 90

// recencyTriggers are prefixes of words that ask for current information.
var recencyTriggers = []string{
	"sada", "sad", "trenutn", "danas", "najnovij", "aktuel", "ove godine", "ovog mjeseca",
	"now", "currently", "current", "today", "latest",
}

// WantsRecent reports whether query asks for current information.
func WantsRecent(query string) bool {
	tokens := document.Tokenize(query)
	lower := strings.Join(tokens, " ")
	for _, trigger := range recencyTriggers {
		if strings.Contains(trigger, " ") {
			if strings.Contains(lower, trigger) {
				return true
			}
			continue
		}
		for _, token := range tokens {
			if token == trigger || (len(trigger) > 4 && strings.HasPrefix(token, trigger)) {
				return true
			}
		}
	}
	return false
}

// filterRecent keeps documents published within days of now. Undated documents are dropped.
func filterRecent(docs []document.Document, now time.Time, days int) []document.Document {
	kept := make([]document.Document, 0, len(docs))
	for _, doc := range docs {
		if document.WithinDays(doc.PublishedAt, now, days) {
			kept = append(kept, doc)
		}
	}
	return kept
}
