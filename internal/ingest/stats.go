package ingest

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// RunesPerToken approximates token counts from character counts.
const RunesPerToken = 4.0

// Status summarizes the document collection.
type Status struct {
	Total      int                      `json:"total"`
	ByType     map[document.DocType]int `json:"by_type"`
	BySource   map[string]int           `json:"by_source"`
	Undated    int                      `json:"undated_news"`
	NewestNews string                   `json:"newest_news,omitempty"`
	OldestNews string                   `json:"oldest_news,omitempty"`
	Tokens     TokenStats               `json:"tokens"`
}

// TokenStats describes estimated tokens per document.
type TokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CollectStatus computes collection statistics from docs.
func CollectStatus(docs []document.Document) Status {
	st := Status{
		Total:    len(docs),
		ByType:   make(map[document.DocType]int),
		BySource: make(map[string]int),
	}

	var newest, oldest time.Time
	tokenCounts := make([]int, 0, len(docs))

	for _, doc := range docs {
		st.ByType[doc.Type]++
		st.BySource[doc.Source]++

		tokens := int(math.Round(float64(utf8.RuneCountInString(doc.Content)) / RunesPerToken))
		tokenCounts = append(tokenCounts, max(tokens, 1))

		if doc.Type != document.TypeNews {
			continue
		}
		published, ok := document.ParsePublished(doc.PublishedAt)
		if !ok {
			st.Undated++
			continue
		}
		if newest.IsZero() || published.After(newest) {
			newest = published
		}
		if oldest.IsZero() || published.Before(oldest) {
			oldest = published
		}
	}

	if !newest.IsZero() {
		st.NewestNews = newest.Format(time.DateOnly)
		st.OldestNews = oldest.Format(time.DateOnly)
	}
	st.Tokens = computeTokenStats(tokenCounts)
	return st
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) TokenStats {
	if len(tokenCounts) == 0 {
		return TokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = max(0, min(p95Index, len(sorted)-1))

	return TokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
