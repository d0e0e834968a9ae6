package rag

import (
	"sort"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// rrfK is the rank offset in reciprocal rank fusion.
const rrfK = 60

// Fused is a document with its accumulated fusion score.
type Fused struct {
	Doc   document.Document
	Score float64
}

// ReciprocalRankFusion merges rankings by summing 1/(rank+60) per list, with 1-based ranks.
// Documents are identified by source, title and page. Equal scores keep first-seen order.
func ReciprocalRankFusion(lists ...[]document.Document) []Fused {
	index := make(map[string]int)
	var fused []Fused

	for _, list := range lists {
		for rank, doc := range list {
			score := 1.0 / float64(rank+1+rrfK)
			key := doc.Key()
			if pos, ok := index[key]; ok {
				fused[pos].Score += score
				continue
			}
			index[key] = len(fused)
			fused = append(fused, Fused{Doc: doc, Score: score})
		}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}
