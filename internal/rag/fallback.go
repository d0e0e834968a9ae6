package rag

import "github.com/radulovicigor/CBCGchatbot/internal/document"

// FallbackDocuments is served when the document store is empty or unreadable.
func FallbackDocuments() []document.Document {
	return []document.Document{
		{
			ID:      "fallback-sepa-1",
			Title:   "SEPA Q&A - Šta je SEPA?",
			Content: "SEPA (Single Euro Payments Area) je jedinstvena platna oblast u kojoj građani, kompanije i druge pravne osobe mogu da izvršavaju i primaju euro plaćanja.",
			Source:  "pdf:SEPA_QnA",
			Page:    document.IntPtr(1),
			Type:    document.TypeFAQ,
		},
		{
			ID:      "fallback-sepa-2",
			Title:   "SEPA Q&A - Tipovi plaćanja",
			Content: "Postoje dva osnovna tipa SEPA plaćanja: SEPA Credit Transfer (SCT) i SEPA Direct Debit (SDD).",
			Source:  "pdf:SEPA_QnA",
			Page:    document.IntPtr(2),
			Type:    document.TypeFAQ,
		},
	}
}
