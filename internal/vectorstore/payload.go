package vectorstore

import (
	"github.com/google/uuid"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// pointNamespace scopes point ids derived from document ids.
var pointNamespace = uuid.MustParse("6f1c2a64-9b7e-4d1a-8f0e-3c5b2d7a9e41")

// PointID maps a document id onto a stable UUID, as Qdrant only accepts UUIDs or integers.
func PointID(docID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(docID)).String()
}

// DocumentPoint builds the point stored for doc.
func DocumentPoint(doc document.Document, vec []float32) Point {
	meta := map[string]any{
		"doc_id":   doc.ID,
		"title":    doc.Title,
		"content":  doc.Content,
		"source":   doc.Source,
		"doc_type": string(doc.Type),
	}
	if doc.URL != "" {
		meta["url"] = doc.URL
	}
	if doc.Page != nil {
		meta["page"] = int64(*doc.Page)
	}
	if doc.PublishedAt != "" {
		meta["published_at"] = doc.PublishedAt
	}
	return Point{ID: PointID(doc.ID), Vec: vec, Meta: meta}
}

// DocumentFromPayload rebuilds a document from a search hit's payload.
// Missing fields stay empty.
func DocumentFromPayload(meta map[string]any) document.Document {
	doc := document.Document{
		ID:          stringField(meta, "doc_id"),
		Title:       stringField(meta, "title"),
		Content:     stringField(meta, "content"),
		Source:      stringField(meta, "source"),
		URL:         stringField(meta, "url"),
		PublishedAt: stringField(meta, "published_at"),
		Type:        document.DocType(stringField(meta, "doc_type")),
	}
	switch v := meta["page"].(type) {
	case int64:
		doc.Page = document.IntPtr(int(v))
	case float64:
		doc.Page = document.IntPtr(int(v))
	case int:
		doc.Page = document.IntPtr(v)
	}
	return doc
}

func stringField(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
