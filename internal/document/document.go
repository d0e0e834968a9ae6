// Package document holds the Document and Citation types shared by retrieval and answering.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// MaxContentLength is the number of characters of body text kept at ingestion.
const MaxContentLength = 3000

// DocType classifies where a document came from.
type DocType string

const (
	// TypeFAQ marks static FAQ content (PDF or markdown Q&A).
	TypeFAQ DocType = "faq"
	// TypeNews marks scraped web articles.
	TypeNews DocType = "news"
)

// Document is a retrievable unit of knowledge.
// Documents are immutable once stored; updates create new documents with new ids.
type Document struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Content     string  `json:"content" yaml:"content"`
	Source      string  `json:"source" yaml:"source"`
	URL         string  `json:"url,omitempty" yaml:"url,omitempty"`
	Page        *int    `json:"page,omitempty" yaml:"page,omitempty"`
	PublishedAt string  `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Type        DocType `json:"type" yaml:"type"`
}

// Citation is the single supporting source attached to an answer.
type Citation struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source"`
	Page        *int   `json:"page,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Key returns the composite identity used when fusing rankings (source, title, page).
func (d Document) Key() string {
	page := "-"
	if d.Page != nil {
		page = fmt.Sprintf("%d", *d.Page)
	}
	return d.Source + "|" + d.Title + "|" + page
}

// Validate reports whether the document can be indexed.
func (d Document) Validate() error {
	if d.Content == "" {
		return fmt.Errorf("document %q has empty content", d.ID)
	}
	switch d.Type {
	case TypeFAQ, TypeNews:
	default:
		return fmt.Errorf("document %q has unknown type %q", d.ID, d.Type)
	}
	return nil
}

// Normalize truncates content to MaxContentLength and derives a missing id from the content hash.
func (d Document) Normalize() Document {
	d.Content = Truncate(d.Content, MaxContentLength)
	if d.ID == "" {
		seed := d.URL
		if seed == "" {
			seed = d.Content
		}
		d.ID = HashContent(seed)[:16]
	}
	if d.Type == "" {
		d.Type = TypeFAQ
		if d.URL != "" {
			d.Type = TypeNews
		}
	}
	return d
}

// HashContent returns the hex-encoded SHA-256 of text.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// IntPtr is a small helper for optional page numbers.
func IntPtr(v int) *int {
	return &v
}
