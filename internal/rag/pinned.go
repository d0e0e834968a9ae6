package rag

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

//go:embed pinned_facts.yaml
var defaultPinnedFacts []byte

// PinnedFact maps a set of trigger phrases to one hand-authored document.
type PinnedFact struct {
	Category string            `yaml:"category"`
	Triggers []string          `yaml:"triggers"`
	Document document.Document `yaml:"document"`
}

// PinnedFacts is an ordered rule table. At most one document is injected per category.
type PinnedFacts struct {
	rules []PinnedFact
}

// DefaultPinnedFacts returns the built-in rule table.
func DefaultPinnedFacts() (*PinnedFacts, error) {
	return ParsePinnedFacts(defaultPinnedFacts)
}

// LoadPinnedFacts reads a rule table from a YAML file.
func LoadPinnedFacts(path string) (*PinnedFacts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pinned facts: %w", err)
	}
	return ParsePinnedFacts(raw)
}

// ParsePinnedFacts decodes and validates a YAML rule table.
func ParsePinnedFacts(raw []byte) (*PinnedFacts, error) {
	var rules []PinnedFact
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse pinned facts: %w", err)
	}

	for i := range rules {
		rule := &rules[i]
		if rule.Category == "" {
			return nil, fmt.Errorf("pinned fact %d has no category", i)
		}
		if len(rule.Triggers) == 0 {
			return nil, fmt.Errorf("pinned fact %q has no triggers", rule.Category)
		}
		for j, trigger := range rule.Triggers {
			rule.Triggers[j] = strings.ToLower(strings.TrimSpace(trigger))
		}
		if rule.Document.Type == "" {
			rule.Document.Type = document.TypeFAQ
		}
		if err := rule.Document.Validate(); err != nil {
			return nil, fmt.Errorf("pinned fact %q: %w", rule.Category, err)
		}
	}

	return &PinnedFacts{rules: rules}, nil
}

// Match returns the documents whose triggers appear in query, in table order.
func (p *PinnedFacts) Match(query string) []document.Document {
	if p == nil {
		return nil
	}
	lower := strings.ToLower(query)

	seen := make(map[string]struct{})
	var matched []document.Document
	for _, rule := range p.rules {
		if _, done := seen[rule.Category]; done {
			continue
		}
		for _, trigger := range rule.Triggers {
			if strings.Contains(lower, trigger) {
				matched = append(matched, rule.Document)
				seen[rule.Category] = struct{}{}
				break
			}
		}
	}
	return matched
}

// prependPinned puts pinned documents first and drops their duplicates further down.
func prependPinned(pinned, docs []document.Document) []document.Document {
	if len(pinned) == 0 {
		return docs
	}
	keys := make(map[string]struct{}, len(pinned))
	out := make([]document.Document, 0, len(pinned)+len(docs))
	for _, doc := range pinned {
		keys[doc.Key()] = struct{}{}
		out = append(out, doc)
	}
	for _, doc := range docs {
		if _, dup := keys[doc.Key()]; dup {
			continue
		}
		out = append(out, doc)
	}
	return out
}
