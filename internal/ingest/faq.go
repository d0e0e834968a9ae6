package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

// Section is the text under one markdown heading.
type Section struct {
	Heading string // Innermost heading text, empty for text before the first heading
	Text    string
}

// FAQChunker turns markdown FAQ files into documents, one or more per heading.
type FAQChunker struct {
	parser    goldmark.Markdown
	chunkSize int
	overlap   int
}

// NewFAQChunker creates a chunker using the default chunk size and overlap.
func NewFAQChunker() *FAQChunker {
	return &FAQChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
}

// Chunk parses a markdown file and returns FAQ documents.
// Titles read "<document title> - <heading>"; sections split into several chunks get a "(i/n)" suffix.
func (c *FAQChunker) Chunk(content []byte, filename string) []document.Document {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil
	}

	doc := c.parser.Parser().Parse(text.NewReader(content))
	title := extractTitle(doc, content, filename)
	source := "faq:" + sourceName(filename)

	var docs []document.Document
	for _, section := range buildSections(doc, content) {
		sectionTitle := title
		if section.Heading != "" && section.Heading != title {
			sectionTitle = title + " - " + section.Heading
		}

		parts := SplitText(section.Text, c.chunkSize, c.overlap)
		for i, part := range parts {
			partTitle := sectionTitle
			if len(parts) > 1 {
				partTitle = fmt.Sprintf("%s (%d/%d)", sectionTitle, i+1, len(parts))
			}
			docs = append(docs, document.Document{
				ID:      document.HashContent(source + "|" + partTitle + "|" + part)[:16],
				Title:   partTitle,
				Content: part,
				Source:  source,
				Type:    document.TypeFAQ,
			})
		}
	}
	return docs
}

// extractTitle returns the first level-1 heading, else the first level-2 heading,
// else a title derived from the filename.
func extractTitle(doc ast.Node, content []byte, filename string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		headingText := extractTextFromNode(heading, content)
		if heading.Level == 1 && firstH1 == "" {
			firstH1 = headingText
			return ast.WalkStop, nil
		}
		if heading.Level == 2 && firstH2 == "" {
			firstH2 = headingText
		}
		return ast.WalkSkipChildren, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}
	return titleFromFilename(filename)
}

// titleFromFilename drops the extension, turns separators into spaces and capitalizes words.
func titleFromFilename(filename string) string {
	name := sourceName(filename)
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func sourceName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// buildSections walks the AST and groups block text under the heading that precedes it.
func buildSections(doc ast.Node, content []byte) []Section {
	var sections []Section
	current := &Section{}

	flush := func() {
		current.Text = strings.TrimSpace(current.Text)
		if current.Text != "" {
			sections = append(sections, *current)
		}
	}
	newline := func() {
		if current.Text != "" && !strings.HasSuffix(current.Text, "\n") {
			current.Text += "\n"
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			flush()
			current = &Section{Heading: extractTextFromNode(node, content)}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.List, *ast.ListItem, *ast.Blockquote:
			newline()
			return ast.WalkContinue, nil

		case *ast.Text:
			current.Text += string(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				current.Text += " "
			}
			return ast.WalkContinue, nil

		case *ast.String:
			current.Text += string(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			newline()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				current.Text += string(line.Value(content))
			}
			return ast.WalkSkipChildren, nil

		case *extast.TableHeader, *extast.TableRow:
			newline()
			current.Text += extractTableRowText(node, content) + "\n"
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	return sections
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, content []byte) string {
	var b strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// extractTableRowText joins the cells of a table row with pipe separators.
func extractTableRowText(row ast.Node, content []byte) string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, extractTextFromNode(cell, content))
	}
	return strings.Join(cells, " | ")
}
