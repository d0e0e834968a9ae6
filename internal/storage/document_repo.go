package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Insert stores a new document. Existing ids are left untouched and reported as not inserted.
	Insert(ctx context.Context, doc document.Document) (bool, error)
	// ListAll returns every document in insertion order.
	ListAll(ctx context.Context) ([]document.Document, error)
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*document.Document, error)
	// Exists reports whether a document with the same id, URL or title is already stored.
	Exists(ctx context.Context, doc document.Document) (bool, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
	// CountByType returns document counts grouped by type.
	CountByType(ctx context.Context) (map[document.DocType]int, error)
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Insert stores a new document. Documents are immutable, so a duplicate id is a no-op.
func (r *DocumentRepo) Insert(ctx context.Context, doc document.Document) (bool, error) {
	if err := doc.Validate(); err != nil {
		return false, err
	}

	var page sql.NullInt64
	if doc.Page != nil {
		page = sql.NullInt64{Int64: int64(*doc.Page), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, source, url, page, published_at, doc_type, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents))
		 ON CONFLICT (id) DO NOTHING`,
		doc.ID, doc.Title, doc.Content, doc.Source, doc.URL, page, doc.PublishedAt, string(doc.Type),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListAll returns every document ordered by insertion sequence.
// Returns an empty slice if the store is empty (not an error).
func (r *DocumentRepo) ListAll(ctx context.Context) ([]document.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, content, source, url, page, published_at, doc_type FROM documents ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []document.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*document.Document, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, title, content, source, url, page, published_at, doc_type FROM documents WHERE id = ?",
		id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Exists matches on id, then on non-empty URL. Titles only identify news articles;
// FAQ chunks of one PDF share a title and are told apart by id.
func (r *DocumentRepo) Exists(ctx context.Context, doc document.Document) (bool, error) {
	newsTitle := ""
	if doc.Type == document.TypeNews {
		newsTitle = doc.Title
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents
		 WHERE id = ? OR (? != '' AND url = ?) OR (? != '' AND doc_type = ? AND title = ?)`,
		doc.ID, doc.URL, doc.URL, newsTitle, string(document.TypeNews), newsTitle,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of stored documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// CountByType returns document counts grouped by type.
func (r *DocumentRepo) CountByType(ctx context.Context) (map[document.DocType]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT doc_type, COUNT(*) FROM documents GROUP BY doc_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count documents by type: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[document.DocType]int)
	for rows.Next() {
		var docType string
		var count int
		if err := rows.Scan(&docType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan document count: %w", err)
		}
		counts[document.DocType(docType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (document.Document, error) {
	var doc document.Document
	var page sql.NullInt64
	var docType string
	err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Source, &doc.URL, &page, &doc.PublishedAt, &docType)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, err
	}
	if err != nil {
		return doc, fmt.Errorf("failed to scan document: %w", err)
	}
	if page.Valid {
		doc.Page = document.IntPtr(int(page.Int64))
	}
	doc.Type = document.DocType(docType)
	return doc, nil
}
