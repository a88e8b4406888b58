// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/meilisearch/meilisearch-go"

	"campuslib/internal/store"
)

const suggestionLimit = 5
const candidateLimit = 30

// service implements the Service interface. The search index is optional:
// when absent, or when a query against it fails, searches fall back to the
// database.
type service struct {
	db     *sqlx.DB
	search meilisearch.ServiceManager
}

// NewService creates a new catalog service instance. search may be nil.
func NewService(db *sqlx.DB, search meilisearch.ServiceManager) Service {
	return &service{db: db, search: search}
}

// AddBook creates a new book in the catalog. Indexing is best effort: a
// search-index failure never fails the creation.
func (s *service) AddBook(ctx context.Context, title, author, category, isbn, description string) (*Book, error) {
	if title == "" || author == "" || category == "" {
		return nil, fmt.Errorf("title, author and category are required: %w", store.ErrInvalidState)
	}

	book := &Book{
		ID:          uuid.New(),
		Title:       title,
		Author:      author,
		Category:    category,
		ISBN:        isbn,
		Description: description,
		Available:   true,
		CreatedAt:   time.Now(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO books (id, title, author, category, isbn, description, cover_url, available, created_at)
		VALUES (:id, :title, :author, :category, :isbn, :description, :cover_url, :available, :created_at)
	`, book)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	s.indexBook(book)

	return book, nil
}

func (s *service) indexBook(book *Book) {
	if s.search == nil {
		return
	}
	primaryKey := "id"
	if _, err := s.search.Index("books").AddDocuments([]*Book{book}, &primaryKey); err != nil {
		slog.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}

// GetBook retrieves a book from the catalog by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	var book Book
	err := s.db.GetContext(ctx, &book, `
		SELECT id, title, author, category, isbn, description, cover_url, available, created_at
		FROM books WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// RemoveBook deletes a book unless an open borrowing references it. The
// guard is part of the delete statement so the check and the delete cannot
// be separated by a concurrent borrow.
func (s *service) RemoveBook(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM books
		WHERE id = $1 AND NOT EXISTS (
			SELECT 1 FROM borrowings WHERE book_id = $1 AND returned_at IS NULL
		)
	`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, gerr := s.GetBook(ctx, id); gerr != nil {
			return gerr
		}
		return fmt.Errorf("book is on loan: %w", store.ErrConflict)
	}

	if s.search != nil {
		if _, err := s.search.Index("books").DeleteDocument(id.String()); err != nil {
			slog.Warn("failed to deindex book", "book_id", id, "error", err)
		}
	}

	return nil
}

// SetCover records the cover image URL for a book.
func (s *service) SetCover(ctx context.Context, id uuid.UUID, coverURL string) (*Book, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE books SET cover_url = $2 WHERE id = $1`, id, coverURL)
	if err != nil {
		return nil, fmt.Errorf("set cover: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("book %s: %w", id, store.ErrNotFound)
	}
	return s.GetBook(ctx, id)
}

// ListAvailable returns available books, newest first. A non-empty query
// is tried against the search index first and falls back to a database
// substring match.
func (s *service) ListAvailable(ctx context.Context, query, category string) ([]Book, error) {
	if query != "" && s.search != nil {
		if books, err := s.searchIndex(query, category); err == nil {
			return books, nil
		} else {
			slog.Warn("search index unavailable, falling back to database", "error", err)
		}
	}
	return s.searchDatabase(ctx, query, category)
}

func (s *service) searchIndex(query, category string) ([]Book, error) {
	filter := `available = true`
	if category != "" {
		filter += fmt.Sprintf(` AND category = %q`, category)
	}
	resp, err := s.search.Index("books").Search(query, &meilisearch.SearchRequest{
		Limit:  candidateLimit,
		Filter: filter,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, err
	}
	books := []Book{}
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *service) searchDatabase(ctx context.Context, query, category string) ([]Book, error) {
	q := `
		SELECT id, title, author, category, isbn, description, cover_url, available, created_at
		FROM books
		WHERE available = true
	`
	args := []interface{}{}
	if query != "" {
		args = append(args, "%"+query+"%")
		q += fmt.Sprintf(" AND (title ILIKE $%d OR author ILIKE $%d)", len(args), len(args))
	}
	if category != "" {
		args = append(args, category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"

	books := []Book{}
	if err := s.db.SelectContext(ctx, &books, q, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Grouped buckets the whole available catalog by category.
func (s *service) Grouped(ctx context.Context) ([]CategoryGroup, error) {
	books, err := s.searchDatabase(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return GroupByCategory(books), nil
}

// Latest returns the n newest available books.
func (s *service) Latest(ctx context.Context, n int) ([]Book, error) {
	if n <= 0 {
		n = 10
	}
	books := []Book{}
	err := s.db.SelectContext(ctx, &books, `
		SELECT id, title, author, category, isbn, description, cover_url, available, created_at
		FROM books
		WHERE available = true
		ORDER BY created_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("latest books: %w", err)
	}
	return books, nil
}

// Suggest implements the fallback path: when no title/author substring
// match exists, rank available candidates by the weighted field-match
// score and return the best few.
func (s *service) Suggest(ctx context.Context, query string) ([]Book, error) {
	exact, err := s.searchDatabase(ctx, query, "")
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		if len(exact) > suggestionLimit {
			exact = exact[:suggestionLimit]
		}
		return exact, nil
	}

	candidates := []Book{}
	err = s.db.SelectContext(ctx, &candidates, `
		SELECT id, title, author, category, isbn, description, cover_url, available, created_at
		FROM books
		WHERE available = true
		ORDER BY created_at DESC
		LIMIT $1
	`, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	ranked := RankByRelevance(candidates, query)
	if len(ranked) > suggestionLimit {
		ranked = ranked[:suggestionLimit]
	}
	return ranked, nil
}
