// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, title, author, category, isbn, description string) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)

	// RemoveBook deletes a book. Deletion is rejected with a conflict
	// while an open borrowing references the book.
	RemoveBook(ctx context.Context, id uuid.UUID) error

	// SetCover records the blob URL of an uploaded cover image.
	SetCover(ctx context.Context, id uuid.UUID, coverURL string) (*Book, error)

	// ListAvailable returns available books, optionally filtered by a
	// title/author substring and/or an exact category.
	ListAvailable(ctx context.Context, query, category string) ([]Book, error)

	// Grouped buckets the available catalog by category.
	Grouped(ctx context.Context) ([]CategoryGroup, error)

	// Latest returns the n newest available books.
	Latest(ctx context.Context, n int) ([]Book, error)

	// Suggest returns relevance-ranked available books for queries with
	// no title/author substring match.
	Suggest(ctx context.Context, query string) ([]Book, error)
}
