package lending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campuslib/internal/store"
)

// postgresStore implements Store against Postgres. Every mutating method
// is a single guarded statement, so the affected-row count is the atomic
// compare-and-set the workflow relies on.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a Store backed by the given database.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (p *postgresStore) BookAvailable(ctx context.Context, bookID uuid.UUID) (bool, error) {
	var available bool
	err := p.db.GetContext(ctx, &available, `SELECT available FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("book %s: %w", bookID, store.ErrNotFound)
	}
	return available, err
}

func (p *postgresStore) MarkBookUnavailable(ctx context.Context, bookID uuid.UUID) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE books SET available = false
		WHERE id = $1 AND available = true
	`, bookID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Distinguish "lost the race" from "no such book".
		var exists bool
		if err := p.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID); err != nil {
			return false, err
		}
		if !exists {
			return false, fmt.Errorf("book %s: %w", bookID, store.ErrNotFound)
		}
	}
	return affected == 1, nil
}

func (p *postgresStore) MarkBookAvailable(ctx context.Context, bookID uuid.UUID) error {
	_, err := p.db.ExecContext(ctx, `UPDATE books SET available = true WHERE id = $1`, bookID)
	return err
}

func (p *postgresStore) InsertBorrowing(ctx context.Context, b *Borrowing) error {
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO borrowings (id, book_id, user_id, borrowed_at, due_at)
		VALUES (:id, :book_id, :user_id, :borrowed_at, :due_at)
	`, b)
	return err
}

func (p *postgresStore) DeleteBorrowing(ctx context.Context, id uuid.UUID) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM borrowings WHERE id = $1 AND returned_at IS NULL`, id)
	return err
}

func (p *postgresStore) GetBorrowing(ctx context.Context, id uuid.UUID) (*Borrowing, error) {
	var b Borrowing
	err := p.db.GetContext(ctx, &b, `
		SELECT id, book_id, user_id, borrowed_at, due_at, returned_at
		FROM borrowings WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("borrowing %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *postgresStore) CloseBorrowing(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE borrowings SET returned_at = $2
		WHERE id = $1 AND returned_at IS NULL
	`, id, returnedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func (p *postgresStore) ReopenBorrowing(ctx context.Context, id uuid.UUID) error {
	_, err := p.db.ExecContext(ctx, `UPDATE borrowings SET returned_at = NULL WHERE id = $1`, id)
	return err
}

func (p *postgresStore) InsertRequestIfAbsent(ctx context.Context, r *BorrowRequest) (bool, error) {
	// The guarded insert plus the partial unique index in the schema keep
	// duplicate pending requests out even under concurrent submissions.
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO borrow_requests (id, book_id, user_id, status, created_at)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM borrow_requests
			WHERE book_id = $2 AND user_id = $3 AND status = 'pending'
		)
	`, r.ID, r.BookID, r.UserID, r.Status, r.CreatedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func (p *postgresStore) GetRequest(ctx context.Context, id uuid.UUID) (*BorrowRequest, error) {
	var r BorrowRequest
	err := p.db.GetContext(ctx, &r, `
		SELECT id, book_id, user_id, status, created_at
		FROM borrow_requests WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *postgresStore) SetRequestStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE borrow_requests SET status = $3
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func (p *postgresStore) OpenBorrowingsForUser(ctx context.Context, userID uuid.UUID) ([]BorrowingDetail, error) {
	details := []BorrowingDetail{}
	err := p.db.SelectContext(ctx, &details, `
		SELECT br.id, br.book_id, br.user_id, br.borrowed_at, br.due_at, br.returned_at,
		       b.title AS book_title, b.author AS book_author,
		       p.full_name AS borrower, p.college_id
		FROM borrowings br
		JOIN books b ON b.id = br.book_id
		JOIN profiles p ON p.id = br.user_id
		WHERE br.user_id = $1 AND br.returned_at IS NULL
		ORDER BY br.due_at ASC
	`, userID)
	return details, err
}

func (p *postgresStore) OpenBorrowings(ctx context.Context) ([]BorrowingDetail, error) {
	details := []BorrowingDetail{}
	err := p.db.SelectContext(ctx, &details, `
		SELECT br.id, br.book_id, br.user_id, br.borrowed_at, br.due_at, br.returned_at,
		       b.title AS book_title, b.author AS book_author,
		       p.full_name AS borrower, p.college_id
		FROM borrowings br
		JOIN books b ON b.id = br.book_id
		JOIN profiles p ON p.id = br.user_id
		WHERE br.returned_at IS NULL
		ORDER BY br.due_at ASC
	`)
	return details, err
}

func (p *postgresStore) PendingRequests(ctx context.Context) ([]RequestDetail, error) {
	details := []RequestDetail{}
	err := p.db.SelectContext(ctx, &details, `
		SELECT r.id, r.book_id, r.user_id, r.status, r.created_at,
		       b.title AS book_title, b.author AS book_author, b.available AS book_available,
		       p.full_name AS requester, p.college_id, p.department
		FROM borrow_requests r
		JOIN books b ON b.id = r.book_id
		JOIN profiles p ON p.id = r.user_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at DESC
	`)
	return details, err
}
