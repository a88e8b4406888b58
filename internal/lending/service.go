package lending

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service sequences the compound mutations of the borrowing workflow so
// they appear atomic to observers. Every operation takes the acting user
// explicitly; role checks happen at the HTTP layer.
type Service interface {
	// BorrowDirect lends an available book to the user immediately.
	BorrowDirect(ctx context.Context, bookID, userID uuid.UUID) (*Borrowing, error)

	// SubmitRequest files a pending borrow request for an available book.
	SubmitRequest(ctx context.Context, bookID, userID uuid.UUID) (*BorrowRequest, error)

	// ApproveRequest turns a pending request into an open borrowing and
	// marks the book unavailable, as one logical unit.
	ApproveRequest(ctx context.Context, requestID uuid.UUID) (*Borrowing, error)

	// RejectRequest terminally rejects a pending request. No inventory
	// effect.
	RejectRequest(ctx context.Context, requestID uuid.UUID) (*BorrowRequest, error)

	// ReturnBook closes an open borrowing and makes the book available
	// again.
	ReturnBook(ctx context.Context, borrowingID uuid.UUID) (*Borrowing, error)

	// OpenBorrowings lists the user's open loans.
	OpenBorrowings(ctx context.Context, userID uuid.UUID) ([]BorrowingDetail, error)

	// PendingRequests lists the librarian approval queue, newest first.
	PendingRequests(ctx context.Context) ([]RequestDetail, error)

	// Overdue lists open loans past due at the given instant, with the
	// whole days each is late.
	Overdue(ctx context.Context, now time.Time) ([]OverdueDetail, error)
}

// Store is the persistence boundary for the workflow. The mutating methods
// are conditional writes: each reports whether the guarded update won, so
// the service can turn a lost precondition into a conflict instead of a
// double-apply. Implementations must make each method individually atomic;
// the service composes them with compensation.
type Store interface {
	BookAvailable(ctx context.Context, bookID uuid.UUID) (bool, error)

	// MarkBookUnavailable flips available from true to false. Returns false when
	// the book was already unavailable. This is the serialization point
	// for every path that opens a loan.
	MarkBookUnavailable(ctx context.Context, bookID uuid.UUID) (bool, error)

	// MarkBookAvailable flips the book back to available. Used by the
	// return path and as the compensating write.
	MarkBookAvailable(ctx context.Context, bookID uuid.UUID) error

	InsertBorrowing(ctx context.Context, b *Borrowing) error

	// DeleteBorrowing removes a just-inserted borrowing. Only ever called
	// to undo a partially applied approval; settled history is never
	// deleted.
	DeleteBorrowing(ctx context.Context, id uuid.UUID) error

	GetBorrowing(ctx context.Context, id uuid.UUID) (*Borrowing, error)

	// CloseBorrowing sets returned_at where it is still null. Returns
	// false when the loan was already closed.
	CloseBorrowing(ctx context.Context, id uuid.UUID, returnedAt time.Time) (bool, error)

	// ReopenBorrowing clears returned_at as the compensating write for a
	// failed return.
	ReopenBorrowing(ctx context.Context, id uuid.UUID) error

	// InsertRequestIfAbsent inserts a pending request unless the (book,
	// user) pair already has one. Returns false on the duplicate.
	InsertRequestIfAbsent(ctx context.Context, r *BorrowRequest) (bool, error)

	GetRequest(ctx context.Context, id uuid.UUID) (*BorrowRequest, error)

	// SetRequestStatus transitions a request from one status to another,
	// returning false when the request is no longer in the from status.
	SetRequestStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)

	OpenBorrowingsForUser(ctx context.Context, userID uuid.UUID) ([]BorrowingDetail, error)
	OpenBorrowings(ctx context.Context) ([]BorrowingDetail, error)
	PendingRequests(ctx context.Context) ([]RequestDetail, error)
}
