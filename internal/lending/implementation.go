package lending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campuslib/internal/store"
)

// service implements the Service interface. The underlying store has no
// cross-collection transactions, so every multi-write path claims the book
// with a conditional write first and compensates when a later step fails.
type service struct {
	store      Store
	loanPeriod int
	now        func() time.Time
	tracer     trace.Tracer
}

// NewService creates a new lending service instance.
func NewService(st Store, loanPeriodDays int) Service {
	if loanPeriodDays <= 0 {
		loanPeriodDays = DefaultLoanPeriodDays
	}
	return &service{
		store:      st,
		loanPeriod: loanPeriodDays,
		now:        time.Now,
		tracer:     otel.Tracer("campuslib/lending"),
	}
}

// BorrowDirect lends an available book to the user. The availability flip
// is the serialization point: of N concurrent attempts exactly one wins the
// conditional write and the rest surface a conflict.
func (s *service) BorrowDirect(ctx context.Context, bookID, userID uuid.UUID) (*Borrowing, error) {
	ctx, span := s.tracer.Start(ctx, "lending.borrow_direct",
		trace.WithAttributes(
			attribute.String("book.id", bookID.String()),
			attribute.String("user.id", userID.String()),
		),
	)
	defer span.End()

	won, err := s.store.MarkBookUnavailable(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("claim book: %w", err)
	}
	if !won {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, fmt.Errorf("book unavailable: %w", store.ErrConflict)
	}

	now := s.now()
	borrowing := &Borrowing{
		ID:         uuid.New(),
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueAt:      DueDate(now, s.loanPeriod),
	}

	if err := s.store.InsertBorrowing(ctx, borrowing); err != nil {
		s.compensate(ctx, "release book after failed borrow insert", func() error {
			return s.store.MarkBookAvailable(ctx, bookID)
		})
		return nil, fmt.Errorf("insert borrowing: %v: %w", err, store.ErrTransient)
	}

	return borrowing, nil
}

// SubmitRequest files a pending request. The duplicate guard lives in the
// storage layer (guarded insert) rather than a check-then-act pair.
func (s *service) SubmitRequest(ctx context.Context, bookID, userID uuid.UUID) (*BorrowRequest, error) {
	ctx, span := s.tracer.Start(ctx, "lending.submit_request",
		trace.WithAttributes(
			attribute.String("book.id", bookID.String()),
			attribute.String("user.id", userID.String()),
		),
	)
	defer span.End()

	available, err := s.store.BookAvailable(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if !CanBorrowDirectly(available) {
		return nil, fmt.Errorf("book unavailable: %w", store.ErrConflict)
	}

	request := &BorrowRequest{
		ID:        uuid.New(),
		BookID:    bookID,
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}

	inserted, err := s.store.InsertRequestIfAbsent(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("request already pending: %w", store.ErrConflict)
	}

	return request, nil
}

// ApproveRequest performs the three-write approval as one logical unit:
// claim the book, insert the borrowing, then settle the request status.
// A lost race at the final step undoes the first two writes.
func (s *service) ApproveRequest(ctx context.Context, requestID uuid.UUID) (*Borrowing, error) {
	ctx, span := s.tracer.Start(ctx, "lending.approve_request",
		trace.WithAttributes(attribute.String("request.id", requestID.String())),
	)
	defer span.End()

	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if request.Status != StatusPending {
		return nil, fmt.Errorf("request is %s, not pending: %w", request.Status, store.ErrInvalidState)
	}

	won, err := s.store.MarkBookUnavailable(ctx, request.BookID)
	if err != nil {
		return nil, fmt.Errorf("claim book: %w", err)
	}
	if !won {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, fmt.Errorf("book unavailable: %w", store.ErrConflict)
	}

	now := s.now()
	borrowing := &Borrowing{
		ID:         uuid.New(),
		BookID:     request.BookID,
		UserID:     request.UserID,
		BorrowedAt: now,
		DueAt:      DueDate(now, s.loanPeriod),
	}

	if err := s.store.InsertBorrowing(ctx, borrowing); err != nil {
		s.compensate(ctx, "release book after failed approval insert", func() error {
			return s.store.MarkBookAvailable(ctx, request.BookID)
		})
		return nil, fmt.Errorf("insert borrowing: %v: %w", err, store.ErrTransient)
	}

	settled, err := s.store.SetRequestStatus(ctx, requestID, StatusPending, StatusApproved)
	if err != nil || !settled {
		// Lost a race with a concurrent reject (or the store failed):
		// undo the partial apply. The borrowing being removed here never
		// became visible history.
		s.compensate(ctx, "undo partially applied approval", func() error {
			if derr := s.store.DeleteBorrowing(ctx, borrowing.ID); derr != nil {
				return derr
			}
			return s.store.MarkBookAvailable(ctx, request.BookID)
		})
		if err != nil {
			return nil, fmt.Errorf("settle request: %v: %w", err, store.ErrTransient)
		}
		return nil, fmt.Errorf("request no longer pending: %w", store.ErrConflict)
	}

	return borrowing, nil
}

// RejectRequest terminally rejects a pending request. Single conditional
// write, trivially atomic.
func (s *service) RejectRequest(ctx context.Context, requestID uuid.UUID) (*BorrowRequest, error) {
	ctx, span := s.tracer.Start(ctx, "lending.reject_request",
		trace.WithAttributes(attribute.String("request.id", requestID.String())),
	)
	defer span.End()

	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if request.Status != StatusPending {
		return nil, fmt.Errorf("request is %s, not pending: %w", request.Status, store.ErrInvalidState)
	}

	settled, err := s.store.SetRequestStatus(ctx, requestID, StatusPending, StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("settle request: %w", err)
	}
	if !settled {
		return nil, fmt.Errorf("request no longer pending: %w", store.ErrConflict)
	}

	request.Status = StatusRejected
	return request, nil
}

// ReturnBook closes an open loan and releases the book. Closing the
// borrowing is the conditional write, so a retried return fails its
// precondition instead of double-applying.
func (s *service) ReturnBook(ctx context.Context, borrowingID uuid.UUID) (*Borrowing, error) {
	ctx, span := s.tracer.Start(ctx, "lending.return_book",
		trace.WithAttributes(attribute.String("borrowing.id", borrowingID.String())),
	)
	defer span.End()

	borrowing, err := s.store.GetBorrowing(ctx, borrowingID)
	if err != nil {
		return nil, fmt.Errorf("load borrowing: %w", err)
	}
	if borrowing.ReturnedAt != nil {
		return nil, fmt.Errorf("already returned: %w", store.ErrConflict)
	}

	returnedAt := s.now()
	closed, err := s.store.CloseBorrowing(ctx, borrowingID, returnedAt)
	if err != nil {
		return nil, fmt.Errorf("close borrowing: %w", err)
	}
	if !closed {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return nil, fmt.Errorf("already returned: %w", store.ErrConflict)
	}

	if err := s.store.MarkBookAvailable(ctx, borrowing.BookID); err != nil {
		s.compensate(ctx, "reopen borrowing after failed book release", func() error {
			return s.store.ReopenBorrowing(ctx, borrowingID)
		})
		return nil, fmt.Errorf("release book: %v: %w", err, store.ErrTransient)
	}

	borrowing.ReturnedAt = &returnedAt
	return borrowing, nil
}

func (s *service) OpenBorrowings(ctx context.Context, userID uuid.UUID) ([]BorrowingDetail, error) {
	return s.store.OpenBorrowingsForUser(ctx, userID)
}

func (s *service) PendingRequests(ctx context.Context) ([]RequestDetail, error) {
	return s.store.PendingRequests(ctx)
}

// Overdue filters open loans through the ledger's overdue rule and
// annotates each with the whole days late.
func (s *service) Overdue(ctx context.Context, now time.Time) ([]OverdueDetail, error) {
	open, err := s.store.OpenBorrowings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load open borrowings: %w", err)
	}

	var overdue []OverdueDetail
	for _, b := range open {
		if !IsOverdue(b.Borrowing, now) {
			continue
		}
		overdue = append(overdue, OverdueDetail{
			BorrowingDetail: b,
			DaysOverdue:     DaysOverdue(b.Borrowing, now),
		})
	}
	return overdue, nil
}

// compensate retries a compensating write with bounded exponential backoff.
// A compensation that ultimately fails leaves the ledger inconsistent, so
// it is logged loudly; the triggering operation still reports transient
// failure to its caller either way.
func (s *service) compensate(ctx context.Context, what string, fn func() error) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(4))
	if err != nil {
		slog.Error("compensation failed", "action", what, "error", err)
	}
}
