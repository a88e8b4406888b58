package lending

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuslib/internal/store"
)

func newTestService(ms *memStore, at time.Time) *service {
	svc := NewService(ms, DefaultLoanPeriodDays).(*service)
	svc.now = func() time.Time { return at }
	return svc
}

func TestBorrowDirect(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	userID := uuid.New()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(ms, t0)

	borrowing, err := svc.BorrowDirect(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, bookID, borrowing.BookID)
	assert.Equal(t, userID, borrowing.UserID)
	assert.Equal(t, t0, borrowing.BorrowedAt)
	assert.Equal(t, t0.AddDate(0, 0, 14), borrowing.DueAt)
	assert.Nil(t, borrowing.ReturnedAt)

	assert.False(t, ms.available(bookID), "book must be unavailable while on loan")
	assert.Equal(t, 1, ms.openCount(bookID))
}

func TestBorrowDirectUnavailableBook(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(false)
	svc := newTestService(ms, time.Now())

	_, err := svc.BorrowDirect(ctx, bookID, uuid.New())
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 0, ms.openCount(bookID))
}

func TestBorrowDirectMissingBook(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), time.Now())

	_, err := svc.BorrowDirect(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentBorrowSingleWinner(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	const attempts = 25
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.BorrowDirect(ctx, bookID, uuid.New())
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, store.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent borrow may win")
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, ms.openCount(bookID))
	assert.False(t, ms.available(bookID))
}

func TestBorrowDirectCompensatesFailedInsert(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	ms.failInsertBorrowing = true
	_, err := svc.BorrowDirect(ctx, bookID, uuid.New())
	assert.ErrorIs(t, err, store.ErrTransient)
	assert.True(t, ms.available(bookID), "failed borrow must release the book")
	assert.Equal(t, 0, ms.openCount(bookID))

	// The compensation makes the failure safe to retry.
	ms.failInsertBorrowing = false
	_, err = svc.BorrowDirect(ctx, bookID, uuid.New())
	assert.NoError(t, err)
}

func TestReturnBook(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(ms, t0)

	borrowing, err := svc.BorrowDirect(ctx, bookID, uuid.New())
	require.NoError(t, err)

	svc.now = func() time.Time { return t0.AddDate(0, 0, 3) }
	returned, err := svc.ReturnBook(ctx, borrowing.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, t0.AddDate(0, 0, 3), *returned.ReturnedAt)
	assert.True(t, ms.available(bookID))
	assert.Equal(t, 0, ms.openCount(bookID))
}

func TestReturnBookIdempotence(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	borrowing, err := svc.BorrowDirect(ctx, bookID, uuid.New())
	require.NoError(t, err)

	_, err = svc.ReturnBook(ctx, borrowing.ID)
	require.NoError(t, err)

	_, err = svc.ReturnBook(ctx, borrowing.ID)
	assert.ErrorIs(t, err, store.ErrConflict, "second return must conflict")
	assert.True(t, ms.available(bookID), "availability unchanged by the retry")
}

func TestReturnBookCompensatesFailedRelease(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	borrowing, err := svc.BorrowDirect(ctx, bookID, uuid.New())
	require.NoError(t, err)

	ms.failMarkAvailable = true
	_, err = svc.ReturnBook(ctx, borrowing.ID)
	assert.ErrorIs(t, err, store.ErrTransient)

	// The borrowing must still be open so the return can be retried.
	ms.failMarkAvailable = false
	reloaded, err := ms.GetBorrowing(ctx, borrowing.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ReturnedAt)

	_, err = svc.ReturnBook(ctx, borrowing.ID)
	assert.NoError(t, err)
	assert.True(t, ms.available(bookID))
}

func TestRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	userID := uuid.New()
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(ms, t1)

	request, err := svc.SubmitRequest(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, request.Status)

	borrowing, err := svc.ApproveRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, bookID, borrowing.BookID)
	assert.Equal(t, userID, borrowing.UserID)
	assert.Equal(t, t1.AddDate(0, 0, 14), borrowing.DueAt)
	assert.False(t, ms.available(bookID))

	settled, err := ms.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, settled.Status)

	// The book is on loan now, so a new request conflicts.
	_, err = svc.SubmitRequest(ctx, bookID, userID)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestSubmitRequestDuplicatePending(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	userID := uuid.New()
	svc := newTestService(ms, time.Now())

	_, err := svc.SubmitRequest(ctx, bookID, userID)
	require.NoError(t, err)

	_, err = svc.SubmitRequest(ctx, bookID, userID)
	assert.ErrorIs(t, err, store.ErrConflict, "duplicate pending request")

	// A different user may still request the same book.
	_, err = svc.SubmitRequest(ctx, bookID, uuid.New())
	assert.NoError(t, err)
}

func TestRejectHasNoInventoryEffect(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	request, err := svc.SubmitRequest(ctx, bookID, uuid.New())
	require.NoError(t, err)

	rejected, err := svc.RejectRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.True(t, ms.available(bookID), "rejection must not touch the book")
	assert.Equal(t, 0, ms.openCount(bookID))
}

func TestApproveNonPendingRequest(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	request, err := svc.SubmitRequest(ctx, bookID, uuid.New())
	require.NoError(t, err)

	_, err = svc.RejectRequest(ctx, request.ID)
	require.NoError(t, err)

	_, err = svc.ApproveRequest(ctx, request.ID)
	assert.ErrorIs(t, err, store.ErrInvalidState, "terminal states are immutable")

	_, err = svc.RejectRequest(ctx, request.ID)
	assert.ErrorIs(t, err, store.ErrInvalidState)
}

func TestApproveLosesRaceWithReject(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	bookID := ms.addBook(true)
	svc := newTestService(ms, time.Now())

	request, err := svc.SubmitRequest(ctx, bookID, uuid.New())
	require.NoError(t, err)

	// A reject sneaks in between the approval's precondition read and its
	// final settle; the approval must undo its partial apply.
	ms.beforeSettle = func() {
		ms.beforeSettle = nil
		ms.setRequestStatusDirect(request.ID, StatusRejected)
	}

	_, err = svc.ApproveRequest(ctx, request.ID)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.True(t, ms.available(bookID), "lost approval must release the book")
	assert.Equal(t, 0, ms.openCount(bookID))
}

func TestApproveMissingRequest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), time.Now())

	_, err := svc.ApproveRequest(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOverdueProjection(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	onTime := ms.addBook(true)
	late := ms.addBook(true)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(ms, t0)

	_, err := svc.BorrowDirect(ctx, onTime, uuid.New())
	require.NoError(t, err)
	lateBorrowing, err := svc.BorrowDirect(ctx, late, uuid.New())
	require.NoError(t, err)

	// 15 days and 12 hours after borrowing: one loan is 1 day overdue.
	now := t0.AddDate(0, 0, 15).Add(12 * time.Hour)
	overdue, err := svc.Overdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	for _, o := range overdue {
		assert.Equal(t, 1, o.DaysOverdue)
	}

	// After returning, the loan drops out of the projection.
	_, err = svc.ReturnBook(ctx, lateBorrowing.ID)
	require.NoError(t, err)
	overdue, err = svc.Overdue(ctx, now)
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}
