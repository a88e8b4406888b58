package lending

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"campuslib/internal/store"
)

// memStore is an in-memory Store with the same per-call atomicity as the
// Postgres implementation: each method takes the lock once, so conditional
// writes behave like single guarded statements. Failure hooks let tests
// drive the compensation paths.
type memStore struct {
	mu         sync.Mutex
	books      map[uuid.UUID]bool // book id to availability
	borrowings map[uuid.UUID]*Borrowing
	requests   map[uuid.UUID]*BorrowRequest

	failInsertBorrowing bool
	failMarkAvailable   bool
	beforeSettle        func()
}

func newMemStore() *memStore {
	return &memStore{
		books:      make(map[uuid.UUID]bool),
		borrowings: make(map[uuid.UUID]*Borrowing),
		requests:   make(map[uuid.UUID]*BorrowRequest),
	}
}

func (m *memStore) addBook(available bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.books[id] = available
	return id
}

func (m *memStore) openCount(bookID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.borrowings {
		if b.BookID == bookID && b.ReturnedAt == nil {
			n++
		}
	}
	return n
}

func (m *memStore) available(bookID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[bookID]
}

func (m *memStore) BookAvailable(_ context.Context, bookID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	available, ok := m.books[bookID]
	if !ok {
		return false, fmt.Errorf("book %s: %w", bookID, store.ErrNotFound)
	}
	return available, nil
}

func (m *memStore) MarkBookUnavailable(_ context.Context, bookID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	available, ok := m.books[bookID]
	if !ok {
		return false, fmt.Errorf("book %s: %w", bookID, store.ErrNotFound)
	}
	if !available {
		return false, nil
	}
	m.books[bookID] = false
	return true, nil
}

func (m *memStore) MarkBookAvailable(_ context.Context, bookID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkAvailable {
		return errors.New("injected store failure")
	}
	m.books[bookID] = true
	return nil
}

func (m *memStore) InsertBorrowing(_ context.Context, b *Borrowing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertBorrowing {
		return errors.New("injected store failure")
	}
	clone := *b
	m.borrowings[b.ID] = &clone
	return nil
}

func (m *memStore) DeleteBorrowing(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.borrowings[id]; ok && b.ReturnedAt == nil {
		delete(m.borrowings, id)
	}
	return nil
}

func (m *memStore) GetBorrowing(_ context.Context, id uuid.UUID) (*Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.borrowings[id]
	if !ok {
		return nil, fmt.Errorf("borrowing %s: %w", id, store.ErrNotFound)
	}
	clone := *b
	return &clone, nil
}

func (m *memStore) CloseBorrowing(_ context.Context, id uuid.UUID, returnedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.borrowings[id]
	if !ok || b.ReturnedAt != nil {
		return false, nil
	}
	b.ReturnedAt = &returnedAt
	return true, nil
}

func (m *memStore) ReopenBorrowing(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.borrowings[id]; ok {
		b.ReturnedAt = nil
	}
	return nil
}

func (m *memStore) InsertRequestIfAbsent(_ context.Context, r *BorrowRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.BookID == r.BookID && existing.UserID == r.UserID && existing.Status == StatusPending {
			return false, nil
		}
	}
	clone := *r
	m.requests[r.ID] = &clone
	return true, nil
}

func (m *memStore) GetRequest(_ context.Context, id uuid.UUID) (*BorrowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, store.ErrNotFound)
	}
	clone := *r
	return &clone, nil
}

func (m *memStore) SetRequestStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	if m.beforeSettle != nil {
		m.beforeSettle()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *memStore) setRequestStatusDirect(id uuid.UUID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.Status = status
	}
}

func (m *memStore) OpenBorrowingsForUser(_ context.Context, userID uuid.UUID) ([]BorrowingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BorrowingDetail
	for _, b := range m.borrowings {
		if b.UserID == userID && b.ReturnedAt == nil {
			out = append(out, BorrowingDetail{Borrowing: *b})
		}
	}
	return out, nil
}

func (m *memStore) OpenBorrowings(_ context.Context) ([]BorrowingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BorrowingDetail
	for _, b := range m.borrowings {
		if b.ReturnedAt == nil {
			out = append(out, BorrowingDetail{Borrowing: *b})
		}
	}
	return out, nil
}

func (m *memStore) PendingRequests(_ context.Context) ([]RequestDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RequestDetail
	for _, r := range m.requests {
		if r.Status == StatusPending {
			out = append(out, RequestDetail{BorrowRequest: *r})
		}
	}
	return out, nil
}
