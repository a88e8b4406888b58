package lending

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLoanPeriodDays is the fixed loan policy. Changing it is a
// configuration concern, not a per-call parameter.
const DefaultLoanPeriodDays = 14

// DueDate computes the due instant for a loan started at borrowedAt.
func DueDate(borrowedAt time.Time, periodDays int) time.Time {
	return borrowedAt.AddDate(0, 0, periodDays)
}

// CanBorrowDirectly reports whether a book in the given availability state
// may be borrowed without a request.
func CanBorrowDirectly(available bool) bool {
	return available
}

// CanSubmitRequest reports whether a user may submit a borrow request for
// a book: the book must be available and the user must not already have a
// pending request for it.
func CanSubmitRequest(available bool, pending []BorrowRequest, bookID, userID uuid.UUID) bool {
	if !available {
		return false
	}
	for _, r := range pending {
		if r.Status == StatusPending && r.BookID == bookID && r.UserID == userID {
			return false
		}
	}
	return true
}

// IsOverdue reports whether an open borrowing is past due at the given
// instant. The comparison is strict: a loan due exactly now is not
// overdue. Both instants must come from the same clock source.
func IsOverdue(b Borrowing, now time.Time) bool {
	return b.ReturnedAt == nil && now.After(b.DueAt)
}

// DaysOverdue returns the whole days the borrowing is past due, floored:
// 36 hours past due is 1 day. Only meaningful when IsOverdue is true.
func DaysOverdue(b Borrowing, now time.Time) int {
	if !IsOverdue(b, now) {
		return 0
	}
	return int(now.Sub(b.DueAt).Hours() / 24)
}
