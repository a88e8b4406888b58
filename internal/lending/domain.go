package lending

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. Approved and rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Borrowing is a loan record. A nil ReturnedAt marks the loan as open;
// while it is open the referenced book's availability must be false.
// Borrowings are never deleted; they are the permanent loan history.
type Borrowing struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	BookID     uuid.UUID  `db:"book_id" json:"book_id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	BorrowedAt time.Time  `db:"borrowed_at" json:"borrowed_at"`
	DueAt      time.Time  `db:"due_at" json:"due_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at,omitempty"`
}

// BorrowRequest is a member's petition to borrow a book, awaiting a
// librarian decision while pending.
type BorrowRequest struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BookID    uuid.UUID `db:"book_id" json:"book_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BorrowingDetail joins a borrowing with book and borrower display fields
// for the dashboard projections.
type BorrowingDetail struct {
	Borrowing
	BookTitle  string `db:"book_title" json:"book_title"`
	BookAuthor string `db:"book_author" json:"book_author"`
	Borrower   string `db:"borrower" json:"borrower"`
	CollegeID  string `db:"college_id" json:"college_id"`
}

// OverdueDetail is a BorrowingDetail annotated with how many whole days
// the loan is past due.
type OverdueDetail struct {
	BorrowingDetail
	DaysOverdue int `json:"days_overdue"`
}

// RequestDetail joins a pending request with book and requester display
// fields for the librarian approval queue.
type RequestDetail struct {
	BorrowRequest
	BookTitle     string `db:"book_title" json:"book_title"`
	BookAuthor    string `db:"book_author" json:"book_author"`
	BookAvailable bool   `db:"book_available" json:"book_available"`
	Requester     string `db:"requester" json:"requester"`
	CollegeID     string `db:"college_id" json:"college_id"`
	Department    string `db:"department" json:"department"`
}
