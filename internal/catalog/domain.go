// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalog entry. Availability is owned by the lending workflow:
// nothing in this package flips it.
type Book struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Author      string    `db:"author" json:"author"`
	Category    string    `db:"category" json:"category"`
	ISBN        string    `db:"isbn" json:"isbn,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	CoverURL    string    `db:"cover_url" json:"cover_url,omitempty"`
	Available   bool      `db:"available" json:"available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Departments is the enumerated category vocabulary: the university's
// schools. Books created with other category strings still group cleanly
// (grouping is exact string equality), but the catalog UI offers these.
var Departments = []string{
	"School of Engineering and Technology (SOET)",
	"School of Management and Commerce (SOMC)",
	"School of Law (SOL)",
	"School of Humanities and Social Sciences (SHSS)",
	"School of Sciences (SOS)",
}

// CategoryGroup is one catalog bucket: all books sharing an exact category
// string. Books with an empty category form their own bucket.
type CategoryGroup struct {
	Category string `json:"category"`
	Books    []Book `json:"books"`
}

// GroupByCategory buckets books by exact category equality, preserving the
// input order of books within each bucket and ordering buckets by first
// appearance.
func GroupByCategory(books []Book) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, b := range books {
		i, ok := index[b.Category]
		if !ok {
			i = len(groups)
			index[b.Category] = i
			groups = append(groups, CategoryGroup{Category: b.Category})
		}
		groups[i].Books = append(groups[i].Books, b)
	}
	return groups
}
