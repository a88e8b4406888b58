// internal/materials/domain.go
package materials

import (
	"time"

	"github.com/google/uuid"
)

// Material is a downloadable study resource. FileURL points into the blob
// store and may be empty until a file is attached.
type Material struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Subject     string    `db:"subject" json:"subject"`
	Description string    `db:"description" json:"description,omitempty"`
	FileURL     string    `db:"file_url" json:"file_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
