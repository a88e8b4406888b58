// internal/materials/service.go
package materials

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the study-materials service.
type Service interface {
	AddMaterial(ctx context.Context, title, subject, description string) (*Material, error)
	List(ctx context.Context) ([]Material, error)
	SetFile(ctx context.Context, id uuid.UUID, fileURL string) (*Material, error)
}
