// internal/identity/service.go
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the identity service.
type Service interface {
	Register(ctx context.Context, email, password, fullName, collegeID, department string) (*Profile, error)
	Authenticate(ctx context.Context, email, password string) (*Profile, string, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}
