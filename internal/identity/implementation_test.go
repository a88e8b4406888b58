package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"campuslib/internal/store"
)

func TestRegisterRateLimited(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, "secret", time.Hour).(*service)
	svc.rateLimiter = rate.NewLimiter(rate.Every(time.Minute), 1)

	// The first call consumes the only token; validation rejects it
	// before any database work.
	_, err := svc.Register(ctx, "", "", "", "", "")
	require.ErrorIs(t, err, store.ErrInvalidState)

	_, err = svc.Register(ctx, "", "", "", "", "")
	assert.ErrorIs(t, err, store.ErrRateLimited)
	assert.NotErrorIs(t, err, store.ErrConflict)
}

func TestAuthenticateRateLimited(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, "secret", time.Hour).(*service)
	svc.rateLimiter = rate.NewLimiter(rate.Every(time.Minute), 0)

	_, _, err := svc.Authenticate(ctx, "member@campuslib.test", "SecurePass123!")
	assert.ErrorIs(t, err, store.ErrRateLimited)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert profile: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}
