// internal/identity/implementation.go
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"campuslib/internal/store"
)

// service implements the Service interface.
type service struct {
	db          *sqlx.DB
	jwtSecret   string
	tokenTTL    time.Duration
	rateLimiter *rate.Limiter
}

// NewService creates a new identity service instance.
func NewService(db *sqlx.DB, jwtSecret string, tokenTTL time.Duration) Service {
	return &service{
		db:          db,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 30), // 1 rps sustained, burst of 30
	}
}

// Register provisions a profile and its credential. The role is decided
// here, once: the reserved department value marks the librarian, every
// other department yields a regular member.
func (s *service) Register(ctx context.Context, email, password, fullName, collegeID, department string) (*Profile, error) {
	if !s.rateLimiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded: %w", store.ErrRateLimited)
	}
	if email == "" || password == "" || fullName == "" || department == "" {
		return nil, fmt.Errorf("email, password, full name and department are required: %w", store.ErrInvalidState)
	}

	role := RoleMember
	if department == DepartmentAdmin {
		role = RoleLibrarian
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &Profile{
		ID:         uuid.New(),
		Email:      email,
		FullName:   fullName,
		CollegeID:  collegeID,
		Department: department,
		Role:       role,
		CreatedAt:  time.Now(),
	}
	credential := &Credential{
		ProfileID:    profile.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.insertProfile(ctx, profile, credential); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email already registered: %w", store.ErrConflict)
		}
		return nil, fmt.Errorf("failed to provision profile: %w", err)
	}

	return profile, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (class 23505), the signal that the email is already taken.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *service) insertProfile(ctx context.Context, profile *Profile, credential *Credential) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, college_id, department, role, created_at)
		VALUES (:id, :email, :full_name, :college_id, :department, :role, :created_at)
	`, profile)
	if err != nil {
		return err
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO credentials (profile_id, password_hash, salt)
		VALUES (:profile_id, :password_hash, :salt)
	`, credential)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Authenticate verifies credentials and returns the profile with a signed
// bearer token.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Profile, string, error) {
	if !s.rateLimiter.Allow() {
		return nil, "", fmt.Errorf("rate limit exceeded: %w", store.ErrRateLimited)
	}

	profile, err := s.getProfileByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("authentication failed: %w", err)
	}

	var credential Credential
	err = s.db.GetContext(ctx, &credential, `
		SELECT profile_id, password_hash, salt FROM credentials WHERE profile_id = $1
	`, profile.ID)
	if err != nil {
		return nil, "", fmt.Errorf("authentication failed: %w", err)
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, "", fmt.Errorf("authentication failed: invalid credentials")
	}

	token, err := issueToken(s.jwtSecret, profile, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	return profile, token, nil
}

func (s *service) getProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	var profile Profile
	err := s.db.GetContext(ctx, &profile, `
		SELECT id, email, full_name, college_id, department, role, created_at
		FROM profiles WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile for %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfile retrieves a profile by its ID.
func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	err := s.db.GetContext(ctx, &profile, `
		SELECT id, email, full_name, college_id, department, role, created_at
		FROM profiles WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}
