// internal/materials/implementation.go
package materials

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campuslib/internal/store"
)

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new materials service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

func (s *service) AddMaterial(ctx context.Context, title, subject, description string) (*Material, error) {
	if title == "" || subject == "" {
		return nil, fmt.Errorf("title and subject are required: %w", store.ErrInvalidState)
	}

	material := &Material{
		ID:          uuid.New(),
		Title:       title,
		Subject:     subject,
		Description: description,
		CreatedAt:   time.Now(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO study_materials (id, title, subject, description, file_url, created_at)
		VALUES (:id, :title, :subject, :description, :file_url, :created_at)
	`, material)
	if err != nil {
		return nil, fmt.Errorf("insert material: %w", err)
	}

	return material, nil
}

func (s *service) List(ctx context.Context) ([]Material, error) {
	list := []Material{}
	err := s.db.SelectContext(ctx, &list, `
		SELECT id, title, subject, description, file_url, created_at
		FROM study_materials
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

func (s *service) SetFile(ctx context.Context, id uuid.UUID, fileURL string) (*Material, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE study_materials SET file_url = $2 WHERE id = $1`, id, fileURL)
	if err != nil {
		return nil, fmt.Errorf("set file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("material %s: %w", id, store.ErrNotFound)
	}

	var material Material
	err = s.db.GetContext(ctx, &material, `
		SELECT id, title, subject, description, file_url, created_at
		FROM study_materials WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &material, nil
}
