package repository

import (
	"context"
	"fmt"

	"github.com/Safyd-Zey/backend-shelter/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShelterRepository interface {
	CreateShelter(ctx context.Context, shelter *models.Shelter) error
	GetShelterByID(ctx context.Context, id uuid.UUID) (*models.Shelter, error)
	// GetShelterByAdmin finds the shelter administered by the given user.
	// Admin ids are unique across shelters, so at most one row matches.
	GetShelterByAdmin(ctx context.Context, adminID uuid.UUID) (*models.Shelter, error)
}

type PostgresShelterRepo struct {
	pool *pgxpool.Pool
}

func NewShelterRepo(pool *pgxpool.Pool) ShelterRepository {
	return &PostgresShelterRepo{
		pool: pool,
	}
}

const shelterColumns = `id, admin_id, name, city, location, phone, description, is_active, created_at, updated_at`

func (r *PostgresShelterRepo) CreateShelter(ctx context.Context, shelter *models.Shelter) error {
	const query = `
		INSERT INTO shelters (id, admin_id, name, city, location, phone, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING is_active, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		shelter.ID,
		shelter.AdminID,
		shelter.Name,
		shelter.City,
		shelter.Location,
		shelter.Phone,
		shelter.Description,
	).Scan(&shelter.IsActive, &shelter.CreatedAt, &shelter.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert shelter: %w", err)
	}

	return nil
}

func (r *PostgresShelterRepo) GetShelterByID(ctx context.Context, id uuid.UUID) (*models.Shelter, error) {
	query := `SELECT ` + shelterColumns + ` FROM shelters WHERE id = $1`

	shelter := &models.Shelter{}
	if err := r.scanShelter(r.pool.QueryRow(ctx, query, id), shelter); err != nil {
		return nil, fmt.Errorf("failed to find shelter by ID: %w", err)
	}
	return shelter, nil
}

func (r *PostgresShelterRepo) GetShelterByAdmin(ctx context.Context, adminID uuid.UUID) (*models.Shelter, error) {
	query := `SELECT ` + shelterColumns + ` FROM shelters WHERE admin_id = $1`

	shelter := &models.Shelter{}
	if err := r.scanShelter(r.pool.QueryRow(ctx, query, adminID), shelter); err != nil {
		return nil, fmt.Errorf("failed to find shelter by admin: %w", err)
	}
	return shelter, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresShelterRepo) scanShelter(row rowScanner, shelter *models.Shelter) error {
	return row.Scan(
		&shelter.ID,
		&shelter.AdminID,
		&shelter.Name,
		&shelter.City,
		&shelter.Location,
		&shelter.Phone,
		&shelter.Description,
		&shelter.IsActive,
		&shelter.CreatedAt,
		&shelter.UpdatedAt,
	)
}
