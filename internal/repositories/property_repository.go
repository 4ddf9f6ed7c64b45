package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/models"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error
}

type propertyRepo struct {
	*BaseVersionedRepo[*models.Property]
	db DB
}

func NewPropertyRepository(db DB) PropertyRepository {
	r := &propertyRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectProperty()+" WHERE id=$1", scanProperty)
	return r
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO properties (
			id, owner_id, name, address, has_units, status,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6, NOW(), NOW(), 1)
	`, p.ID, p.OwnerID, p.Name, p.Address, p.HasUnits, p.Status)
	if err == nil {
		p.RowVersion = 1
	}
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *propertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE properties
		SET name=$1, address=$2, has_units=$3, status=$4,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$5 AND row_version=$6
	`, p.Name, p.Address, p.HasUnits, p.Status, p.ID, expected)
}

func (r *propertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func baseSelectProperty() string {
	return `
		SELECT id, owner_id, name, address, has_units, status,
		created_at, updated_at, row_version
		FROM properties`
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	if err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.HasUnits, &p.Status,
		&p.CreatedAt, &p.UpdatedAt, &p.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
