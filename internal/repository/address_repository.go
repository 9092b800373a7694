package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// AddressRepository manages saved shipping addresses.
type AddressRepository interface {
	Create(ctx context.Context, address *domain.Address) error
	Update(ctx context.Context, address *domain.Address) error
	Delete(ctx context.Context, userID, id string) error
	GetByID(ctx context.Context, userID, id string) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	ClearDefault(ctx context.Context, userID string) error
}

type addressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns a Postgres-backed implementation.
func NewAddressRepository(pool *pgxpool.Pool) AddressRepository {
	return &addressRepository{pool: pool}
}

func (r *addressRepository) Create(ctx context.Context, address *domain.Address) error {
	const query = `
        INSERT INTO addresses (user_id, label, recipient, street, city, state, postal_code, country, phone, is_default)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		address.UserID,
		address.Label,
		address.Recipient,
		address.Street,
		address.City,
		address.State,
		address.PostalCode,
		address.Country,
		address.Phone,
		address.IsDefault,
	).Scan(&address.ID, &address.CreatedAt, &address.UpdatedAt)
}

func (r *addressRepository) Update(ctx context.Context, address *domain.Address) error {
	const query = `
        UPDATE addresses SET label=$1, recipient=$2, street=$3, city=$4, state=$5,
            postal_code=$6, country=$7, phone=$8, is_default=$9, updated_at=NOW()
        WHERE id=$10 AND user_id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		address.Label,
		address.Recipient,
		address.Street,
		address.City,
		address.State,
		address.PostalCode,
		address.Country,
		address.Phone,
		address.IsDefault,
		address.ID,
		address.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, userID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *addressRepository) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	const query = `
        SELECT id, user_id, label, recipient, street, city, state, postal_code, country, phone, is_default, created_at, updated_at
        FROM addresses WHERE id=$1 AND user_id=$2`
	var a domain.Address
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&a.ID, &a.UserID, &a.Label, &a.Recipient, &a.Street, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	const query = `
        SELECT id, user_id, label, recipient, street, city, state, postal_code, country, phone, is_default, created_at, updated_at
        FROM addresses WHERE user_id=$1 ORDER BY is_default DESC, created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Label, &a.Recipient, &a.Street, &a.City, &a.State,
			&a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// ClearDefault unsets the default flag across a user's address book,
// keeping the single-default invariant before another address takes it.
func (r *addressRepository) ClearDefault(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE addresses SET is_default=FALSE, updated_at=NOW() WHERE user_id=$1 AND is_default`, userID)
	return err
}
