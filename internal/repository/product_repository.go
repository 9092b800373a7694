package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// ProductFilter captures catalog listing parameters.
type ProductFilter struct {
	Category   *string
	Brand      *string
	SearchTerm *string
	Featured   *bool
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductRepository encapsulates catalog persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	IncrementViews(ctx context.Context, id string) error
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `id, name, description, category, subcategory, brand,
       price_cents, sale_price_cents, sale_starts_at, sale_ends_at,
       stock, low_stock_threshold, image_url, documents, rating,
       view_count, sales_count, is_active, is_featured, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	docs, err := json.Marshal(product.Documents)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO products (name, description, category, subcategory, brand,
            price_cents, sale_price_cents, sale_starts_at, sale_ends_at,
            stock, low_stock_threshold, image_url, documents, is_active, is_featured)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.Category,
		product.Subcategory,
		product.Brand,
		product.PriceCents,
		product.SalePriceCents,
		product.SaleStartsAt,
		product.SaleEndsAt,
		product.Stock,
		product.LowStockThreshold,
		product.ImageURL,
		docs,
		product.IsActive,
		product.IsFeatured,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	docs, err := json.Marshal(product.Documents)
	if err != nil {
		return err
	}
	const query = `
        UPDATE products SET name=$1, description=$2, category=$3, subcategory=$4, brand=$5,
            price_cents=$6, sale_price_cents=$7, sale_starts_at=$8, sale_ends_at=$9,
            stock=$10, low_stock_threshold=$11, image_url=$12, documents=$13,
            is_active=$14, is_featured=$15, updated_at=NOW()
        WHERE id=$16`
	cmd, err := r.pool.Exec(ctx, query,
		product.Name,
		product.Description,
		product.Category,
		product.Subcategory,
		product.Brand,
		product.PriceCents,
		product.SalePriceCents,
		product.SaleStartsAt,
		product.SaleEndsAt,
		product.Stock,
		product.LowStockThreshold,
		product.ImageURL,
		docs,
		product.IsActive,
		product.IsFeatured,
		product.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	var docs []byte
	if err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id).Scan(
		productFields(&product, &docs)...,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docs, &product.Documents); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	base := `SELECT ` + productColumns + ` FROM products`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Brand != nil {
		args = append(args, *filter.Brand)
		clauses = append(clauses, fmt.Sprintf("brand=$%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		clauses = append(clauses, fmt.Sprintf("is_featured=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *productRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE products SET view_count = view_count + 1 WHERE id=$1`, id)
	return err
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var result []domain.Product
	for rows.Next() {
		var product domain.Product
		var docs []byte
		if err := rows.Scan(productFields(&product, &docs)...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(docs, &product.Documents); err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, rows.Err()
}

func productFields(p *domain.Product, docs *[]byte) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Subcategory,
		&p.Brand,
		&p.PriceCents,
		&p.SalePriceCents,
		&p.SaleStartsAt,
		&p.SaleEndsAt,
		&p.Stock,
		&p.LowStockThreshold,
		&p.ImageURL,
		docs,
		&p.Rating,
		&p.ViewCount,
		&p.SalesCount,
		&p.IsActive,
		&p.IsFeatured,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}
