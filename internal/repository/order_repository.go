package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// InsufficientStockError reports which product could not cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (available %d)", e.ProductID, e.Available)
}

// OrderFilter captures admin listing parameters.
type OrderFilter struct {
	UserID *string
	Status *domain.OrderStatus
	Limit  int
	Offset int
}

// OrderStats aggregates fulfillment figures for the admin listing.
type OrderStats struct {
	TotalOrders   int64
	RevenueCents  int64
	CountByStatus map[domain.OrderStatus]int64
}

// OrderRepository encapsulates order persistence. Creation and
// cancellation run inside a single transaction together with their
// stock side effects.
type OrderRepository interface {
	CreateWithStockDecrement(ctx context.Context, order *domain.Order) error
	CancelWithStockRestore(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	Stats(ctx context.Context) (*OrderStats, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, user_id, shipping_address, payment_method,
       items_cents, tax_cents, shipping_cents, total_cents,
       is_paid, paid_at, payment_result, status, is_delivered, delivered_at,
       created_at, updated_at`

// CreateWithStockDecrement persists the order and decrements stock for
// every line item in one transaction. A conditional decrement guards
// each item; any failure rolls the whole order back, so no partial
// decrement can survive a concurrent oversell attempt.
func (r *orderRepository) CreateWithStockDecrement(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range order.Items {
		cmd, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $1, sales_count = sales_count + $1, updated_at = NOW()
             WHERE id = $2 AND stock >= $1`,
			item.Quantity, item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			var available int
			if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, item.ProductID).Scan(&available); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return pgx.ErrNoRows
				}
				return err
			}
			return &InsufficientStockError{ProductID: item.ProductID, Available: available}
		}
	}

	addr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, shipping_address, payment_method,
             items_cents, tax_cents, shipping_cents, total_cents, status)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
         RETURNING id, created_at, updated_at`,
		order.UserID,
		addr,
		order.PaymentMethod,
		order.ItemsCents,
		order.TaxCents,
		order.ShippingCents,
		order.TotalCents,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, name, image_url, quantity, unit_price_cents)
             VALUES ($1,$2,$3,$4,$5,$6)
             RETURNING id`,
			item.OrderID, item.ProductID, item.Name, item.ImageURL, item.Quantity, item.UnitPriceCents,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CancelWithStockRestore flips the order to cancelled and restores the
// exact quantities it decremented, in one transaction.
func (r *orderRepository) CancelWithStockRestore(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status IN ($3,$4)`,
		domain.OrderStatusCancelled, order.ID, domain.OrderStatusPending, domain.OrderStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $1,
                 sales_count = GREATEST(sales_count - $1, 0), updated_at = NOW()
             WHERE id = $2`,
			item.Quantity, item.ProductID,
		); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	order.Status = domain.OrderStatusCancelled
	return nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	var payment []byte
	if order.PaymentResult != nil {
		var err error
		payment, err = json.Marshal(order.PaymentResult)
		if err != nil {
			return err
		}
	}
	// A cancellation landing between load and update must win: its
	// stock was already restored.
	const query = `
        UPDATE orders SET is_paid=$1, paid_at=$2, payment_result=$3,
            status=$4, is_delivered=$5, delivered_at=$6, updated_at=NOW()
        WHERE id=$7 AND status != $8`
	cmd, err := r.pool.Exec(ctx, query,
		order.IsPaid,
		order.PaidAt,
		payment,
		order.Status,
		order.IsDelivered,
		order.DeliveredAt,
		order.ID,
		domain.OrderStatusCancelled,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	var addr, payment []byte
	if err := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id).Scan(
		orderFields(&order, &addr, &payment)...,
	); err != nil {
		return nil, err
	}
	if err := finishOrder(&order, addr, payment); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	return r.ListWithFilter(ctx, OrderFilter{UserID: &userID, Limit: limit, Offset: offset})
}

func (r *orderRepository) ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	base := `SELECT ` + orderColumns + ` FROM orders`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
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

	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		var addr, payment []byte
		if err := rows.Scan(orderFields(&order, &addr, &payment)...); err != nil {
			return nil, err
		}
		if err := finishOrder(&order, addr, payment); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := r.loadItems(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *orderRepository) Stats(ctx context.Context) (*OrderStats, error) {
	stats := &OrderStats{CountByStatus: make(map[domain.OrderStatus]int64)}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_cents) FILTER (WHERE is_paid), 0) FROM orders`,
	).Scan(&stats.TotalOrders, &stats.RevenueCents); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.CountByStatus[status] = count
	}
	return stats, rows.Err()
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, name, image_url, quantity, unit_price_cents
         FROM order_items WHERE order_id=$1`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.ImageURL, &item.Quantity, &item.UnitPriceCents); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func orderFields(o *domain.Order, addr, payment *[]byte) []any {
	return []any{
		&o.ID,
		&o.UserID,
		addr,
		&o.PaymentMethod,
		&o.ItemsCents,
		&o.TaxCents,
		&o.ShippingCents,
		&o.TotalCents,
		&o.IsPaid,
		&o.PaidAt,
		payment,
		&o.Status,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

func finishOrder(o *domain.Order, addr, payment []byte) error {
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return err
	}
	if len(payment) > 0 {
		o.PaymentResult = &domain.PaymentResult{}
		if err := json.Unmarshal(payment, o.PaymentResult); err != nil {
			return err
		}
	}
	return nil
}
