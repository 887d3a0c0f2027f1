package repository

import (
	"context"
	"fmt"
	"time"

	"globomart/internal/model"
	"globomart/internal/sales"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `o.id, o.user_id, u.name, u.email, o.shipping_info, o.items_price, o.tax_amount,
	o.shipping_amount, o.total_amount, o.payment_method, o.payment_id, o.payment_status,
	o.order_status, o.created_at, o.delivered_at`

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		o       model.Order
		summary model.UserSummary
	)
	err := row.Scan(
		&o.ID, &o.UserID, &summary.Name, &summary.Email, &o.ShippingInfo, &o.ItemsPrice, &o.TaxAmount,
		&o.ShippingAmount, &o.TotalAmount, &o.PaymentMethod, &o.PaymentInfo.ID, &o.PaymentInfo.Status,
		&o.OrderStatus, &o.CreatedAt, &o.DeliveredAt,
	)
	summary.ID = o.UserID
	o.User = &summary
	o.Items = []model.OrderItem{}
	return o, err
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, shipping_info, items_price, tax_amount, shipping_amount, total_amount,
			payment_method, payment_id, payment_status, order_status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.ShippingInfo, order.ItemsPrice, order.TaxAmount, order.ShippingAmount,
		order.TotalAmount, order.PaymentMethod, order.PaymentInfo.ID, order.PaymentInfo.Status,
		order.OrderStatus, order.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", translateError(err))
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts the order's line items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, product_id, name, quantity, price, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, uuid.New(), orderID, i, item.ProductID, item.Name, item.Quantity, item.Price, item.Image)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", translateError(err))
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders o JOIN users u ON u.id = o.user_id WHERE o.id = $1"

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// LockStatus reads the order's status with a row lock held until tx ends.
func (r *orderRepository) LockStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.OrderStatus, error) {
	var status model.OrderStatus
	err := tx.QueryRow(ctx, "SELECT order_status FROM orders WHERE id = $1 FOR UPDATE", id).Scan(&status)
	if err != nil {
		if isNoRows(err) {
			return "", model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return "", fmt.Errorf("failed to lock order: %w", err)
	}
	return status, nil
}

// UpdateStatus writes the lifecycle fields of the order within tx.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET order_status = $2, delivered_at = $3, payment_status = $4
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, order.ID, order.OrderStatus, order.DeliveredAt, order.PaymentInfo.Status)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// ListByUser retrieves the user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := "SELECT " + orderColumns + ` FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id`
	return r.queryOrders(ctx, query, userID)
}

// ListAll retrieves every order, newest first.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders o JOIN users u ON u.id = o.user_id ORDER BY o.created_at DESC, o.id"
	return r.queryOrders(ctx, query)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the line items of all orders with a single query.
func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(orders))
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids[i] = o.ID
	}

	query := `
		SELECT order_id, product_id, name, quantity, price, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			item    model.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Image); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// Delete removes an order and its items.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// HasOrderedProduct reports whether any of the user's orders contains the product.
func (r *orderRepository) HasOrderedProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.product_id = $2
		)
	`

	var ok bool
	if err := r.pool.QueryRow(ctx, query, userID, productID).Scan(&ok); err != nil {
		r.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("product_id", productID.String()).
			Msg("failed to check purchase")
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return ok, nil
}

// SalesByDay sums order totals and counts orders per UTC calendar date for
// every order created from start up to the end of end's UTC day.
func (r *orderRepository) SalesByDay(ctx context.Context, start, end time.Time) (map[string]sales.Group, error) {
	end = end.UTC()
	upper := time.Date(end.Year(), end.Month(), end.Day()+1, 0, 0, 0, 0, time.UTC)

	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       SUM(total_amount)::text,
		       COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
	`

	rows, err := r.pool.Query(ctx, query, start, upper)
	if err != nil {
		r.logger.Error().Err(err).Time("start", start).Time("end", end).Msg("failed to aggregate sales")
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer rows.Close()

	groups := make(map[string]sales.Group)
	for rows.Next() {
		var (
			day   string
			total string
			count int
		)
		if err := rows.Scan(&day, &total, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sales row: %w", err)
		}
		amount, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sales total %q: %w", total, err)
		}
		groups[day] = sales.Group{Sales: amount, NumOrders: count}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales rows: %w", err)
	}

	return groups, nil
}
