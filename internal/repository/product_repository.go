package repository

import (
	"context"
	"fmt"

	"globomart/internal/apifilter"
	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ProductFilterSchema is the allow-list of catalogue query parameters.
var ProductFilterSchema = apifilter.Schema{
	Fields: map[string]apifilter.Field{
		"category": {Column: "category", Kind: apifilter.KindString, Ops: []apifilter.Operator{apifilter.OpEq}},
		"seller":   {Column: "seller", Kind: apifilter.KindString, Ops: []apifilter.Operator{apifilter.OpEq}},
		"price":    {Column: "price", Kind: apifilter.KindNumber, Ops: apifilter.RangeOps},
		"ratings":  {Column: "ratings", Kind: apifilter.KindNumber, Ops: apifilter.RangeOps},
		"stock":    {Column: "stock", Kind: apifilter.KindNumber, Ops: apifilter.RangeOps},
	},
	SearchColumn: "name",
	Sortable: map[string]string{
		"price":     "price",
		"ratings":   "ratings",
		"name":      "name",
		"createdAt": "created_at",
	},
	DefaultOrder: "created_at ASC, id ASC",
}

const productColumns = `id, name, description, price, category, seller, stock, images,
	ratings, num_of_reviews, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Seller, &p.Stock, &p.Images,
		&p.Ratings, &p.NumOfReviews, &p.CreatedBy, &p.CreatedAt,
	)
	if p.Images == nil {
		p.Images = []model.Image{}
	}
	return p, err
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// Find executes a catalogue query built by apifilter.
func (r *productRepository) Find(ctx context.Context, q apifilter.Query) ([]model.Product, int, error) {
	where, args := q.Where()

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Str("where", where).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products" + where + q.OrderBy() + q.LimitOffset()
	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListAll retrieves every product, newest first.
func (r *productRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	return r.queryProducts(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC, id")
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := "SELECT " + productColumns + " FROM products WHERE id = ANY($1) ORDER BY name"
	return r.queryProducts(ctx, query, ids)
}

// ValidateProductsExist checks if all provided product IDs exist in the database.
// Duplicate IDs are counted once.
func (r *productRepository) ValidateProductsExist(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	query := `
		SELECT COUNT(DISTINCT id)
		FROM products
		WHERE id = ANY($1)
	`

	var count int
	err := r.pool.QueryRow(ctx, query, ids).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to validate products exist")
		return fmt.Errorf("failed to validate products exist: %w", err)
	}

	if count != len(unique) {
		r.logger.Warn().
			Int("expected", len(unique)).
			Int("found", count).
			Msg("not all product IDs exist")
		return model.ErrProductsNotFound
	}

	return nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	if p.Images == nil {
		p.Images = []model.Image{}
	}

	query := `
		INSERT INTO products (id, name, description, price, category, seller, stock, images, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Seller, p.Stock, p.Images, p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", translateError(err))
	}

	return nil
}

// Update writes the editable product fields.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, seller = $6, stock = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Category, p.Seller, p.Stock)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// UpdateImages replaces the product's image list.
func (r *productRepository) UpdateImages(ctx context.Context, id uuid.UUID, images []model.Image) error {
	if images == nil {
		images = []model.Image{}
	}

	tag, err := r.pool.Exec(ctx, "UPDATE products SET images = $2 WHERE id = $1", id, images)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product images")
		return fmt.Errorf("failed to update product images: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// Delete removes a product and, through the foreign key, its reviews.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// DecrementStock subtracts each line quantity from its product within tx.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `UPDATE products SET stock = stock - $2 WHERE id = $1`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ProductID, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to decrement stock")
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			r.logger.Warn().Str("product_id", items[i].ProductID.String()).Msg("product vanished before stock update")
			return model.ErrProductsNotFound
		}
	}

	r.logger.Debug().Int("count", len(items)).Msg("stock decremented")

	return nil
}
