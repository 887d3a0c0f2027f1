// Command seed replaces the catalogue with sample products and makes sure an
// admin account exists.
//
//	SEED_ADMIN_EMAIL=admin@globomart.com SEED_ADMIN_PASSWORD=changeme go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"globomart/internal/auth"
	"globomart/internal/config"
	"globomart/internal/database"
	"globomart/internal/model"
	"globomart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var sampleProducts = []model.ProductInput{
	{Name: "SanDisk Ultra 128GB microSDXC", Description: "Up to 120MB/s transfer speeds for full HD video.", Price: 45.89, Category: "Electronics", Seller: "Ebay", Stock: 50},
	{Name: "Canon EOS R100 Mirrorless Camera", Description: "24.1MP APS-C sensor with 4K video.", Price: 749.00, Category: "Cameras", Seller: "Amazon", Stock: 8},
	{Name: "Lenovo IdeaPad Slim 3", Description: "15.6 inch FHD, Ryzen 5, 16GB RAM, 512GB SSD.", Price: 579.99, Category: "Laptops", Seller: "Lenovo", Stock: 12},
	{Name: "Anker USB-C Charging Cable", Description: "Braided 2m cable rated for 60W.", Price: 12.49, Category: "Accessories", Seller: "Anker", Stock: 200},
	{Name: "Sony WH-1000XM5", Description: "Wireless noise cancelling over-ear headphones.", Price: 399.00, Category: "Headphones", Seller: "Sony", Stock: 15},
	{Name: "Organic Rolled Oats 1kg", Description: "Whole grain oats, stone milled.", Price: 5.99, Category: "Food", Seller: "Woolworths", Stock: 80},
	{Name: "The Go Programming Language", Description: "Donovan and Kernighan.", Price: 54.95, Category: "Books", Seller: "Addison-Wesley", Stock: 25},
	{Name: "Wilson Evolution Basketball", Description: "Indoor composite leather game ball.", Price: 79.95, Category: "Sports", Seller: "Rebel", Stock: 30},
	{Name: "Coleman Sundome 4 Tent", Description: "Four person dome tent with rainfly.", Price: 159.00, Category: "Outdoor", Seller: "BCF", Stock: 6},
	{Name: "Philips Hue Starter Kit", Description: "Three smart bulbs and a bridge.", Price: 199.95, Category: "Home", Seller: "JB Hi-Fi", Stock: 10},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	admin, err := ensureAdmin(ctx, pool, logger)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}
	logger.Info().Msg("products deleted")

	products := repository.NewProductRepository(pool, logger)
	now := time.Now().UTC()
	for i, in := range sampleProducts {
		p := &model.Product{
			ID:          uuid.New(),
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
			Category:    in.Category,
			Seller:      in.Seller,
			Stock:       in.Stock,
			CreatedBy:   admin.ID,
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		}
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to insert %q: %w", in.Name, err)
		}
	}
	logger.Info().Int("count", len(sampleProducts)).Msg("products inserted")

	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (*model.User, error) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil, fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	users := repository.NewUserRepository(pool, logger)
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			existing.Role = model.RoleAdmin
			if err := users.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to promote admin: %w", err)
			}
		}
		logger.Info().Str("email", email).Msg("admin account already exists")
		return existing, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &model.User{
		ID:           uuid.New(),
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	logger.Info().Str("email", email).Msg("admin account created")
	return admin, nil
}
