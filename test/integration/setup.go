package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"globomart/internal/auth"
	"globomart/internal/config"
	"globomart/internal/database"
	"globomart/internal/model"
	"globomart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
		Migrate:         true,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedUser inserts an account that can log in with password.
func SeedUser(t *testing.T, pool *pgxpool.Pool, name, email, password, role string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repository.NewUserRepository(pool, zerolog.Nop()).Create(context.Background(), &user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

// SeedProducts inserts test catalogue data created by owner.
func SeedProducts(t *testing.T, pool *pgxpool.Pool, owner uuid.UUID) []model.Product {
	t.Helper()

	base := time.Now().UTC().Add(-time.Hour)
	products := []model.Product{
		{Name: "Wireless Mouse", Description: "2.4GHz ergonomic mouse", Price: 24.99, Category: "Electronics", Seller: "Logi", Stock: 10},
		{Name: "Mechanical Keyboard", Description: "Hot-swap switches", Price: 89.50, Category: "Electronics", Seller: "Keychron", Stock: 5},
		{Name: "Trail Tent", Description: "Two person tent", Price: 199.00, Category: "Outdoor", Seller: "REI", Stock: 3},
		{Name: "Go in Action", Description: "Programming book", Price: 39.99, Category: "Books", Seller: "Manning", Stock: 20},
		{Name: "Noise Cancelling Headphones", Description: "Over-ear", Price: 249.00, Category: "Headphones", Seller: "Sony", Stock: 7},
	}

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	for i := range products {
		products[i].ID = uuid.New()
		products[i].CreatedBy = owner
		products[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(context.Background(), &products[i]); err != nil {
			t.Fatalf("failed to seed product %s: %v", products[i].Name, err)
		}
	}
	return products
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"processed_events", "order_items", "orders", "reviews", "products", "users"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
