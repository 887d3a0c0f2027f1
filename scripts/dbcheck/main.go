// Command dbcheck verifies the configured database is reachable and reports
// which migrations have been applied.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"globomart/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	err = conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)

	rows, err := conn.Query(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		fmt.Println("No migrations applied yet")
		return
	}
	defer rows.Close()

	fmt.Println("\nApplied migrations:")
	for rows.Next() {
		var (
			version   string
			appliedAt time.Time
		)
		if err := rows.Scan(&version, &appliedAt); err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  - %s (%s)\n", version, appliedAt.Format(time.RFC3339))
	}
}
