package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	TotalAccounts  = 1000
	InitialBalance = "100.00"
)

func main() {
	host := envOr("HOST", "localhost:5432")
	username := envOr("USERNAME", "admin")
	password := envOr("PASSWORD", "secret")
	dbName := envOr("DB_NAME", "ledger")
	dbURL := "postgres://" + username + ":" + password + "@" + host + "/" + dbName

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer conn.Close(ctx)

	log.Println("--- Seeding Database ---")

	// 1. Business to own everything
	var businessID int64
	err = conn.QueryRow(ctx,
		"INSERT INTO businesses (name) VALUES ('seed_business') RETURNING id").Scan(&businessID)
	if err != nil {
		log.Fatalf("Business insert failed: %v", err)
	}

	// 2. An active webhook so money movements can commit
	_, err = conn.Exec(ctx,
		"INSERT INTO webhooks (business_id, url, secret, status) VALUES ($1, 'http://localhost:9999/hook', gen_random_uuid()::text, 'active')",
		businessID)
	if err != nil {
		log.Fatalf("Webhook insert failed: %v", err)
	}

	// 3. Check existing
	var count int
	conn.QueryRow(ctx, "SELECT COUNT(*) FROM business_accounts").Scan(&count)
	if count >= TotalAccounts {
		log.Printf("Database already has %d accounts. Skipping.", count)
		return
	}

	// 4. Bulk insert using CopyFrom (fastest method)
	log.Printf("Generating %d accounts...", TotalAccounts)
	balance := decimal.RequireFromString(InitialBalance)
	rows := [][]interface{}{}
	for i := 0; i < TotalAccounts; i++ {
		rows = append(rows, []interface{}{businessID, "seed_account", "USD", balance, time.Now()})
	}

	copyCount, err := conn.CopyFrom(
		ctx,
		pgx.Identifier{"business_accounts"},
		[]string{"business_id", "name", "currency", "balance", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		log.Fatalf("Bulk insert failed: %v", err)
	}

	log.Printf("Successfully seeded %d accounts for business %d.", copyCount, businessID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
