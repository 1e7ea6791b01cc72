package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Seeds a development database with a small product catalog, an open
// shift and a handful of campaigns so the API is usable immediately
// after `make migrate && go run ./cmd/tools/seeder`.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	products := seedProducts(db)
	seedShift(db)
	seedCampaigns(db, products)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) map[string]string {
	catalog := []struct {
		Name  string
		Price float64
	}{
		{"Espresso", 5.0},
		{"Cappuccino", 8.5},
		{"Flat White", 9.0},
		{"Croissant", 6.5},
		{"Khachapuri", 12.0},
		{"Lobiani", 7.0},
		{"Orange Juice", 6.0},
		{"Sparkling Water", 3.5},
	}

	fmt.Println("Seeding Products...")
	ids := make(map[string]string, len(catalog))
	for _, p := range catalog {
		var id string
		err := db.QueryRow(`
			SELECT id FROM products WHERE name = $1 LIMIT 1;
		`, p.Name).Scan(&id)
		if err == sql.ErrNoRows {
			id = uuid.NewString()
			_, err = db.Exec(`
				INSERT INTO products (id, name, price) VALUES ($1, $2, $3);
			`, id, p.Name, p.Price)
		}
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.Name, err)
		}
		ids[p.Name] = id
	}
	return ids
}

func seedShift(db *sql.DB) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM shifts WHERE status = 'open'`).Scan(&count); err != nil {
		log.Fatalf("Failed to count open shifts: %v", err)
	}
	if count > 0 {
		return
	}

	fmt.Println("Seeding Shift...")
	_, err := db.Exec(`
		INSERT INTO shifts (id, status, start_time) VALUES ($1, 'open', $2);
	`, uuid.NewString(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.Fatalf("Failed to seed shift: %v", err)
	}
}

func seedCampaigns(db *sql.DB, products map[string]string) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM combos`).Scan(&count); err != nil {
		log.Fatalf("Failed to count combos: %v", err)
	}
	if count > 0 {
		return
	}

	fmt.Println("Seeding Campaigns...")

	// 10% off croissants.
	_, err := db.Exec(`
		INSERT INTO product_discounts (id, product_id, discount) VALUES ($1, $2, $3);
	`, uuid.NewString(), products["Croissant"], 0.10)
	if err != nil {
		log.Fatalf("Failed to seed product discount: %v", err)
	}

	// 5% off receipts over 50.
	_, err = db.Exec(`
		INSERT INTO receipt_discounts (id, minimum_total, discount) VALUES ($1, $2, $3);
	`, uuid.NewString(), 50.0, 0.05)
	if err != nil {
		log.Fatalf("Failed to seed receipt discount: %v", err)
	}

	// Breakfast combo: espresso + croissant at 20% off.
	comboID := uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO combos (id, name, discount) VALUES ($1, $2, $3);
	`, comboID, "Breakfast Set", 0.20)
	if err != nil {
		log.Fatalf("Failed to seed combo: %v", err)
	}
	for _, item := range []struct {
		Product  string
		Quantity int
	}{
		{"Espresso", 1},
		{"Croissant", 1},
	} {
		_, err = db.Exec(`
			INSERT INTO combo_items (id, combo_id, product_id, quantity) VALUES ($1, $2, $3, $4);
		`, uuid.NewString(), comboID, products[item.Product], item.Quantity)
		if err != nil {
			log.Fatalf("Failed to seed combo item: %v", err)
		}
	}

	// Buy five espressos, get one free.
	_, err = db.Exec(`
		INSERT INTO buy_n_get_ns (id, buy_product_id, buy_product_n, get_product_id, get_product_n)
		VALUES ($1, $2, $3, $4, $5);
	`, uuid.NewString(), products["Espresso"], 5, products["Espresso"], 1)
	if err != nil {
		log.Fatalf("Failed to seed buy-n-get-n: %v", err)
	}
}
