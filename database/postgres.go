package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var DB *sql.DB

// InitDatabase opens and verifies the postgres connection.
func InitDatabase(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	DB, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("connected to database")
	return nil
}

// CreateTables creates the schema if it does not exist. Price history is
// append-only; deleting a product cascades its history and alerts, which
// is the only way observations are ever removed.
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			store VARCHAR(20) NOT NULL,
			sku VARCHAR(64) NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			image_url TEXT,
			target_price DECIMAL(12,2) NOT NULL,
			current_price DECIMAL(12,2),
			lowest_price DECIMAL(12,2),
			highest_price DECIMAL(12,2),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (store, sku)
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id SERIAL PRIMARY KEY,
			product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			price DECIMAL(12,2) NOT NULL,
			was_available BOOLEAN DEFAULT TRUE,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id SERIAL PRIMARY KEY,
			product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			alert_type VARCHAR(20) NOT NULL CHECK (alert_type IN ('target_reached', 'price_drop', 'below_average')),
			threshold_value DECIMAL(12,2),
			threshold_percentage DECIMAL(5,2),
			is_active BOOLEAN DEFAULT TRUE,
			is_triggered BOOLEAN DEFAULT FALSE,
			triggered_price DECIMAL(12,2),
			triggered_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history (product_id, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_product ON alerts (product_id) WHERE is_active`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection.
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
