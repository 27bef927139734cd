package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deolho/database"
	"deolho/models"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a lookup matches no product.
var ErrProductNotFound = errors.New("product not found")

const productColumns = `id, store, sku, url, title, image_url, target_price, current_price, lowest_price, highest_price, is_active, created_at, updated_at`

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Store, &p.SKU, &p.URL, &p.Title, &p.ImageURL,
		&p.TargetPrice, &p.CurrentPrice, &p.LowestPrice, &p.HighestPrice,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProduct inserts a new monitored product.
func (r *ProductRepository) AddProduct(p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (store, sku, url, title, image_url, target_price, current_price, lowest_price, highest_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + productColumns

	created, err := scanProduct(database.DB.QueryRow(query,
		p.Store, p.SKU, p.URL, p.Title, p.ImageURL,
		p.TargetPrice, p.CurrentPrice, p.LowestPrice, p.HighestPrice, time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to add product: %w", err)
	}
	return created, nil
}

// GetByID returns a product by its id.
func (r *ProductRepository) GetByID(id int) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(database.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetBySKU returns a product by its store-local identifier.
func (r *ProductRepository) GetBySKU(store models.Store, sku string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE store = $1 AND sku = $2`
	p, err := scanProduct(database.DB.QueryRow(query, store, sku))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetAll returns monitored products, optionally only active ones.
func (r *ProductRepository) GetAll(activeOnly bool) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// UpdatePrices writes the new current price and bounds after a scrape.
func (r *ProductRepository) UpdatePrices(id int, current decimal.Decimal, bounds models.Bounds) error {
	query := `
		UPDATE products
		SET current_price = $2, lowest_price = $3, highest_price = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := database.DB.Exec(query, id, current, bounds.Lowest, bounds.Highest, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update product prices: %w", err)
	}
	return nil
}

// UpdateTarget sets a new target price and reactivates the product.
func (r *ProductRepository) UpdateTarget(id int, target decimal.Decimal) error {
	query := `UPDATE products SET target_price = $2, is_active = true, updated_at = $3 WHERE id = $1`
	result, err := database.DB.Exec(query, id, target, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update target price: %w", err)
	}
	return requireRow(result)
}

// SetActive flips monitoring on or off for a product.
func (r *ProductRepository) SetActive(id int, active bool) error {
	query := `UPDATE products SET is_active = $2, updated_at = $3 WHERE id = $1`
	result, err := database.DB.Exec(query, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set product active flag: %w", err)
	}
	return requireRow(result)
}

// Delete removes a product. History and alerts cascade.
func (r *ProductRepository) Delete(id int) error {
	result, err := database.DB.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRow(result)
}

// requireRow maps a zero-row write to ErrProductNotFound.
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AddObservation appends one price sample to the history log.
func (r *ProductRepository) AddObservation(productID int, price decimal.Decimal, available bool) error {
	query := `INSERT INTO price_history (product_id, price, was_available) VALUES ($1, $2, $3)`
	if _, err := database.DB.Exec(query, productID, price, available); err != nil {
		return fmt.Errorf("failed to record price history: %w", err)
	}
	return nil
}

// GetObservations returns a product's samples from the trailing window,
// oldest first.
func (r *ProductRepository) GetObservations(productID, days int) ([]models.PriceObservation, error) {
	query := `
		SELECT id, product_id, price, was_available, recorded_at
		FROM price_history
		WHERE product_id = $1 AND recorded_at >= NOW() - make_interval(days => $2)
		ORDER BY recorded_at ASC
	`
	rows, err := database.DB.Query(query, productID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	var observations []models.PriceObservation
	for rows.Next() {
		var obs models.PriceObservation
		if err := rows.Scan(&obs.ID, &obs.ProductID, &obs.Price, &obs.Available, &obs.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// ProductsAtTarget returns active products whose current price is at or
// below target, best savings first.
func (r *ProductRepository) ProductsAtTarget() ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = true
		AND current_price IS NOT NULL
		AND current_price <= target_price
		ORDER BY (target_price - current_price) DESC
	`
	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products at target: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
