package repository

import (
	"fmt"
	"time"

	"deolho/database"
	"deolho/models"

	"github.com/shopspring/decimal"
)

const alertColumns = `id, product_id, alert_type, threshold_value, threshold_percentage, is_active, is_triggered, triggered_price, triggered_at, created_at`

type AlertRepository struct{}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

func scanAlert(row interface{ Scan(...any) error }) (*models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID, &a.ProductID, &a.Type, &a.ThresholdValue, &a.ThresholdPercent,
		&a.IsActive, &a.IsTriggered, &a.TriggeredPrice, &a.TriggeredAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAlert creates a new alert rule for a product.
func (r *AlertRepository) CreateAlert(productID int, alertType models.AlertType, thresholdValue, thresholdPercent decimal.NullDecimal) (*models.Alert, error) {
	query := `
		INSERT INTO alerts (product_id, alert_type, threshold_value, threshold_percentage)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + alertColumns

	alert, err := scanAlert(database.DB.QueryRow(query, productID, alertType, thresholdValue, thresholdPercent))
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// GetAlertsForProduct returns a product's alerts, active ones only by default.
func (r *AlertRepository) GetAlertsForProduct(productID int, activeOnly bool) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE product_id = $1`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := database.DB.Query(query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// Trigger marks an alert as fired at the given price.
func (r *AlertRepository) Trigger(alertID int, price decimal.Decimal) error {
	query := `
		UPDATE alerts
		SET is_triggered = true, triggered_price = $2, triggered_at = $3
		WHERE id = $1
	`
	if _, err := database.DB.Exec(query, alertID, price, time.Now()); err != nil {
		return fmt.Errorf("failed to trigger alert: %w", err)
	}
	return nil
}

// Reset clears a triggered alert so it can fire again.
func (r *AlertRepository) Reset(alertID int) error {
	query := `
		UPDATE alerts
		SET is_triggered = false, triggered_price = NULL, triggered_at = NULL
		WHERE id = $1
	`
	if _, err := database.DB.Exec(query, alertID); err != nil {
		return fmt.Errorf("failed to reset alert: %w", err)
	}
	return nil
}

// Deactivate turns an alert off.
func (r *AlertRepository) Deactivate(alertID int) error {
	if _, err := database.DB.Exec(`UPDATE alerts SET is_active = false WHERE id = $1`, alertID); err != nil {
		return fmt.Errorf("failed to deactivate alert: %w", err)
	}
	return nil
}
