package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"deolho/models"
	"deolho/notify"
	"deolho/repository"
	"deolho/stats"
)

var ErrInvalidAlertType = errors.New("invalid alert type")

type AlertService struct {
	alerts   *repository.AlertRepository
	products *repository.ProductRepository
	notifier *notify.Dispatcher
	windows  []int
}

func NewAlertService(alerts *repository.AlertRepository, products *repository.ProductRepository, notifier *notify.Dispatcher, windows []int) *AlertService {
	return &AlertService{
		alerts:   alerts,
		products: products,
		notifier: notifier,
		windows:  windows,
	}
}

// CreateAlert registers a notification rule for a product. target_reached
// alerts need no thresholds, the product's own target price applies.
// price_drop and below_average need a percentage.
func (s *AlertService) CreateAlert(productID int, alertType models.AlertType, thresholdValue, thresholdPercent decimal.NullDecimal) (*models.Alert, error) {
	switch alertType {
	case models.AlertTargetReached:
	case models.AlertPriceDrop, models.AlertBelowAverage:
		if !thresholdPercent.Valid || !thresholdPercent.Decimal.IsPositive() {
			return nil, fmt.Errorf("%s alert requires a positive threshold percentage", alertType)
		}
	default:
		return nil, ErrInvalidAlertType
	}

	if _, err := s.products.GetByID(productID); err != nil {
		return nil, err
	}
	return s.alerts.CreateAlert(productID, alertType, thresholdValue, thresholdPercent)
}

func (s *AlertService) GetAlertsForProduct(productID int, activeOnly bool) ([]models.Alert, error) {
	return s.alerts.GetAlertsForProduct(productID, activeOnly)
}

func (s *AlertService) Reset(alertID int) error {
	return s.alerts.Reset(alertID)
}

func (s *AlertService) Deactivate(alertID int) error {
	return s.alerts.Deactivate(alertID)
}

// CheckAlerts evaluates every active, untriggered alert against the
// current prices and fires notifications for those whose condition
// holds. Returns the number of alerts triggered.
func (s *AlertService) CheckAlerts() (int, error) {
	products, err := s.products.GetAll(true)
	if err != nil {
		return 0, err
	}

	triggered := 0
	for i := range products {
		p := &products[i]
		if !p.CurrentPrice.Valid {
			continue
		}

		alerts, err := s.alerts.GetAlertsForProduct(p.ID, true)
		if err != nil {
			log.Error().Err(err).Int("product_id", p.ID).Msg("failed to load alerts")
			continue
		}

		for _, alert := range alerts {
			if alert.IsTriggered {
				continue
			}
			if !s.conditionMet(p, &alert) {
				continue
			}

			if err := s.alerts.Trigger(alert.ID, p.CurrentPrice.Decimal); err != nil {
				log.Error().Err(err).Int("alert_id", alert.ID).Msg("failed to mark alert triggered")
				continue
			}
			triggered++
			s.dispatch(p, &alert)
		}
	}

	return triggered, nil
}

func (s *AlertService) conditionMet(p *models.Product, alert *models.Alert) bool {
	current := p.CurrentPrice.Decimal

	switch alert.Type {
	case models.AlertTargetReached:
		threshold := p.TargetPrice
		if alert.ThresholdValue.Valid {
			threshold = alert.ThresholdValue.Decimal
		}
		return current.LessThanOrEqual(threshold)

	case models.AlertPriceDrop:
		if !p.HighestPrice.Valid || !alert.ThresholdPercent.Valid {
			return false
		}
		factor := decimal.NewFromInt(1).Sub(alert.ThresholdPercent.Decimal.Div(decimal.NewFromInt(100)))
		return current.LessThanOrEqual(p.HighestPrice.Decimal.Mul(factor))

	case models.AlertBelowAverage:
		if !alert.ThresholdPercent.Valid {
			return false
		}
		observations, err := s.products.GetObservations(p.ID, maxWindow(s.windows))
		if err != nil {
			log.Error().Err(err).Int("product_id", p.ID).Msg("failed to load observations")
			return false
		}
		now := time.Now()
		factor := decimal.NewFromInt(1).Sub(alert.ThresholdPercent.Decimal.Div(decimal.NewFromInt(100)))
		for _, window := range s.windows {
			st, ok := stats.Compute(observations, window, now)
			if !ok {
				continue
			}
			if current.LessThanOrEqual(st.Mean().Mul(factor)) {
				return true
			}
		}
		return false
	}
	return false
}

func (s *AlertService) dispatch(p *models.Product, alert *models.Alert) {
	var subject, body string

	switch alert.Type {
	case models.AlertTargetReached:
		subject, body = notify.TargetReachedMessage(p)
	case models.AlertPriceDrop:
		subject, body = notify.PriceDropMessage(p, alert.ThresholdPercent.Decimal.String())
	case models.AlertBelowAverage:
		subject = fmt.Sprintf("Abaixo da média: %s", p.Title)
		body = fmt.Sprintf("%s está %s, abaixo da média histórica.\n%s",
			p.Title, notify.FormatBRL(p.CurrentPrice.Decimal), p.URL)
	}

	log.Info().
		Int("alert_id", alert.ID).
		Int("product_id", p.ID).
		Str("type", string(alert.Type)).
		Msg("alert triggered")

	s.notifier.Notify(subject, body)
}
