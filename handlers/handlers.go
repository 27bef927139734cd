// Package handlers exposes the tracker over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"deolho/models"
	"deolho/repository"
	"deolho/scheduler"
	"deolho/services"
)

type Handlers struct {
	products *services.ProductService
	alerts   *services.AlertService
	checker  *scheduler.PriceChecker
}

func NewHandlers(products *services.ProductService, alerts *services.AlertService, checker *scheduler.PriceChecker) *Handlers {
	return &Handlers{
		products: products,
		alerts:   alerts,
		checker:  checker,
	}
}

// RegisterRoutes wires every endpoint onto the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/products", h.AddProduct).Methods("POST")
	api.HandleFunc("/products", h.ListProducts).Methods("GET")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")
	api.HandleFunc("/products/{id}/target", h.UpdateTarget).Methods("PUT")
	api.HandleFunc("/products/{id}/active", h.SetActive).Methods("PUT")
	api.HandleFunc("/products/{id}/check", h.CheckPrice).Methods("POST")
	api.HandleFunc("/products/{id}/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/products/{id}/stats", h.GetStatistics).Methods("GET")
	api.HandleFunc("/products/{id}/alerts", h.CreateAlert).Methods("POST")
	api.HandleFunc("/products/{id}/alerts", h.GetAlerts).Methods("GET")
	api.HandleFunc("/alerts/{id}", h.DeactivateAlert).Methods("DELETE")
	api.HandleFunc("/alerts/{id}/reset", h.ResetAlert).Methods("POST")
	api.HandleFunc("/deals", h.GetDeals).Methods("GET")
	api.HandleFunc("/at-target", h.GetProductsAtTarget).Methods("GET")
	api.HandleFunc("/below-average", h.GetBelowAverage).Methods("GET")
	api.HandleFunc("/check-all", h.CheckAll).Methods("POST")
}

// HealthCheck returns a simple health check response
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "deolho",
	})
}

// AddProduct starts tracking a product URL.
func (h *Handlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL         string `json:"url"`
		TargetPrice string `json:"target_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" || req.TargetPrice == "" {
		writeError(w, http.StatusBadRequest, "url and target_price are required")
		return
	}

	product, err := h.products.Add(req.URL, req.TargetPrice)
	switch {
	case errors.Is(err, models.ErrUnrecognizedURL):
		writeError(w, http.StatusBadRequest, "URL does not belong to a supported store")
	case errors.Is(err, services.ErrInvalidTargetPrice):
		writeError(w, http.StatusBadRequest, "target_price is not a valid price")
	case errors.Is(err, services.ErrScrapeFailed):
		writeError(w, http.StatusBadGateway, "Could not read the product page")
	case err != nil:
		log.Error().Err(err).Str("url", req.URL).Msg("failed to add product")
		writeError(w, http.StatusInternalServerError, "Failed to add product")
	default:
		writeJSON(w, http.StatusCreated, product)
	}
}

// ListProducts returns tracked products. ?active=true limits the list
// to active ones.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	products, err := h.products.List(activeOnly)
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		writeError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(products))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.Get(id)
	if errors.Is(err, repository.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("failed to get product")
		writeError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Int("product_id", id).Msg("failed to delete product")
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// UpdateTarget changes the target price of a tracked product.
func (h *Handlers) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		TargetPrice string `json:"target_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetPrice == "" {
		writeError(w, http.StatusBadRequest, "target_price is required")
		return
	}

	product, err := h.products.UpdateTarget(id, req.TargetPrice)
	switch {
	case errors.Is(err, services.ErrInvalidTargetPrice):
		writeError(w, http.StatusBadRequest, "target_price is not a valid price")
	case errors.Is(err, repository.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case err != nil:
		log.Error().Err(err).Int("product_id", id).Msg("failed to update target")
		writeError(w, http.StatusInternalServerError, "Failed to update target")
	default:
		writeJSON(w, http.StatusOK, product)
	}
}

// SetActive pauses or resumes tracking for a product.
func (h *Handlers) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	if err := h.products.SetActive(id, *req.Active); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Int("product_id", id).Msg("failed to set active flag")
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

// CheckPrice re-scrapes one product right now.
func (h *Handlers) CheckPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, scraped, err := h.products.CheckPrice(id)
	if errors.Is(err, repository.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("price check failed")
		writeError(w, http.StatusInternalServerError, "Price check failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"scrape":  scraped,
	})
}

// GetHistory returns the price observations over the trailing days
// (default 30).
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	history, err := h.products.History(id, days)
	if errors.Is(err, repository.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("failed to load history")
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(history))
}

// GetStatistics returns mean, deviation and sigma thresholds for every
// configured window.
func (h *Handlers) GetStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	statistics, err := h.products.Statistics(id)
	if errors.Is(err, repository.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("failed to compute statistics")
		writeError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(statistics))
}

// CreateAlert registers a notification rule for a product.
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Type             models.AlertType `json:"alert_type"`
		ThresholdValue   *string          `json:"threshold_value"`
		ThresholdPercent *string          `json:"threshold_percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	value, ok := optionalDecimal(req.ThresholdValue)
	if !ok {
		writeError(w, http.StatusBadRequest, "threshold_value is not a valid number")
		return
	}
	percent, ok := optionalDecimal(req.ThresholdPercent)
	if !ok {
		writeError(w, http.StatusBadRequest, "threshold_percentage is not a valid number")
		return
	}

	alert, err := h.alerts.CreateAlert(id, req.Type, value, percent)
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, services.ErrInvalidAlertType):
		writeError(w, http.StatusBadRequest, "Unknown alert type")
	case err != nil:
		log.Error().Err(err).Int("product_id", id).Msg("failed to create alert")
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusCreated, alert)
	}
}

func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	alerts, err := h.alerts.GetAlertsForProduct(id, false)
	if err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("failed to load alerts")
		writeError(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(alerts))
}

func (h *Handlers) DeactivateAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.alerts.Deactivate(id); err != nil {
		log.Error().Err(err).Int("alert_id", id).Msg("failed to deactivate alert")
		writeError(w, http.StatusInternalServerError, "Failed to deactivate alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert deactivated"})
}

// ResetAlert re-arms a triggered alert.
func (h *Handlers) ResetAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.alerts.Reset(id); err != nil {
		log.Error().Err(err).Int("alert_id", id).Msg("failed to reset alert")
		writeError(w, http.StatusInternalServerError, "Failed to reset alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert reset"})
}

// GetDeals returns products currently priced at or below their 2-sigma
// threshold.
func (h *Handlers) GetDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.products.BestDeals()
	if err != nil {
		log.Error().Err(err).Msg("deal scan failed")
		writeError(w, http.StatusInternalServerError, "Failed to compute deals")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(deals))
}

// GetBelowAverage returns products priced at least ?percent below their
// window mean (?days, default 30; ?percent, default 10).
func (h *Handlers) GetBelowAverage(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	percent := decimal.NewFromInt(10)
	if v := r.URL.Query().Get("percent"); v != "" {
		parsed, err := decimal.NewFromString(v)
		if err != nil || !parsed.IsPositive() {
			writeError(w, http.StatusBadRequest, "percent must be a positive number")
			return
		}
		percent = parsed
	}

	products, err := h.products.BelowAverage(days, percent)
	if err != nil {
		log.Error().Err(err).Msg("below-average scan failed")
		writeError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(products))
}

func (h *Handlers) GetProductsAtTarget(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ProductsAtTarget()
	if err != nil {
		log.Error().Err(err).Msg("failed to load products at target")
		writeError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(products))
}

// CheckAll kicks off a full batch check in the background.
func (h *Handlers) CheckAll(w http.ResponseWriter, r *http.Request) {
	h.checker.RunNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Batch check started"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func optionalDecimal(s *string) (decimal.NullDecimal, bool) {
	if s == nil || *s == "" {
		return decimal.NullDecimal{}, true
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

// emptyIfNil keeps list endpoints returning [] instead of null when
// there are no rows.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
