// Package scheduler runs the periodic price check.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"deolho/notify"
	"deolho/services"
)

// PriceChecker drives the daily batch: re-scrape every active product,
// evaluate alerts, and send a deal summary when anything qualifies.
type PriceChecker struct {
	cron     *cron.Cron
	products *services.ProductService
	alerts   *services.AlertService
	notifier *notify.Dispatcher
	schedule string
}

func NewPriceChecker(products *services.ProductService, alerts *services.AlertService, notifier *notify.Dispatcher, schedule string) *PriceChecker {
	return &PriceChecker{
		cron:     cron.New(cron.WithSeconds()),
		products: products,
		alerts:   alerts,
		notifier: notifier,
		schedule: schedule,
	}
}

// Start schedules the batch run. The schedule is a six-field cron
// expression with a seconds column.
func (pc *PriceChecker) Start() {
	_, err := pc.cron.AddFunc(pc.schedule, pc.runBatch)
	if err != nil {
		log.Error().Err(err).Str("schedule", pc.schedule).Msg("failed to schedule price checker")
		return
	}

	pc.cron.Start()
	log.Info().Str("schedule", pc.schedule).Msg("price checker scheduled")
}

// Stop stops the scheduler. A batch already in flight finishes.
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
}

// RunNow triggers one batch outside the schedule.
func (pc *PriceChecker) RunNow() {
	go pc.runBatch()
}

func (pc *PriceChecker) runBatch() {
	log.Info().Msg("starting scheduled price check")

	result, err := pc.products.CheckAllPrices()
	if err != nil {
		log.Error().Err(err).Msg("batch price check failed")
		return
	}

	triggered, err := pc.alerts.CheckAlerts()
	if err != nil {
		log.Error().Err(err).Msg("alert evaluation failed")
	}

	deals, err := pc.products.BestDeals()
	if err != nil {
		log.Error().Err(err).Msg("deal scan failed")
	} else if len(deals) > 0 {
		subject, body := notify.DealSummaryMessage(deals)
		pc.notifier.Notify(subject, body)
	}

	log.Info().
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Int("alerts_triggered", triggered).
		Int("deals", len(deals)).
		Msg("scheduled price check finished")
}
