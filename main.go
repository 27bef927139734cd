package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"deolho/config"
	"deolho/database"
	"deolho/handlers"
	"deolho/middleware"
	"deolho/notify"
	"deolho/repository"
	"deolho/scheduler"
	"deolho/scraper"
	"deolho/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()

	if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDatabase()

	if err := database.CreateTables(); err != nil {
		log.Fatal().Err(err).Msg("failed to create tables")
	}

	productRepo := repository.NewProductRepository()
	alertRepo := repository.NewAlertRepository()

	sc := scraper.New(scraper.Options{
		DelayMin:            cfg.ScrapeDelayMin,
		DelayMax:            cfg.ScrapeDelayMax,
		Timeout:             cfg.RequestTimeout,
		Limits:              scraper.PriceRange{Min: cfg.PriceMin, Max: cfg.PriceMax},
		BlockedRetryBackoff: cfg.BlockedRetryBackoff,
		BlockedRetryCount:   cfg.BlockedRetryCount,
	})

	notifiers := []notify.Notifier{notify.ConsoleNotifier{}}
	email := notify.NewEmailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.AlertEmail)
	if email.IsEnabled() {
		notifiers = append(notifiers, email)
		log.Info().Str("to", cfg.AlertEmail).Msg("email notifications enabled")
	}
	dispatcher := notify.NewDispatcher(notifiers...)

	productService := services.NewProductService(productRepo, sc, cfg)
	alertService := services.NewAlertService(alertRepo, productRepo, dispatcher, cfg.StatWindows)

	checker := scheduler.NewPriceChecker(productService, alertService, dispatcher, cfg.CheckSchedule)
	checker.Start()
	defer checker.Stop()

	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(cfg.RateLimitRPS))

	h := handlers.NewHandlers(productService, alertService, checker)
	h.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := cfg.Host + ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("server starting")
	if err := http.ListenAndServe(addr, c.Handler(r)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
