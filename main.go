package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gosplit/adapters/api"
	"gosplit/adapters/httpreport"
	"gosplit/adapters/memory"
	"gosplit/adapters/postgres"
	"gosplit/app"
	"gosplit/internal"
	"gosplit/internal/config"
	"gosplit/ports"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.NewDefaultLogger()

	repo, events, cleanup, err := buildStores(cfg, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer cleanup()

	var reporter ports.EventReporter
	if cfg.Reporting.Endpoint != "" {
		r := httpreport.NewReporter(cfg.Reporting.Endpoint, httpreport.Options{
			QueueSize:   cfg.Reporting.QueueSize,
			SendTimeout: cfg.Reporting.SendTimeout,
		}, logger)
		defer r.Close()
		reporter = r
	}

	cache := memory.NewAssignmentCache()
	assignments := app.NewAssignmentService(repo, cache, reporter, logger)
	tracking := app.NewTrackingService(events, reporter, logger)
	results := app.NewResultsService(repo, events)

	httpApp := api.NewApp(assignments, tracking, results, repo, logger)
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: httpApp.Router(),
	}

	go func() {
		logger.Info("experiment engine listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown: %v", err)
	}
}

// buildStores selects postgres-backed storage when DATABASE_URL is set and
// falls back to in-memory adapters otherwise (dev/demo mode).
func buildStores(cfg *config.Config, logger *internal.Logger) (ports.ExperimentRepository, ports.EventStore, func(), error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		return memory.NewExperimentStore(), memory.NewEventStore(), func() {}, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return postgres.NewExperimentRepository(db), postgres.NewEventStore(db), func() { db.Close() }, nil
}
