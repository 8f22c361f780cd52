// PrintWatch Core - Printer Fleet Monitoring Engine
//
// This is the main entry point for the PrintWatch Core service. It
// polls networked printers over their embedded web servers, classifies
// what they report into a canonical status, keeps a bounded status
// history plus an error code ledger per printer, and exposes the fleet
// over a REST API. Status changes and new error codes are optionally
// published to MQTT, and consumable levels to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/printwatch-core/migrations"

	"github.com/nerrad567/printwatch-core/internal/api"
	"github.com/nerrad567/printwatch-core/internal/catalog"
	"github.com/nerrad567/printwatch-core/internal/fetch"
	"github.com/nerrad567/printwatch-core/internal/infrastructure/config"
	"github.com/nerrad567/printwatch-core/internal/infrastructure/database"
	"github.com/nerrad567/printwatch-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/printwatch-core/internal/infrastructure/logging"
	"github.com/nerrad567/printwatch-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/printwatch-core/internal/monitor"
	"github.com/nerrad567/printwatch-core/internal/printer"
	"github.com/nerrad567/printwatch-core/internal/probe"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PrintWatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load the error code catalog
	codeCatalog, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("loading error code catalog: %w", err)
	}

	// Initialise printer registry
	printerRepo := printer.NewSQLiteRepository(db.DB)
	registry := printer.NewRegistry(printerRepo, codeCatalog)
	registry.SetLogger(log)

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading printer registry: %w", refreshErr)
	}
	log.Info("printer registry initialised", "printers", registry.GetStats().Total)

	// Build the check pipeline
	prober := probe.New(cfg.GetProbeTimeout(), log)
	fetcher := fetch.New(cfg.GetFetchTimeout(), log)
	checker := monitor.NewChecker(prober, fetcher, registry)
	checker.SetLogger(log)

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		checker.SetPublisher(mqttClient)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checker.SetTelemetry(influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Background polling loop
	mon := monitor.New(checker)
	mon.SetLogger(log)
	defer mon.Stop()

	if cfg.Monitor.AutoStart {
		mon.Start(cfg.GetPollInterval())
		log.Info("monitoring started", "interval", cfg.GetPollInterval())
	} else {
		log.Info("monitoring idle, start it via the API")
	}

	// Start HTTP API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Checker:  checker,
		Monitor:  mon,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("shutting down API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Monitor loop
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("PrintWatch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PRINTWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PRINTWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
