// Lumina Core - Home Integration Hub
//
// This is the main entry point for the Lumina Core application. Lumina
// keeps channel-item links consistent while things and items come and
// go, exposes the registries over a REST API, and publishes link events
// on the MQTT bus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lumina-home/lumina-core/migrations"

	"github.com/lumina-home/lumina-core/internal/api"
	"github.com/lumina-home/lumina-core/internal/infrastructure/config"
	"github.com/lumina-home/lumina-core/internal/infrastructure/database"
	"github.com/lumina-home/lumina-core/internal/infrastructure/influxdb"
	"github.com/lumina-home/lumina-core/internal/infrastructure/logging"
	"github.com/lumina-home/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-home/lumina-core/internal/item"
	"github.com/lumina-home/lumina-core/internal/link"
	"github.com/lumina-home/lumina-core/internal/thing"
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumina Core",
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

	// Initialise thing registry
	thingRegistry := thing.NewRegistry(thing.NewSQLiteRepository(db.DB))
	thingRegistry.SetLogger(log)
	defer thingRegistry.Close()

	if refreshErr := thingRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading thing registry: %w", refreshErr)
	}
	log.Info("thing registry initialised", "things", len(thingRegistry.GetAll()))

	// Initialise item registry
	itemRegistry := item.NewRegistry(item.NewSQLiteRepository(db.DB))
	itemRegistry.SetLogger(log)
	defer itemRegistry.Close()

	if refreshErr := itemRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading item registry: %w", refreshErr)
	}
	log.Info("item registry initialised", "items", len(itemRegistry.GetAll()))

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start link manager
	linkStore := link.NewStore(link.NewSQLiteRepository(db.DB))
	linkStore.SetLogger(log)

	linkManager := link.NewManager(linkStore, thingRegistry, itemRegistry)
	linkManager.SetLogger(log)
	linkManager.SetAutoLink(cfg.Links.AutoLink)
	if mqttClient != nil {
		linkManager.SetPublisher(mqttClient)
	}
	if influxClient != nil {
		linkManager.SetRecorder(influxClient)
	}
	if startErr := linkManager.Start(ctx); startErr != nil {
		return fmt.Errorf("starting link manager: %w", startErr)
	}
	defer func() {
		log.Info("stopping link manager")
		linkManager.Stop()
	}()
	log.Info("link manager started", "auto_link", cfg.Links.AutoLink)

	// Start API server
	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Things:  thingRegistry,
		Items:   itemRegistry,
		Links:   linkManager,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Link manager
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Registries
	// 6. Database

	log.Info("Lumina Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMINA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMINA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
