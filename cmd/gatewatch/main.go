// GateWatch Core - Physical Access Logger
//
// This is the main entry point for the GateWatch Core application.
// GateWatch records who passed the gate, in which direction, and when:
//   - Badge tokens with salted PIN verification on entry
//   - An append-only access ledger as the single source of truth
//   - MQTT scanner feed, REST API, and live WebSocket dashboards
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/gatewatch/gatewatch-core/migrations"

	"github.com/gatewatch/gatewatch-core/internal/access"
	"github.com/gatewatch/gatewatch-core/internal/api"
	"github.com/gatewatch/gatewatch-core/internal/credential"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/config"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/database"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/influxdb"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/logging"
	"github.com/gatewatch/gatewatch-core/internal/infrastructure/mqtt"
	"github.com/gatewatch/gatewatch-core/internal/ledger"
	"github.com/gatewatch/gatewatch-core/internal/scanner"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting GateWatch Core",
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

	// Wire the core: repositories, credential hashing, service, engine
	hasher := credential.NewHasher(cfg.Security.PBKDF2Iterations)
	users := access.NewUserRepository(db.DB)
	admins := access.NewAdminRepository(db.DB)
	events := ledger.NewSQLiteRepository(db.DB)

	// First boot seeds an operator account with a generated password
	if _, seedErr := access.SeedAdmin(ctx, admins, hasher, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	service := access.NewService(users, admins, events, hasher, log.Logger)
	engine := access.NewEngine(events, users, hasher,
		cfg.Gate.Location, cfg.DebounceWindow(), log.Logger)
	log.Info("decision engine ready",
		"gate", cfg.Gate.Name,
		"location", cfg.Gate.Location,
		"debounce", cfg.DebounceWindow(),
	)

	// Connect to InfluxDB (optional decision telemetry)
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

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Service:  service,
		Engine:   engine,
		Version:  version,
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
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Connect to MQTT broker and start the scanner feed (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTTEnabled() {
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

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Gate scans flow: scanner -> engine -> decision topic, with each
		// decision also pushed to connected dashboards.
		feedEngine := &broadcastingEngine{engine: engine, api: apiServer}
		// #nosec G115 -- QoS validated by config to be 0..2
		feed := scanner.New(mqttClient, feedEngine, cfg.Gate.Name,
			byte(cfg.MQTT.QoS), telemetryOrNil(influxClient), log.Logger)
		if startErr := feed.Start(ctx); startErr != nil {
			return fmt.Errorf("starting scanner feed: %w", startErr)
		}
	} else {
		log.Info("MQTT disabled, gate scans via API only")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, apiServer, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. MQTT (if enabled)
	// 2. API server
	// 3. InfluxDB (if enabled)
	// 4. Database

	log.Info("GateWatch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GATEWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GATEWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, apiServer *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
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

// broadcastingEngine runs scans through the decision engine and mirrors
// granted and denied outcomes to WebSocket dashboards. It adapts the engine
// to the scanner feed so MQTT-originated decisions reach the dashboard the
// same way API-originated ones do.
type broadcastingEngine struct {
	engine *access.Engine
	api    *api.Server
}

// SubmitScan implements scanner.Engine.
func (b *broadcastingEngine) SubmitScan(ctx context.Context, token string, prompt access.PINPrompt) (*access.Decision, error) {
	decision, err := b.engine.SubmitScan(ctx, token, prompt)
	if err != nil {
		return nil, err
	}
	b.api.BroadcastDecision(decision)
	return decision, nil
}

// telemetryOrNil converts a possibly-nil *influxdb.Client to the feed's
// Telemetry interface without producing a typed-nil interface value.
func telemetryOrNil(c *influxdb.Client) scanner.Telemetry {
	if c == nil {
		return nil
	}
	return c
}
