package util

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/config"
	"github.com/drivetime/drivetime/pkg/db/postgres"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/service"
	"github.com/drivetime/drivetime/pkg/store"
	"github.com/drivetime/drivetime/pkg/store/memory"
	pgStore "github.com/drivetime/drivetime/pkg/store/postgres"
	"github.com/drivetime/drivetime/pkg/store/sqlite"
	"github.com/drivetime/drivetime/pkg/utils"
)

// App bundles the components a command works with.
type App struct {
	Routes     *model.RouteTable
	Statistics *service.StatisticsService
	Trips      *service.TripService
	telemetry  *config.Telemetry
}

// NewApp resolves the configuration into the route table, the trip store and
// the services on top of it.
func NewApp(ctx context.Context) (*App, error) {
	ret := &App{}
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if ret.telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
	}

	routes, err := config.LoadRoutes(config.RoutesFile)
	if err != nil {
		ret.Close()
		return nil, fmt.Errorf("could not load routes: %w", err)
	}
	ret.Routes = routes

	tripStore, err := OpenStore(ctx)
	if err != nil {
		ret.Close()
		return nil, err
	}
	ret.Statistics = service.InitStatisticsService(tripStore,
		service.WithCacheTTL(ParseDuration(config.StatsCacheTTL, 5*time.Minute)))
	ret.Trips = service.InitTripService(tripStore, ret.Statistics)
	return ret, nil
}

func (a *App) Close() {
	if a.Trips != nil {
		if err := a.Trips.Close(); err != nil {
			log.Warn("could not close store", log.ErrorField(err))
		}
	}
	if a.telemetry != nil {
		a.telemetry.Shutdown()
	}
}

// OpenStore creates the trip store selected by config.Store.
func OpenStore(ctx context.Context) (store.TripStore, error) {
	switch config.Store {
	case config.StoreMemory:
		log.Warn("Using in-memory store, trips are lost on exit")
		return memory.New(), nil
	case config.StoreSqlite:
		return sqlite.Open(ctx, config.SQLitePath,
			sqlite.WithLogger(sqlLogger().Named("sqlite")))
	case config.StorePostgres:
		if err := WaitForRequiredServices(ctx); err != nil {
			return nil, err
		}
		traceOption := postgres.WithTracer(sqlLogger().Named("sql"), log.DebugLevel)
		if config.EnableTelemetry {
			traceOption = postgres.WithOtlpTracer()
		}
		pool, err := postgres.InitWithUrl(ctx, config.DB, traceOption)
		if err != nil {
			return nil, store.Wrap("open", err)
		}
		return pgStore.New(pool, pgStore.WithLogger(sqlLogger().Named("pg"))), nil
	default:
		return nil, fmt.Errorf("unknown store %q", config.Store)
	}
}

// store loggers honour the sql log level
func sqlLogger() *log.Logger {
	return newLogger(ParseLogLevel(config.SQLLogLevel, log.InfoLevel))
}

// WaitForRequiredServices blocks until the postgres server accepts
// connections. Nothing to wait for with other stores.
func WaitForRequiredServices(ctx context.Context) error {
	addr := utils.ExtractFromDBURL(config.DB)
	if addr == "" {
		return nil
	}
	timeout := ParseDuration(config.WaitForServices, 60*time.Second)
	if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
		return fmt.Errorf("required services not ready: %w", err)
	}
	log.Debug("Required services are available")
	return nil
}

// SetupLogger replaces the default logger according to the log flags.
func SetupLogger() error {
	filter, err := log.WithFilter(config.LogFilter)
	if err != nil {
		return fmt.Errorf("invalid log filter: %w", err)
	}
	defaultLevel := log.InfoLevel
	if config.LogFormat != "json" {
		defaultLevel = log.DebugLevel
	}
	log.ResetDefault(newLogger(ParseLogLevel(config.LogLevel, defaultLevel), filter))
	return nil
}

func newLogger(level log.Level, opts ...log.Option) *log.Logger {
	opts = append([]log.Option{log.WithCaller(true), log.AddCallerSkip(1)}, opts...)
	switch config.LogFormat {
	case "json":
		return log.New(os.Stderr, level, opts...)
	default:
		return log.DevLogger(os.Stderr, level, opts...)
	}
}

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Invalid duration value, using default",
			log.String("value", s),
			log.Duration("default", defaultVal),
			log.ErrorField(err))
		return defaultVal
	}
	return d
}
