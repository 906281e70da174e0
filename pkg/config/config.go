package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	Store             string // store backend: sqlite, postgres or memory
	DB                string // connection string for the postgres database
	SQLitePath        string // path to sqlite database file
	RoutesFile        string // path to yaml file with route definitions
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry, "stdout" prints to stdout
	TickInterval      string // refresh interval of the running drive display
	StatsCacheTTL     string // how long computed route statistics are cached
)

const (
	StoreSqlite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)
