package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // connection string for the database
	Store             string // postgres or memory
	NatsURL           string // URL of the NATS server, empty disables the NATS sink
	ScheduleFile      string // path to the timetable file, empty uses the built-in timetable
	Window            int    // number of upcoming races kept registered
	BotTarget         int    // races are filled up with bots to this number of entrants
	LockLead          string // duration between locking the entries and the race start
	TickInterval      string // simulated duration of a tick
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry, "stdout" writes to stdout
	ProfilingPort     int    // port for profiling
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)
