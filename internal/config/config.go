package config // package config loads application configuration from environment variables

import (
    "errors"  // errors joins every configuration problem into one report
    "fmt"     // fmt formats configuration errors
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits list-valued variables
    "time"    // time parses durations

    "github.com/sirupsen/logrus" // logrus reports fatal configuration errors
)

// Database drivers accepted in DB_DRIVER.
const (
    DriverMySQL  = "mysql"
    DriverSQLite = "sqlite"
)

// minCheckinSecret mirrors credential.MinSecretLen; config must not import
// the domain packages.
const minCheckinSecret = 32

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env      string // application environment (e.g. "dev", "prod")
    Port     string // HTTP port to listen on
    LogLevel string // logrus level name

    DBDriver string // "mysql" (default) or "sqlite" for a single-box station
    DBPath   string // sqlite database file
    DBUser   string // database username
    DBPass   string // database password (optional)
    DBHost   string // database host address
    DBPort   string // database port number
    DBName   string // database name

    JWTSecret    string // secret used to sign operator JWTs
    AccessTTLMin int    // access token time-to-live in minutes
    BcryptCost   int    // bcrypt cost for password hashing

    CheckinSecret         string        // keyed-digest secret for credentials
    CheckinSecretPrevious []string      // retired secrets still accepted by the verifier
    DebounceWindow        time.Duration // per-station suppression window
    StoreTimeout          time.Duration // bound on store round trips per request
    StationIdleTTL        time.Duration // idle stations are dropped after this long

    AMQPURL      string // RabbitMQ URL; empty disables publishing and the audit consumer
    AuditLogPath string // file the audit consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing or invalid values cause the program to exit with a fatal
// log message.
func Load() Config {
    cfg, err := LoadFromEnv()
    if err != nil {
        logrus.WithError(err).Fatal("invalid configuration")
    }
    return cfg
}

// LoadFromEnv is Load without the exit: it reports every problem at once.
func LoadFromEnv() (Config, error) {
    var l loader
    cfg := Config{
        Env:      l.must("APP_ENV"),                    // environment (dev/test/prod)
        Port:     envStr("APP_PORT", "8080"),           // port to bind the HTTP server
        LogLevel: envStr("LOG_LEVEL", "info"),          // debug, info, warn, error
        DBDriver: strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
        DBPath:   envStr("DB_PATH", "checkin.db"),

        JWTSecret:    l.must("JWT_SECRET"),           // secret used for signing JWTs
        AccessTTLMin: l.mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for access tokens in minutes
        BcryptCost:   envInt("BCRYPT_COST", 12),      // bcrypt cost factor

        CheckinSecret:         l.must("CHECKIN_SECRET"),
        CheckinSecretPrevious: splitList(os.Getenv("CHECKIN_SECRET_PREVIOUS")),
        DebounceWindow:        envDur("CHECKIN_DEBOUNCE_WINDOW", 2*time.Second),
        StoreTimeout:          envDur("CHECKIN_STORE_TIMEOUT", 3*time.Second),
        StationIdleTTL:        envDur("CHECKIN_STATION_IDLE_TTL", 30*time.Minute),

        AMQPURL:      envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
        AuditLogPath: envStr("AUDIT_LOG_PATH", "logs/checkin-audit.log"),
    }

    switch cfg.DBDriver {
    case DriverMySQL:
        cfg.DBUser = l.must("DB_USER")    // database user
        cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
        cfg.DBHost = l.must("DB_HOST")    // database host
        cfg.DBPort = envStr("DB_PORT", "3306")
        cfg.DBName = l.must("DB_NAME")    // database name
    case DriverSQLite:
    default:
        l.fail(fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver))
    }

    if cfg.CheckinSecret != "" && len(cfg.CheckinSecret) < minCheckinSecret {
        l.fail(fmt.Errorf("CHECKIN_SECRET must be at least %d bytes", minCheckinSecret))
    }
    if cfg.AccessTTLMin < 0 {
        l.fail(errors.New("ACCESS_TOKEN_TTL_MIN must not be negative"))
    }
    if cfg.DebounceWindow <= 0 {
        cfg.DebounceWindow = 2 * time.Second
    }
    if cfg.StoreTimeout <= 0 {
        cfg.StoreTimeout = 3 * time.Second
    }
    return cfg, l.err()
}

// loader collects every missing or invalid variable instead of stopping at
// the first one.
type loader struct {
    errs []error
}

func (l *loader) fail(err error) { l.errs = append(l.errs, err) }

func (l *loader) err() error { return errors.Join(l.errs...) }

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        l.fail(fmt.Errorf("missing required env var: %s", key))
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func (l *loader) mustInt(key string) int {
    s := l.must(key)
    if s == "" {
        return 0
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        l.fail(fmt.Errorf("invalid int for %s: %q", key, s))
    }
    return n
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
