package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the rest
// fall back to defaults that suit local development.
type Config struct {
    Env         string // application environment (e.g. "dev", "prod")
    Port        string // HTTP port to listen on
    LogLevel    string // debug, info, warn or error
    CatalogDir  string // optional directory overriding the bundled catalog fixture

    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    JWTSecret        string        // secret used to sign session and reset tokens
    SessionTTLMin    int           // session token time-to-live in minutes
    BcryptCost       int           // bcrypt cost for password hashing
    FederatedAuthURL string        // authorization URL for redirect sign-in; empty disables it
    FederatedSecret  string        // secret the federated provider signs assertions with
    ResetTTL         time.Duration // lifetime of password reset tokens

    DeviceStorePrefix string        // Redis key prefix for per-device storage
    DeviceStoreTTL    time.Duration // 0 keeps device values until deleted

    RabbitURL        string        // AMQP URL; empty disables the broker
    BookingSubmitter string        // "delay" or "queue"
    BookingDelay     time.Duration // simulated latency of the delay submitter
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
    return Config{
        Env:        must("APP_ENV"),
        Port:       must("APP_PORT"),
        LogLevel:   envStr("LOG_LEVEL", "info"),
        CatalogDir: os.Getenv("CATALOG_DIR"),

        DBUser: must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"), // empty allowed
        DBHost: must("DB_HOST"),
        DBPort: must("DB_PORT"),
        DBName: must("DB_NAME"),

        JWTSecret:        must("JWT_SECRET"),
        SessionTTLMin:    envInt("SESSION_TTL_MIN", 60*24),
        BcryptCost:       mustInt("BCRYPT_COST"),
        FederatedAuthURL: os.Getenv("FEDERATED_AUTH_URL"),
        FederatedSecret:  os.Getenv("FEDERATED_SECRET"),
        ResetTTL:         time.Duration(envInt("RESET_TTL_MIN", 30)) * time.Minute,

        DeviceStorePrefix: envStr("DEVICE_STORE_PREFIX", "device"),
        DeviceStoreTTL:    envDur("DEVICE_STORE_TTL", 0),

        RabbitURL:        os.Getenv("RABBITMQ_URL"),
        BookingSubmitter: envStr("BOOKING_SUBMITTER", "delay"),
        BookingDelay:     envDur("BOOKING_DELAY", time.Second),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
