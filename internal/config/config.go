package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pigpay/backend/internal/ledger"
	"github.com/spf13/viper"
)

// LedgerConfig carries the fee policy and retry budget of the engine.
type LedgerConfig struct {
	FeeRateBasisPoints int64
	FeeRounding        string
	OperatorUsername   string
	FeeExemptOfficial  bool
	MaxAttempts        int
	RetryBackoff       time.Duration
	InitialBalance     int64
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		FeeRateBasisPoints: getEnvAsInt64("FEE_RATE_BPS", 500),
		FeeRounding:        getEnv("FEE_ROUNDING", "down"),
		OperatorUsername:   getEnv("OPERATOR_USERNAME", "pigpay"),
		FeeExemptOfficial:  getEnvAsBool("FEE_EXEMPT_OFFICIAL", true),
		MaxAttempts:        getEnvAsInt("LEDGER_MAX_ATTEMPTS", 3),
		RetryBackoff:       getEnvAsDuration("LEDGER_RETRY_BACKOFF", 10*time.Millisecond),
		InitialBalance:     getEnvAsInt64("INITIAL_BALANCE", 1000),
	}
}

// EngineConfig converts the env settings into a validated ledger.Config.
func (c *LedgerConfig) EngineConfig() (ledger.Config, error) {
	rounding, err := ledger.ParseRounding(c.FeeRounding)
	if err != nil {
		return ledger.Config{}, err
	}
	cfg := ledger.Config{
		Fees: ledger.FeePolicy{
			RateBasisPoints:  c.FeeRateBasisPoints,
			Rounding:         rounding,
			OperatorUsername: c.OperatorUsername,
			ExemptOfficial:   c.FeeExemptOfficial,
		},
		MaxAttempts:  c.MaxAttempts,
		RetryBackoff: c.RetryBackoff,
	}
	if c.InitialBalance < 0 {
		return ledger.Config{}, fmt.Errorf("INITIAL_BALANCE must not be negative")
	}
	return cfg, cfg.Validate()
}

// EventsConfig selects where committed entries are published.
type EventsConfig struct {
	Sink        string // redis, nats or none
	RedisList   string
	NATSURL     string
	NATSSubject string
}

func LoadEventsConfig() *EventsConfig {
	return &EventsConfig{
		Sink:        strings.ToLower(getEnv("EVENTS_SINK", "redis")),
		RedisList:   getEnv("EVENTS_REDIS_LIST", "ledger_events"),
		NATSURL:     getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		NATSSubject: getEnv("EVENTS_NATS_SUBJECT", "ledger.entries"),
	}
}

func (c *EventsConfig) Validate() error {
	switch c.Sink {
	case "redis":
		if c.RedisList == "" {
			return fmt.Errorf("EVENTS_REDIS_LIST is required for the redis sink")
		}
	case "nats":
		if c.NATSURL == "" || c.NATSSubject == "" {
			return fmt.Errorf("NATS_URL and EVENTS_NATS_SUBJECT are required for the nats sink")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown EVENTS_SINK %q", c.Sink)
	}
	return nil
}

type ServerConfig struct {
	Port           string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	QRTTL          time.Duration
	AllowedOrigins []string
}

func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		QRTTL:          getEnvAsDuration("QR_TTL", 5*time.Minute),
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
}

func (c *ServerConfig) Validate() error {
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.QRTTL <= 0 {
		return fmt.Errorf("QR_TTL must be positive")
	}
	return nil
}

// getEnv reads key through viper so values from the .env file and the
// process environment are both honoured. The viper key is the lowercased
// env name, which is how viper stores entries read from a .env file.
func getEnv(key, defaultVal string) string {
	viperKey := strings.ToLower(key)
	viper.SetDefault(viperKey, defaultVal)
	viper.BindEnv(viperKey, key)

	if val := viper.GetString(viperKey); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if intVal, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultVal))); err == nil {
		return intVal
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if intVal, err := strconv.ParseInt(getEnv(key, strconv.FormatInt(defaultVal, 10)), 10, 64); err == nil {
		return intVal
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultVal))); err == nil {
		return b
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if duration, err := time.ParseDuration(getEnv(key, defaultVal.String())); err == nil {
		return duration
	}
	return defaultVal
}
