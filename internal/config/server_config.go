package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	DB        PostgresConfig
	Kafka     KafkaConfig
	Supplier  SupplierConfig
	Inventory InventoryConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name    string
	Env     string
	Version string
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	// Enabled turns the read-side projection on.
	Enabled bool
}

type KafkaConfig struct {
	Brokers       []string
	EventTopic    string
	RestockTopic  string
	ConsumerGroup string
	Enabled       bool
}

// SupplierConfig points at the supplier deliveries API polled by
// restock_ingest.
type SupplierConfig struct {
	BaseURL    string
	APIKey     string
	Warehouse  string
	PageSize   int
	SleepMS    int
	MaxRetries int
	Interval   time.Duration
}

type InventoryConfig struct {
	OrderIDStart   int64
	SaleIDStart    int64
	AllowBackorder bool
	// SequenceDir holds the pebble id sequence. Empty keeps ids in memory.
	SequenceDir string
}

type TelemetryConfig struct {
	OtelEndpoint   string
	OtelAuthHeader string
	TracesPath     string
	Insecure       bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "retailhub"),
			Env:     getEnv("APP_ENV", "local"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Server: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 8030),
		},
		DB: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "retailhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			Enabled:  getEnvAsBool("PROJECTION_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Brokers:       splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")),
			EventTopic:    getEnv("KAFKA_EVENT_TOPIC", "retailhub.order-events"),
			RestockTopic:  getEnv("KAFKA_RESTOCK_TOPIC", "retailhub.restock"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "retailhub"),
			Enabled:       getEnvAsBool("KAFKA_ENABLED", false),
		},
		Supplier: SupplierConfig{
			BaseURL:    getEnv("SUPPLIER_BASE_URL", "http://localhost:9090/api/v1"),
			APIKey:     getEnv("SUPPLIER_API_KEY", ""),
			Warehouse:  getEnv("SUPPLIER_WAREHOUSE", "main"),
			PageSize:   getEnvAsInt("SUPPLIER_PAGE_SIZE", 200),
			SleepMS:    getEnvAsInt("SUPPLIER_SLEEP_MS", 500),
			MaxRetries: getEnvAsInt("SUPPLIER_MAX_RETRIES", 3),
			Interval:   getEnvAsDuration("SUPPLIER_POLL_INTERVAL", time.Minute),
		},
		Inventory: InventoryConfig{
			OrderIDStart:   int64(getEnvAsInt("ORDER_ID_START", 1001)),
			SaleIDStart:    int64(getEnvAsInt("SALE_ID_START", 1)),
			AllowBackorder: getEnvAsBool("ALLOW_BACKORDER", true),
			SequenceDir:    getEnv("SEQUENCE_DIR", ""),
		},
		Telemetry: TelemetryConfig{
			OtelEndpoint:   getEnv("OTEL_ENDPOINT", ""),
			OtelAuthHeader: getEnv("OTEL_AUTH_HEADER", ""),
			TracesPath:     getEnv("OTEL_TRACES_PATH", "/v1/traces"),
			Insecure:       getEnvAsBool("OTEL_INSECURE", true),
		},
	}

	return cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

/* ================= helpers ================= */

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("HTTP_PORT is invalid")
	}
	if c.DB.Enabled && (c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "") {
		return fmt.Errorf("database config is incomplete")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	if c.Inventory.OrderIDStart <= 0 || c.Inventory.SaleIDStart <= 0 {
		return fmt.Errorf("id sequences must start above zero")
	}
	// supplier credentials are only needed by restock_ingest
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if val := strings.TrimSpace(p); val != "" {
			out = append(out, val)
		}
	}
	return out
}
