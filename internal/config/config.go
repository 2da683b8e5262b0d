package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Target   TargetConfig
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

type TargetConfig struct {
	HomeURL     string
	SearchQuery string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ScraperConfig struct {
	MaxAttempts       int
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
	ResultTimeout     time.Duration
	// RunTimeout bounds a whole run when positive; zero leaves only per-step timeouts.
	RunTimeout time.Duration
}

type BrowserConfig struct {
	Headless       bool
	SlowMo         time.Duration
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type ExportConfig struct {
	CSVPath     string
	SnapshotDir string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Target: TargetConfig{
			HomeURL:     getEnvOrDefault("TARGET_HOME_URL", "https://brain.com.ua/"),
			SearchQuery: getEnvOrDefault("TARGET_SEARCH_QUERY", "Apple iPhone 15 128GB Black"),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Scraper: ScraperConfig{
			MaxAttempts:       getIntOrDefault("SCRAPER_MAX_ATTEMPTS", 3),
			BackoffMin:        getDurationOrDefault("SCRAPER_BACKOFF_MIN", 1*time.Second),
			BackoffMax:        getDurationOrDefault("SCRAPER_BACKOFF_MAX", 4*time.Second),
			NavigationTimeout: getDurationOrDefault("SCRAPER_NAVIGATION_TIMEOUT", 60*time.Second),
			ElementTimeout:    getDurationOrDefault("SCRAPER_ELEMENT_TIMEOUT", 10*time.Second),
			ResultTimeout:     getDurationOrDefault("SCRAPER_RESULT_TIMEOUT", 5*time.Second),
			RunTimeout:        getDurationOrDefault("SCRAPER_RUN_TIMEOUT", 0),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			SlowMo:         getDurationOrDefault("BROWSER_SLOW_MO", 50*time.Millisecond),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Kiev"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "uk-UA"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", true),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "brain_parser"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:product_parsed"),
		},
		Export: ExportConfig{
			CSVPath:     getEnvOrDefault("EXPORT_CSV_PATH", "results/products.csv"),
			SnapshotDir: getEnvOrDefault("EXPORT_SNAPSHOT_DIR", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Target.HomeURL == "" {
		return fmt.Errorf("TARGET_HOME_URL must not be empty")
	}

	if strings.TrimSpace(c.Target.SearchQuery) == "" {
		return fmt.Errorf("TARGET_SEARCH_QUERY must not be empty")
	}

	if c.Scraper.MaxAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS must be at least 1")
	}

	if c.Scraper.BackoffMin > c.Scraper.BackoffMax {
		return fmt.Errorf("SCRAPER_BACKOFF_MIN cannot be greater than SCRAPER_BACKOFF_MAX")
	}

	if c.Scraper.NavigationTimeout <= 0 || c.Scraper.ElementTimeout <= 0 || c.Scraper.ResultTimeout <= 0 {
		return fmt.Errorf("scraper timeouts must be positive")
	}

	if c.Redis.Enabled && c.Redis.Stream == "" {
		return fmt.Errorf("REDIS_STREAM must be set when REDIS_ENABLED is true")
	}

	return nil
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
