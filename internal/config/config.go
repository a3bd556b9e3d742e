package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"invoicevault/internal/extract"
	"invoicevault/internal/fetch"
	"invoicevault/internal/logger"
	"invoicevault/internal/normalize"
	"invoicevault/internal/validator"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	Engine EngineConfig
	Fetch  FetchConfig
	S3     S3Config
	Ingest IngestConfig
	Email  EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadSize int64         `mapstructure:"max_upload_mb"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
	Output     string `mapstructure:"output"`
}

// EngineConfig holds the parsing and validation grammar.
type EngineConfig struct {
	Tolerance             decimal.Decimal `mapstructure:"tolerance"`
	DateLayouts           []string        `mapstructure:"date_layouts"`
	CurrencySymbols       []string        `mapstructure:"currency_symbols"`
	MaxSkippedRowFraction float64         `mapstructure:"max_skipped_row_fraction"`
	StrictSummary         bool            `mapstructure:"strict_summary"`
	OrderIDDigits         int             `mapstructure:"order_id_digits"`
	DisabledRules         []string        `mapstructure:"disabled_rules"`
}

// FetchConfig holds detail-document download and cache settings.
type FetchConfig struct {
	CacheBackend string        `mapstructure:"cache_backend"`
	CacheDir     string        `mapstructure:"cache_dir"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	Backoff      time.Duration `mapstructure:"backoff"`
	MaxParallel  int           `mapstructure:"max_parallel"`
}

// S3Config holds AWS S3 settings for the document cache.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// IngestConfig holds batch ingest settings.
type IngestConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	ExportFormat string `mapstructure:"export_format"`
	ExportDir    string `mapstructure:"export_dir"`
}

// EmailConfig holds run-report delivery settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	ReportTo    []string `mapstructure:"report_to"`
}

// Load reads configuration from environment variables with the INVOICEVAULT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 32)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoicevault")
	v.SetDefault("db.password", "invoicevault_secret")
	v.SetDefault("db.name", "invoicevault")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("log.output", "stderr")

	// Engine defaults
	v.SetDefault("engine.tolerance", "0.01")
	v.SetDefault("engine.date_layouts", strings.Join(normalize.DefaultConfig().DateLayouts, ","))
	v.SetDefault("engine.currency_symbols", strings.Join(normalize.DefaultConfig().CurrencySymbols, ","))
	v.SetDefault("engine.max_skipped_row_fraction", 0)
	v.SetDefault("engine.strict_summary", true)
	v.SetDefault("engine.order_id_digits", 15)
	v.SetDefault("engine.disabled_rules", "")

	// Fetch defaults
	v.SetDefault("fetch.cache_backend", "fs")
	v.SetDefault("fetch.cache_dir", ".tmp/cache")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff", "500ms")
	v.SetDefault("fetch.max_parallel", 4)

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "invoicevault-documents")
	v.SetDefault("s3.prefix", "detail-cache/")
	v.SetDefault("s3.endpoint", "")

	// Ingest defaults
	v.SetDefault("ingest.concurrency", 4)
	v.SetDefault("ingest.export_format", "")
	v.SetDefault("ingest.export_dir", "reports")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "reports@invoicevault.local")
	v.SetDefault("email.from_name", "InvoiceVault")
	v.SetDefault("email.report_to", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "INVOICEVAULT_SERVER_PORT",
		"server.read_timeout":             "INVOICEVAULT_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "INVOICEVAULT_SERVER_WRITE_TIMEOUT",
		"server.environment":              "INVOICEVAULT_SERVER_ENVIRONMENT",
		"server.max_upload_mb":            "INVOICEVAULT_SERVER_MAX_UPLOAD_MB",
		"db.host":                         "INVOICEVAULT_DB_HOST",
		"db.port":                         "INVOICEVAULT_DB_PORT",
		"db.user":                         "INVOICEVAULT_DB_USER",
		"db.password":                     "INVOICEVAULT_DB_PASSWORD",
		"db.name":                         "INVOICEVAULT_DB_NAME",
		"db.sslmode":                      "INVOICEVAULT_DB_SSLMODE",
		"db.max_open":                     "INVOICEVAULT_DB_MAX_OPEN",
		"db.max_idle":                     "INVOICEVAULT_DB_MAX_IDLE",
		"log.level":                       "INVOICEVAULT_LOG_LEVEL",
		"log.format":                      "INVOICEVAULT_LOG_FORMAT",
		"log.time_format":                 "INVOICEVAULT_LOG_TIME_FORMAT",
		"log.output":                      "INVOICEVAULT_LOG_OUTPUT",
		"engine.tolerance":                "INVOICEVAULT_ENGINE_TOLERANCE",
		"engine.date_layouts":             "INVOICEVAULT_ENGINE_DATE_LAYOUTS",
		"engine.currency_symbols":         "INVOICEVAULT_ENGINE_CURRENCY_SYMBOLS",
		"engine.max_skipped_row_fraction": "INVOICEVAULT_ENGINE_MAX_SKIPPED_ROW_FRACTION",
		"engine.strict_summary":           "INVOICEVAULT_ENGINE_STRICT_SUMMARY",
		"engine.order_id_digits":          "INVOICEVAULT_ENGINE_ORDER_ID_DIGITS",
		"engine.disabled_rules":           "INVOICEVAULT_ENGINE_DISABLED_RULES",
		"fetch.cache_backend":             "INVOICEVAULT_FETCH_CACHE_BACKEND",
		"fetch.cache_dir":                 "INVOICEVAULT_FETCH_CACHE_DIR",
		"fetch.timeout":                   "INVOICEVAULT_FETCH_TIMEOUT",
		"fetch.max_retries":               "INVOICEVAULT_FETCH_MAX_RETRIES",
		"fetch.backoff":                   "INVOICEVAULT_FETCH_BACKOFF",
		"fetch.max_parallel":              "INVOICEVAULT_FETCH_MAX_PARALLEL",
		"s3.region":                       "INVOICEVAULT_S3_REGION",
		"s3.bucket":                       "INVOICEVAULT_S3_BUCKET",
		"s3.prefix":                       "INVOICEVAULT_S3_PREFIX",
		"s3.endpoint":                     "INVOICEVAULT_S3_ENDPOINT",
		"s3.access_key":                   "INVOICEVAULT_S3_ACCESS_KEY",
		"s3.secret_key":                   "INVOICEVAULT_S3_SECRET_KEY",
		"ingest.concurrency":              "INVOICEVAULT_INGEST_CONCURRENCY",
		"ingest.export_format":            "INVOICEVAULT_INGEST_EXPORT_FORMAT",
		"ingest.export_dir":               "INVOICEVAULT_INGEST_EXPORT_DIR",
		"email.provider":                  "INVOICEVAULT_EMAIL_PROVIDER",
		"email.region":                    "INVOICEVAULT_EMAIL_REGION",
		"email.from_address":              "INVOICEVAULT_EMAIL_FROM_ADDRESS",
		"email.from_name":                 "INVOICEVAULT_EMAIL_FROM_NAME",
		"email.report_to":                 "INVOICEVAULT_EMAIL_REPORT_TO",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if INVOICEVAULT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEVAULT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxUploadSize: v.GetInt64("server.max_upload_mb"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:      v.GetString("log.level"),
		Format:     v.GetString("log.format"),
		TimeFormat: v.GetString("log.time_format"),
		Output:     v.GetString("log.output"),
	}

	tolerance, err := decimal.NewFromString(v.GetString("engine.tolerance"))
	if err != nil {
		return nil, fmt.Errorf("parsing engine.tolerance: %w", err)
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("engine.tolerance must not be negative, got %s", tolerance)
	}
	fraction := v.GetFloat64("engine.max_skipped_row_fraction")
	if fraction < 0 || fraction > 1 {
		return nil, fmt.Errorf("engine.max_skipped_row_fraction must be within [0,1], got %v", fraction)
	}
	cfg.Engine = EngineConfig{
		Tolerance:             tolerance,
		DateLayouts:           splitList(v.GetString("engine.date_layouts")),
		CurrencySymbols:       splitList(v.GetString("engine.currency_symbols")),
		MaxSkippedRowFraction: fraction,
		StrictSummary:         v.GetBool("engine.strict_summary"),
		OrderIDDigits:         v.GetInt("engine.order_id_digits"),
		DisabledRules:         splitList(v.GetString("engine.disabled_rules")),
	}

	cfg.Fetch = FetchConfig{
		CacheBackend: v.GetString("fetch.cache_backend"),
		CacheDir:     v.GetString("fetch.cache_dir"),
		Timeout:      v.GetDuration("fetch.timeout"),
		MaxRetries:   v.GetInt("fetch.max_retries"),
		Backoff:      v.GetDuration("fetch.backoff"),
		MaxParallel:  v.GetInt("fetch.max_parallel"),
	}
	switch cfg.Fetch.CacheBackend {
	case "fs", "s3", "none":
	default:
		return nil, fmt.Errorf("unknown fetch.cache_backend %q (want fs, s3 or none)", cfg.Fetch.CacheBackend)
	}

	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Prefix:    v.GetString("s3.prefix"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Ingest = IngestConfig{
		Concurrency:  v.GetInt("ingest.concurrency"),
		ExportFormat: v.GetString("ingest.export_format"),
		ExportDir:    v.GetString("ingest.export_dir"),
	}
	if cfg.Ingest.Concurrency < 1 {
		cfg.Ingest.Concurrency = 1
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		ReportTo:    splitList(v.GetString("email.report_to")),
	}

	return cfg, nil
}

// NormalizeConfig converts the engine settings for the normalizer.
func (e *EngineConfig) NormalizeConfig() normalize.Config {
	cfg := normalize.DefaultConfig()
	if len(e.DateLayouts) > 0 {
		cfg.DateLayouts = e.DateLayouts
	}
	if len(e.CurrencySymbols) > 0 {
		cfg.CurrencySymbols = e.CurrencySymbols
	}
	return cfg
}

// ExtractConfig converts the engine settings for the extractors.
func (e *EngineConfig) ExtractConfig() extract.Config {
	return extract.Config{
		OrderIDDigits:         e.OrderIDDigits,
		MaxSkippedRowFraction: e.MaxSkippedRowFraction,
	}
}

// ValidatorConfig converts the engine settings for the validator.
func (e *EngineConfig) ValidatorConfig() validator.Config {
	return validator.Config{
		Tolerance:     e.Tolerance,
		StrictSummary: e.StrictSummary,
		Disabled:      e.DisabledRules,
	}
}

// ResolverConfig converts the fetch settings for the document resolver.
func (f *FetchConfig) ResolverConfig() fetch.Config {
	return fetch.Config{
		Timeout:     f.Timeout,
		MaxRetries:  f.MaxRetries,
		Backoff:     f.Backoff,
		MaxParallel: f.MaxParallel,
	}
}

// LoggerConfig converts the log settings for logger.Setup.
func (l *LogConfig) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      l.Level,
		Format:     l.Format,
		TimeFormat: l.TimeFormat,
		Output:     l.Output,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
