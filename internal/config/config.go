package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	CORS     CORSConfig
	Email    EmailConfig
	Reasoner ReasonerConfig
	Engine   EngineConfig
	Company  CompanyConfig
	RefData  RefDataConfig
}

// EmailConfig holds escalation notification settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Reviewers   []string `mapstructure:"reviewers"`
	ConsoleURL  string   `mapstructure:"console_url"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ReasonerProviderConfig holds settings for a single LLM reasoner provider.
type ReasonerProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ReasonerConfig holds the ordered reasoner providers. An empty primary
// provider disables the ambiguous-case check.
type ReasonerConfig struct {
	Primary   ReasonerProviderConfig `mapstructure:"primary"`
	Secondary ReasonerProviderConfig `mapstructure:"secondary"`
	Tertiary  ReasonerProviderConfig `mapstructure:"tertiary"`
}

// Providers returns the configured providers in fallback order.
func (r *ReasonerConfig) Providers() []*ReasonerProviderConfig {
	var out []*ReasonerProviderConfig
	for _, p := range []*ReasonerProviderConfig{&r.Primary, &r.Secondary, &r.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// EngineConfig tunes aggregation, escalation and batch execution.
type EngineConfig struct {
	ConfidenceThreshold           float64       `mapstructure:"confidence_threshold"`
	HighValueThreshold            float64       `mapstructure:"high_value_threshold"`
	PassWithWarningsMaxFailures   int           `mapstructure:"pass_with_warnings_max_failures"`
	PassWithWarningsMinConfidence float64       `mapstructure:"pass_with_warnings_min_confidence"`
	MultipleFailuresThreshold     int           `mapstructure:"multiple_failures_threshold"`
	BatchConcurrency              int           `mapstructure:"batch_concurrency"`
	MaxBatchSize                  int           `mapstructure:"max_batch_size"`
	ReasonerTimeout               time.Duration `mapstructure:"reasoner_timeout"`
	ReasonerMaxAttempts           int           `mapstructure:"reasoner_max_attempts"`
	ReasonerRPS                   float64       `mapstructure:"reasoner_rps"`
	ReasonerBurst                 int           `mapstructure:"reasoner_burst"`
}

// CompanyConfig identifies the buying company and overrides policy dates.
type CompanyConfig struct {
	GSTIN             string `mapstructure:"gstin"`
	FYStart           string `mapstructure:"fy_start"`
	FYEnd             string `mapstructure:"fy_end"`
	MarchGraceUntil   string `mapstructure:"march_grace_until"`
	MaxInvoiceAgeDays int    `mapstructure:"max_invoice_age_days"`
}

// RefDataConfig locates the reference data.
type RefDataConfig struct {
	Source      string `mapstructure:"source"`
	DataDir     string `mapstructure:"data_dir"`
	RatesFile   string `mapstructure:"rates_file"`
	HSNFile     string `mapstructure:"hsn_file"`
	TDSFile     string `mapstructure:"tds_file"`
	VendorsFile string `mapstructure:"vendors_file"`
	PolicyFile  string `mapstructure:"policy_file"`
	HistoryFile string `mapstructure:"history_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings. An empty host disables
// persistence.
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

// Enabled reports whether a database is configured.
func (d *DBConfig) Enabled() bool {
	return d.Host != ""
}

// JWTConfig holds the service-token verification settings.
type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	Leeway   time.Duration `mapstructure:"leeway"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	ReportPrefix  string `mapstructure:"report_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the FINGUARD_
// prefix, layered over an optional YAML file named by FINGUARD_CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("FINGUARD_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// DB defaults (empty host: no persistence)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "finguard")
	v.SetDefault("db.password", "finguard_secret")
	v.SetDefault("db.name", "finguard_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "finguard")
	v.SetDefault("jwt.audience", "finguard-api")
	v.SetDefault("jwt.leeway", "30s")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "finguard-invoices")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.report_prefix", "reports")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@finguard.local")
	v.SetDefault("email.from_name", "Finguard")
	v.SetDefault("email.reviewers", "")
	v.SetDefault("email.console_url", "http://localhost:3000")

	// Reasoner defaults
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("reasoner."+tier+".provider", "")
		v.SetDefault("reasoner."+tier+".api_key", "")
		v.SetDefault("reasoner."+tier+".default_model", "")
		v.SetDefault("reasoner."+tier+".max_retries", 2)
		v.SetDefault("reasoner."+tier+".timeout_secs", 60)
	}

	// Engine defaults
	v.SetDefault("engine.confidence_threshold", 0.70)
	v.SetDefault("engine.high_value_threshold", 1000000)
	v.SetDefault("engine.pass_with_warnings_max_failures", 2)
	v.SetDefault("engine.pass_with_warnings_min_confidence", 0.80)
	v.SetDefault("engine.multiple_failures_threshold", 3)
	v.SetDefault("engine.batch_concurrency", 4)
	v.SetDefault("engine.max_batch_size", 500)
	v.SetDefault("engine.reasoner_timeout", "30s")
	v.SetDefault("engine.reasoner_max_attempts", 2)
	v.SetDefault("engine.reasoner_rps", 0)
	v.SetDefault("engine.reasoner_burst", 1)

	// Company defaults
	v.SetDefault("company.gstin", "27AABCU9603R1ZM")
	v.SetDefault("company.fy_start", "")
	v.SetDefault("company.fy_end", "")
	v.SetDefault("company.march_grace_until", "")
	v.SetDefault("company.max_invoice_age_days", 180)

	// Reference data defaults
	v.SetDefault("refdata.source", "files")
	v.SetDefault("refdata.data_dir", "data")
	v.SetDefault("refdata.rates_file", "gst_rates_schedule.csv")
	v.SetDefault("refdata.hsn_file", "hsn_sac_codes.json")
	v.SetDefault("refdata.tds_file", "tds_sections.json")
	v.SetDefault("refdata.vendors_file", "vendor_registry.json")
	v.SetDefault("refdata.policy_file", "company_policy.yaml")
	v.SetDefault("refdata.history_file", "historical_decisions.jsonl")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                            "FINGUARD_SERVER_PORT",
		"server.read_timeout":                    "FINGUARD_SERVER_READ_TIMEOUT",
		"server.write_timeout":                   "FINGUARD_SERVER_WRITE_TIMEOUT",
		"server.environment":                     "FINGUARD_SERVER_ENVIRONMENT",
		"db.host":                                "FINGUARD_DB_HOST",
		"db.port":                                "FINGUARD_DB_PORT",
		"db.user":                                "FINGUARD_DB_USER",
		"db.password":                            "FINGUARD_DB_PASSWORD",
		"db.name":                                "FINGUARD_DB_NAME",
		"db.sslmode":                             "FINGUARD_DB_SSLMODE",
		"db.max_open":                            "FINGUARD_DB_MAX_OPEN",
		"db.max_idle":                            "FINGUARD_DB_MAX_IDLE",
		"jwt.secret":                             "FINGUARD_JWT_SECRET",
		"jwt.issuer":                             "FINGUARD_JWT_ISSUER",
		"jwt.audience":                           "FINGUARD_JWT_AUDIENCE",
		"jwt.leeway":                             "FINGUARD_JWT_LEEWAY",
		"s3.region":                              "FINGUARD_S3_REGION",
		"s3.bucket":                              "FINGUARD_S3_BUCKET",
		"s3.endpoint":                            "FINGUARD_S3_ENDPOINT",
		"s3.access_key":                          "FINGUARD_S3_ACCESS_KEY",
		"s3.secret_key":                          "FINGUARD_S3_SECRET_KEY",
		"s3.max_file_size_mb":                    "FINGUARD_S3_MAX_FILE_SIZE_MB",
		"s3.report_prefix":                       "FINGUARD_S3_REPORT_PREFIX",
		"log.level":                              "FINGUARD_LOG_LEVEL",
		"log.format":                             "FINGUARD_LOG_FORMAT",
		"cors.allowed_origins":                   "FINGUARD_CORS_ALLOWED_ORIGINS",
		"email.provider":                         "FINGUARD_EMAIL_PROVIDER",
		"email.region":                           "FINGUARD_EMAIL_REGION",
		"email.from_address":                     "FINGUARD_EMAIL_FROM_ADDRESS",
		"email.from_name":                        "FINGUARD_EMAIL_FROM_NAME",
		"email.reviewers":                        "FINGUARD_EMAIL_REVIEWERS",
		"email.console_url":                      "FINGUARD_EMAIL_CONSOLE_URL",
		"engine.confidence_threshold":            "FINGUARD_ENGINE_CONFIDENCE_THRESHOLD",
		"engine.high_value_threshold":            "FINGUARD_ENGINE_HIGH_VALUE_THRESHOLD",
		"engine.pass_with_warnings_max_failures": "FINGUARD_ENGINE_PASS_WITH_WARNINGS_MAX_FAILURES",
		"engine.pass_with_warnings_min_confidence": "FINGUARD_ENGINE_PASS_WITH_WARNINGS_MIN_CONFIDENCE",
		"engine.multiple_failures_threshold":       "FINGUARD_ENGINE_MULTIPLE_FAILURES_THRESHOLD",
		"engine.batch_concurrency":                 "FINGUARD_ENGINE_BATCH_CONCURRENCY",
		"engine.max_batch_size":                    "FINGUARD_ENGINE_MAX_BATCH_SIZE",
		"engine.reasoner_timeout":                  "FINGUARD_ENGINE_REASONER_TIMEOUT",
		"engine.reasoner_max_attempts":             "FINGUARD_ENGINE_REASONER_MAX_ATTEMPTS",
		"engine.reasoner_rps":                      "FINGUARD_ENGINE_REASONER_RPS",
		"engine.reasoner_burst":                    "FINGUARD_ENGINE_REASONER_BURST",
		"company.gstin":                            "FINGUARD_COMPANY_GSTIN",
		"company.fy_start":                         "FINGUARD_COMPANY_FY_START",
		"company.fy_end":                           "FINGUARD_COMPANY_FY_END",
		"company.march_grace_until":                "FINGUARD_COMPANY_MARCH_GRACE_UNTIL",
		"company.max_invoice_age_days":             "FINGUARD_COMPANY_MAX_INVOICE_AGE_DAYS",
		"refdata.source":                           "FINGUARD_REFDATA_SOURCE",
		"refdata.data_dir":                         "FINGUARD_REFDATA_DATA_DIR",
		"refdata.rates_file":                       "FINGUARD_REFDATA_RATES_FILE",
		"refdata.hsn_file":                         "FINGUARD_REFDATA_HSN_FILE",
		"refdata.tds_file":                         "FINGUARD_REFDATA_TDS_FILE",
		"refdata.vendors_file":                     "FINGUARD_REFDATA_VENDORS_FILE",
		"refdata.policy_file":                      "FINGUARD_REFDATA_POLICY_FILE",
		"refdata.history_file":                     "FINGUARD_REFDATA_HISTORY_FILE",
	}
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		for _, field := range []string{"provider", "api_key", "default_model", "max_retries", "timeout_secs"} {
			key := "reasoner." + tier + "." + field
			envBindings[key] = "FINGUARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if FINGUARD_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FINGUARD_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
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
	cfg.JWT = JWTConfig{
		Secret:   v.GetString("jwt.secret"),
		Issuer:   v.GetString("jwt.issuer"),
		Audience: v.GetString("jwt.audience"),
		Leeway:   v.GetDuration("jwt.leeway"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		ReportPrefix:  v.GetString("s3.report_prefix"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Reviewers:   splitList(v.GetString("email.reviewers")),
		ConsoleURL:  v.GetString("email.console_url"),
	}

	provider := func(tier string) ReasonerProviderConfig {
		prefix := "reasoner." + tier + "."
		return ReasonerProviderConfig{
			Provider:     v.GetString(prefix + "provider"),
			APIKey:       v.GetString(prefix + "api_key"),
			DefaultModel: v.GetString(prefix + "default_model"),
			MaxRetries:   v.GetInt(prefix + "max_retries"),
			TimeoutSecs:  v.GetInt(prefix + "timeout_secs"),
		}
	}
	cfg.Reasoner = ReasonerConfig{
		Primary:   provider("primary"),
		Secondary: provider("secondary"),
		Tertiary:  provider("tertiary"),
	}

	cfg.Engine = EngineConfig{
		ConfidenceThreshold:           v.GetFloat64("engine.confidence_threshold"),
		HighValueThreshold:            v.GetFloat64("engine.high_value_threshold"),
		PassWithWarningsMaxFailures:   v.GetInt("engine.pass_with_warnings_max_failures"),
		PassWithWarningsMinConfidence: v.GetFloat64("engine.pass_with_warnings_min_confidence"),
		MultipleFailuresThreshold:     v.GetInt("engine.multiple_failures_threshold"),
		BatchConcurrency:              v.GetInt("engine.batch_concurrency"),
		MaxBatchSize:                  v.GetInt("engine.max_batch_size"),
		ReasonerTimeout:               v.GetDuration("engine.reasoner_timeout"),
		ReasonerMaxAttempts:           v.GetInt("engine.reasoner_max_attempts"),
		ReasonerRPS:                   v.GetFloat64("engine.reasoner_rps"),
		ReasonerBurst:                 v.GetInt("engine.reasoner_burst"),
	}
	if cfg.Engine.ConfidenceThreshold < 0 || cfg.Engine.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("engine.confidence_threshold must be within [0, 1], got %v", cfg.Engine.ConfidenceThreshold)
	}
	if cfg.Engine.BatchConcurrency < 1 {
		cfg.Engine.BatchConcurrency = 1
	}

	cfg.Company = CompanyConfig{
		GSTIN:             strings.ToUpper(strings.TrimSpace(v.GetString("company.gstin"))),
		FYStart:           v.GetString("company.fy_start"),
		FYEnd:             v.GetString("company.fy_end"),
		MarchGraceUntil:   v.GetString("company.march_grace_until"),
		MaxInvoiceAgeDays: v.GetInt("company.max_invoice_age_days"),
	}

	cfg.RefData = RefDataConfig{
		Source:      v.GetString("refdata.source"),
		DataDir:     v.GetString("refdata.data_dir"),
		RatesFile:   v.GetString("refdata.rates_file"),
		HSNFile:     v.GetString("refdata.hsn_file"),
		TDSFile:     v.GetString("refdata.tds_file"),
		VendorsFile: v.GetString("refdata.vendors_file"),
		PolicyFile:  v.GetString("refdata.policy_file"),
		HistoryFile: v.GetString("refdata.history_file"),
	}
	switch cfg.RefData.Source {
	case "files", "postgres":
	default:
		return nil, fmt.Errorf("refdata.source must be files or postgres, got %q", cfg.RefData.Source)
	}

	return cfg, nil
}

// splitList parses a comma-separated setting.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
