package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileEnvVar names an optional YAML file layered between defaults and env.
const ConfigFileEnvVar = "CONFIG_FILE"

// Config holds application configuration.
type Config struct {
	Env              string          `koanf:"env" validate:"oneof=dev local staging production"`
	Port             string          `koanf:"port" validate:"required"`
	DatabaseURL      string          `koanf:"database_url"`
	CORSAllowOrigins []string        `koanf:"cors_allow_origins"`
	DB               DBConfig        `koanf:"db"`
	Catalog          CatalogConfig   `koanf:"catalog"`
	LLM              LLMConfig       `koanf:"llm"`
	Recommend        RecommendConfig `koanf:"recommend"`
	RateLimit        RateLimitConfig `koanf:"rate_limit"`
	Log              LogConfig       `koanf:"log"`
}

// DBConfig overrides the connection pool defaults. Zero keeps the default.
type DBConfig struct {
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"gte=0"`
	PingTimeout     time.Duration `koanf:"ping_timeout" validate:"gte=0"`
}

// CatalogConfig points memory mode at an external seed instead of the
// embedded one. SeedURI is a file path, file:// URI or s3://bucket/key.
type CatalogConfig struct {
	SeedURI   string `koanf:"seed_uri"`
	AWSRegion string `koanf:"aws_region"`
}

// LLMConfig selects and tunes the generative provider.
type LLMConfig struct {
	Provider        string        `koanf:"provider" validate:"oneof=openai gemini none"`
	Model           string        `koanf:"model"`
	OpenAIAPIKey    string        `koanf:"openai_api_key"`
	GeminiAPIKey    string        `koanf:"gemini_api_key"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// RecommendConfig bounds the ranking context. RadiusKM of zero means unrestricted.
type RecommendConfig struct {
	RadiusKM       float64 `koanf:"radius_km" validate:"gte=0"`
	ContextVendors int     `koanf:"context_vendors" validate:"gte=1,lte=50"`
	ItemsPerVendor int     `koanf:"items_per_vendor" validate:"gte=1,lte=200"`
}

// RateLimitConfig applies per client IP. RPS of zero disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// LogConfig controls telemetry output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Env:              "dev",
		Port:             "8080",
		CORSAllowOrigins: []string{"http://localhost:5173"},
		LLM: LLMConfig{
			Provider:        "openai",
			Model:           "gpt-4o-mini",
			Timeout:         15 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Recommend: RecommendConfig{
			RadiusKM:       0,
			ContextVendors: 5,
			ItemsPerVendor: 25,
		},
		RateLimit: RateLimitConfig{
			RPS:   2,
			Burst: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing priority.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return load(os.Getenv(ConfigFileEnvVar))
}

func load(configFile string) (Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path := strings.TrimSpace(configFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.CORSAllowOrigins = splitAndTrim(cfg.CORSAllowOrigins)
	cfg.Catalog.SeedURI = strings.TrimSpace(cfg.Catalog.SeedURI)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("invalid config: DATABASE_URL is required in production")
	}
	return nil
}

// RadiusLimit returns the recommendation radius, or nil when unrestricted.
func (r RecommendConfig) RadiusLimit() *float64 {
	if r.RadiusKM <= 0 {
		return nil
	}
	v := r.RadiusKM
	return &v
}

// envKeys maps flat environment names onto nested config paths.
var envKeys = map[string]string{
	"port":                       "port",
	"env":                        "env",
	"database_url":               "database_url",
	"cors_allow_origins":         "cors_allow_origins",
	"db_max_open_conns":          "db.max_open_conns",
	"db_max_idle_conns":          "db.max_idle_conns",
	"db_conn_max_lifetime":       "db.conn_max_lifetime",
	"db_conn_max_idle_time":      "db.conn_max_idle_time",
	"db_ping_timeout":            "db.ping_timeout",
	"catalog_seed_uri":           "catalog.seed_uri",
	"aws_region":                 "catalog.aws_region",
	"llm_provider":               "llm.provider",
	"llm_model":                  "llm.model",
	"openai_api_key":             "llm.openai_api_key",
	"gemini_api_key":             "llm.gemini_api_key",
	"llm_timeout":                "llm.timeout",
	"llm_breaker_failures":       "llm.breaker_failures",
	"llm_breaker_cooldown":       "llm.breaker_cooldown",
	"recommend_radius_km":        "recommend.radius_km",
	"recommend_context_vendors":  "recommend.context_vendors",
	"recommend_items_per_vendor": "recommend.items_per_vendor",
	"rate_limit_rps":             "rate_limit.rps",
	"rate_limit_burst":           "rate_limit.burst",
	"log_level":                  "log.level",
	"log_format":                 "log.format",
}

// envTransformFunc returns "" for variables the service does not read so
// unrelated environment never leaks into the config tree.
func envTransformFunc(key string) string {
	return envKeys[strings.ToLower(key)]
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Existing environment wins over file values.
		_ = godotenv.Load(path)
	}
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, p := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
