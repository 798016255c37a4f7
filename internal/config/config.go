package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported graph store backends
const (
	StoreNeo4j  = "neo4j"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all runtime configuration parameters
type Config struct {
	GitHubToken       string `mapstructure:"github_token" env:"GITHUB_TOKEN"`
	GitHubAPIURL      string `mapstructure:"github_api_url" env:"GITHUB_API_URL" validate:"required,url"`
	StoreBackend      string `mapstructure:"graph_store" env:"GRAPH_STORE" validate:"oneof=neo4j sqlite memory"`
	Neo4jURI          string `mapstructure:"neo4j_uri" env:"NEO4J_URI" validate:"required_if=StoreBackend neo4j"`
	Neo4jUser         string `mapstructure:"neo4j_user" env:"NEO4J_USER" validate:"required_if=StoreBackend neo4j"`
	Neo4jPassword     string `mapstructure:"neo4j_pass" env:"NEO4J_PASS" validate:"required_if=StoreBackend neo4j"`
	SQLitePath        string `mapstructure:"sqlite_path" env:"SQLITE_PATH" validate:"required_if=StoreBackend sqlite"`
	FollowerThreshold int    `mapstructure:"follower_threshold" env:"FOLLOWER_THRESHOLD" validate:"gte=0"`
	RequestTimeoutMs  int    `mapstructure:"request_timeout_ms" env:"REQUEST_TIMEOUT_MS" validate:"gte=1000"`
	RequestDelayMs    int    `mapstructure:"request_delay_ms" env:"REQUEST_DELAY_MS" validate:"gte=0"`
	MetricsPath       string `mapstructure:"metrics_path" env:"METRICS_PATH"`
}

// envKeys maps each config key to the environment variable it is read from
var envKeys = map[string]string{
	"github_token":       "GITHUB_TOKEN",
	"github_api_url":     "GITHUB_API_URL",
	"graph_store":        "GRAPH_STORE",
	"neo4j_uri":          "NEO4J_URI",
	"neo4j_user":         "NEO4J_USER",
	"neo4j_pass":         "NEO4J_PASS",
	"sqlite_path":        "SQLITE_PATH",
	"follower_threshold": "FOLLOWER_THRESHOLD",
	"request_timeout_ms": "REQUEST_TIMEOUT_MS",
	"request_delay_ms":   "REQUEST_DELAY_MS",
	"metrics_path":       "METRICS_PATH",
}

// MissingConfigError reports required variables that are not set.
// Nothing should touch the network once this is returned.
type MissingConfigError struct {
	Vars []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing config variables: %s", strings.Join(e.Vars, ", "))
}

// Load reads an optional .env file and then builds the configuration from the environment
func Load() (*Config, error) {
	// A missing .env is fine, real environment variables still apply
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment
func FromEnv() (*Config, error) {
	v := viper.New()
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasToken reports whether API requests will be authenticated
func (c *Config) HasToken() bool {
	return c.GitHubToken != ""
}

// setDefaults registers values used when a variable is unset or empty
func setDefaults(v *viper.Viper) {
	v.SetDefault("github_api_url", "https://api.github.com")
	v.SetDefault("graph_store", StoreNeo4j)
	v.SetDefault("sqlite_path", "graph.db")
	v.SetDefault("follower_threshold", 100)
	v.SetDefault("request_timeout_ms", 10000)
	v.SetDefault("request_delay_ms", 0)
}

func normalize(cfg *Config) {
	cfg.GitHubAPIURL = strings.TrimRight(strings.TrimSpace(cfg.GitHubAPIURL), "/")
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
}

// validate checks that required fields are present and values are sensible.
// Every missing required variable is collected into a single MissingConfigError.
func validate(cfg *Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var missing []string
	var invalid []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_if":
			missing = append(missing, fe.Field())
		default:
			invalid = append(invalid, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}

	if len(missing) > 0 {
		return &MissingConfigError{Vars: missing}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
}
