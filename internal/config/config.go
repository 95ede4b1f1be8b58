package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the prodsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Sparse    SparseConfig    `yaml:"sparse"`
	Dense     DenseConfig     `yaml:"dense"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig locates the product catalog (.csv, .csv.zip or .parquet).
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"` // 0 = all rows
}

// WeightConfig names a field or a vector space with its weight.
type WeightConfig struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// SparseConfig holds the default sparse ranking settings.
type SparseConfig struct {
	Fields                 []WeightConfig `yaml:"fields"`
	TopK                   int            `yaml:"top_k"`
	PerFieldLimit          int            `yaml:"per_field_limit"` // 0 = top_k
	TruncateAfterAggregate bool           `yaml:"truncate_after_aggregate"`
}

// DenseConfig holds the vector space artifacts and their default weights.
// Empty Spaces loads every known mode found in ArtifactDir at weight 1.
type DenseConfig struct {
	ArtifactDir string         `yaml:"artifact_dir"`
	Spaces      []WeightConfig `yaml:"spaces"`
}

// EmbeddingConfig holds the query encoder settings. An empty Model disables encoding:
// dense queries then need a raw vector.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	BatchSize        int    `yaml:"batch_size"`
	LRUSize          int    `yaml:"lru_size"`
}

// CacheConfig holds the shared query-vector cache settings. An empty Driver disables it.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLSec           int      `yaml:"ttl_sec"`
}

// Enabled reports whether a query encoder is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Model != "" }

// Enabled reports whether the shared cache is configured.
func (c CacheConfig) Enabled() bool { return c.Driver != "" }

// DefaultFields are the sparse field weights used when none are configured.
func DefaultFields() []WeightConfig {
	return []WeightConfig{
		{Name: "product_title", Weight: 1.0},
		{Name: "product_brand", Weight: 0.6},
		{Name: "product_color", Weight: 0.4},
		{Name: "product_bullet_point", Weight: 0.2},
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Sparse.Fields == nil {
		c.Sparse.Fields = DefaultFields()
	}
	if c.Sparse.TopK <= 0 {
		c.Sparse.TopK = 10
	}
	if c.Dense.ArtifactDir == "" {
		c.Dense.ArtifactDir = "artifacts"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 256
	}
	if c.Embedding.LRUSize == 0 {
		c.Embedding.LRUSize = 4096
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Catalog.Limit < 0 {
		return fmt.Errorf("catalog.limit must not be negative, got %d", c.Catalog.Limit)
	}
	if err := validateWeights("sparse.fields", c.Sparse.Fields); err != nil {
		return err
	}
	if c.Sparse.PerFieldLimit < 0 {
		return fmt.Errorf("sparse.per_field_limit must not be negative, got %d", c.Sparse.PerFieldLimit)
	}
	if err := validateWeights("dense.spaces", c.Dense.Spaces); err != nil {
		return err
	}
	if c.Embedding.Enabled() && c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.LRUSize < 0 {
		return fmt.Errorf("embedding.lru_size must not be negative, got %d", c.Embedding.LRUSize)
	}
	switch c.Cache.Driver {
	case "":
	case "valkey", "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"valkey\" or \"redis\", got %q", c.Cache.Driver)
	}
	return nil
}

func validateWeights(section string, ws []WeightConfig) error {
	seen := make(map[string]struct{}, len(ws))
	for i, w := range ws {
		if w.Name == "" {
			return fmt.Errorf("%s[%d].name is required", section, i)
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("%s: %q listed twice", section, w.Name)
		}
		seen[w.Name] = struct{}{}
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) || w.Weight < 0 {
			return fmt.Errorf("%s.%s weight must be finite and >= 0, got %v", section, w.Name, w.Weight)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
