package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"spycat/internal/db"
	"spycat/internal/logging"
)

// Config models spycat.yml.
type Config struct {
	Database struct {
		Driver    string `yaml:"driver"`
		DSN       string `yaml:"dsn"`
		Workspace string `yaml:"workspace"`
	} `yaml:"database"`
	Server struct {
		Addr            string        `yaml:"addr"`
		BasePath        string        `yaml:"base_path"`
		RateLimit       RateLimit     `yaml:"rate_limit"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Breeds struct {
		Source string `yaml:"source"`
		S3     struct {
			Region    string `yaml:"region"`
			Endpoint  string `yaml:"endpoint"`
			PathStyle bool   `yaml:"path_style"`
		} `yaml:"s3"`
	} `yaml:"breeds"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// RateLimit caps requests per second across the API. RPS <= 0 disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with spycat config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if _, err := db.ParseDialect(c.Database.Driver); err != nil {
		return fmt.Errorf("config.database.driver: %w", err)
	}
	if d, _ := db.ParseDialect(c.Database.Driver); d == db.Postgres && c.Database.DSN == "" {
		return fmt.Errorf("config.database.dsn is required for postgres")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if bp := c.Server.BasePath; bp != "" && (!strings.HasPrefix(bp, "/") || strings.HasSuffix(bp, "/")) {
		return fmt.Errorf("config.server.base_path must start with / and not end with /")
	}
	if c.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("config.server.rate_limit.rps must be >= 0")
	}
	if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("config.server.rate_limit.burst must be >= 1 when rps is set")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("config.server.shutdown_timeout must be > 0")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config.log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "spycat.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns Default() if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing from
// data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `database:
  driver: sqlite
  # dsn defaults to <workspace>/.spycat/spycat.db for sqlite
  dsn: ""
  workspace: "."

server:
  addr: "127.0.0.1:8000"
  base_path: ""
  rate_limit:
    rps: 0
    burst: 20
  shutdown_timeout: 10s

breeds:
  # empty uses the built-in list; also accepts a .json/.yaml path or s3://bucket/key
  source: ""
  s3:
    region: us-east-1
    endpoint: ""
    path_style: false

log:
  level: info
  format: text
`
