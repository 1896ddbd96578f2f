// Package config loads the configuration of a Blocks installation.
//
// Config file locations (priority order):
//  1. the path given to Load
//  2. $BLOCKS_CONFIG
//  3. ./blocks.yaml
//
// Without a config file the defaults are used: an uninstalled sqlite
// database in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/blockscms/blocks/dialect"
	"github.com/blockscms/blocks/dialect/sql"
)

// EnvPath is the environment variable holding the config file path.
const EnvPath = "BLOCKS_CONFIG"

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "blocks.yaml"

// Defaults.
const (
	DefaultDialect            = dialect.SQLite
	DefaultDSN                = "file:blocks.db?_pragma=foreign_keys(1)"
	DefaultSlowQueryThreshold = 100 * time.Millisecond
)

// Config is the configuration of an installation.
type Config struct {
	// Dialect is one of mysql, postgres or sqlite.
	Dialect string `yaml:"dialect"`
	// DSN is the data source name of the database.
	DSN string `yaml:"dsn"`
	// TablePrefix prefixes the generated index and foreign key names.
	TablePrefix string `yaml:"table_prefix,omitempty"`
	// Installed reports whether the tables exist. When false, entities are
	// constructed without touching the database.
	Installed bool `yaml:"installed"`
	// SlowQueryThreshold is the duration above which queries are logged.
	SlowQueryThreshold Duration `yaml:"slow_query_threshold,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used without a config file.
func Default() *Config {
	return &Config{
		Dialect:            DefaultDialect,
		DSN:                DefaultDSN,
		SlowQueryThreshold: Duration(DefaultSlowQueryThreshold),
	}
}

// FindPath returns the config file to load, or "" if there is none.
func FindPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// Load loads and validates the config file at path. An empty path is
// looked up with FindPath, and the defaults are returned if none is found.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindPath()
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = DefaultDialect
	}
	if c.DSN == "" && c.Dialect == dialect.SQLite {
		c.DSN = DefaultDSN
	}
	if c.SlowQueryThreshold == 0 {
		c.SlowQueryThreshold = Duration(DefaultSlowQueryThreshold)
	}
}

var prefixPattern = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)

// Validate checks the dialect, the DSN and the table prefix.
func (c *Config) Validate() error {
	var errs []error
	if err := dialect.Check(c.Dialect); err != nil {
		errs = append(errs, err)
	}
	switch {
	case c.DSN == "":
		errs = append(errs, errors.New("dsn is required"))
	case c.Dialect == dialect.MySQL:
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			errs = append(errs, fmt.Errorf("dsn: %w", err))
		}
	case c.Dialect == dialect.Postgres && isURL(c.DSN):
		if _, err := pq.ParseURL(c.DSN); err != nil {
			errs = append(errs, fmt.Errorf("dsn: %w", err))
		}
	}
	if !prefixPattern.MatchString(c.TablePrefix) {
		errs = append(errs, fmt.Errorf("table_prefix %q: only letters, digits and underscores are allowed", c.TablePrefix))
	}
	if c.SlowQueryThreshold < 0 {
		errs = append(errs, errors.New("slow_query_threshold must not be negative"))
	}
	return errors.Join(errs...)
}

func isURL(dsn string) bool {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if len(dsn) >= len(scheme) && dsn[:len(scheme)] == scheme {
			return true
		}
	}
	return false
}

// Open opens the configured database. Queries slower than the slow query
// threshold are logged by the returned driver.
func (c *Config) Open(opts ...sql.StatsOption) (*sql.StatsDriver, error) {
	drv, err := sql.Open(c.Dialect, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Dialect, err)
	}
	opts = append([]sql.StatsOption{sql.WithSlowThreshold(c.SlowQueryThreshold.Duration())}, opts...)
	return sql.NewStatsDriver(drv, opts...), nil
}
