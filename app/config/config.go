// Package config holds the settings shared by the server and the database
// commands. Values come from command line flags whose defaults are read from
// QUILL_* environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quill/app/repositories"

	"golang.org/x/crypto/bcrypt"
)

// Config is the runtime configuration.
type Config struct {
	Addr            string
	Driver          string
	DSN             string
	BadgerDir       string
	LogLevel        string
	LogFormat       string
	LogFile         string
	MaxBodyBytes    int64
	CORSOrigins     []string
	BcryptCost      int
	ShutdownTimeout time.Duration
}

// Getenv is the environment lookup used for flag defaults. Tests replace it.
var Getenv = os.Getenv

// GetEnvOrDefault returns the environment variable key or def when unset.
func GetEnvOrDefault(key, def string) string {
	if v := Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(Getenv(key)); err == nil {
		return v
	}
	return def
}

// Bind registers the configuration flags on fs and returns the Config they
// fill once fs is parsed.
func Bind(fs *flag.FlagSet) *Config {
	cfg := &Config{
		CORSOrigins: splitList(GetEnvOrDefault("QUILL_CORS_ORIGINS", "*")),
	}

	fs.StringVar(&cfg.Addr, "addr", GetEnvOrDefault("QUILL_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.Driver, "driver", GetEnvOrDefault("QUILL_DB_DRIVER", repositories.DriverSQLite), "store driver: sqlite, postgres or badger")
	fs.StringVar(&cfg.DSN, "dsn", GetEnvOrDefault("QUILL_DB_DSN", "data/quill.db"), "database DSN for sqlite and postgres")
	fs.StringVar(&cfg.BadgerDir, "badger-dir", GetEnvOrDefault("QUILL_BADGER_DIR", "data/badger"), "badger data directory")
	fs.StringVar(&cfg.LogLevel, "log-level", GetEnvOrDefault("QUILL_LOG_LEVEL", "info"), "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", GetEnvOrDefault("QUILL_LOG_FORMAT", "json"), "log format: json or console")
	fs.StringVar(&cfg.LogFile, "log-file", GetEnvOrDefault("QUILL_LOG_FILE", ""), "append logs to this file instead of stderr")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", int64(envInt("QUILL_MAX_BODY_BYTES", 1<<20)), "maximum request body size")
	fs.Func("cors-origins", "comma separated allowed CORS origins (default *)", func(v string) error {
		cfg.CORSOrigins = splitList(v)
		return nil
	})
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", envInt("QUILL_BCRYPT_COST", bcrypt.DefaultCost), "bcrypt cost for password hashes")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	return cfg
}

// Load parses args into a Config and validates it. Remaining positional
// arguments are returned.
func Load(name string, args []string) (*Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg := Bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Driver {
	case repositories.DriverSQLite, repositories.DriverPostgres:
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("driver %s needs a DSN", c.Driver))
		}
	case repositories.DriverBadger:
		if c.BadgerDir == "" {
			errs = append(errs, errors.New("driver badger needs a data directory"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
