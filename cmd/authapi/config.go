package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/authapi/internal/logger"
)

const (
	defaultListenAddr       = ":8080"
	defaultLoggingLevel     = logger.LevelInfo
	defaultEnvironment      = logger.EnvDevelopment
	defaultAlgorithm        = "HS256"
	defaultAccessTTLMinutes = 15
	defaultRefreshTTLDays   = 7
	defaultDBPort           = 5432
)

// Parts of DSN, used only when DATABASE_URI is not set
type DBConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"`
	Name     string `env:"NAME"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

type Config struct {
	// Default logging level
	LogLevel string `env:"LOG_LEVEL"`

	// Address on which the service will be run
	ListenAddr string `env:"RUN_ADDRESS"`

	// Database to connect to
	DatabaseDSN string   `env:"DATABASE_URI"`
	DB          DBConfig `envPrefix:"DB_"`

	// Secret key to sign JWT tokens with
	SecretKey string `env:"SECRET_KEY"`

	// JWT signing algorithm: HS256, HS384 or HS512
	Algorithm string `env:"ALGORITHM"`

	AccessTTLMinutes int `env:"ACCESS_TOKEN_EXPIRES_MINUTES"`
	RefreshTTLDays   int `env:"REFRESH_TOKEN_EXPIRES_DAYS"`

	// Origins allowed to make cross-origin requests, CORS is off if empty
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Environment: development or production
	Environment string `env:"ENVIRONMENT"`
}

func NewConfig() *Config {
	return &Config{
		LogLevel:         defaultLoggingLevel,
		ListenAddr:       defaultListenAddr,
		Algorithm:        defaultAlgorithm,
		AccessTTLMinutes: defaultAccessTTLMinutes,
		RefreshTTLDays:   defaultRefreshTTLDays,
		Environment:      defaultEnvironment,
		DB:               DBConfig{Port: defaultDBPort},
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(envMap)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

// Override options with variables present in environ. Missing ones are left as is
func (c *Config) LoadEnv(environ map[string]string) error {
	if err := env.ParseWithOptions(c, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("can't parse environment. Err: %w", err)
	}
	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("authapi", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database-dsn", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key to sign tokens")
	fs.StringVar(&c.Algorithm, "algorithm", c.Algorithm, "JWT signing algorithm (HS256, HS384, HS512)")
	fs.IntVar(&c.AccessTTLMinutes, "access-ttl-minutes", c.AccessTTLMinutes, "Access token lifetime in minutes")
	fs.IntVar(&c.RefreshTTLDays, "refresh-ttl-days", c.RefreshTTLDays, "Refresh token lifetime in days")
	fs.StringSliceVar(&c.AllowedOrigins, "allowed-origins", c.AllowedOrigins, "Comma separated origins allowed for CORS")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")

	return fs.Parse(args)
}

// Validate checks options and fills the derived ones
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.AccessTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("access token ttl must be positive, got %d", c.AccessTTLMinutes))
	}
	if c.RefreshTTLDays <= 0 {
		errs = append(errs, fmt.Errorf("refresh token ttl must be positive, got %d", c.RefreshTTLDays))
	}
	if c.Environment != logger.EnvDevelopment && c.Environment != logger.EnvProduction {
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}

	if c.DatabaseDSN == "" {
		c.DatabaseDSN = c.DB.DSN(c.Environment == logger.EnvProduction)
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn or DB_HOST is required"))
	}

	origins := c.AllowedOrigins[:0]
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.AllowedOrigins = origins

	return errors.Join(errs...)
}

// DSN builds postgres connection string from parts or returns empty string if host not set
func (db DBConfig) DSN(requireSSL bool) string {
	if db.Host == "" {
		return ""
	}

	sslmode := "disable"
	if requireSSL {
		sslmode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.Username, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     "/" + db.Name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}
