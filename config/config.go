package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// envPrefix is prepended to every environment override, e.g. TOUGHLEDGER_WEB_PORT.
const envPrefix = "TOUGHLEDGER_"

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Env      string `yaml:"env"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	BasePath    string   `yaml:"base_path"`
	CorsOrigins []string `yaml:"cors_origins"`
	CorsMaxAge  int      `yaml:"cors_max_age"` // seconds
	BodyLimit   string   `yaml:"body_limit"`   // e.g. 1M, empty disables
}

type DBConfig struct {
	Type     string `yaml:"type"` // postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	SSLMode  string `yaml:"sslmode"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
	Seed     bool   `yaml:"seed"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"` // production | development
	Level      string `yaml:"level"`
	Disabled   bool   `yaml:"disabled"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// ArgonConfig holds the argon2id cost parameters. MemoryCost is in KiB.
type ArgonConfig struct {
	SaltLength  uint32 `yaml:"salt_length"`
	HashLength  uint32 `yaml:"hash_length"`
	TimeCost    uint32 `yaml:"time_cost"`
	MemoryCost  uint32 `yaml:"memory_cost"`
	Parallelism uint8  `yaml:"parallelism"`
}

type AuthConfig struct {
	JwtSecret     string        `yaml:"jwt_secret"`
	JwtIssuer     string        `yaml:"jwt_issuer"`
	JwtAudience   string        `yaml:"jwt_audience"`
	JwtExpiration time.Duration `yaml:"jwt_expiration"`
	Argon         ArgonConfig   `yaml:"argon"`
	AdminName     string        `yaml:"admin_name"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

type PaginationConfig struct {
	Limit  int `yaml:"limit"`
	Offset int `yaml:"offset"`
}

type AppConfig struct {
	System     SysConfig        `yaml:"system"`
	Web        WebConfig        `yaml:"web"`
	Database   DBConfig         `yaml:"database"`
	Logger     LogConfig        `yaml:"logger"`
	Auth       AuthConfig       `yaml:"auth"`
	Pagination PaginationConfig `yaml:"pagination"`
}

// IsProduction reports whether internal error details must be hidden.
func (c *AppConfig) IsProduction() bool {
	return c.System.Env == EnvProduction
}

// GetLogDir returns the directory used for rotated log files.
func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

// Addr is the listen address of the web server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

const redacted = "******"

// Redacted returns a copy with secrets masked, safe to print or log.
func (c *AppConfig) Redacted() AppConfig {
	cp := *c
	cp.Web.CorsOrigins = append([]string(nil), c.Web.CorsOrigins...)
	mask := func(v *string) {
		if *v != "" {
			*v = redacted
		}
	}
	mask(&cp.Auth.JwtSecret)
	mask(&cp.Auth.AdminPassword)
	mask(&cp.Database.Passwd)
	return cp
}

// Dump renders the redacted configuration as YAML.
func (c *AppConfig) Dump() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

// DefaultConfig returns the settings for the given environment before any
// file or environment override is applied.
func DefaultConfig(env string) *AppConfig {
	if env == "" {
		env = EnvDevelopment
	}
	cfg := &AppConfig{
		System: SysConfig{
			Appid:    "ToughLedger",
			Env:      env,
			Location: "Europe/Brussels",
			Workdir:  "/var/toughledger",
		},
		Web: WebConfig{
			Host:        "0.0.0.0",
			Port:        9000,
			BasePath:    "/api",
			CorsOrigins: []string{"http://localhost:3000"},
			CorsMaxAge:  3 * 60 * 60,
			BodyLimit:   "1M",
		},
		Database: DBConfig{
			Type:     "postgres",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "toughledger",
			User:     "postgres",
			Passwd:   "postgres",
			SSLMode:  "disable",
			MaxConn:  100,
			IdleConn: 10,
		},
		Logger: LogConfig{
			Mode:     "development",
			Level:    "debug",
			Filename: "/var/toughledger/logs/toughledger.log",
		},
		Auth: AuthConfig{
			JwtSecret:     "eensuperveiligsecretvoorindevelopment",
			JwtIssuer:     "toughledger",
			JwtAudience:   "toughledger.api",
			JwtExpiration: 7 * 24 * time.Hour,
			Argon: ArgonConfig{
				SaltLength:  16,
				HashLength:  32,
				TimeCost:    6,
				MemoryCost:  1 << 17,
				Parallelism: 1,
			},
		},
		Pagination: PaginationConfig{
			Limit:  100,
			Offset: 0,
		},
	}

	switch env {
	case EnvProduction:
		cfg.Logger.Mode = "production"
		cfg.Logger.Level = "info"
		cfg.Auth.JwtSecret = ""
		cfg.Auth.JwtExpiration = time.Hour
	case EnvTest:
		cfg.Logger.Disabled = true
		cfg.Database.Type = "sqlite"
		cfg.Database.Name = "file::memory:?cache=shared&_foreign_keys=on"
		cfg.Auth.Argon.TimeCost = 1
		cfg.Auth.Argon.MemoryCost = 1 << 10
	}
	return cfg
}

// Load builds the configuration in three layers: environment defaults, the
// YAML file at path (skipped when it does not exist) and TOUGHLEDGER_*
// environment variables.
func Load(path string) (*AppConfig, error) {
	env := strings.TrimSpace(os.Getenv(envPrefix + "ENV"))
	cfg := DefaultConfig(env)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *AppConfig) Validate() error {
	switch c.System.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("unknown environment %q", c.System.Env)
	}
	if c.Auth.JwtSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.JwtExpiration <= 0 {
		return errors.New("auth.jwt_expiration must be positive")
	}
	if c.Auth.Argon.SaltLength == 0 || c.Auth.Argon.HashLength == 0 ||
		c.Auth.Argon.TimeCost == 0 || c.Auth.Argon.MemoryCost == 0 || c.Auth.Argon.Parallelism == 0 {
		return errors.New("auth.argon parameters must all be positive")
	}
	if c.Pagination.Limit <= 0 || c.Pagination.Offset < 0 {
		return errors.New("pagination.limit must be positive and pagination.offset not negative")
	}
	return nil
}

func applyEnv(cfg *AppConfig) (err error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && err == nil {
			*dst, err = cast.ToIntE(v)
			if err != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && err == nil {
			*dst, err = cast.ToBoolE(v)
			if err != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
		}
	}

	str("ENV", &cfg.System.Env)
	str("LOCATION", &cfg.System.Location)
	str("WORKDIR", &cfg.System.Workdir)
	flag("DEBUG", &cfg.System.Debug)

	str("WEB_HOST", &cfg.Web.Host)
	num("WEB_PORT", &cfg.Web.Port)
	str("WEB_BASE_PATH", &cfg.Web.BasePath)
	if v, ok := lookup("WEB_CORS_ORIGINS"); ok {
		cfg.Web.CorsOrigins = splitList(v)
	}
	num("WEB_CORS_MAX_AGE", &cfg.Web.CorsMaxAge)
	str("WEB_BODY_LIMIT", &cfg.Web.BodyLimit)

	str("DB_TYPE", &cfg.Database.Type)
	str("DB_HOST", &cfg.Database.Host)
	num("DB_PORT", &cfg.Database.Port)
	str("DB_NAME", &cfg.Database.Name)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWD", &cfg.Database.Passwd)
	str("DB_SSLMODE", &cfg.Database.SSLMode)
	num("DB_MAX_CONN", &cfg.Database.MaxConn)
	num("DB_IDLE_CONN", &cfg.Database.IdleConn)
	flag("DB_DEBUG", &cfg.Database.Debug)
	flag("DB_SEED", &cfg.Database.Seed)

	str("LOGGER_MODE", &cfg.Logger.Mode)
	str("LOGGER_LEVEL", &cfg.Logger.Level)
	flag("LOGGER_DISABLED", &cfg.Logger.Disabled)
	flag("LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	str("LOGGER_FILENAME", &cfg.Logger.Filename)

	str("JWT_SECRET", &cfg.Auth.JwtSecret)
	str("JWT_ISSUER", &cfg.Auth.JwtIssuer)
	str("JWT_AUDIENCE", &cfg.Auth.JwtAudience)
	if v, ok := lookup("JWT_EXPIRATION"); ok && err == nil {
		cfg.Auth.JwtExpiration, err = cast.ToDurationE(v)
		if err != nil {
			err = fmt.Errorf("%sJWT_EXPIRATION: %w", envPrefix, err)
		}
	}
	str("ADMIN_NAME", &cfg.Auth.AdminName)
	str("ADMIN_EMAIL", &cfg.Auth.AdminEmail)
	str("ADMIN_PASSWORD", &cfg.Auth.AdminPassword)

	num("PAGINATION_LIMIT", &cfg.Pagination.Limit)
	num("PAGINATION_OFFSET", &cfg.Pagination.Offset)
	return err
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
