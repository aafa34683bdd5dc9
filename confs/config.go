package confs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config is the full runtime configuration read from the environment.
type Config struct {
	Port            string        `envconfig:"PORT" default:"5000"`
	GinMode         string        `envconfig:"GIN_MODE" default:"debug"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Storage selects the repository backend: "postgres" or "memory".
	Storage string `envconfig:"STORAGE" default:"postgres"`

	// Database, either DB_URL or the individual parameters.
	DBURL      string `envconfig:"DB_URL"`
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     string `envconfig:"DB_PORT"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL     time.Duration `envconfig:"JWT_TTL" default:"168h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	AuthRateLimit float64 `envconfig:"AUTH_RATE_LIMIT" default:"5"`
	AuthRateBurst int     `envconfig:"AUTH_RATE_BURST" default:"10"`
}

// LoadConfig loads environment variables from a .env file if present
// and decodes them into a Config.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("could not load .env: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Validate checks settings that envconfig tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range [4,31]", c.BcryptCost)
	}
	switch c.Storage {
	case StorageMemory:
		return nil
	case StoragePostgres, "":
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.DBURL == "" && (c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "") {
		return errors.New("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

// AllowAllOrigins reports whether CORS should accept any origin.
func (c *Config) AllowAllOrigins() bool {
	if len(c.CORSAllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.CORSAllowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
