package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file, or ":memory:"
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		BaseURL     string        `yaml:"baseURL"`
		APIKey      string        `yaml:"apiKey"`
		Model       string        `yaml:"model"`
		VisionModel string        `yaml:"visionModel"`
		Temperature *float32      `yaml:"temperature"` // unset uses the client default
		TopP        float32       `yaml:"topP"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Limits struct {
		MaxReportChars int `yaml:"maxReportChars"`
		RateCapacity   int `yaml:"rateCapacity"`
		RateRefill     int `yaml:"rateRefill"` // tokens per second

		// live sessions; evicted ones are rebuilt from history without QA
		SessionTTL  time.Duration `yaml:"sessionTTL"`
		MaxSessions int           `yaml:"maxSessions"`
	} `yaml:"limits"`

	Auth struct {
		// APIKeys maps tenant to API key. Empty disables auth.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`
}

// Load reads .env (if present), then the YAML file at path, then applies
// environment overrides and defaults. A missing file is not an error when
// path is empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns CONFIG_PATH, defaulting to config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) applyEnv() {
	if v := firstEnv("GROQ_API_KEY", "OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("AI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate applies defaults and checks required fields.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "":
		c.Database.Driver = DriverSQLite
		fallthrough
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = "data/medreport.db"
		}
	case DriverMySQL, DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database: host and name are required for %s", c.Database.Driver))
		}
		if c.Database.Port == 0 {
			if c.Database.Driver == DriverMySQL {
				c.Database.Port = 3306
			} else {
				c.Database.Port = 5432
			}
		}
	default:
		errs = append(errs, fmt.Errorf("database: unknown driver %q", c.Database.Driver))
	}

	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		errs = append(errs, errors.New("minio: endpoint and bucketName are required when enabled"))
	}

	if t := c.AI.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("ai: temperature %v out of range [0,2]", *t))
	}
	if c.AI.TopP < 0 || c.AI.TopP > 1 {
		errs = append(errs, fmt.Errorf("ai: topP %v out of range [0,1]", c.AI.TopP))
	}

	if c.Limits.MaxReportChars == 0 {
		c.Limits.MaxReportChars = 100_000
	}
	if c.Limits.RateCapacity == 0 {
		c.Limits.RateCapacity = 30
	}
	if c.Limits.RateRefill == 0 {
		c.Limits.RateRefill = 1
	}
	if c.Limits.SessionTTL == 0 {
		c.Limits.SessionTTL = time.Hour
	}
	if c.Limits.MaxSessions == 0 {
		c.Limits.MaxSessions = 1000
	}

	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
