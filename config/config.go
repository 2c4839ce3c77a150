package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Firebase   FirebaseConfig
	Intake     IntakeConfig
	Comparison ComparisonConfig
	Engine     EngineConfig
	App        AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
}

type IntakeConfig struct {
	MaxUploadBytes  int64
	DocumentTTLDays int
}

type ComparisonConfig struct {
	// CriticalFields is a comma-separated list of dot-path patterns.
	// A '*' segment matches any single path segment.
	CriticalFields      []string
	NumericTolerance    float64
	DivergenceThreshold float64
	DefaultSource       string
	ResultTTLHours      int
}

// EngineConfig points at the external classification/extraction engine.
type EngineConfig struct {
	BaseURL string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "submissions"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Intake: IntakeConfig{
			MaxUploadBytes:  getEnvAsInt64("INTAKE_MAX_UPLOAD_BYTES", 25*1024*1024),
			DocumentTTLDays: getEnvAsInt("INTAKE_DOCUMENT_TTL_DAYS", 7),
		},
		Comparison: ComparisonConfig{
			CriticalFields: getEnvAsList("COMPARISON_CRITICAL_FIELDS",
				"applicant.business_name,policy_number,effective_date,expiration_date"),
			NumericTolerance:    getEnvAsFloat("COMPARISON_NUMERIC_TOLERANCE", 0.01),
			DivergenceThreshold: getEnvAsFloat("COMPARISON_DIVERGENCE_THRESHOLD", 0.3),
			DefaultSource:       getEnv("COMPARISON_DEFAULT_SOURCE", "b"),
			ResultTTLHours:      getEnvAsInt("COMPARISON_RESULT_TTL_HOURS", 72),
		},
		Engine: EngineConfig{
			BaseURL: getEnv("EXTRACTION_ENGINE_URL", "http://localhost:9090"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Intake.MaxUploadBytes <= 0 {
		return fmt.Errorf("INTAKE_MAX_UPLOAD_BYTES must be positive")
	}

	if c.Comparison.NumericTolerance < 0 || c.Comparison.DivergenceThreshold < 0 {
		return fmt.Errorf("comparison thresholds must be non-negative")
	}

	if src := c.Comparison.DefaultSource; src != "a" && src != "b" {
		return fmt.Errorf("COMPARISON_DEFAULT_SOURCE must be \"a\" or \"b\"")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
