package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for ClaimSight
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Audit   AuditConfig   `yaml:"audit"`
	CORS    CORSConfig    `yaml:"cors"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
}

// StorageConfig holds the on-disk table locations
type StorageConfig struct {
	DataDir    string `yaml:"data_dir"`
	ClaimsFile string `yaml:"claims_file"`
	AccessFile string `yaml:"access_file"`
}

// ClaimsPath returns the full path of the claims table.
func (s StorageConfig) ClaimsPath() string {
	return filepath.Join(s.DataDir, s.ClaimsFile)
}

// AccessPath returns the full path of the access-rules table.
func (s StorageConfig) AccessPath() string {
	return filepath.Join(s.DataDir, s.AccessFile)
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := LoadFromEnv()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 5001),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Storage: StorageConfig{
			DataDir:    getEnv("DATA_DIR", "data"),
			ClaimsFile: getEnv("CLAIMS_FILE", "claims.csv"),
			AccessFile: getEnv("ACCESS_FILE", "access.csv"),
		},
		Audit: AuditConfig{
			Enabled:       getEnvBool("AUDIT_ENABLED", true),
			RetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", 365),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGINS", "*")},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
