package config

import (
	"fmt"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Admin    AdminConfig    `yaml:"admin"`
	Policy   PolicyConfig   `yaml:"policy"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig contains artifact storage configuration
type StorageConfig struct {
	ArtifactDir string `yaml:"artifact_dir"`
}

// AdminConfig contains admin configuration
type AdminConfig struct {
	Token string `yaml:"token"`
}

// PolicyConfig contains issuance request policy
type PolicyConfig struct {
	MaxNameLength        int `yaml:"max_name_length"`
	MaxIssuesPerDayPerIP int `yaml:"max_issues_per_day_per_ip"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	// Database validation
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Storage validation
	if c.Storage.ArtifactDir == "" {
		return fmt.Errorf("storage.artifact_dir is required")
	}

	// Admin validation
	if c.Admin.Token == "" {
		return fmt.Errorf("admin.token is required")
	}

	// Policy validation
	if c.Policy.MaxNameLength < 0 {
		return fmt.Errorf("policy.max_name_length must not be negative")
	}
	if c.Policy.MaxIssuesPerDayPerIP < 0 {
		return fmt.Errorf("policy.max_issues_per_day_per_ip must not be negative")
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// applyDefaults fills in defaults for optional fields
func (c *Config) applyDefaults() {
	if c.Policy.MaxNameLength == 0 {
		c.Policy.MaxNameLength = 200
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
