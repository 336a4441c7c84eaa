package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file searched for by Load.
const FileName = "points_config.yaml"

// Server configures the HTTP listener.
type Server struct {
	Port           int      `yaml:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" validate:"dive,url"`
}

// Database selects and configures the store.
type Database struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// Logging configures the zap logger.
type Logging struct {
	Env        string `yaml:"env" validate:"required"`
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	FileOutput bool   `yaml:"fileOutput"`
	Dir        string `yaml:"dir" validate:"required_if=FileOutput true"`
}

// Config represents the application configuration
type Config struct {
	Server      Server   `yaml:"server"`
	Database    Database `yaml:"database"`
	Logging     Logging  `yaml:"logging"`
	SeedOnStart bool     `yaml:"seedOnStart"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no file is present: a local
// SQLite database, console logging and seeding on start.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database:    Database{Driver: "sqlite", DSN: "points.db"},
		Logging:     Logging{Env: "dev", Level: "info", Dir: "logs"},
		SeedOnStart: true,
	}
}

// Load loads and validates the configuration from points_config.yaml.
// It looks in the current directory first, then in the user's home
// directory. When neither has the file, Default() is returned.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return Default(), nil
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Fields missing from the file keep their Default() values.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// findConfigFile searches for points_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, FileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
