package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// TemplateOverride pins a recurrence rule onto a shift template at generation
// time, overriding whatever the template record carries
type TemplateOverride struct {
	TemplateID string `yaml:"templateId" validate:"required"`
	RRule      string `yaml:"rrule" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL       string             `yaml:"databaseUrl" validate:"required"`
	HTTPPort          int                `yaml:"httpPort,omitempty" validate:"omitempty,min=1,max=65535"`
	JWTSecret         string             `yaml:"jwtSecret,omitempty"`
	TokenTTLMinutes   int                `yaml:"tokenTtlMinutes,omitempty" validate:"omitempty,min=1"`
	DefaultLocation   string             `yaml:"defaultLocation,omitempty"`
	GmailSender       string             `yaml:"gmailSender,omitempty"`
	TemplateOverrides []TemplateOverride `yaml:"templateOverrides,omitempty" validate:"dive"`
}

// Defaults applied when the config file omits optional fields
const (
	DefaultHTTPPort        = 8080
	DefaultTokenTTLMinutes = 60
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from shiftwise.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.TokenTTLMinutes == 0 {
		cfg.TokenTTLMinutes = DefaultTokenTTLMinutes
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.TemplateOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in templateOverrides[%d]: %w", i, err)
		}
	}

	return nil
}

// findConfigFile searches for shiftwise.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "shiftwise.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
