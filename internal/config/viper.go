// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"openmuni/fiscalcast/internal/validation"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Data struct {
		FundsFile        string `mapstructure:"funds_file" yaml:"funds_file"`
		TransactionsFile string `mapstructure:"transactions_file" yaml:"transactions_file"`
		InstrumentsFile  string `mapstructure:"instruments_file" yaml:"instruments_file"`
	} `mapstructure:"data" yaml:"data"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Forecast struct {
		DefaultGranularity    string `mapstructure:"default_granularity" yaml:"default_granularity"`
		DefaultHorizonPeriods int    `mapstructure:"default_horizon_periods" yaml:"default_horizon_periods"`
	} `mapstructure:"forecast" yaml:"forecast"`

	Report struct {
		Format    string `mapstructure:"format" yaml:"format"`
		OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	} `mapstructure:"report" yaml:"report"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.fiscalcast")
	v.AddConfigPath(".fiscalcast")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("FISCALCAST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
		// Config file not found or invalid is OK, we'll use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Data defaults
	v.SetDefault("data.funds_file", "")
	v.SetDefault("data.transactions_file", "")
	v.SetDefault("data.instruments_file", "")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")

	// Forecast defaults
	v.SetDefault("forecast.default_granularity", "ANNUAL")
	v.SetDefault("forecast.default_horizon_periods", 5)

	// Report defaults
	v.SetDefault("report.format", "json")
	v.SetDefault("report.output_dir", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate CSV delimiter
	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	// Validate forecast defaults
	switch config.Forecast.DefaultGranularity {
	case "MONTHLY", "QUARTERLY", "ANNUAL":
	default:
		return fmt.Errorf("invalid default granularity: %s", config.Forecast.DefaultGranularity)
	}
	if config.Forecast.DefaultHorizonPeriods < 1 {
		return fmt.Errorf("forecast.default_horizon_periods must be at least 1, got: %d", config.Forecast.DefaultHorizonPeriods)
	}

	// Validate report format
	if err := validation.IsValidOutputFormat(config.Report.Format); err != nil {
		return fmt.Errorf("invalid report format: %w", err)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
