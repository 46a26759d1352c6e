// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"fjacquet/hbci-codec/pkg/schema/loader"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Output formats of the parse command.
const (
	OutputYAML = "yaml"
	OutputCSV  = "csv"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Schema struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
		Version   string `mapstructure:"version" yaml:"version"`
		// Format restricts loading to one schema format; empty loads all.
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"schema" yaml:"schema"`

	Codec struct {
		CheckSequence bool `mapstructure:"check_sequence" yaml:"check_sequence"`
	} `mapstructure:"codec" yaml:"codec"`

	Output struct {
		Format    string `mapstructure:"format" yaml:"format"`
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"output" yaml:"output"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.hbci-codec")
	v.AddConfigPath(".hbci-codec")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("HBCI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
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
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("schema.directory", "schemas")
	v.SetDefault("schema.version", "300")
	v.SetDefault("schema.format", "")

	v.SetDefault("codec.check_sequence", true)

	v.SetDefault("output.format", OutputYAML)
	v.SetDefault("output.delimiter", ",")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Schema.Directory == "" {
		return fmt.Errorf("schema.directory must not be empty")
	}

	if config.Schema.Format != "" {
		if _, err := loader.ForFormat(config.Schema.Format); err != nil {
			return fmt.Errorf("invalid schema format: %w", err)
		}
	}

	switch config.Output.Format {
	case OutputYAML, OutputCSV:
	default:
		return fmt.Errorf("invalid output format: %s (must be '%s' or '%s')", config.Output.Format, OutputYAML, OutputCSV)
	}

	if len(config.Output.Delimiter) != 1 {
		return fmt.Errorf("output delimiter must be a single character, got: %s", config.Output.Delimiter)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
