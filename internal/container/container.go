// Package container provides dependency injection for the hbci-codec
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"fmt"

	"fjacquet/hbci-codec/internal/config"
	"fjacquet/hbci-codec/internal/export"
	"fjacquet/hbci-codec/internal/fileutils"
	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/hbci"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/schema/loader"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	registry *schema.Registry
	codec    *hbci.Codec
	exporter export.Codec
}

// NewContainer creates and wires all application dependencies, logging
// through a logrus logger configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg)))
}

// NewContainerWithLogger is NewContainer with an injected logger.
//
// The schema directory is loaded eagerly so that a broken schema file is
// reported before any message is touched. The configured default version
// must be among the loaded schemas.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	dir := cfg.Schema.Directory
	if !fileutils.DirectoryExists(dir) {
		return nil, fmt.Errorf("schema directory does not exist: %s", dir)
	}
	registry := schema.NewRegistry()
	count, err := loader.LoadDirectoryFormat(dir, cfg.Schema.Format, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("no schema files found in %s", dir)
	}
	if _, err := registry.Get(cfg.Schema.Version); err != nil {
		return nil, fmt.Errorf("default schema version: %w", err)
	}

	exporter, err := newExporter(cfg, cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldCount, count),
		logging.F(logging.FieldSchemaVersion, cfg.Schema.Version))

	return &Container{
		logger:   logger,
		config:   cfg,
		registry: registry,
		codec:    hbci.New(registry, logger),
		exporter: exporter,
	}, nil
}

func newExporter(cfg *config.Config, format string) (export.Codec, error) {
	var delim rune
	if d := []rune(cfg.Output.Delimiter); len(d) > 0 {
		delim = d[0]
	}
	return export.New(format, export.Options{Delimiter: delim})
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetRegistry returns the loaded schemas.
func (c *Container) GetRegistry() *schema.Registry {
	return c.registry
}

// GetCodec returns the message codec.
func (c *Container) GetCodec() *hbci.Codec {
	return c.codec
}

// GetExporter returns the path/value codec of the configured output format.
func (c *Container) GetExporter() export.Codec {
	return c.exporter
}

// Exporter returns the path/value codec for format with the configured
// delimiter. An empty format selects the configured output format.
func (c *Container) Exporter(format string) (export.Codec, error) {
	if format == "" {
		return c.exporter, nil
	}
	return newExporter(c.config, format)
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
