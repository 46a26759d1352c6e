// Package hbci is the application-facing entry point of the codec. A Codec
// owns a registry of schemas keyed by protocol version and turns path/value
// maps into wire messages and back.
package hbci

import (
	"fmt"
	"strings"

	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/syntax"
)

// Codec generates and parses messages of the registered schema versions.
// It is safe for concurrent use; every call works on its own message tree.
type Codec struct {
	registry *schema.Registry
	logger   logging.Logger
}

// New creates a Codec over reg. A nil logger discards output.
func New(reg *schema.Registry, logger logging.Logger) *Codec {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Codec{
		registry: reg,
		logger:   logger.WithField(logging.FieldComponent, "codec"),
	}
}

// Registry returns the schema registry the codec reads from.
func (c *Codec) Registry() *schema.Registry {
	return c.registry
}

// Schema returns the schema registered for version.
func (c *Codec) Schema(version string) (*schema.Schema, error) {
	return c.registry.Get(version)
}

// Build creates a message tree and propagates values into it without
// serializing it. Callers that splice segments into the message use it
// together with Message.Complete or Message.Insert and Message.Finish.
func (c *Codec) Build(version, message string, values map[string]string) (*syntax.Message, error) {
	s, err := c.registry.Get(version)
	if err != nil {
		return nil, err
	}
	m, err := syntax.NewMessage(s, message, syntax.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	if err := m.SetAll(Qualify(message, values)); err != nil {
		return nil, fmt.Errorf("failed to set values of %s: %w", message, err)
	}
	return m, nil
}

// Generate builds the message and returns its wire form. Value paths may be
// given with or without the leading message name.
func (c *Codec) Generate(version, message string, values map[string]string) (string, error) {
	m, err := c.Build(version, message, values)
	if err != nil {
		return "", err
	}
	out, err := m.Complete()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", message, err)
	}
	c.logger.Debug("Generated message",
		logging.F(logging.FieldMessage, message),
		logging.F(logging.FieldSchemaVersion, version),
		logging.F(logging.FieldCount, len(m.Segments())))
	return out, nil
}

// Parse reads input as a message of type message and returns the tree
// together with its leaf values.
func (c *Codec) Parse(version, message, input string, checkSequence bool) (*syntax.Message, map[string]string, error) {
	s, err := c.registry.Get(version)
	if err != nil {
		return nil, nil, err
	}
	m, err := syntax.Parse(s, message, input, checkSequence, syntax.WithLogger(c.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", message, err)
	}
	return m, m.Values(), nil
}

// Value returns the value of the leaf at path in m. The path may omit the
// message name.
func (c *Codec) Value(m *syntax.Message, path string) (string, error) {
	full := qualify(m.Name(), path)
	v, ok := m.Value(full)
	if !ok {
		return "", codecerror.NoSuchPath(full)
	}
	return v, nil
}

// Qualify prefixes every path that does not already start with the message
// name.
func Qualify(message string, values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for p, v := range values {
		out[qualify(message, p)] = v
	}
	return out
}

func qualify(message, path string) string {
	if syntax.Within(path, message) {
		return path
	}
	return message + syntax.PathSeparator + strings.TrimPrefix(path, syntax.PathSeparator)
}
