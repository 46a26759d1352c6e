// Package loader reads schema descriptions from files and registers the
// resulting schemas by protocol version.
//
// Formats are resolved through a registry of constructors keyed by format tag
// ("yaml", "toml", "xml"); a file's format is taken from its extension.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/schema"
)

// Loader turns one schema document into a Schema.
type Loader interface {
	Format() string
	Load(data []byte) (*schema.Schema, error)
}

// Constructor creates a Loader.
type Constructor func() Loader

var formats = map[string]Constructor{
	"yaml": func() Loader { return yamlLoader{} },
	"toml": func() Loader { return tomlLoader{} },
	"xml":  func() Loader { return xmlLoader{} },
}

var extensions = map[string]string{
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".xml":  "xml",
}

// ForFormat returns the loader for a format tag.
func ForFormat(format string) (Loader, error) {
	c, ok := formats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported schema format '%s' (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return c(), nil
}

// Formats lists the supported format tags.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FormatOf derives the format tag from a file name.
func FormatOf(path string) (string, error) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("cannot determine schema format of %s", path)
	}
	return f, nil
}

// LoadFile reads a schema file. An empty format selects it by extension.
func LoadFile(path, format string) (*schema.Schema, error) {
	if format == "" {
		var err error
		if format, err = FormatOf(path); err != nil {
			return nil, err
		}
	}
	l, err := ForFormat(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema file %s: %w", path, err)
	}
	return s, nil
}

// LoadDirectory loads every schema file of a supported format in dir into
// reg and returns the number of schemas registered. Two files describing the
// same version are rejected.
func LoadDirectory(dir string, reg *schema.Registry, logger logging.Logger) (int, error) {
	return LoadDirectoryFormat(dir, "", reg, logger)
}

// LoadDirectoryFormat is LoadDirectory restricted to files of one format.
// An empty format accepts all supported formats.
func LoadDirectoryFormat(dir, only string, reg *schema.Registry, logger logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if only != "" {
		if _, err := ForFormat(only); err != nil {
			return 0, err
		}
		only = strings.ToLower(only)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema directory: %w", err)
	}

	seen := make(map[string]string)
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		format, err := FormatOf(path)
		if err != nil {
			logger.Debug("Skipping non-schema file", logging.F(logging.FieldFile, path))
			continue
		}
		if only != "" && format != only {
			logger.Debug("Skipping schema file of other format",
				logging.F(logging.FieldFile, path),
				logging.F(logging.FieldFormat, format))
			continue
		}
		s, err := LoadFile(path, format)
		if err != nil {
			return count, err
		}
		if prev, dup := seen[s.Version()]; dup {
			return count, fmt.Errorf("schema version %s defined in both %s and %s", s.Version(), prev, path)
		}
		seen[s.Version()] = path
		reg.Register(s)
		count++
		logger.Info("Loaded schema",
			logging.F(logging.FieldFile, path),
			logging.F(logging.FieldFormat, format),
			logging.F(logging.FieldSchemaVersion, s.Version()),
			logging.F(logging.FieldCount, s.Len()))
	}
	return count, nil
}
