// Package export writes and reads flat path/value maps, the form in which the
// CLI exchanges message contents with users.
//
// Formats are resolved by tag ("yaml", "csv") through a small registry, the
// same way schema loaders are. Rows are always written in natural path order.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"fjacquet/hbci-codec/pkg/syntax"
)

// Row is one path/value pair.
type Row struct {
	Path  string `csv:"path" yaml:"path"`
	Value string `csv:"value" yaml:"value"`
}

// Codec writes and reads path/value maps in one format.
type Codec interface {
	Format() string
	Write(w io.Writer, values map[string]string) error
	Read(r io.Reader) (map[string]string, error)
}

// Options tune the formats that support them.
type Options struct {
	// Delimiter separates CSV columns.
	Delimiter rune
}

var formats = map[string]func(Options) Codec{
	"yaml": func(Options) Codec { return yamlCodec{} },
	"csv":  func(o Options) Codec { return csvCodec{delimiter: o.Delimiter} },
}

// New returns the codec for format.
func New(format string, opts Options) (Codec, error) {
	c, ok := formats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported export format '%s' (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return c(opts), nil
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

// Rows lists values in natural path order.
func Rows(values map[string]string) []Row {
	paths := syntax.SortedPaths(values)
	rows := make([]Row, 0, len(paths))
	for _, p := range paths {
		rows = append(rows, Row{Path: p, Value: values[p]})
	}
	return rows
}

func fromRows(rows []Row) (map[string]string, error) {
	values := make(map[string]string, len(rows))
	for i, r := range rows {
		if r.Path == "" {
			return nil, fmt.Errorf("row %d: empty path", i+1)
		}
		if _, dup := values[r.Path]; dup {
			return nil, fmt.Errorf("row %d: duplicate path '%s'", i+1, r.Path)
		}
		values[r.Path] = r.Value
	}
	return values, nil
}
