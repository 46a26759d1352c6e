package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleValues() map[string]string {
	return map[string]string{
		"Transfer.Ueb.usage_10":        "LINE 10",
		"Transfer.Ueb.usage":           "TEST",
		"Transfer.Ueb.usage_2":         "LINE 2",
		"Transfer.MsgHead.msgsize":     "000000000133",
		"Transfer.Ueb.key":             "51",
		"Transfer.Ueb.name":            "Müller, \"Hans\"",
		"Transfer.Ueb.BTG.value":       "0,01",
		"Transfer.Upload.data":         "B@3@'+:?",
		"Transfer.MsgHead.SegHead.seq": "1",
	}
}

func TestNew(t *testing.T) {
	c, err := New("YAML", Options{})
	require.NoError(t, err)
	assert.Equal(t, "yaml", c.Format())

	c, err = New("csv", Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, "csv", c.Format())

	_, err = New("xlsx", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported: csv, yaml")
}

func TestRowsNaturalOrder(t *testing.T) {
	var paths []string
	for _, r := range Rows(sampleValues()) {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{
		"Transfer.MsgHead.SegHead.seq",
		"Transfer.MsgHead.msgsize",
		"Transfer.Ueb.BTG.value",
		"Transfer.Ueb.key",
		"Transfer.Ueb.name",
		"Transfer.Ueb.usage",
		"Transfer.Ueb.usage_2",
		"Transfer.Ueb.usage_10",
		"Transfer.Upload.data",
	}, paths)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		format string
		opts   Options
	}{
		{"yaml", Options{}},
		{"csv", Options{}},
		{"csv", Options{Delimiter: ';'}},
	}
	for _, tt := range tests {
		t.Run(tt.format+string(tt.opts.Delimiter), func(t *testing.T) {
			c, err := New(tt.format, tt.opts)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, c.Write(&buf, sampleValues()))

			got, err := c.Read(&buf)
			require.NoError(t, err)
			if diff := cmp.Diff(sampleValues(), got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestYAMLOutput(t *testing.T) {
	c, err := New("yaml", Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, map[string]string{
		"M.b": "51",
		"M.a": "text",
	}))
	assert.Equal(t, "M.a: text\nM.b: \"51\"\n", buf.String())
}

func TestYAMLBinaryValues(t *testing.T) {
	c, err := New("yaml", Options{})
	require.NoError(t, err)

	values := map[string]string{"M.bin": "B\xff\x00'"}
	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, values))
	assert.Contains(t, buf.String(), "!!binary")

	got, err := c.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestCSVOutput(t *testing.T) {
	c, err := New("csv", Options{Delimiter: ';'})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, map[string]string{"M.x_2": "b;c", "M.x": "a"}))
	assert.Equal(t, "path;value\nM.x;a\nM.x_2;\"b;c\"\n", buf.String())
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
		want   string
	}{
		{"yaml sequence", "yaml", "- a\n- b\n", "expected a mapping"},
		{"yaml nested", "yaml", "M.a:\n  b: c\n", "must be a scalar"},
		{"yaml duplicate", "yaml", "M.a: x\nM.a: y\n", "M.a"},
		{"yaml bad binary", "yaml", "M.a: !!binary '***'\n", "invalid binary value"},
		{"csv empty path", "csv", "path,value\n,x\n", "empty path"},
		{"csv duplicate", "csv", "path,value\nM.a,x\nM.a,y\n", "duplicate path 'M.a'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.format, Options{})
			require.NoError(t, err)
			_, err = c.Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadEmptyYAML(t *testing.T) {
	c, err := New("yaml", Options{})
	require.NoError(t, err)
	values, err := c.Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, values)
}
