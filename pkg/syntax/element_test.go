package syntax

import (
	"path/filepath"
	"testing"

	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/schema/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uebWire = "HKUEB:0:5+0001956434:EUR:280:30060601+0001956434:EUR:280:30060601+TEST++0,01:EUR+51++TEST'"

func loadSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := loader.LoadFile(filepath.Join("testdata", "codec.yaml"), "")
	require.NoError(t, err)
	return s
}

// uebValues returns the values of a domestic transfer below prefix.
func uebValues(prefix string) map[string]string {
	v := map[string]string{
		"My.number":         "0001956434",
		"My.subnumber":      "EUR",
		"My.KIK.country":    "280",
		"My.KIK.blz":        "30060601",
		"Other.number":      "0001956434",
		"Other.subnumber":   "EUR",
		"Other.KIK.country": "280",
		"Other.KIK.blz":     "30060601",
		"name":              "TEST",
		"BTG.value":         "0,01",
		"BTG.curr":          "EUR",
		"key":               "51",
		"usage":             "TEST",
	}
	out := make(map[string]string, len(v))
	for k, val := range v {
		out[prefix+PathSeparator+k] = val
	}
	return out
}

func newSegment(t *testing.T, s *schema.Schema, typeID string, values map[string]string) *Element {
	t.Helper()
	seg, err := New(s, typeID)
	require.NoError(t, err)
	require.NoError(t, seg.SetAll(values))
	require.NoError(t, seg.SetSequence(0, false))
	return seg
}

func TestNewSegmentEncode(t *testing.T) {
	s := loadSchema(t)
	seg := newSegment(t, s, "Ueb", uebValues("Ueb"))

	require.NoError(t, seg.Validate())
	assert.True(t, seg.Valid())
	assert.Equal(t, uebWire, seg.Encode())

	code, ok := seg.Code()
	assert.True(t, ok)
	assert.Equal(t, "HKUEB", code)
}

func TestNewPresetsAndMaterialization(t *testing.T) {
	s := loadSchema(t)
	seg, err := New(s, "Ueb")
	require.NoError(t, err)

	code := seg.Find("Ueb.SegHead.code")
	require.NotNil(t, code)
	assert.True(t, code.IsSet())
	assert.Equal(t, "HKUEB", code.Value())

	// optional data elements get one empty occurrence
	usage := seg.Find("Ueb.usage")
	require.NotNil(t, usage)
	assert.False(t, usage.IsSet())
	assert.Nil(t, seg.Find("Ueb.usage_2"))

	var names []string
	for _, c := range seg.Containers() {
		names = append(names, c.Name())
		assert.Equal(t, 1, c.Len(), c.Name())
	}
	assert.Equal(t, []string{"SegHead", "My", "Other", "name", "name2", "BTG", "key", "addkey", "usage"}, names)
}

func TestNewUnknownType(t *testing.T) {
	s := loadSchema(t)
	_, err := New(s, "Nope")
	assert.ErrorIs(t, err, codecerror.ErrUnknownType)
}

func TestGroupEncodeTrimsTrailingSlots(t *testing.T) {
	s := loadSchema(t)
	ktv, err := New(s, "KTV")
	require.NoError(t, err)
	require.NoError(t, ktv.SetAll(map[string]string{
		"KTV.number":      "1",
		"KTV.KIK.country": "280",
	}))
	require.NoError(t, ktv.Validate())
	assert.Equal(t, "1::280", ktv.Encode())
}

func TestNestedGroupKeepsPositions(t *testing.T) {
	s := loadSchema(t)

	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{
			name:   "absent nested group",
			values: map[string]string{"Contact.Addr.street": "Main St"},
			want:   "HKADR:0:1+::Main St'",
		},
		{
			name:   "nested group only",
			values: map[string]string{"Contact.Addr.KIK.country": "280"},
			want:   "HKADR:0:1+280'",
		},
		{
			name: "all fields",
			values: map[string]string{
				"Contact.Addr.KIK.country": "280",
				"Contact.Addr.KIK.blz":     "10020030",
				"Contact.Addr.street":      "Main St",
				"Contact.phone":            "0301234",
			},
			want: "HKADR:0:1+280:10020030:Main St+0301234'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := newSegment(t, s, "Contact", tt.values)
			require.NoError(t, seg.Validate())
			assert.Equal(t, tt.want, seg.Encode())
		})
	}
}

func TestSetErrors(t *testing.T) {
	s := loadSchema(t)

	tests := []struct {
		name  string
		path  string
		value string
		want  error
	}{
		{"unknown element", "Ueb.bogus", "x", codecerror.ErrNoSuchPath},
		{"outside root", "Other.name", "x", codecerror.ErrNoSuchPath},
		{"occurrence gap", "Ueb.usage_3", "x", codecerror.ErrNoSuchPath},
		{"beyond maxnum", "Ueb.name_2", "x", codecerror.ErrNoSuchPath},
		{"composite value", "Ueb.BTG", "x", codecerror.ErrNoSuchPath},
		{"fixed value", "Ueb.SegHead.code", "HKXXX", codecerror.ErrOverwriteNotAllowed},
		{"too long", "Ueb.key", "123", codecerror.ErrSizeConstraintViolated},
		{"empty", "Ueb.name", "", codecerror.ErrSizeConstraintViolated},
		{"not numeric", "Ueb.key", "5x", codecerror.ErrInvalidValue},
		{"bad amount", "Ueb.BTG.value", "1,2,3", codecerror.ErrInvalidValue},
		{"outside latin-1", "Ueb.name", "5 €", codecerror.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := New(s, "Ueb")
			require.NoError(t, err)
			err = seg.Set(tt.path, tt.value)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetSameValueTwice(t *testing.T) {
	s := loadSchema(t)
	seg, err := New(s, "Ueb")
	require.NoError(t, err)

	assert.NoError(t, seg.Set("Ueb.SegHead.code", "HKUEB"))
	assert.NoError(t, seg.Set("Ueb.name", "A"))
	assert.NoError(t, seg.Set("Ueb.name", "A"))

	err = seg.Set("Ueb.name", "B")
	require.ErrorIs(t, err, codecerror.ErrOverwriteNotAllowed)
	var ce *codecerror.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Ueb.name", ce.Path)
	assert.Equal(t, "A", ce.Expected)
	assert.Equal(t, "B", ce.Actual)
}

func TestRepeatedElements(t *testing.T) {
	s := loadSchema(t)
	values := uebValues("Ueb")
	values["Ueb.usage_2"] = "LINE 2"
	values["Ueb.usage_3"] = "LINE 3"
	seg := newSegment(t, s, "Ueb", values)

	require.NoError(t, seg.Validate())
	assert.Contains(t, seg.Encode(), "+TEST+LINE 2+LINE 3'")

	for _, c := range seg.Containers() {
		if c.Name() == "usage" {
			assert.Equal(t, 3, c.Len())
			assert.Equal(t, "Ueb.usage_3", c.Elements()[2].Path())
			assert.Equal(t, 2, c.Elements()[2].Index())
		}
	}
}

func TestValidateErrors(t *testing.T) {
	s := loadSchema(t)

	t.Run("missing required value", func(t *testing.T) {
		values := uebValues("Ueb")
		delete(values, "Ueb.name")
		seg := newSegment(t, s, "Ueb", values)
		err := seg.Validate()
		require.ErrorIs(t, err, codecerror.ErrNoValueGiven)
		var ce *codecerror.Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "Ueb.name", ce.Path)
	})

	t.Run("value outside valid set", func(t *testing.T) {
		values := uebValues("Ueb")
		values["Ueb.key"] = "52"
		seg := newSegment(t, s, "Ueb", values)
		assert.ErrorIs(t, seg.Validate(), codecerror.ErrNoValidValue)
	})

	t.Run("unset optional element is left empty", func(t *testing.T) {
		values := uebValues("Ueb")
		delete(values, "Ueb.My.subnumber")
		seg := newSegment(t, s, "Ueb", values)
		require.NoError(t, seg.Validate())
		assert.Contains(t, seg.Encode(), "+0001956434::280:30060601+")
		assert.NotContains(t, seg.Values(), "Ueb.My.subnumber")
	})
}

func TestEscaping(t *testing.T) {
	s := loadSchema(t)
	values := uebValues("Ueb")
	values["Ueb.name"] = "A+B"
	values["Ueb.usage"] = "a?b:c'd@e"
	seg := newSegment(t, s, "Ueb", values)

	require.NoError(t, seg.Validate())
	out := seg.Encode()
	assert.Contains(t, out, "+A?+B+")
	assert.Contains(t, out, "+a??b?:c?'d?@e'")
	assert.Equal(t, "A+B", seg.Find("Ueb.name").Value())
}

func TestLatin1Values(t *testing.T) {
	s := loadSchema(t)
	values := uebValues("Ueb")
	values["Ueb.name"] = "Müller"
	seg := newSegment(t, s, "Ueb", values)

	require.NoError(t, seg.Validate())
	assert.Contains(t, seg.Encode(), "+M\xfcller+")
	name := seg.Find("Ueb.name")
	assert.Equal(t, "Müller", name.Value())
	assert.Equal(t, "M\xfcller", name.WireValue())
}

func TestLatin1SizeCountsWireBytes(t *testing.T) {
	s := loadSchema(t)

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"umlauts one byte each", "üüüüü", false},
		{"two-byte sequences within limit", "Ã¤Ã¤", false},
		{"two-byte sequences over limit", "Ã¤Ã¤Ã¤", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := newSegment(t, s, "Notice", nil)
			err := seg.Set("Notice.text", tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, codecerror.ErrSizeConstraintViolated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.value, seg.Find("Notice.text").Value())
		})
	}
}

func TestBinaryValues(t *testing.T) {
	s := loadSchema(t)

	tests := []struct {
		name  string
		value string
		want  string
		err   error
	}{
		{"raw bytes", "Bab'c+@d", "HKUPD:0:1+@7@ab'c+@d'", nil},
		{"number", "N258", "HKUPD:0:1+@2@\x01\x02'", nil},
		{"empty", "B", "HKUPD:0:1+@0@'", nil},
		{"unknown tag", "Xabc", "", codecerror.ErrInvalidBinaryFormat},
		{"no tag", "", "", codecerror.ErrInvalidBinaryFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := New(s, "Upload")
			require.NoError(t, err)
			err = seg.Set("Upload.data", tt.value)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, seg.SetSequence(0, false))
			require.NoError(t, seg.Validate())
			assert.Equal(t, tt.want, seg.Encode())
		})
	}
}

func TestSetSequence(t *testing.T) {
	s := loadSchema(t)
	seg, err := New(s, "Sig")
	require.NoError(t, err)

	_, ok := seg.Sequence()
	assert.False(t, ok)

	require.NoError(t, seg.SetSequence(4, false))
	require.NoError(t, seg.SetSequence(0, false))
	seq, ok := seg.Sequence()
	assert.True(t, ok)
	assert.Equal(t, "4", seq)

	require.NoError(t, seg.SetSequence(7, true))
	seq, _ = seg.Sequence()
	assert.Equal(t, "7", seq)

	kik, err := New(s, "KIK")
	require.NoError(t, err)
	assert.ErrorIs(t, kik.SetSequence(1, true), codecerror.ErrNoSuchPath)
}
