package syntax

import (
	"strings"
	"testing"

	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transferWire = "HNHBK:1:3+000000000133+300+0+1'" +
	"HKUEB:2:5+0001956434:EUR:280:30060601+0001956434:EUR:280:30060601+TEST++0,01:EUR+51++TEST'" +
	"HNHBS:3:1+1'"

func frameValues(msg string) map[string]string {
	return map[string]string{
		msg + ".MsgHead.dialogid": "0",
		msg + ".MsgHead.msgnum":   "1",
		msg + ".MsgTail.msgnum":   "1",
	}
}

func transferValues() map[string]string {
	values := frameValues("Transfer")
	for k, v := range uebValues("Transfer.Ueb") {
		values[k] = v
	}
	return values
}

func buildMessage(t *testing.T, s *schema.Schema, name string, values map[string]string, opts ...Option) *Message {
	t.Helper()
	m, err := NewMessage(s, name, opts...)
	require.NoError(t, err)
	require.NoError(t, m.SetAll(values))
	return m
}

func segmentCodes(t *testing.T, m *Message) []string {
	t.Helper()
	var codes []string
	for _, seg := range m.Segments() {
		code, ok := seg.Code()
		require.True(t, ok, seg.Path())
		seq, _ := seg.Sequence()
		codes = append(codes, code+":"+seq)
	}
	return codes
}

func TestCompleteTransfer(t *testing.T) {
	s := loadSchema(t)
	m := buildMessage(t, s, "Transfer", transferValues())

	out, err := m.Complete()
	require.NoError(t, err)
	assert.Equal(t, transferWire, out)
	assert.Len(t, out, 133)

	size, ok := m.Value("Transfer.MsgHead.msgsize")
	assert.True(t, ok)
	assert.Equal(t, "000000000133", size)
	assert.Equal(t, []string{"HNHBK:1", "HKUEB:2", "HNHBS:3"}, segmentCodes(t, m))
	assert.Equal(t, "Transfer", m.Name())
	assert.Same(t, s, m.Schema())
}

func TestCompleteIsRepeatable(t *testing.T) {
	s := loadSchema(t)
	m := buildMessage(t, s, "Transfer", transferValues())

	first, err := m.Complete()
	require.NoError(t, err)
	second, err := m.Complete()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompleteKeepsCallerSequence(t *testing.T) {
	s := loadSchema(t)
	values := transferValues()
	values["Transfer.Ueb.SegHead.seq"] = "9"
	m := buildMessage(t, s, "Transfer", values)

	out, err := m.Complete()
	require.NoError(t, err)
	// final numbering still runs over all serialized segments
	assert.Equal(t, transferWire, out)
}

func TestNewMessageErrors(t *testing.T) {
	s := loadSchema(t)

	_, err := NewMessage(s, "Nope")
	assert.ErrorIs(t, err, codecerror.ErrUnknownType)

	// a segment type is not a message
	_, err = NewMessage(s, "Ueb")
	assert.ErrorIs(t, err, codecerror.ErrUnknownType)
}

func TestCompleteErrors(t *testing.T) {
	s := loadSchema(t)

	t.Run("missing required leaf", func(t *testing.T) {
		values := transferValues()
		delete(values, "Transfer.MsgTail.msgnum")
		m := buildMessage(t, s, "Transfer", values)
		_, err := m.Complete()
		require.ErrorIs(t, err, codecerror.ErrNoValueGiven)
		var ce *codecerror.Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "Transfer.MsgTail.msgnum", ce.Path)
	})

	t.Run("value outside valid set", func(t *testing.T) {
		values := transferValues()
		values["Transfer.Ueb.key"] = "52"
		m := buildMessage(t, s, "Transfer", values)
		_, err := m.Complete()
		assert.ErrorIs(t, err, codecerror.ErrNoValidValue)
	})

	t.Run("message level fixed value", func(t *testing.T) {
		m, err := NewMessage(s, "Transfer")
		require.NoError(t, err)
		assert.ErrorIs(t, m.Set("Transfer.MsgHead.hbciversion", "220"), codecerror.ErrOverwriteNotAllowed)
		assert.NoError(t, m.Set("Transfer.MsgHead.hbciversion", "300"))
	})
}

func TestOptionalSegments(t *testing.T) {
	s := loadSchema(t)

	t.Run("left out when unset", func(t *testing.T) {
		m := buildMessage(t, s, "Batch", frameValues("Batch"))
		out, err := m.Complete()
		require.NoError(t, err)
		assert.Equal(t, "HNHBK:1:3+000000000043+300+0+1'HNHBS:2:1+1'", out)
		assert.Nil(t, m.Find("Batch.Contact"))
	})

	t.Run("created on first value", func(t *testing.T) {
		values := frameValues("Batch")
		values["Batch.Contact.phone"] = "0301234"
		m := buildMessage(t, s, "Batch", values)
		out, err := m.Complete()
		require.NoError(t, err)
		assert.Contains(t, out, "'HKADR:2:1++0301234'HNHBS:3:1+1'")
	})

	t.Run("incomplete occurrence is dropped", func(t *testing.T) {
		values := frameValues("Batch")
		for k, v := range uebValues("Batch.Ueb") {
			values[k] = v
		}
		values["Batch.Ueb_2.name"] = "HALF"
		logger := logging.NewMockLogger()
		m := buildMessage(t, s, "Batch", values, WithLogger(logger))

		out, err := m.Complete()
		require.NoError(t, err)
		assert.Equal(t, []string{"HNHBK:1", "HKUEB:2", "HNHBS:3"}, segmentCodes(t, m))
		assert.NotContains(t, out, "HALF")
		assert.NotContains(t, m.Values(), "Batch.Ueb_2.name")
		assert.True(t, logger.HasEntry("DEBUG", "Dropped incomplete optional element"))
	})
}

func TestSequenceNumbersFollowWireOrder(t *testing.T) {
	s := loadSchema(t)
	values := frameValues("Batch")
	for k, v := range uebValues("Batch.Ueb") {
		values[k] = v
	}
	for k, v := range uebValues("Batch.Ueb_2") {
		if !strings.HasSuffix(k, ".key") {
			values[k] = v
		}
	}
	values["Batch.Upload.data"] = "Bxyz"
	values["Batch.Contact.phone"] = "0301234"

	m := buildMessage(t, s, "Batch", values)
	out, err := m.Complete()
	require.NoError(t, err)
	assert.Equal(t, []string{"HNHBK:1", "HKADR:2", "HKUEB:3", "HKUEB:4", "HKUPD:5", "HNHBS:6"}, segmentCodes(t, m))

	// the message fixes the key of the second transfer
	key, ok := m.Value("Batch.Ueb_2.key")
	assert.True(t, ok)
	assert.Equal(t, "53", key)
	assert.Contains(t, out, "+53++TEST'")
}

func TestMessageFixedValueWinsOverSegment(t *testing.T) {
	s := loadSchema(t)
	m, err := NewMessage(s, "Batch")
	require.NoError(t, err)
	require.NoError(t, m.Set("Batch.Ueb.name", "FIRST"))
	assert.ErrorIs(t, m.Set("Batch.Ueb_2.key", "51"), codecerror.ErrOverwriteNotAllowed)
	// a failed placement does not leave the new occurrence behind
	assert.Nil(t, m.Find("Batch.Ueb_2"))
}

func TestRequestTag(t *testing.T) {
	s := loadSchema(t)

	t.Run("requested", func(t *testing.T) {
		values := frameValues("Batch")
		values["Batch.Query"] = RequestTag
		m := buildMessage(t, s, "Batch", values)
		out, err := m.Complete()
		require.NoError(t, err)
		assert.Contains(t, out, "'HKASK:2:2'")
	})

	t.Run("not requested", func(t *testing.T) {
		values := frameValues("Batch")
		values["Batch.Query.Ask.topic"] = "limits"
		m := buildMessage(t, s, "Batch", values)
		out, err := m.Complete()
		require.NoError(t, err)
		assert.NotContains(t, out, "HKASK")
		assert.Equal(t, []string{"HNHBK:1", "HNHBS:2"}, segmentCodes(t, m))
	})

	t.Run("requested with values", func(t *testing.T) {
		values := frameValues("Batch")
		values["Batch.Query"] = RequestTag
		values["Batch.Query.Ask.topic"] = "limits"
		m := buildMessage(t, s, "Batch", values)
		out, err := m.Complete()
		require.NoError(t, err)
		assert.Contains(t, out, "'HKASK:2:2+limits'")
	})
}

func TestSingleSegmentSequences(t *testing.T) {
	s := loadSchema(t)
	values := frameValues("Init")
	values["Init.Params.BankInfo.blz"] = "10020030"
	values["Init.Params_2.Template.text"] = "hello"
	m := buildMessage(t, s, "Init", values)

	out, err := m.Complete()
	require.NoError(t, err)
	assert.Equal(t, []string{"HNHBK:1", "HIBPA:2", "HITPL:3", "HNHBS:4"}, segmentCodes(t, m))
	assert.Contains(t, out, "'HIBPA:2:3+10020030'HITPL:3:1+hello'")
}

func TestInsertSegment(t *testing.T) {
	s := loadSchema(t)
	m := buildMessage(t, s, "Transfer", transferValues())
	_, err := m.Complete()
	require.NoError(t, err)

	sig, err := m.Insert(1, "Sig", "", map[string]string{"role": "1"})
	require.NoError(t, err)
	assert.Equal(t, "Transfer.Sig", sig.Path())

	out, err := m.Finish()
	require.NoError(t, err)
	assert.Equal(t, []string{"HNHBK:1", "HNSHK:2", "HKUEB:3", "HNHBS:4"}, segmentCodes(t, m))
	assert.True(t, strings.HasPrefix(out, "HNHBK:1:3+000000000145+300+0+1'HNSHK:2:4+1'HKUEB:3:5+"))
	assert.Len(t, out, 145)
}

func TestInsertErrors(t *testing.T) {
	s := loadSchema(t)
	m := buildMessage(t, s, "Transfer", transferValues())

	_, err := m.Insert(0, "Nope", "", nil)
	assert.ErrorIs(t, err, codecerror.ErrUnknownType)

	_, err = m.Insert(0, "KIK", "", nil)
	assert.ErrorIs(t, err, codecerror.ErrUnknownType)

	_, err = m.Insert(9, "Sig", "", nil)
	assert.Error(t, err)

	_, err = m.Insert(0, "Sig", "Ueb", nil)
	assert.Error(t, err)

	_, err = m.Insert(0, "Sig", "", map[string]string{"bogus": "1"})
	assert.ErrorIs(t, err, codecerror.ErrNoSuchPath)
}

func TestMessageLogsCarryIdentity(t *testing.T) {
	s := loadSchema(t)
	logger := logging.NewMockLogger()
	m := buildMessage(t, s, "Transfer", transferValues(), WithLogger(logger))
	_, err := m.Complete()
	require.NoError(t, err)

	entries := logger.EntriesByLevel("DEBUG")
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, "Message generated", last.Message)
	id, ok := last.FieldValue(logging.FieldMessageID)
	assert.True(t, ok)
	assert.Equal(t, m.ID().String(), id)
	name, _ := last.FieldValue(logging.FieldMessage)
	assert.Equal(t, "Transfer", name)
}

func TestPerOccurrenceValids(t *testing.T) {
	s := loadSchema(t)

	tests := []struct {
		name    string
		values  map[string]string
		wantErr bool
	}{
		{"second occurrence valid", map[string]string{"line": "L1", "line_2": "X"}, false},
		{"first and third occurrence free", map[string]string{"line": "Q", "line_2": "X", "line_3": "Q"}, false},
		{"second occurrence outside valid set", map[string]string{"line": "L1", "line_2": "Q"}, true},
		{"optional field outside valid set", map[string]string{"mode": "Z"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := frameValues("Notices")
			for k, v := range tt.values {
				values["Notices.Notice."+k] = v
			}
			_, err := buildMessage(t, s, "Notices", values).Complete()
			if tt.wantErr {
				assert.ErrorIs(t, err, codecerror.ErrNoValidValue)
				return
			}
			assert.NoError(t, err)
		})
	}
}
