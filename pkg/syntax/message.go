package syntax

import (
	"fmt"
	"strconv"

	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"

	"github.com/google/uuid"
)

// Message is the root of a message tree. It runs the generation pipeline
// (Complete) and the parsing pipeline (Parse).
type Message struct {
	id     uuid.UUID
	schema *schema.Schema
	root   *Element
	logger logging.Logger
}

// Option configures a Message.
type Option func(*Message)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(m *Message) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func newMessage(s *schema.Schema, name string, opts []Option) (*Message, *schema.Ref, error) {
	if _, err := s.Message(name); err != nil {
		return nil, nil, codecerror.UnknownType(name)
	}
	ref, err := s.Declare(name, name, 1, 1)
	if err != nil {
		return nil, nil, codecerror.UnknownType(name)
	}
	m := &Message{id: uuid.New(), schema: s, logger: logging.NewDiscardLogger()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithFields(
		logging.F(logging.FieldMessageID, m.id.String()),
		logging.F(logging.FieldMessage, name),
		logging.F(logging.FieldSchemaVersion, s.Version()))
	return m, ref, nil
}

// NewMessage builds an empty generation tree for the message type name.
func NewMessage(s *schema.Schema, name string, opts ...Option) (*Message, error) {
	m, ref, err := newMessage(s, name, opts)
	if err != nil {
		return nil, err
	}
	if m.root, err = build(nil, ref, name, 0); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse reads a complete wire message of type name. With checkSequence the
// segment numbers must run 1, 2, 3... over the segments found.
func Parse(s *schema.Schema, name, input string, checkSequence bool, opts ...Option) (*Message, error) {
	m, ref, err := newMessage(s, name, opts)
	if err != nil {
		return nil, err
	}
	m.root = skeleton(nil, ref, name, 0)

	p := newParser(input, m.logger)
	if err := parseRoot(p, m.root); err != nil {
		m.logger.WithError(err).Debug("Parse failed")
		return nil, err
	}
	if checkSequence {
		if err := m.checkSequence(); err != nil {
			return nil, err
		}
	}
	m.logger.Debug("Message parsed",
		logging.F(logging.FieldCount, len(m.root.Segments())))
	return m, nil
}

// ID identifies the message in log output.
func (m *Message) ID() uuid.UUID { return m.id }

// Name returns the message type name, which is also the root path.
func (m *Message) Name() string { return m.root.path }

// Schema returns the schema the message was built from.
func (m *Message) Schema() *schema.Schema { return m.schema }

// Root returns the root element.
func (m *Message) Root() *Element { return m.root }

// Set assigns a value to path, creating optional branches as needed.
func (m *Message) Set(path, value string) error {
	return m.root.Set(path, value)
}

// SetAll assigns all pairs in natural path order.
func (m *Message) SetAll(values map[string]string) error {
	return m.root.SetAll(values)
}

// Value returns the value of the leaf at path.
func (m *Message) Value(path string) (string, bool) {
	e := m.root.Find(path)
	if e == nil || e.kind != schema.KindElement || !e.set {
		return "", false
	}
	return e.Value(), true
}

// Values flattens the tree into path/value pairs.
func (m *Message) Values() map[string]string {
	return m.root.Values()
}

// Find returns the element at path, or nil.
func (m *Message) Find(path string) *Element {
	return m.root.Find(path)
}

// Segments returns the segments that are serialized, in order.
func (m *Message) Segments() []*Element {
	return m.root.Segments()
}

// Encode serializes the tree as it is.
func (m *Message) Encode() string {
	return m.root.Encode()
}

// Complete runs the generation pipeline over the values set so far:
// placeholder numbering, placeholder size, validation, final numbering of
// the valid segments and the final size.
func (m *Message) Complete() (string, error) {
	var err error
	m.root.walkSegments(func(s *Element) {
		if err == nil {
			err = s.SetSequence(0, false)
		}
	})
	if err != nil {
		return "", err
	}
	if err := m.setSize(0); err != nil {
		return "", err
	}
	return m.Finish()
}

// Finish validates, renumbers and sizes the message and returns the wire
// text. Call it again after splicing segments into a completed message.
func (m *Message) Finish() (string, error) {
	err := m.root.validate(func(inst *Element, err error) {
		m.logger.Debug("Dropped incomplete optional element",
			logging.F(logging.FieldPath, inst.path),
			logging.F(logging.FieldError, err.Error()))
	})
	if err != nil {
		m.logger.WithError(err).Debug("Validation failed")
		return "", err
	}
	if err := m.Renumber(); err != nil {
		return "", err
	}

	out := m.root.Encode()
	if err := m.setSize(len(out)); err != nil {
		return "", err
	}
	out = m.root.Encode()
	m.logger.Debug("Message generated",
		logging.F(logging.FieldCount, len(m.root.Segments())))
	return out, nil
}

// Renumber assigns 1, 2, 3... to the valid segments in wire order.
func (m *Message) Renumber() error {
	n := 0
	var err error
	m.root.walkValidSegments(func(s *Element) {
		if err == nil {
			n++
			err = s.SetSequence(n, true)
		}
	})
	return err
}

// setSize writes the message size leaf, if the message has one.
func (m *Message) setSize(size int) error {
	leaf := m.root.Find(m.root.path + PathSeparator + schema.MessageSizePath)
	if leaf == nil {
		return nil
	}
	return leaf.assign(strconv.Itoa(size), true)
}

func (m *Message) checkSequence() error {
	return checkSequence(m.root)
}

// Insert splices a segment of type typeID into the message at container
// position at, outside the declared structure. The segment's values are
// given relative to the segment, e.g. "SegHead.code". Signing and encryption
// layers use it to add their head and tail segments; call Finish afterwards.
func (m *Message) Insert(at int, typeID, name string, values map[string]string) (*Element, error) {
	def, ok := m.schema.Lookup(typeID)
	if !ok || def.Kind != schema.KindSegment {
		return nil, codecerror.UnknownType(typeID)
	}
	if name == "" {
		name = typeID
	}
	if at < 0 || at > len(m.root.containers) {
		return nil, fmt.Errorf("insert position %d out of range [0..%d]", at, len(m.root.containers))
	}
	path := ChildPath(m.root.path, name, 0)
	if m.root.Find(path) != nil {
		return nil, fmt.Errorf("element %s already exists", path)
	}

	ref, err := m.schema.Declare(typeID, name, 1, 1)
	if err != nil {
		return nil, err
	}
	c := &Container{ref: ref, parent: m.root}
	seg, err := c.create()
	if err != nil {
		return nil, err
	}
	for _, p := range SortedPaths(values) {
		if err := seg.Set(path+PathSeparator+p, values[p]); err != nil {
			return nil, err
		}
	}
	if err := seg.SetSequence(0, false); err != nil {
		return nil, err
	}

	m.root.containers = append(m.root.containers, nil)
	copy(m.root.containers[at+1:], m.root.containers[at:])
	m.root.containers[at] = c
	m.logger.Debug("Segment inserted",
		logging.F(logging.FieldPath, path),
		logging.F(logging.FieldSegment, typeID))
	return seg, nil
}
