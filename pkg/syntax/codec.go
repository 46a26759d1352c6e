package syntax

import (
	"errors"
	"strings"

	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/datatype"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/wire"
)

// elementCodec supplies the kind specific parts of serialization and parsing.
type elementCodec interface {
	// innerDelimiter separates the children of the element, 0 if none.
	innerDelimiter() byte
	encode(e *Element) string
	// decode reads the element at pos. predelim is the delimiter that must
	// precede it, 0 if none. It returns the offset after the element.
	decode(p *parser, e *Element, pos int, predelim byte) (int, error)
}

var (
	leaf     = leafCodec{}
	group    = compositeCodec{delim: wire.GroupDelimiter}
	segment  = compositeCodec{delim: wire.ElementDelimiter, terminator: wire.SegmentTerminator}
	sequence = sequenceCodec{}
)

func codecFor(k schema.Kind) elementCodec {
	switch k {
	case schema.KindElement:
		return leaf
	case schema.KindGroup:
		return group
	case schema.KindSegment:
		return segment
	}
	return sequence
}

// expectDelimiter consumes predelim at pos.
func expectDelimiter(p *parser, path string, pos int, predelim byte) (int, error) {
	if predelim == 0 {
		return pos, nil
	}
	if pos >= len(p.input) {
		return pos, p.fail(codecerror.UnexpectedEndOfInput(path, pos))
	}
	if p.input[pos] != predelim {
		return pos, p.fail(codecerror.PredelimiterMismatch(path, string(predelim), wire.Describe(p.input, pos), pos))
	}
	return pos + 1, nil
}

type leafCodec struct{}

func (leafCodec) innerDelimiter() byte { return 0 }

func (leafCodec) encode(e *Element) string {
	if !e.set {
		return ""
	}
	if e.binary() {
		return wire.EncodeBinary(e.value)
	}
	return wire.Quote(e.value)
}

// decode reads one value. An empty slot after the predelimiter is a present
// leaf without value; validation decides whether that is acceptable.
func (leafCodec) decode(p *parser, e *Element, pos int, predelim byte) (int, error) {
	pos, err := expectDelimiter(p, e.path, pos, predelim)
	if err != nil {
		return pos, err
	}
	start := pos
	if pos >= len(p.input) {
		return pos, p.fail(codecerror.UnexpectedEndOfInput(e.path, pos))
	}

	var v string
	switch {
	case p.input[pos] == wire.BinaryMarker && e.binary():
		raw, next, err := wire.DecodeBinary(p.input, pos)
		if errors.Is(err, wire.ErrShortBinary) {
			return start, p.fail(codecerror.UnexpectedEndOfInput(e.path, pos))
		}
		if err != nil {
			return start, p.fail(&codecerror.Error{Kind: codecerror.KindInvalidValue, Path: e.path, Actual: wire.Describe(p.input, pos), Offset: pos, Err: err})
		}
		v, pos = raw, next
	case wire.IsDelimiter(p.input[pos]):
		if fixed, ok := e.fixedValue(); ok {
			return start, p.fail(codecerror.PredefinedValueMismatch(e.path, fixed, "", pos))
		}
		return pos, nil
	case e.binary():
		return start, p.fail(&codecerror.Error{Kind: codecerror.KindInvalidValue, Path: e.path, Actual: wire.Describe(p.input, pos), Offset: pos, Err: wire.ErrBadBinaryHeader})
	default:
		end, err := wire.ScanValue(p.input, pos)
		if err != nil {
			return start, p.fail(codecerror.UnexpectedEndOfInput(e.path, end))
		}
		v, pos = wire.Unquote(p.input[start:end]), end
	}

	if fixed, ok := e.fixedValue(); ok {
		if w, _ := wire.ToWire(fixed); w != v {
			return start, p.fail(codecerror.PredefinedValueMismatch(e.path, fixed, wire.FromWire(v), start))
		}
	}
	if valids, ok := e.validValues(); ok && !contains(valids, wire.FromWire(v)) {
		return start, p.fail(withOffset(codecerror.NoValidValue(e.path, wire.FromWire(v), valids), start))
	}
	dt := e.ref.DataType()
	size := datatype.Size(dt, v)
	if size < e.ref.MinSize || (e.ref.MaxSize > 0 && size > e.ref.MaxSize) {
		return start, p.fail(withOffset(codecerror.SizeConstraintViolated(e.path, wire.FromWire(v), e.ref.MinSize, e.ref.MaxSize), start))
	}
	if err := dt.Check(v); err != nil {
		return start, p.fail(withOffset(codecerror.InvalidValue(e.path, wire.FromWire(v), err), start))
	}

	e.value, e.set = v, true
	return pos, nil
}

// compositeCodec handles data element groups and segments: children joined
// by delim, optionally closed by terminator.
type compositeCodec struct {
	delim      byte
	terminator byte
}

func (c compositeCodec) innerDelimiter() byte { return c.delim }

// encode emits one slot per occurrence, or one empty slot for a container
// without occurrences, and drops the trailing run of empty slots. Interior
// empty slots are kept so positions stay recognizable.
func (c compositeCodec) encode(e *Element) string {
	slots := c.slots(e)
	for len(slots) > 0 && slots[len(slots)-1] == "" {
		slots = slots[:len(slots)-1]
	}
	out := strings.Join(slots, string(c.delim))
	if c.terminator != 0 && e.valid {
		out += string(c.terminator)
	}
	return out
}

// slots lists the encoded children. Groups nested in a group share the
// outer group's delimiter, so their slots are flattened into the parent
// untrimmed; an absent nested group still occupies all of its positions.
func (c compositeCodec) slots(e *Element) []string {
	var out []string
	for _, cont := range e.containers {
		nested := e.kind == schema.KindGroup && cont.ref.Kind == schema.KindGroup
		if len(cont.elements) == 0 {
			out = append(out, emptySlots(cont.ref, nested)...)
			continue
		}
		for _, inst := range cont.elements {
			switch {
			case !inst.valid:
				out = append(out, emptySlots(cont.ref, nested)...)
			case nested:
				out = append(out, group.slots(inst)...)
			default:
				out = append(out, inst.Encode())
			}
		}
	}
	return out
}

func emptySlots(ref *schema.Ref, nested bool) []string {
	if !nested {
		return []string{""}
	}
	return make([]string, width(ref.Def()))
}

// width is the number of positions a group occupies when flattened.
func width(def *schema.Node) int {
	n := 0
	for _, r := range def.Children {
		if r.Kind == schema.KindGroup {
			n += width(r.Def())
		} else {
			n++
		}
	}
	return n
}

func (c compositeCodec) decode(p *parser, e *Element, pos int, predelim byte) (int, error) {
	start := pos
	e.containers = make([]*Container, 0, len(e.def.Children))
	for i, ref := range e.def.Children {
		pd := c.delim
		if i == 0 {
			pd = predelim
		}
		cont := &Container{ref: ref, parent: e}
		next, err := cont.decodeFields(p, pos, pd)
		if err != nil {
			e.containers = nil
			return start, err
		}
		e.containers = append(e.containers, cont)
		pos = next
	}
	if c.terminator != 0 {
		if pos >= len(p.input) {
			return start, p.fail(codecerror.UnexpectedEndOfInput(e.path, pos))
		}
		if p.input[pos] != c.terminator {
			return start, p.fail(codecerror.PredelimiterMismatch(e.path, string(c.terminator), wire.Describe(p.input, pos), pos))
		}
		pos++
	}
	e.requested = true
	return pos, nil
}

// sequenceCodec handles segment sequences and messages, whose segments
// delimit themselves.
type sequenceCodec struct{}

func (sequenceCodec) innerDelimiter() byte { return 0 }

func (sequenceCodec) encode(e *Element) string {
	var b strings.Builder
	for _, cont := range e.containers {
		for _, inst := range cont.elements {
			if inst.valid {
				b.WriteString(inst.Encode())
			}
		}
	}
	return b.String()
}

// decode tries each declared child in order. Optional children that match
// nothing get no container. In single-segment sequences the first matched
// child ends the occurrence.
func (sequenceCodec) decode(p *parser, e *Element, pos int, _ byte) (int, error) {
	start := pos
	single := e.def.SingleSegment()
	e.containers = make([]*Container, 0, len(e.def.Children))
	for _, ref := range e.def.Children {
		cont := &Container{ref: ref, parent: e}
		next, err := cont.decodeSegments(p, pos, single)
		if err != nil {
			e.containers = nil
			return start, err
		}
		pos = next
		if len(cont.elements) == 0 && ref.MinNum == 0 {
			continue
		}
		e.containers = append(e.containers, cont)
		if single && len(cont.elements) > 0 {
			break
		}
	}
	e.requested = true
	return pos, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func withOffset(err *codecerror.Error, offset int) *codecerror.Error {
	err.Offset = offset
	return err
}
