package syntax

import (
	"errors"

	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/datatype"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/wire"
)

// New builds a generation tree rooted at the composite type typeID. The root
// path is the type id. Use it for standalone segments and groups; complete
// messages are built with NewMessage.
func New(s *schema.Schema, typeID string) (*Element, error) {
	ref, err := s.Declare(typeID, typeID, 1, 1)
	if err != nil {
		return nil, codecerror.UnknownType(typeID)
	}
	return build(nil, ref, typeID, 0)
}

// build creates an element for generation: schema-fixed leaf values are
// preset, required sub-elements are materialized and optional segments and
// sequences are left out until a value is propagated into them.
func build(parent *Element, ref *schema.Ref, path string, index int) (*Element, error) {
	e := skeleton(parent, ref, path, index)
	if e.kind == schema.KindElement {
		if fixed, ok := e.fixedValue(); ok {
			v, err := wire.ToWire(fixed)
			if err != nil {
				return nil, codecerror.InvalidValue(path, fixed, err)
			}
			e.value, e.set = v, true
		}
		return e, nil
	}

	for _, child := range e.def.Children {
		n := child.MinNum
		switch child.Kind {
		case schema.KindSegment, schema.KindSequence:
			if n == 0 {
				continue
			}
		default:
			if n < 1 {
				n = 1
			}
		}
		c := &Container{ref: child, parent: e}
		for k := 0; k < n; k++ {
			if _, err := c.create(); err != nil {
				return nil, err
			}
		}
		e.containers = append(e.containers, c)
	}
	return e, nil
}

// skeleton creates an element without children or presets, as used by the
// parser which fills in what it reads.
func skeleton(parent *Element, ref *schema.Ref, path string, index int) *Element {
	e := &Element{
		kind:   ref.Kind,
		path:   path,
		index:  index,
		ref:    ref,
		def:    ref.Def(),
		parent: parent,
	}
	e.codec = codecFor(e.kind)
	return e
}

// assign stores a caller-supplied leaf value after normalizing it for the
// leaf's data type and checking its size.
func (e *Element) assign(value string, overwrite bool) error {
	dt := e.ref.DataType()

	var v string
	if dt.Binary() {
		raw, tag, err := datatype.DecodeBinaryTag(value)
		if errors.Is(err, datatype.ErrBinaryTag) {
			return codecerror.InvalidBinaryFormat(e.path, tag)
		}
		if err != nil {
			return codecerror.InvalidValue(e.path, value, err)
		}
		v = raw
	} else {
		norm, err := dt.Normalize(value, e.ref.MinSize)
		if err != nil {
			return codecerror.InvalidValue(e.path, value, err)
		}
		if v, err = wire.ToWire(norm); err != nil {
			return codecerror.InvalidValue(e.path, value, err)
		}
	}

	if err := e.checkSize(v, value); err != nil {
		return err
	}
	if e.set && e.value != v && !overwrite {
		return codecerror.OverwriteNotAllowed(e.path, e.Value(), value)
	}
	e.value, e.set = v, true
	return nil
}

// checkSize applies the declared size bounds. An assigned value is never
// empty: an empty slot on the wire means "no value".
func (e *Element) checkSize(v, shown string) error {
	size := datatype.Size(e.ref.DataType(), v)
	minSize := e.ref.MinSize
	if minSize < 1 && !e.binary() {
		minSize = 1
	}
	if size < minSize || (e.ref.MaxSize > 0 && size > e.ref.MaxSize) {
		return codecerror.SizeConstraintViolated(e.path, shown, minSize, e.ref.MaxSize)
	}
	return nil
}
