package syntax

import (
	"errors"
	"strconv"

	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/wire"
)

// parser holds the immutable input of one parse run. Decoding never mutates
// the input; every decode step receives an offset and returns the next one.
type parser struct {
	input  string
	logger logging.Logger
	// furthest is the failure that got deepest into the input. When a parse
	// ends without matching the whole input it usually names the real
	// problem better than the last failure does.
	furthest *codecerror.Error
}

func newParser(input string, logger logging.Logger) *parser {
	return &parser{input: input, logger: logger}
}

func (p *parser) fail(err *codecerror.Error) error {
	if p.furthest == nil || err.Offset > p.furthest.Offset {
		p.furthest = err
	}
	return err
}

// decodeFields reads the occurrences of a data element or group. Fields are
// read leniently: an occurrence that is structurally absent ends the
// container, and required-ness is left to validation. A present value that
// fails a check is an error for optional occurrences too.
func (c *Container) decodeFields(p *parser, pos int, predelim byte) (int, error) {
	for k := 0; k < c.ref.MaxNum; k++ {
		pd := predelim
		if k > 0 {
			pd = c.delimiter()
		}
		inst := skeleton(c.parent, c.ref, c.instancePath(k), k)
		next, err := inst.codec.decode(p, inst, pos, pd)
		if err != nil {
			if codecerror.IsStructural(err) {
				break
			}
			return pos, err
		}
		if next == pos {
			break
		}
		c.elements = append(c.elements, inst)
		pos = next
	}
	return pos, nil
}

// decodeSegments reads the occurrences of a segment or sequence. Each
// occurrence must parse and validate completely; a failed attempt beyond the
// required count is backed out and ends the container.
func (c *Container) decodeSegments(p *parser, pos int, single bool) (int, error) {
	maxNum := c.ref.MaxNum
	if single {
		maxNum = 1
	}
	for k := 0; k < maxNum; k++ {
		path := c.instancePath(k)
		if pos >= len(p.input) {
			if k < c.ref.MinNum {
				return pos, p.fail(codecerror.UnexpectedEndOfInput(path, pos))
			}
			break
		}
		if k >= c.ref.MinNum && c.ref.Kind == schema.KindSegment && c.foreignSegment(p, pos) {
			break
		}

		inst := skeleton(c.parent, c.ref, path, k)
		next, err := inst.codec.decode(p, inst, pos, 0)
		if err == nil {
			err = inst.validate(nil)
		}
		if err != nil {
			if k < c.ref.MinNum {
				return pos, err
			}
			p.logger.Debug("Optional element not matched",
				logging.F(logging.FieldPath, path),
				logging.F(logging.FieldOffset, pos),
				logging.F(logging.FieldError, err.Error()))
			break
		}
		if next == pos && k >= c.ref.MinNum {
			break
		}
		c.elements = append(c.elements, inst)
		pos = next
	}
	return pos, nil
}

// foreignSegment compares the code and version of the segment at pos with the
// ones the schema fixes for the declared segment type. Types without both a
// fixed code and version are always attempted.
func (c *Container) foreignSegment(p *parser, pos int) bool {
	def := c.ref.Def()
	code, version := def.SegmentCode(), def.SegmentVersion()
	if code == "" || version == "" {
		return false
	}
	gotCode, gotVersion := wire.PeekSegmentHead(p.input, pos)
	if gotCode == code && gotVersion == version {
		return false
	}
	p.logger.Debug("Segment head does not match declared type",
		logging.F(logging.FieldPath, c.instancePath(len(c.elements))),
		logging.F(logging.FieldSegment, gotCode+":"+gotVersion),
		logging.F(logging.FieldOffset, pos))
	return true
}

// parseRoot decodes a whole wire string into root, which must consume it
// completely, and validates the result.
func parseRoot(p *parser, root *Element) error {
	pos, err := root.codec.decode(p, root, 0, 0)
	if err != nil {
		return err
	}
	if pos != len(p.input) {
		if p.furthest != nil && p.furthest.Offset >= pos {
			return p.furthest
		}
		return codecerror.PredelimiterMismatch(root.path, "end of input", wire.Describe(p.input, pos), pos)
	}
	return root.validate(func(inst *Element, err error) {
		p.logger.Debug("Dropped incomplete optional element",
			logging.F(logging.FieldPath, inst.path),
			logging.F(logging.FieldError, err.Error()))
	})
}

// checkSequence verifies that the serialized segments are numbered 1, 2, 3...
func checkSequence(root *Element) error {
	n := 0
	var err error
	root.walkValidSegments(func(s *Element) {
		if err != nil {
			return
		}
		n++
		want := strconv.Itoa(n)
		got, ok := s.Sequence()
		if !ok || got != want {
			err = codecerror.InvalidSegmentSequence(s.path, want, got)
		}
	})
	return err
}

// IsParseError reports whether err came from reading the wire syntax rather
// than from a later check.
func IsParseError(err error) bool {
	var ce *codecerror.Error
	return errors.As(err, &ce) && ce.Offset >= 0
}
