package syntax

import (
	"errors"

	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/wire"
)

// Validate checks the subtree bottom-up and records which elements are
// valid. Missing values inside optional occurrences make those occurrences
// invalid, so they are left out of the output; everything else is an error.
func (e *Element) Validate() error {
	return e.validate(nil)
}

// invalidFunc is told about optional occurrences dropped during validation.
type invalidFunc func(inst *Element, err error)

func (e *Element) validate(onDrop invalidFunc) error {
	e.valid = false
	e.checked = true

	if e.kind == schema.KindElement {
		if !e.set {
			return codecerror.NoValueGiven(e.path)
		}
		if valids, ok := e.validValues(); ok {
			if v := wire.FromWire(e.value); !contains(valids, v) {
				return codecerror.NoValidValue(e.path, v, valids)
			}
		}
		e.valid = true
		return nil
	}

	for _, c := range e.containers {
		if err := c.validate(onDrop); err != nil {
			return err
		}
	}
	if e.def.NeedsRequestTag && !e.requested {
		return nil
	}
	e.valid = true
	return nil
}

func (c *Container) validate(onDrop invalidFunc) error {
	for k, inst := range c.elements {
		err := inst.validate(onDrop)
		if err == nil {
			continue
		}
		if k >= c.ref.MinNum && errors.Is(err, codecerror.ErrNoValueGiven) {
			if onDrop != nil {
				onDrop(inst, err)
			}
			continue
		}
		return err
	}
	if len(c.elements) < c.ref.MinNum {
		return codecerror.NoValueGiven(c.instancePath(len(c.elements)))
	}
	return nil
}
