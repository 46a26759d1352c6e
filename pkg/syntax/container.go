package syntax

import (
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/schema"
)

// Container holds the occurrences of one declared sub-element.
type Container struct {
	ref      *schema.Ref
	parent   *Element
	elements []*Element
}

// Name returns the declared name of the contained elements.
func (c *Container) Name() string { return c.ref.Name }

// Declaration returns the schema declaration the container was built for.
func (c *Container) Declaration() *schema.Ref { return c.ref }

// Elements returns the occurrences in order.
func (c *Container) Elements() []*Element { return c.elements }

// Len returns the number of occurrences.
func (c *Container) Len() int { return len(c.elements) }

func (c *Container) instancePath(k int) string {
	return ChildPath(c.parent.path, c.ref.Name, k)
}

// delimiter returns the character preceding occurrences after the first.
func (c *Container) delimiter() byte {
	switch c.ref.Kind {
	case schema.KindElement, schema.KindGroup:
		return c.parent.codec.innerDelimiter()
	}
	return 0
}

// create appends a new occurrence, built with schema presets.
func (c *Container) create() (*Element, error) {
	k := len(c.elements)
	if k >= c.ref.MaxNum {
		return nil, codecerror.NoSuchPath(c.instancePath(k))
	}
	inst, err := build(c.parent, c.ref, c.instancePath(k), k)
	if err != nil {
		return nil, err
	}
	c.elements = append(c.elements, inst)
	return inst, nil
}

func (c *Container) removeLast() {
	if n := len(c.elements); n > 0 {
		c.elements = c.elements[:n-1]
	}
}
