// Package syntax implements the schema-driven HBCI element tree: building a
// message from path/value pairs, serializing it to the wire syntax and parsing
// wire text back into a tree.
//
// A tree is made of Elements of five kinds (message, segment sequence,
// segment, data element group, data element). Every composite owns one
// Container per declared sub-element; a container holds the occurrences of
// that sub-element in order. Kind specific behaviour lives in small codecs
// selected once when an element is created.
//
// Trees are not safe for concurrent use. The schema they are built from is
// read-only and may be shared between any number of trees.
package syntax

import (
	"strconv"

	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/datatype"
	"fjacquet/hbci-codec/pkg/schema"
	"fjacquet/hbci-codec/pkg/wire"
)

// RequestTag is the value that, propagated to the path of a composite,
// marks it as requested. Composites whose type needs the request tag are
// only emitted when marked.
const RequestTag = "requested"

// Element is one node of a message tree.
type Element struct {
	kind  schema.Kind
	path  string
	index int
	ref   *schema.Ref
	def   *schema.Node
	// parent is a non-owning back reference; nil for the root.
	parent     *Element
	containers []*Container
	codec      elementCodec

	// leaf state, value is kept in wire encoding
	value string
	set   bool

	valid     bool
	checked   bool
	requested bool
}

// Kind returns the element kind.
func (e *Element) Kind() schema.Kind { return e.kind }

// Path returns the element's path in the tree.
func (e *Element) Path() string { return e.path }

// Name returns the declared name without occurrence suffix.
func (e *Element) Name() string { return e.ref.Name }

// Type returns the schema type id, or the data type name for leaves.
func (e *Element) Type() string { return e.ref.Type }

// Index returns the occurrence index within the parent container.
func (e *Element) Index() int { return e.index }

// Parent returns the enclosing element, nil for the root.
func (e *Element) Parent() *Element { return e.parent }

// Definition returns the schema definition of a composite, nil for leaves.
func (e *Element) Definition() *schema.Node { return e.def }

// Valid reports the result of the last validation of this element.
func (e *Element) Valid() bool { return e.valid }

// Containers returns the repetition containers of a composite in order.
func (e *Element) Containers() []*Container { return e.containers }

// IsSet reports whether a leaf holds a value.
func (e *Element) IsSet() bool { return e.set }

// Value returns a leaf value in caller form: UTF-8 text for alphanumeric
// types, the raw bytes behind a "B" tag for binary types.
func (e *Element) Value() string {
	if !e.set {
		return ""
	}
	if e.binary() {
		return datatype.EncodeBinaryTag(e.value)
	}
	return wire.FromWire(e.value)
}

// WireValue returns a leaf value as stored, without escaping.
func (e *Element) WireValue() string { return e.value }

// Encode serializes the element and its subtree.
func (e *Element) Encode() string { return e.codec.encode(e) }

// Find returns the element at path inside this subtree, or nil.
func (e *Element) Find(path string) *Element {
	if path == e.path {
		return e
	}
	if !Within(path, e.path) {
		return nil
	}
	for _, c := range e.containers {
		for _, inst := range c.elements {
			if Within(path, inst.path) {
				if found := inst.Find(path); found != nil {
					return found
				}
			}
		}
	}
	return nil
}

// Set assigns value to the element at path below this element, creating
// optional branches on the way. An already assigned leaf is not overwritten.
func (e *Element) Set(path, value string) error {
	return e.propagateRoot(path, value, true, false)
}

// SetAll assigns every pair of values in natural path order.
func (e *Element) SetAll(values map[string]string) error {
	for _, p := range SortedPaths(values) {
		if err := e.Set(p, values[p]); err != nil {
			return err
		}
	}
	return nil
}

// Code returns the segment code of a segment element.
func (e *Element) Code() (string, bool) {
	if e.kind != schema.KindSegment {
		return "", false
	}
	leaf := e.Find(e.path + PathSeparator + schema.SegmentCodePath)
	if leaf == nil || !leaf.set {
		return "", false
	}
	return leaf.Value(), true
}

// SetSequence writes the segment number of a segment element. Without
// overwrite, an already numbered segment keeps its number.
func (e *Element) SetSequence(n int, overwrite bool) error {
	leaf := e.seqLeaf()
	if leaf == nil {
		return codecerror.NoSuchPath(e.path + PathSeparator + schema.SegmentSeqPath)
	}
	if leaf.set && !overwrite {
		return nil
	}
	return leaf.assign(strconv.Itoa(n), true)
}

// Sequence returns the segment number of a segment element.
func (e *Element) Sequence() (string, bool) {
	leaf := e.seqLeaf()
	if leaf == nil || !leaf.set {
		return "", false
	}
	return leaf.value, true
}

func (e *Element) seqLeaf() *Element {
	if e.kind != schema.KindSegment {
		return nil
	}
	return e.Find(e.path + PathSeparator + schema.SegmentSeqPath)
}

// Values flattens the subtree into leaf path/value pairs. After validation,
// leaves inside invalid elements are left out.
func (e *Element) Values() map[string]string {
	out := make(map[string]string)
	e.collect(out)
	return out
}

func (e *Element) collect(out map[string]string) {
	if e.checked && !e.valid {
		return
	}
	if e.kind == schema.KindElement {
		if e.set {
			out[e.path] = e.Value()
		}
		return
	}
	for _, c := range e.containers {
		for _, inst := range c.elements {
			inst.collect(out)
		}
	}
}

// Segments returns the segments that will be serialized, in wire order.
func (e *Element) Segments() []*Element {
	var out []*Element
	e.collectSegments(&out)
	return out
}

func (e *Element) collectSegments(out *[]*Element) {
	if !e.valid {
		return
	}
	if e.kind == schema.KindSegment {
		*out = append(*out, e)
		return
	}
	for _, c := range e.containers {
		for _, inst := range c.elements {
			inst.collectSegments(out)
		}
	}
}

// walkValidSegments visits the numbered segments that will be serialized.
func (e *Element) walkValidSegments(fn func(*Element)) {
	if !e.valid {
		return
	}
	if e.kind == schema.KindSegment {
		if e.seqLeaf() != nil {
			fn(e)
		}
		return
	}
	for _, c := range e.containers {
		for _, inst := range c.elements {
			inst.walkValidSegments(fn)
		}
	}
}

// walkSegments visits every numbered segment of the tree.
func (e *Element) walkSegments(fn func(*Element)) {
	if e.kind == schema.KindSegment {
		if e.seqLeaf() != nil {
			fn(e)
		}
		return
	}
	for _, c := range e.containers {
		for _, inst := range c.elements {
			inst.walkSegments(fn)
		}
	}
}

func (e *Element) binary() bool {
	return e.kind == schema.KindElement && e.ref.DataType().Binary()
}

// ancestors returns the chain from the root down to e, e included.
func (e *Element) ancestors() []*Element {
	var chain []*Element
	for a := e; a != nil; a = a.parent {
		chain = append(chain, a)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// fixedValue looks up the value the schema fixes for this leaf. Definitions
// further out take precedence over inner ones.
func (e *Element) fixedValue() (string, bool) {
	for _, a := range e.ancestors() {
		if a.def == nil || len(a.def.Values) == 0 {
			continue
		}
		rel, ok := Relative(e.path, a.path)
		if !ok {
			continue
		}
		if v, ok := a.def.Values[rel]; ok {
			return v, true
		}
	}
	return "", false
}

// validValues looks up the enumerated values allowed for this leaf.
func (e *Element) validValues() ([]string, bool) {
	for _, a := range e.ancestors() {
		if a.def == nil || len(a.def.Valids) == 0 {
			continue
		}
		rel, ok := Relative(e.path, a.path)
		if !ok {
			continue
		}
		if v, ok := a.def.Valids[rel]; ok {
			return v, true
		}
	}
	return nil, false
}

// declIndex returns the position of ref among the declared children, -1 for
// spliced containers.
func (e *Element) declIndex(ref *schema.Ref) int {
	for i, r := range e.def.Children {
		if r == ref {
			return i
		}
	}
	return -1
}

// container returns the container holding declaration ref.
func (e *Element) container(ref *schema.Ref) *Container {
	for _, c := range e.containers {
		if c.ref == ref {
			return c
		}
	}
	return nil
}

// insertContainer places c so that declared containers stay in schema order.
func (e *Element) insertContainer(c *Container) int {
	idx := e.declIndex(c.ref)
	pos := len(e.containers)
	for i, existing := range e.containers {
		if e.declIndex(existing.ref) > idx {
			pos = i
			break
		}
	}
	e.containers = append(e.containers, nil)
	copy(e.containers[pos+1:], e.containers[pos:])
	e.containers[pos] = c
	return pos
}

func (e *Element) removeContainer(c *Container) {
	for i, existing := range e.containers {
		if existing == c {
			e.containers = append(e.containers[:i], e.containers[i+1:]...)
			return
		}
	}
}
