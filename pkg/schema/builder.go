package schema

import (
	"fmt"
	"slices"

	"fjacquet/hbci-codec/pkg/datatype"
)

// Builder collects definitions and turns them into a Schema.
type Builder struct {
	version string
	nodes   map[string]*Node
	order   []string
}

// NewBuilder starts a schema for the given protocol version.
func NewBuilder(version string) *Builder {
	return &Builder{version: version, nodes: make(map[string]*Node)}
}

// Add registers a definition. Type ids must be unique.
func (b *Builder) Add(n *Node) error {
	if n == nil || n.ID == "" {
		return &Error{Reason: "definition without id"}
	}
	if _, dup := b.nodes[n.ID]; dup {
		return &Error{TypeID: n.ID, Reason: "duplicate definition"}
	}
	if n.Kind == KindElement {
		return &Error{TypeID: n.ID, Reason: "DE cannot be defined as a type, declare it inline"}
	}
	b.nodes[n.ID] = n
	b.order = append(b.order, n.ID)
	return nil
}

// Build resolves every declaration, checks the definition graph and returns
// the immutable schema. The builder must not be used afterwards.
func (b *Builder) Build() (*Schema, error) {
	for _, id := range b.order {
		if err := b.resolve(b.nodes[id]); err != nil {
			return nil, err
		}
	}
	if err := b.checkCycles(); err != nil {
		return nil, err
	}
	return &Schema{version: b.version, nodes: b.nodes}, nil
}

func (b *Builder) resolve(n *Node) error {
	allowed, ok := allowedChildren[n.Kind]
	if !ok {
		return &Error{TypeID: n.ID, Reason: fmt.Sprintf("kind %s cannot be a definition", n.Kind)}
	}
	if len(n.Children) == 0 {
		return &Error{TypeID: n.ID, Reason: "definition has no elements"}
	}

	seen := make(map[string]bool, len(n.Children))
	for _, r := range n.Children {
		if r.Name == "" {
			r.Name = r.Type
		}
		if r.Name == "" {
			return &Error{TypeID: n.ID, Reason: "element without type or name"}
		}
		if seen[r.Name] {
			return &Error{TypeID: n.ID, Reason: fmt.Sprintf("element name '%s' declared twice", r.Name)}
		}
		seen[r.Name] = true

		if !slices.Contains(allowed, r.Kind) {
			return &Error{TypeID: n.ID, Reason: fmt.Sprintf("%s '%s' not allowed inside %s", r.Kind, r.Name, n.Kind)}
		}
		if r.MaxNum < 1 || r.MinNum < 0 || r.MinNum > r.MaxNum {
			return &Error{TypeID: n.ID, Reason: fmt.Sprintf("element '%s' has invalid occurrence bounds [%d..%d]", r.Name, r.MinNum, r.MaxNum)}
		}

		if r.Kind == KindElement {
			dt, err := datatype.Lookup(r.Type)
			if err != nil {
				return &Error{TypeID: n.ID, Reason: fmt.Sprintf("element '%s': %v", r.Name, err)}
			}
			if r.MaxSize > 0 && r.MinSize > r.MaxSize {
				return &Error{TypeID: n.ID, Reason: fmt.Sprintf("element '%s' has invalid size bounds [%d..%d]", r.Name, r.MinSize, r.MaxSize)}
			}
			r.dtype = dt
			continue
		}

		def, ok := b.nodes[r.Type]
		if !ok {
			return &Error{TypeID: n.ID, Reason: fmt.Sprintf("element '%s' references unknown type '%s'", r.Name, r.Type)}
		}
		if def.Kind != r.Kind {
			return &Error{TypeID: n.ID, Reason: fmt.Sprintf("element '%s' declared as %s but type '%s' is %s", r.Name, r.Kind, r.Type, def.Kind)}
		}
		r.def = def
	}

	for p := range n.Values {
		if p == "" {
			return &Error{TypeID: n.ID, Reason: "fixed value with empty path"}
		}
	}
	for p, vs := range n.Valids {
		if p == "" || len(vs) == 0 {
			return &Error{TypeID: n.ID, Reason: fmt.Sprintf("empty valid-value set for path '%s'", p)}
		}
	}

	if n.Kind == KindSegment {
		n.segCode = n.Values[SegmentCodePath]
		n.segVersion = n.Values[SegmentVersionPath]
	}
	n.single = n.Kind == KindSequence && singleSegmentSequences[n.ID]
	return nil
}

// checkCycles rejects definitions that contain themselves, which would make
// tree construction unbounded.
func (b *Builder) checkCycles() error {
	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(b.nodes))

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch state[n.ID] {
		case grey:
			return &Error{TypeID: n.ID, Reason: "definition contains itself"}
		case black:
			return nil
		}
		state[n.ID] = grey
		for _, r := range n.Children {
			if r.def != nil {
				if err := visit(r.def); err != nil {
					return err
				}
			}
		}
		state[n.ID] = black
		return nil
	}

	for _, id := range b.order {
		if err := visit(b.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}
