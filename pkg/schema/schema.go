// Package schema holds the abstract description of HBCI messages that drives
// both generation and parsing.
//
// A Schema is built once per protocol version by a loader and is read-only
// afterwards: it may be shared by any number of messages being built or parsed
// concurrently. Definitions are indexed by type id when the schema is built,
// so lookups never walk the definition tree.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"fjacquet/hbci-codec/pkg/datatype"
)

// Kind is the element kind of a definition or declaration.
type Kind int

const (
	KindElement  Kind = iota // DE
	KindGroup                // DEG
	KindSegment              // SEG
	KindSequence             // SF
	KindMessage              // MSG
)

var kindNames = map[Kind]string{
	KindElement:  "DE",
	KindGroup:    "DEG",
	KindSegment:  "SEG",
	KindSequence: "SF",
	KindMessage:  "MSG",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind reads a kind name as used in schema files.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("schema: unknown element kind '%s'", s)
}

// InnerDelimiter returns the character separating the children of a
// composite of this kind, or 0 when children are self-delimiting.
func (k Kind) InnerDelimiter() byte {
	switch k {
	case KindGroup:
		return ':'
	case KindSegment:
		return '+'
	}
	return 0
}

// allowedChildren lists which kinds may be declared inside a definition.
var allowedChildren = map[Kind][]Kind{
	KindGroup:    {KindElement, KindGroup},
	KindSegment:  {KindElement, KindGroup},
	KindSequence: {KindSegment, KindSequence},
	KindMessage:  {KindSegment, KindSequence},
}

// Fixed relative names of the segment header and message header leaves.
const (
	SegmentCodePath    = "SegHead.code"
	SegmentSeqPath     = "SegHead.seq"
	SegmentVersionPath = "SegHead.version"
	MessageSizePath    = "MsgHead.msgsize"
)

// singleSegmentSequences are sequences in which every parsed segment closes
// the current occurrence, see Node.SingleSegment.
var singleSegmentSequences = map[string]bool{
	"Params": true,
	"GVRes":  true,
}

// Ref declares one sub-element of a definition.
type Ref struct {
	Kind Kind
	// Type is the id of a composite definition or, for DE, a data type name.
	Type    string
	Name    string
	MinNum  int
	MaxNum  int
	MinSize int
	// MaxSize of 0 means unbounded.
	MaxSize int

	def   *Node
	dtype datatype.Type
}

// Def returns the resolved definition of a composite declaration.
func (r *Ref) Def() *Node { return r.def }

// DataType returns the resolved data type of a DE declaration.
func (r *Ref) DataType() datatype.Type { return r.dtype }

// Optional reports whether zero occurrences are allowed.
func (r *Ref) Optional() bool { return r.MinNum == 0 }

// Node describes one element type.
type Node struct {
	Kind     Kind
	ID       string
	Children []*Ref
	// Values fixes leaf values by path relative to this definition.
	Values map[string]string
	// Valids restricts leaf values by path relative to this definition.
	Valids          map[string][]string
	NeedsRequestTag bool
	DontSign        bool
	DontCrypt       bool

	segCode    string
	segVersion string
	single     bool
}

// SegmentCode returns the code fixed for a segment definition, if any.
func (n *Node) SegmentCode() string { return n.segCode }

// SegmentVersion returns the version fixed for a segment definition, if any.
func (n *Node) SegmentVersion() string { return n.segVersion }

// SingleSegment reports whether each occurrence of this sequence holds
// exactly one segment. The bank parameter and job response sequences are
// followed on the wire by optional template segments that would otherwise be
// indistinguishable from further segments of the same occurrence.
func (n *Node) SingleSegment() bool { return n.single }

// Child returns the declaration named name.
func (n *Node) Child(name string) (*Ref, bool) {
	for _, r := range n.Children {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Schema is an immutable, indexed set of definitions for one protocol version.
type Schema struct {
	version string
	nodes   map[string]*Node
}

// Version returns the protocol version the schema describes.
func (s *Schema) Version() string { return s.version }

// Lookup returns the definition with the given type id.
func (s *Schema) Lookup(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Message returns the message definition with the given name.
func (s *Schema) Message(name string) (*Node, error) {
	n, ok := s.nodes[name]
	if !ok || n.Kind != KindMessage {
		return nil, &Error{TypeID: name, Reason: "no such message"}
	}
	return n, nil
}

// Messages lists the message names in sorted order.
func (s *Schema) Messages() []string {
	var names []string
	for id, n := range s.nodes {
		if n.Kind == KindMessage {
			names = append(names, id)
		}
	}
	sort.Strings(names)
	return names
}

// Declare creates a resolved declaration of the composite type typeID under
// the given name. It is used for roots and for segments spliced into a tree
// outside the declared structure.
func (s *Schema) Declare(typeID, name string, minNum, maxNum int) (*Ref, error) {
	n, ok := s.nodes[typeID]
	if !ok {
		return nil, &Error{TypeID: typeID, Reason: "no such type"}
	}
	if name == "" {
		name = typeID
	}
	if maxNum < 1 || minNum < 0 || minNum > maxNum {
		return nil, &Error{TypeID: typeID, Reason: fmt.Sprintf("invalid occurrence bounds [%d..%d]", minNum, maxNum)}
	}
	return &Ref{Kind: n.Kind, Type: typeID, Name: name, MinNum: minNum, MaxNum: maxNum, def: n}, nil
}

// Len returns the number of definitions.
func (s *Schema) Len() int { return len(s.nodes) }

// Error reports an inconsistent schema.
type Error struct {
	TypeID string
	Reason string
}

func (e *Error) Error() string {
	if e.TypeID == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: type '%s': %s", e.TypeID, e.Reason)
}
