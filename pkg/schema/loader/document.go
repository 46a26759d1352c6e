package loader

import (
	"fmt"

	"fjacquet/hbci-codec/pkg/schema"
)

// document is the structured form shared by the YAML and TOML formats.
type document struct {
	Version string    `yaml:"version" toml:"version"`
	Types   []typeDoc `yaml:"types" toml:"types"`
}

type typeDoc struct {
	ID              string              `yaml:"id" toml:"id"`
	Kind            string              `yaml:"kind" toml:"kind"`
	Elements        []elementDoc        `yaml:"elements" toml:"elements"`
	Values          map[string]string   `yaml:"values" toml:"values"`
	Valids          map[string][]string `yaml:"valids" toml:"valids"`
	NeedsRequestTag bool                `yaml:"needsRequestTag" toml:"needsRequestTag"`
	DontSign        bool                `yaml:"dontsign" toml:"dontsign"`
	DontCrypt       bool                `yaml:"dontcrypt" toml:"dontcrypt"`
}

type elementDoc struct {
	Kind    string `yaml:"kind" toml:"kind"`
	Type    string `yaml:"type" toml:"type"`
	Name    string `yaml:"name" toml:"name"`
	MinNum  *int   `yaml:"minnum" toml:"minnum"`
	MaxNum  *int   `yaml:"maxnum" toml:"maxnum"`
	MinSize int    `yaml:"minsize" toml:"minsize"`
	MaxSize int    `yaml:"maxsize" toml:"maxsize"`
}

func (d *document) build() (*schema.Schema, error) {
	if d.Version == "" {
		return nil, fmt.Errorf("schema document has no version")
	}
	b := schema.NewBuilder(d.Version)
	for _, t := range d.Types {
		n, err := t.node()
		if err != nil {
			return nil, err
		}
		if err := b.Add(n); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func (t typeDoc) node() (*schema.Node, error) {
	kind, err := schema.ParseKind(t.Kind)
	if err != nil {
		return nil, fmt.Errorf("type '%s': %w", t.ID, err)
	}
	n := &schema.Node{
		Kind:            kind,
		ID:              t.ID,
		Values:          t.Values,
		Valids:          t.Valids,
		NeedsRequestTag: t.NeedsRequestTag,
		DontSign:        t.DontSign,
		DontCrypt:       t.DontCrypt,
	}
	for _, e := range t.Elements {
		r, err := e.ref()
		if err != nil {
			return nil, fmt.Errorf("type '%s': %w", t.ID, err)
		}
		n.Children = append(n.Children, r)
	}
	return n, nil
}

func (e elementDoc) ref() (*schema.Ref, error) {
	kind := schema.KindElement
	if e.Kind != "" {
		var err error
		if kind, err = schema.ParseKind(e.Kind); err != nil {
			return nil, err
		}
	}
	return newRef(kind, e.Type, e.Name, e.MinNum, e.MaxNum, e.MinSize, e.MaxSize), nil
}

// newRef applies the declaration defaults: one mandatory occurrence.
func newRef(kind schema.Kind, typ, name string, minNum, maxNum *int, minSize, maxSize int) *schema.Ref {
	r := &schema.Ref{
		Kind:    kind,
		Type:    typ,
		Name:    name,
		MinNum:  1,
		MaxNum:  1,
		MinSize: minSize,
		MaxSize: maxSize,
	}
	if minNum != nil {
		r.MinNum = *minNum
	}
	if maxNum != nil {
		r.MaxNum = *maxNum
	}
	return r
}
