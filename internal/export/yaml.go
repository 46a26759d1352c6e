package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const binaryTag = "!!binary"

// yamlCodec uses a flat mapping of path to value. Values that are not valid
// UTF-8, such as raw binary leaves, are written with the !!binary tag.
type yamlCodec struct{}

func (yamlCodec) Format() string { return "yaml" }

func (yamlCodec) Write(w io.Writer, values map[string]string) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range Rows(values) {
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Value}
		if !utf8.ValidString(r.Value) {
			val.Tag = binaryTag
			val.Value = base64.StdEncoding.EncodeToString([]byte(r.Value))
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Path},
			val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return enc.Close()
}

func (yamlCodec) Read(r io.Reader) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of paths to values", root.Line)
	}

	var rows []Row
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: value of '%s' must be a scalar", v.Line, k.Value)
		}
		value := v.Value
		if v.Tag == binaryTag {
			raw, err := base64.StdEncoding.DecodeString(v.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid binary value of '%s': %w", v.Line, k.Value, err)
			}
			value = string(raw)
		}
		rows = append(rows, Row{Path: k.Value, Value: value})
	}
	return fromRows(rows)
}
