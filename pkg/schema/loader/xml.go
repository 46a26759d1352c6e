package loader

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"fjacquet/hbci-codec/pkg/schema"

	"gopkg.in/xmlpath.v2"
)

// xmlLoader reads the classic HBCI syntax description layout:
//
//	<hbci version="300">
//	  <DEGs><DEGdef id="BTG"><DE name="value" type="Wrt"/>...</DEGdef></DEGs>
//	  <SEGs><SEGdef id="Ueb">...<value path="SegHead.code">HKUEB</value></SEGdef></SEGs>
//	  <SFs>...</SFs>
//	  <MSGs>...</MSGs>
//	</hbci>
type xmlLoader struct{}

var (
	rootPath    = xmlpath.MustCompile("/hbci")
	versionPath = xmlpath.MustCompile("/hbci/@version")
)

// xmlNode keeps child elements in document order, which the declaration
// order of a definition depends on.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n xmlNode) intAttr(name string) (*int, error) {
	s := n.attr(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("attribute %s of <%s>: %w", name, n.XMLName.Local, err)
	}
	return &v, nil
}

func (n xmlNode) flag(name string) bool {
	switch strings.ToLower(n.attr(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (xmlLoader) Format() string { return "xml" }

func (xmlLoader) Load(data []byte) (*schema.Schema, error) {
	version, err := SniffXML(data)
	if err != nil {
		return nil, err
	}

	var top xmlNode
	if err := xml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	b := schema.NewBuilder(version)
	for _, section := range top.Nodes {
		for _, def := range section.Nodes {
			n, err := xmlDefinition(def)
			if err != nil {
				return nil, err
			}
			if err := b.Add(n); err != nil {
				return nil, err
			}
		}
	}
	return b.Build()
}

// SniffXML checks that data is an HBCI syntax description and returns its
// version.
func SniffXML(data []byte) (string, error) {
	root, err := xmlpath.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("file is not valid XML: %w", err)
	}
	if iter := rootPath.Iter(root); !iter.Next() {
		return "", fmt.Errorf("not an HBCI syntax description (no <hbci> root)")
	}
	version, ok := versionPath.String(root)
	if !ok || strings.TrimSpace(version) == "" {
		return "", fmt.Errorf("HBCI syntax description has no version attribute")
	}
	return strings.TrimSpace(version), nil
}

func xmlDefinition(def xmlNode) (*schema.Node, error) {
	name := def.XMLName.Local
	if !strings.HasSuffix(name, "def") {
		return nil, fmt.Errorf("unexpected element <%s> in definition section", name)
	}
	kind, err := schema.ParseKind(strings.TrimSuffix(name, "def"))
	if err != nil {
		return nil, err
	}

	n := &schema.Node{
		Kind:            kind,
		ID:              def.attr("id"),
		NeedsRequestTag: def.flag("needsRequestTag"),
		DontSign:        def.flag("dontsign"),
		DontCrypt:       def.flag("dontcrypt"),
	}

	for _, c := range def.Nodes {
		switch c.XMLName.Local {
		case "value":
			if n.Values == nil {
				n.Values = make(map[string]string)
			}
			n.Values[c.attr("path")] = strings.TrimSpace(c.Text)
		case "valids":
			if n.Valids == nil {
				n.Valids = make(map[string][]string)
			}
			path := c.attr("path")
			for _, v := range c.Nodes {
				if v.XMLName.Local == "validvalue" {
					n.Valids[path] = append(n.Valids[path], strings.TrimSpace(v.Text))
				}
			}
		default:
			k, err := schema.ParseKind(c.XMLName.Local)
			if err != nil {
				return nil, fmt.Errorf("type '%s': %w", n.ID, err)
			}
			minNum, err := c.intAttr("minnum")
			if err != nil {
				return nil, fmt.Errorf("type '%s': %w", n.ID, err)
			}
			maxNum, err := c.intAttr("maxnum")
			if err != nil {
				return nil, fmt.Errorf("type '%s': %w", n.ID, err)
			}
			minSize, err := c.intAttr("minsize")
			if err != nil {
				return nil, fmt.Errorf("type '%s': %w", n.ID, err)
			}
			maxSize, err := c.intAttr("maxsize")
			if err != nil {
				return nil, fmt.Errorf("type '%s': %w", n.ID, err)
			}
			n.Children = append(n.Children, newRef(k, c.attr("type"), c.attr("name"), minNum, maxNum, deref(minSize), deref(maxSize)))
		}
	}
	return n, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
