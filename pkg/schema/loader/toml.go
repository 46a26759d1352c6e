package loader

import (
	"fmt"

	"fjacquet/hbci-codec/pkg/schema"

	"github.com/BurntSushi/toml"
)

type tomlLoader struct{}

func (tomlLoader) Format() string { return "toml" }

func (tomlLoader) Load(data []byte) (*schema.Schema, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown TOML keys: %v", undecoded)
	}
	return doc.build()
}
