package loader

import (
	"fmt"

	"fjacquet/hbci-codec/pkg/schema"

	"gopkg.in/yaml.v3"
)

type yamlLoader struct{}

func (yamlLoader) Format() string { return "yaml" }

func (yamlLoader) Load(data []byte) (*schema.Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return doc.build()
}
