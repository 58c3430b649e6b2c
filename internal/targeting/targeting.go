// Package targeting holds the discovery catalog: where and what the agent prospects.
package targeting

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Strategy is one discovery angle rotated across ticks.
type Strategy struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog models the targeting YAML file.
type Catalog struct {
	Districts           []string   `yaml:"districts"`
	PriorityDistricts   []string   `yaml:"priority_districts"`
	Sectors             []string   `yaml:"sectors"`
	Strategies          []Strategy `yaml:"strategies"`
	PriorityProbability float64    `yaml:"priority_probability"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := FromYAML(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded targeting catalog is invalid: %v", err))
	}
	return c
}

// Load reads the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targeting file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates catalog bytes.
func FromYAML(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse targeting yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate ensures the catalog can drive discovery.
func (c *Catalog) Validate() error {
	if len(c.Districts) == 0 {
		return fmt.Errorf("targeting.districts is required")
	}
	if len(c.Sectors) == 0 {
		return fmt.Errorf("targeting.sectors is required")
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("targeting.strategies is required")
	}
	for i, s := range c.Strategies {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("targeting.strategies[%d] has empty name", i)
		}
	}
	if c.PriorityProbability < 0 || c.PriorityProbability > 1 {
		return fmt.Errorf("targeting.priority_probability must be within [0,1]")
	}
	return nil
}
