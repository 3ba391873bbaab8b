package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"worldforge/internal/world"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog describes, per section, what a producer asks for and which
// categories a generation fills in.
type Catalog struct {
	Version  int              `yaml:"version"`
	Sections []SectionCatalog `yaml:"sections"`

	index map[world.Section]*SectionCatalog
}

type SectionCatalog struct {
	Name       string   `yaml:"name"`
	Inputs     []Input  `yaml:"inputs"`
	Categories []string `yaml:"categories"`
}

type Input struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return parseCatalog(data)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	catalog, err := parseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return catalog
}

// DefaultCatalogYAML returns the source of the built-in catalog.
func DefaultCatalogYAML() []byte {
	return append([]byte(nil), defaultCatalog...)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	if err := validateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	catalog.index = make(map[world.Section]*SectionCatalog)
	for i := range catalog.Sections {
		section := &catalog.Sections[i]
		catalog.index[world.Section(strings.ToLower(section.Name))] = section
	}

	return &catalog, nil
}

func validateCatalog(c *Catalog) error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}

	seen := make(map[world.Section]struct{})
	for i, section := range c.Sections {
		if strings.TrimSpace(section.Name) == "" {
			return fmt.Errorf("section %d name is required", i)
		}
		name, err := world.ParseSection(section.Name)
		if err != nil {
			return err
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate section: %s", section.Name)
		}
		seen[name] = struct{}{}

		if name.Kind() != world.KindOrdered && len(section.Categories) == 0 {
			return fmt.Errorf("section %s has no categories", section.Name)
		}

		inputs := make(map[string]struct{})
		for _, input := range section.Inputs {
			key := strings.ToLower(strings.TrimSpace(input.Name))
			if key == "" {
				return fmt.Errorf("section %s has input with empty name", section.Name)
			}
			if _, exists := inputs[key]; exists {
				return fmt.Errorf("section %s has duplicate input: %s", section.Name, input.Name)
			}
			inputs[key] = struct{}{}
		}
		if name.Kind() == world.KindKeyed {
			if _, ok := inputs["name"]; !ok {
				return fmt.Errorf("section %s must declare a name input", section.Name)
			}
		}

		categories := make(map[string]struct{})
		for _, category := range section.Categories {
			key := strings.ToLower(strings.TrimSpace(category))
			if key == "" {
				return fmt.Errorf("section %s has empty category", section.Name)
			}
			if _, exists := categories[key]; exists {
				return fmt.Errorf("section %s has duplicate category: %s", section.Name, category)
			}
			categories[key] = struct{}{}
		}
	}

	return nil
}

func (c *Catalog) Section(s world.Section) (*SectionCatalog, bool) {
	if c == nil {
		return nil, false
	}
	section, ok := c.index[s]
	return section, ok
}

// MissingInputs lists the required inputs of s absent or blank in input.
func (c *Catalog) MissingInputs(s world.Section, input map[string]string) []string {
	section, ok := c.Section(s)
	if !ok {
		return nil
	}
	var missing []string
	for _, in := range section.Inputs {
		if in.Required && strings.TrimSpace(input[in.Name]) == "" {
			missing = append(missing, in.Name)
		}
	}
	return missing
}
