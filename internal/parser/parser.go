package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"worldforge/internal/world"
)

// Document is one lore file: YAML frontmatter between "---" lines followed
// by a free-form body.
type Document struct {
	Title string
	Type  string
	// Fields is the frontmatter without title and type.
	Fields     map[string]any
	Tags       []string
	Body       string
	SourceFile string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
	ErrMissingType   = errors.New("frontmatter missing required 'type' field")
	ErrUnknownType   = errors.New("type does not name an entity section")
)

// typeAliases maps document types to keyed sections. Plural section names are
// accepted as they are.
var typeAliases = map[string]world.Section{
	"faction":   world.Factions,
	"character": world.Characters,
	"npc":       world.Characters,
	"location":  world.Locations,
	"place":     world.Locations,
	"artifact":  world.Artifacts,
	"item":      world.Artifacts,
	"event":     world.Events,
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		if !bytes.HasSuffix(rest, []byte("---")) {
			return nil, ErrNoFrontmatter
		}
		end = len(rest) - len("---")
		rest = append(rest, '\n')
	}

	yamlBytes := rest[:end]
	body := strings.TrimSpace(string(rest[end+len("---\n"):]))

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	docType, ok := frontmatter["type"].(string)
	if !ok || strings.TrimSpace(docType) == "" {
		return nil, ErrMissingType
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(frontmatter))
	for key, value := range frontmatter {
		if key == "title" || key == "type" || key == "tags" {
			continue
		}
		fields[key] = value
	}

	return &Document{
		Title:  strings.TrimSpace(title),
		Type:   strings.TrimSpace(docType),
		Fields: fields,
		Tags:   tags,
		Body:   body,
	}, nil
}

// Section resolves the document type to the keyed section it belongs in.
func (d *Document) Section() (world.Section, error) {
	key := strings.ToLower(d.Type)
	if s, ok := typeAliases[key]; ok {
		return s, nil
	}
	s, err := world.ParseSection(key)
	if err != nil || s.Kind() != world.KindKeyed {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, d.Type)
	}
	return s, nil
}

// Record is the entry stored under the document title.
func (d *Document) Record() world.Record {
	rec := make(world.Record, len(d.Fields)+2)
	for key, value := range d.Fields {
		rec[key] = value
	}
	if len(d.Tags) > 0 {
		tags := make([]any, len(d.Tags))
		for i, tag := range d.Tags {
			tags[i] = tag
		}
		rec["tags"] = tags
	}
	if d.Body != "" {
		rec["body"] = d.Body
	}
	return rec
}

func parseTags(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags = append(tags, s)
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}
}
