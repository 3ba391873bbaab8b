package validate

import (
	"fmt"
	"sort"
	"strings"

	"worldforge/internal/config"
	"worldforge/internal/world"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDanglingReference = "dangling_reference"
	codeSharedName        = "shared_name"
	codeEmptySection      = "empty_section"
	codeMissingRequired   = "missing_required_field"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Section  string   `json:"section,omitempty"`
	Entity   string   `json:"entity,omitempty"`
	FilePath string   `json:"file_path,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of issues with the given severity.
func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// references lists the record fields that name other entities.
var references = map[world.Section][]string{
	world.Characters:   {"faction"},
	world.Artifacts:    {"location"},
	world.Events:       {"location"},
	world.Interactions: {"entities"},
}

// Run checks a world snapshot for cross-references that point nowhere and
// other suspicious content. The catalog may be nil.
func Run(m *world.WorldModel, catalog *config.Catalog) (*Report, error) {
	if m == nil {
		return nil, fmt.Errorf("world is required")
	}

	known := make(map[string]bool)
	for _, name := range world.Names(m) {
		known[name] = true
	}

	issues := make([]Issue, 0)
	issues = append(issues, checkEmptySections(m)...)
	issues = append(issues, checkSharedNames(m)...)
	for _, section := range world.KeyedSections {
		for _, name := range sortedNames(m.Keyed(section)) {
			rec := m.Keyed(section)[name]
			issues = append(issues, checkReferences(section, name, rec, known)...)
			issues = append(issues, checkRequired(section, name, rec, catalog)...)
		}
	}
	for i, rec := range m.Interactions {
		label := fmt.Sprintf("#%d", i+1)
		if id, ok := rec["id"].(string); ok && id != "" {
			label = id
		}
		issues = append(issues, checkReferences(world.Interactions, label, rec, known)...)
	}

	return &Report{Issues: issues}, nil
}

func checkEmptySections(m *world.WorldModel) []Issue {
	var issues []Issue
	for _, section := range world.AllSections {
		if section == world.ChatHistory || !m.IsEmpty(section) {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeEmptySection,
			Message:  fmt.Sprintf("section %s has no content", section),
			Section:  string(section),
		})
	}
	return issues
}

func checkSharedNames(m *world.WorldModel) []Issue {
	owners := make(map[string][]string)
	for _, section := range world.KeyedSections {
		for name := range m.Keyed(section) {
			owners[name] = append(owners[name], string(section))
		}
	}

	var issues []Issue
	for _, name := range world.Names(m) {
		sections := owners[name]
		if len(sections) < 2 {
			continue
		}
		sort.Strings(sections)
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeSharedName,
			Message:  fmt.Sprintf("name used in several sections: %s", strings.Join(sections, ", ")),
			Entity:   name,
		})
	}
	return issues
}

func checkReferences(section world.Section, name string, rec world.Record, known map[string]bool) []Issue {
	var issues []Issue
	for _, field := range references[section] {
		for _, target := range resolveFieldValue(rec[field]) {
			if target == "" || known[target] {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDanglingReference,
				Message:  fmt.Sprintf("%s refers to unknown entity %q", field, target),
				Section:  string(section),
				Entity:   name,
				FilePath: sourceOf(rec),
			})
		}
	}
	return issues
}

func checkRequired(section world.Section, name string, rec world.Record, catalog *config.Catalog) []Issue {
	if catalog == nil {
		return nil
	}
	entry, ok := catalog.Section(section)
	if !ok {
		return nil
	}

	var issues []Issue
	for _, input := range entry.Inputs {
		if !input.Required || input.Name == "name" {
			continue
		}
		if present(rec[input.Name]) {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeMissingRequired,
			Message:  fmt.Sprintf("missing required field: %s", input.Name),
			Section:  string(section),
			Entity:   name,
			FilePath: sourceOf(rec),
		})
	}
	return issues
}

func resolveFieldValue(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{strings.TrimSpace(v)}
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, strings.TrimSpace(s))
			}
		}
		return values
	case []string:
		return v
	default:
		return nil
	}
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

func sourceOf(rec world.Record) string {
	s, _ := rec["source"].(string)
	return s
}

func sortedNames(m map[string]world.Record) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
