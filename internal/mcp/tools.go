package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldforge/internal/validate"
	"worldforge/internal/world"
)

var errNoArchive = errors.New("no world archive configured")

type InitializeGeneratorInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"provider key, defaults to the configured provider"`
}

type GenerateSectionInput struct {
	Section string            `json:"section" jsonschema:"section to generate, e.g. physical_world or characters"`
	Input   map[string]string `json:"input,omitempty" jsonschema:"producer input fields for the section"`
}

type GetWorldInput struct {
	Section string `json:"section,omitempty" jsonschema:"restrict the output to one section"`
}

type SectionStatusInput struct{}

type ListNamesInput struct{}

type WorldNameInput struct {
	Name string `json:"name" jsonschema:"archive name of the world"`
}

type ListWorldsInput struct{}

type CheckWorldInput struct{}

type InitializeGeneratorOutput struct {
	Provider string `json:"provider"`
	Ready    bool   `json:"ready"`
}

type GenerateSectionOutput struct {
	Section string `json:"section"`
	Version uint64 `json:"version"`
	Result  any    `json:"result"`
}

type GetWorldOutput struct {
	Version     uint64         `json:"version"`
	Initialized bool           `json:"initialized"`
	Provider    string         `json:"provider,omitempty"`
	Sections    map[string]any `json:"sections"`
}

type SectionStatusOutput struct {
	Ready    bool                 `json:"ready"`
	Provider string               `json:"provider,omitempty"`
	Sections []SectionStatusEntry `json:"sections"`
}

type SectionStatusEntry struct {
	Section     string   `json:"section"`
	Kind        string   `json:"kind"`
	Count       int      `json:"count"`
	Ready       bool     `json:"ready"`
	CanGenerate bool     `json:"can_generate"`
	Loading     bool     `json:"loading"`
	Missing     []string `json:"missing,omitempty"`
	NamesNeeded int      `json:"names_needed,omitempty"`
	LastError   string   `json:"last_error,omitempty"`
}

type ListNamesOutput struct {
	Names []string `json:"names"`
	// Options is the selection list, starting with the empty no-selection
	// entry.
	Options []string `json:"options"`
}

type SaveWorldOutput struct {
	Name   string         `json:"name"`
	Counts map[string]int `json:"counts"`
}

type LoadWorldOutput struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Version uint64 `json:"version"`
}

type WorldSummaryOutput struct {
	Name    string         `json:"name"`
	Counts  map[string]int `json:"counts"`
	SavedAt string         `json:"saved_at"`
}

type ListWorldsOutput struct {
	Worlds []WorldSummaryOutput `json:"worlds"`
}

type CheckWorldOutput struct {
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Issues   []validate.Issue `json:"issues"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "initialize_generator",
		Description: "Select the generation provider and enable generation",
	}, s.handleInitializeGenerator)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_section",
		Description: "Generate content for one world section and merge it into the world",
	}, s.handleGenerateSection)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_world",
		Description: "Return the current world, or one section of it",
	}, s.handleGetWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "section_status",
		Description: "Report which sections can be generated and what they are waiting for",
	}, s.handleSectionStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_names",
		Description: "List the entity names known to the world",
	}, s.handleListNames)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "save_world",
		Description: "Save the current world to the archive under a name",
	}, s.handleSaveWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "load_world",
		Description: "Replace the current world with an archived one",
	}, s.handleLoadWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_worlds",
		Description: "List archived worlds",
	}, s.handleListWorlds)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "check_world",
		Description: "Report dangling references and other consistency issues",
	}, s.handleCheckWorld)
}

func (s *Server) handleInitializeGenerator(ctx context.Context, req *sdk.CallToolRequest, input InitializeGeneratorInput) (*sdk.CallToolResult, InitializeGeneratorOutput, error) {
	cfg := s.genCfg
	if p := strings.TrimSpace(input.Provider); p != "" {
		cfg.Provider = p
	}
	if err := s.session.Initialize(cfg); err != nil {
		return nil, InitializeGeneratorOutput{}, err
	}
	st := s.session.Store()
	return nil, InitializeGeneratorOutput{Provider: st.ProviderKey(), Ready: st.IsReady()}, nil
}

func (s *Server) handleGenerateSection(ctx context.Context, req *sdk.CallToolRequest, input GenerateSectionInput) (*sdk.CallToolResult, GenerateSectionOutput, error) {
	section, err := world.ParseSection(input.Section)
	if err != nil {
		return nil, GenerateSectionOutput{}, err
	}
	producer, err := s.session.Producer(section)
	if err != nil {
		return nil, GenerateSectionOutput{}, err
	}
	result, err := producer.Submit(ctx, input.Input)
	if err != nil {
		return nil, GenerateSectionOutput{}, err
	}
	return nil, GenerateSectionOutput{
		Section: string(section),
		Version: s.session.Store().Version(),
		Result:  result,
	}, nil
}

func (s *Server) handleGetWorld(ctx context.Context, req *sdk.CallToolRequest, input GetWorldInput) (*sdk.CallToolResult, GetWorldOutput, error) {
	st := s.session.Store()
	state := st.GetState()

	sections := world.AllSections
	if strings.TrimSpace(input.Section) != "" {
		section, err := world.ParseSection(input.Section)
		if err != nil {
			return nil, GetWorldOutput{}, err
		}
		sections = []world.Section{section}
	}

	out := GetWorldOutput{
		Version:     st.Version(),
		Initialized: state.IsInitialized,
		Provider:    state.ProviderKey,
		Sections:    make(map[string]any, len(sections)),
	}
	for _, section := range sections {
		out.Sections[string(section)] = sectionContent(state, section)
	}
	return nil, out, nil
}

func (s *Server) handleSectionStatus(ctx context.Context, req *sdk.CallToolRequest, input SectionStatusInput) (*sdk.CallToolResult, SectionStatusOutput, error) {
	st := s.session.Store()
	state := st.GetState()

	out := SectionStatusOutput{
		Ready:    st.IsReady(),
		Provider: st.ProviderKey(),
		Sections: make([]SectionStatusEntry, 0, len(world.AllSections)),
	}
	for _, section := range world.AllSections {
		entry := SectionStatusEntry{
			Section: string(section),
			Kind:    section.Kind().String(),
			Count:   state.Len(section),
			Ready:   world.IsSectionReady(state, section),
		}
		missing, needed := world.MissingPrerequisites(state, section)
		for _, m := range missing {
			entry.Missing = append(entry.Missing, string(m))
		}
		entry.NamesNeeded = needed
		entry.CanGenerate = st.CheckGenerate(section) == nil

		if producer, ok := s.session.Active(section); ok {
			entry.Loading = producer.Loading()
			if lastErr := producer.LastError(); lastErr != nil {
				entry.LastError = lastErr.Error()
			}
			if entry.Loading {
				entry.CanGenerate = false
			}
		}
		out.Sections = append(out.Sections, entry)
	}
	return nil, out, nil
}

func (s *Server) handleListNames(ctx context.Context, req *sdk.CallToolRequest, input ListNamesInput) (*sdk.CallToolResult, ListNamesOutput, error) {
	options := s.session.Store().NamesOf()
	return nil, ListNamesOutput{
		Names:   append([]string{}, options[1:]...),
		Options: options,
	}, nil
}

func (s *Server) handleSaveWorld(ctx context.Context, req *sdk.CallToolRequest, input WorldNameInput) (*sdk.CallToolResult, SaveWorldOutput, error) {
	if s.archive == nil {
		return nil, SaveWorldOutput{}, errNoArchive
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, SaveWorldOutput{}, fmt.Errorf("name is required")
	}
	state := s.session.Store().GetState()
	if err := s.archive.SaveWorld(ctx, name, state); err != nil {
		return nil, SaveWorldOutput{}, err
	}
	counts := make(map[string]int, len(world.AllSections))
	for _, section := range world.AllSections {
		counts[string(section)] = state.Len(section)
	}
	return nil, SaveWorldOutput{Name: name, Counts: counts}, nil
}

func (s *Server) handleLoadWorld(ctx context.Context, req *sdk.CallToolRequest, input WorldNameInput) (*sdk.CallToolResult, LoadWorldOutput, error) {
	if s.archive == nil {
		return nil, LoadWorldOutput{}, errNoArchive
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, LoadWorldOutput{}, fmt.Errorf("name is required")
	}
	m, err := s.archive.LoadWorld(ctx, name)
	if err != nil {
		return nil, LoadWorldOutput{}, err
	}
	if m == nil {
		return nil, LoadWorldOutput{Name: name}, fmt.Errorf("world %q not found", name)
	}
	st := s.session.Store()
	if err := st.Load(m); err != nil {
		return nil, LoadWorldOutput{}, err
	}
	return nil, LoadWorldOutput{Name: name, Found: true, Version: st.Version()}, nil
}

func (s *Server) handleListWorlds(ctx context.Context, req *sdk.CallToolRequest, input ListWorldsInput) (*sdk.CallToolResult, ListWorldsOutput, error) {
	if s.archive == nil {
		return nil, ListWorldsOutput{}, errNoArchive
	}
	summaries, err := s.archive.ListWorlds(ctx)
	if err != nil {
		return nil, ListWorldsOutput{}, err
	}
	output := make([]WorldSummaryOutput, 0, len(summaries))
	for _, summary := range summaries {
		counts := make(map[string]int, len(summary.Counts))
		for section, n := range summary.Counts {
			counts[string(section)] = n
		}
		output = append(output, WorldSummaryOutput{
			Name:    summary.Name,
			Counts:  counts,
			SavedAt: summary.SavedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return nil, ListWorldsOutput{Worlds: output}, nil
}

func (s *Server) handleCheckWorld(ctx context.Context, req *sdk.CallToolRequest, input CheckWorldInput) (*sdk.CallToolResult, CheckWorldOutput, error) {
	report, err := validate.Run(s.session.Store().GetState(), s.session.Catalog())
	if err != nil {
		return nil, CheckWorldOutput{}, err
	}
	return nil, CheckWorldOutput{
		Errors:   report.Count(validate.SeverityError),
		Warnings: report.Count(validate.SeverityWarn),
		Issues:   report.Issues,
	}, nil
}

func sectionContent(m *world.WorldModel, section world.Section) any {
	switch section.Kind() {
	case world.KindSingleton:
		return m.Singleton(section)
	case world.KindKeyed:
		return m.Keyed(section)
	default:
		if section == world.Interactions {
			return m.Interactions
		}
		return m.ChatHistory
	}
}
