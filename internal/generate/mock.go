package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/world"
)

// Mock is an offline generator returning canned text picked by category
// keyword.
type Mock struct {
	catalog *config.Catalog
	latency time.Duration
}

func NewMock(catalog *config.Catalog, latency time.Duration) *Mock {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	return &Mock{catalog: catalog, latency: latency}
}

var cannedText = []struct {
	keywords []string
	text     string
}{
	{[]string{"geography"}, "The land features vast mountain ranges with deep valleys carved by ancient rivers. The central plains give way to dense forests in the east and arid badlands in the west. Notable features include the Whispering Peaks and the Sunken City ruins near the coast."},
	{[]string{"climate"}, "A temperate climate dominates the central regions with distinct seasons. Coastal areas experience mild, wet winters and warm, dry summers. The mountains have harsh, snowy winters, while the western badlands are extremely hot and arid year-round."},
	{[]string{"flora", "fauna"}, "Native plants include the luminescent moon lily and the hardy thornroot. Common animals are the six-legged mountain strider, the crystal-shelled desert crawler and the winged shadow serpents of the eastern forests."},
	{[]string{"resources"}, "The mountains are rich in sky-iron ore and rare energy crystals. The forests provide timber and medicinal herbs, while the plains are fertile for grain and sky-grapes. The badlands hold deposits of volatile sunstone."},
	{[]string{"history", "origin", "legend"}, "Ancient Era: dominated by the Sky Titans. Age of Shadow: a long decline after the Titans vanished. The Sundering: a magical cataclysm that reshaped the land. Current Age: exploration and rebuilding, marked by tension between emerging factions."},
	{[]string{"customs", "traditions"}, "Coming-of-age rituals involve a solitary journey into the wilderness. Knowledge passes through oral histories kept by Lorekeepers, and seasonal festivals celebrate the harvest and the longest night."},
	{[]string{"religion", "values", "ideology"}, "Most cultures practice animism, worshipping local nature spirits. The Mountain Mother and the Sky Father are prominent, while the Path of Whispers seeks lost Titan knowledge."},
	{[]string{"language"}, "A common trade tongue is spoken across regions alongside distinct dialects. Highland greeting: 'Varesh-na!' (May the peaks watch over you). The written script resembles angular constellations."},
	{[]string{"appearance"}, "Tall and weathered, with intricate braided hair and layered hides marked by tribal tattoos."},
	{[]string{"personality"}, "Reserved with strangers but fiercely loyal to kin. Values practicality, resilience and community, and is superstitious about ancient ruins."},
	{[]string{"backstory"}, "Born under an unusual comet sign and trained from youth in survival lore. Left home after a clan dispute, carrying only an ancestral blade and a map fragment."},
	{[]string{"skills", "powers", "abilities"}, "Expert tracker and navigator using stars and landmarks, proficient in herbalism and versed in ancient runes."},
	{[]string{"aspirations", "goal"}, "Seeks the legendary Sunken City and hopes to understand the true nature of the Sundering before it repeats."},
}

func (m *Mock) Generate(ctx context.Context, req Request) (any, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	switch req.Section.Kind() {
	case world.KindSingleton:
		return m.categories(req.Section, req.Input), nil
	case world.KindKeyed:
		return m.entity(req), nil
	case world.KindOrdered:
		if req.Section == world.Interactions {
			return m.interaction(req), nil
		}
		return m.chat(req), nil
	default:
		return nil, fmt.Errorf("%w: %q", world.ErrUnknownSection, req.Section)
	}
}

func (m *Mock) categories(section world.Section, input map[string]string) map[string]any {
	out := make(map[string]any)
	entry, ok := m.catalog.Section(section)
	if !ok {
		return out
	}
	subject := subjectOf(input)
	for _, category := range entry.Categories {
		out[category] = textFor(category, subject)
	}
	return out
}

func (m *Mock) entity(req Request) map[string]any {
	name := strings.TrimSpace(req.Input["name"])
	record := map[string]any{}
	for key, value := range req.Input {
		if key == "name" || strings.TrimSpace(value) == "" {
			continue
		}
		record[key] = value
	}
	record["details"] = m.categories(req.Section, req.Input)
	return map[string]any{name: record}
}

func (m *Mock) interaction(req Request) map[string]any {
	first, second := req.Input["entity1"], req.Input["entity2"]
	kind := req.Input["type"]
	setting := req.Input["setting"]
	narrative := fmt.Sprintf("%s and %s meet for a %s. %s Each measures the other carefully; by the end an uneasy understanding is reached, and both leave with new obligations.",
		describe(req.World, first), describe(req.World, second), kind, settingLine(setting))
	return map[string]any{
		"entities": []any{first, second},
		"type":     kind,
		"setting":  setting,
		"result":   narrative,
	}
}

func (m *Mock) chat(req Request) map[string]any {
	message := strings.TrimSpace(req.Input["message"])
	reply := textFor(message, message)
	if strings.HasPrefix(reply, "This is a mock response") {
		reply = fmt.Sprintf("Okay, let's think about '%s'. In this world, that might involve ancient prophecies, hidden guilds, or conflicts over scarce resources. What aspect interests you most?", message)
	}
	return map[string]any{"role": "assistant", "content": reply}
}

func textFor(category, subject string) string {
	lower := strings.ToLower(category)
	for _, entry := range cannedText {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.text
			}
		}
	}
	return fmt.Sprintf("This is a mock response about %s for '%s'. The world is filled with wonders waiting to be discovered.", strings.ReplaceAll(category, "_", " "), subject)
}

func subjectOf(input map[string]string) string {
	for _, key := range []string{"name", "prompt", "societal_structure"} {
		if v := strings.TrimSpace(input[key]); v != "" {
			return v
		}
	}
	return "this world"
}

func describe(m *world.WorldModel, name string) string {
	rec, section, ok := m.Lookup(name)
	if !ok {
		return name
	}
	kind, _ := rec["type"].(string)
	if kind == "" {
		kind, _ = rec["role"].(string)
	}
	if kind == "" {
		kind = strings.TrimSuffix(string(section), "s")
	}
	return fmt.Sprintf("%s (%s)", name, kind)
}

func settingLine(setting string) string {
	if strings.TrimSpace(setting) == "" {
		return ""
	}
	return fmt.Sprintf("The scene unfolds at %s.", setting)
}
