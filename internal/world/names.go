package world

import "sort"

// NoSelection is the leading entry of NamesOf. Entity names are never empty,
// so it cannot collide with a real name.
const NoSelection = ""

// Names returns every distinct entity name across the keyed sections,
// sorted lexicographically.
func Names(m *WorldModel) []string {
	if m == nil {
		return []string{}
	}
	seen := make(map[string]struct{})
	for _, s := range KeyedSections {
		for name := range m.keyed(s) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesOf is Names prefixed with NoSelection, the list a selection control
// offers.
func NamesOf(m *WorldModel) []string {
	return append([]string{NoSelection}, Names(m)...)
}

// ResolveSelection returns selected if it is still offered by names and
// NoSelection otherwise.
func ResolveSelection(names []string, selected string) string {
	for _, name := range names {
		if name == selected {
			return selected
		}
	}
	return NoSelection
}
