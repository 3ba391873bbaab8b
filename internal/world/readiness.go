package world

// prerequisites maps a section to the sections that must be populated before
// it can be generated. The capability gate is checked separately.
var prerequisites = map[Section][]Section{
	PhysicalWorld: nil,
	Culture:       {PhysicalWorld},
	Factions:      {PhysicalWorld, Culture},
	Characters:    {Culture},
	Locations:     {PhysicalWorld, Culture},
	Artifacts:     {PhysicalWorld, Culture, Locations},
	Events:        {PhysicalWorld, Culture, Factions, Characters, Locations},
	Interactions:  {PhysicalWorld, Culture, Factions, Characters, Locations},
	ChatHistory:   {PhysicalWorld, Culture},
}

// minNames is the number of distinct entity names a section needs.
var minNames = map[Section]int{
	Interactions: 2,
}

func Prerequisites(s Section) []Section {
	return append([]Section(nil), prerequisites[s]...)
}

// MinNames reports how many distinct entity names s requires.
func MinNames(s Section) int {
	return minNames[s]
}

// MissingPrerequisites lists the prerequisite sections of s that are still
// empty and how many more entity names are needed.
func MissingPrerequisites(m *WorldModel, s Section) ([]Section, int) {
	var missing []Section
	for _, p := range prerequisites[s] {
		if m.IsEmpty(p) {
			missing = append(missing, p)
		}
	}
	needed := 0
	if want := minNames[s]; want > 0 {
		if have := len(Names(m)); have < want {
			needed = want - have
		}
	}
	return missing, needed
}

// IsSectionReady reports whether every content prerequisite of s is met. It
// does not consult the capability gate.
func IsSectionReady(m *WorldModel, s Section) bool {
	if s.Kind() == 0 {
		return false
	}
	missing, needed := MissingPrerequisites(m, s)
	return len(missing) == 0 && needed == 0
}
