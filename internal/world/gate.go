package world

// Gate tracks whether the generation backend has been set up.
type Gate struct {
	initialized bool
	providerKey string
}

// Initialize records a successful backend setup. Calling it again with a
// different key overwrites the previous one.
func (g *Gate) Initialize(providerKey string) {
	g.initialized = true
	g.providerKey = providerKey
}

func (g *Gate) IsReady() bool {
	return g.initialized
}

func (g *Gate) ProviderKey() string {
	return g.providerKey
}
