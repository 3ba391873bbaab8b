package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldforge/internal/config"
	"worldforge/internal/generate"
	"worldforge/internal/store"
)

type Server struct {
	session *generate.Session
	archive store.Store
	genCfg  config.GeneratorConfig
	mcp     *sdk.Server
}

// NewServer exposes session over MCP. archive may be nil, in which case the
// save and load tools report an error.
func NewServer(session *generate.Session, archive store.Store, genCfg config.GeneratorConfig, version string) *Server {
	s := &Server{
		session: session,
		archive: archive,
		genCfg:  genCfg,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldforge",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
