package routes

import (
	"github.com/google/wire"

	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/handlers/lookuphandler"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/routes/mcp"
)

// RoutesProvider provides all route dependencies.
var RoutesProvider = wire.NewSet(
	lookuphandler.NewLookupHandler,
	NewLookupRoute,

	mcp.NewLookupMCP,
	mcp.NewMCPRoute,
)
