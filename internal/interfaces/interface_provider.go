package interfaces

import (
	"github.com/google/wire"

	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver"
)

// InterfacesProvider provides all interface layer dependencies
var InterfacesProvider = wire.NewSet(
	httpserver.NewHTTPServer,
)
