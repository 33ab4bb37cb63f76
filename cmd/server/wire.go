//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/definitie-platform/lookup-server/internal/domain"
	"github.com/definitie-platform/lookup-server/internal/infrastructure"
	"github.com/definitie-platform/lookup-server/internal/interfaces"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
