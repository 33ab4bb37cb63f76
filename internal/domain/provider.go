package domain

import (
	"github.com/google/wire"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	lookup.NewClassifier,
	lookup.NewPlanner,
	lookup.NewAggregator,
	lookup.NewEngine,
)
