package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/handlers/lookuphandler"
)

// LookupRoute mounts the REST lookup endpoints.
type LookupRoute struct {
	handler *lookuphandler.LookupHandler
}

// NewLookupRoute creates the route group around the handler.
func NewLookupRoute(handler *lookuphandler.LookupHandler) *LookupRoute {
	return &LookupRoute{handler: handler}
}

// RegisterRouter mounts the lookup endpoints on the given group.
func (r *LookupRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/lookup", r.handler.Lookup)
	router.GET("/lookup/attempts", r.handler.Attempts)
	router.GET("/providers", r.handler.Providers)
}
