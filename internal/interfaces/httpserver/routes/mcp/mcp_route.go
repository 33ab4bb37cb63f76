package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/responses"
)

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,

	// Prompts
	"prompts/list": true,

	// Resources
	"resources/list":           true,
	"resources/templates/list": true,
}

// MCPRoute serves the Model Context Protocol surface over streamable HTTP.
type MCPRoute struct {
	lookupMCP   *LookupMCP
	mcpServer   *mcp.Server
	httpHandler http.Handler
}

// NewMCPRoute builds the MCP server with all lookup tools registered.
func NewMCPRoute(lookupMCP *LookupMCP) *MCPRoute {
	impl := &mcp.Implementation{
		Name:    "definitie-lookup",
		Version: "1.0.0",
	}
	server := mcp.NewServer(impl, nil)
	lookupMCP.RegisterTools(server)

	return &MCPRoute{
		lookupMCP: lookupMCP,
		mcpServer: server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

// RegisterRouter mounts the MCP endpoint on the given group.
func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		route.serveMCP,
	)
}

// serveMCP streams Model Context Protocol responses using the underlying MCP server.
// @Summary MCP endpoint for lookup tools
// @Description Handles Model Context Protocol (MCP) requests over HTTP. Supported methods: initialize, ping, tools/list, tools/call.
// @Description
// @Description **Available Tools:**
// @Description - `lookup_term`: resolve a term with optional context (params: term, context, max_results, timeout_ms). Returns ranked definition snippets with source links.
// @Description - `lookup_attempts`: attempts log of the most recent lookup.
// @Tags MCP API
// @Accept json
// @Produce text/event-stream
// @Param request body object true "MCP JSON-RPC request payload (e.g., {\"jsonrpc\":\"2.0\",\"method\":\"tools/list\",\"id\":1})"
// @Success 200 {string} string "Streamed MCP response in SSE format"
// @Failure 400 {object} responses.ErrorResponse "Invalid MCP request payload or unsupported method"
// @Router /v1/mcp [post]
func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// Force acceptable content types for the go-sdk streamable handler even if
	// the client omits Accept.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

// MCPMethodGuard rejects JSON-RPC methods outside the allowlist before they
// reach the SDK handler.
func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			responses.HandleValidationError(reqCtx, "failed to read MCP request body")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleValidationError(reqCtx, "empty MCP request body")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleValidationError(reqCtx, "invalid MCP request payload")
			return
		}
		if payload.Method == "" {
			responses.HandleValidationError(reqCtx, "missing method field in MCP request")
			return
		}
		if !allowedMethods[payload.Method] {
			responses.HandleValidationError(reqCtx, "unsupported MCP method: "+payload.Method)
			return
		}

		reqCtx.Next()
	}
}
