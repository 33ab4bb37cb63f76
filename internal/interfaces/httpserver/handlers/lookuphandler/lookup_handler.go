package lookuphandler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
	"github.com/definitie-platform/lookup-server/internal/domain/provider"
	"github.com/definitie-platform/lookup-server/internal/infrastructure/observability"
	"github.com/definitie-platform/lookup-server/internal/interfaces/httpserver/responses"
)

const tracerName = "lookup-server"

// LookupHandler serves the REST lookup surface.
type LookupHandler struct {
	engine     *lookup.Engine
	classifier *lookup.Classifier
	registry   *provider.Registry
	validate   *validator.Validate
}

// NewLookupHandler creates the handler.
func NewLookupHandler(engine *lookup.Engine, classifier *lookup.Classifier, registry *provider.Registry) *LookupHandler {
	return &LookupHandler{
		engine:     engine,
		classifier: classifier,
		registry:   registry,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// LookupRequest is the POST /v1/lookup body.
type LookupRequest struct {
	Term       string `json:"term" validate:"required,min=1,max=512"`
	Context    string `json:"context,omitempty" validate:"max=2048"`
	MaxResults int    `json:"max_results,omitempty" validate:"gte=0,lte=50"`
	TimeoutMS  int    `json:"timeout_ms,omitempty" validate:"gte=0,lte=60000"`
}

// LookupResponse is the POST /v1/lookup answer.
type LookupResponse struct {
	Term          string               `json:"term"`
	ContextTokens lookup.ContextTokens `json:"context_tokens"`
	Results       []lookup.Result      `json:"results"`
	Count         int                  `json:"count"`
	ElapsedMS     int64                `json:"elapsed_ms"`
}

// AttemptResponse is one attempts-log record with a millisecond latency.
type AttemptResponse struct {
	Provider   string `json:"provider"`
	Stage      string `json:"stage"`
	Strategy   string `json:"strategy"`
	Query      string `json:"query,omitempty"`
	Status     string `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// AttemptsResponse is the GET /v1/lookup/attempts answer.
type AttemptsResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
	Count    int               `json:"count"`
}

// ProviderResponse is the read-only registry view of one provider.
type ProviderResponse struct {
	ID               string  `json:"id"`
	Family           string  `json:"family"`
	Endpoint         string  `json:"endpoint"`
	RecallBias       string  `json:"recall_bias,omitempty"`
	Weight           float64 `json:"weight"`
	Authoritative    bool    `json:"authoritative"`
	Enabled          bool    `json:"enabled"`
	BreakerThreshold int     `json:"breaker_threshold"`
}

// ProvidersResponse is the GET /v1/providers answer.
type ProvidersResponse struct {
	Providers []ProviderResponse `json:"providers"`
	Count     int                `json:"count"`
}

// Lookup godoc
// @Summary Resolve a term against all enabled providers
// @Description Fans the term out to every enabled provider, runs each provider's staged query cascade under a per-request circuit breaker and returns a confidence-ranked, bounded result list. Provider failures never fail the request; they show up in the attempts log instead.
// @Tags Lookup
// @Accept json
// @Produce json
// @Param request body LookupRequest true "Lookup request"
// @Success 200 {object} LookupResponse
// @Failure 400 {object} responses.ErrorResponse "Invalid request body or empty term"
// @Router /v1/lookup [post]
func (h *LookupHandler) Lookup(c *gin.Context) {
	var body LookupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		responses.HandleValidationError(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		responses.HandleValidationError(c, "invalid request: "+err.Error())
		return
	}

	req := lookup.Request{
		Term:       body.Term,
		Context:    body.Context,
		MaxResults: body.MaxResults,
		Timeout:    time.Duration(body.TimeoutMS) * time.Millisecond,
	}

	ctx, span := observability.StartSpan(c.Request.Context(), tracerName, "LookupHandler.Lookup")
	defer span.End()
	observability.AddSpanAttributes(ctx,
		attribute.String("lookup.term", body.Term),
		attribute.Int("lookup.max_results", body.MaxResults),
	)

	start := time.Now()
	results, err := h.engine.Lookup(ctx, req)
	if err != nil {
		observability.RecordError(ctx, err)
		responses.HandleError(c, err)
		return
	}
	observability.AddSpanAttributes(ctx, attribute.Int("lookup.results", len(results)))

	c.JSON(http.StatusOK, LookupResponse{
		Term:          body.Term,
		ContextTokens: h.classifier.Classify(body.Context),
		Results:       results,
		Count:         len(results),
		ElapsedMS:     time.Since(start).Milliseconds(),
	})
}

// Attempts godoc
// @Summary Attempts log of the most recent lookup
// @Description Returns the append-only per-attempt trail (provider, stage, strategy, status, diagnostic) of the last lookup served by this instance. This is the primary tool for answering why a provider returned nothing.
// @Tags Lookup
// @Produce json
// @Success 200 {object} AttemptsResponse
// @Router /v1/lookup/attempts [get]
func (h *LookupHandler) Attempts(c *gin.Context) {
	attempts := h.engine.LastAttempts()
	out := make([]AttemptResponse, len(attempts))
	for i, a := range attempts {
		out[i] = AttemptResponse{
			Provider:   a.Provider,
			Stage:      a.Stage,
			Strategy:   a.Strategy,
			Query:      a.Query,
			Status:     string(a.Status),
			Diagnostic: a.Diagnostic,
			ElapsedMS:  a.Elapsed.Milliseconds(),
		}
	}
	c.JSON(http.StatusOK, AttemptsResponse{Attempts: out, Count: len(out)})
}

// Providers godoc
// @Summary Read-only provider registry view
// @Tags Lookup
// @Produce json
// @Success 200 {object} ProvidersResponse
// @Router /v1/providers [get]
func (h *LookupHandler) Providers(c *gin.Context) {
	all := h.registry.All()
	out := make([]ProviderResponse, len(all))
	for i, p := range all {
		out[i] = ProviderResponse{
			ID:               p.ID,
			Family:           string(p.Family),
			Endpoint:         p.Endpoint,
			RecallBias:       string(p.RecallBias),
			Weight:           p.Weight,
			Authoritative:    p.Authoritative,
			Enabled:          p.Enabled,
			BreakerThreshold: p.BreakerThreshold,
		}
	}
	c.JSON(http.StatusOK, ProvidersResponse{Providers: out, Count: len(out)})
}
