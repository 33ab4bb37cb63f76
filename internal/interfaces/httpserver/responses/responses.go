package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/definitie-platform/lookup-server/internal/domain/lookup"
)

// ErrorResponse is the shared error envelope for every non-2xx answer.
type ErrorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// codeToStatus maps domain error codes to HTTP status codes. Codes other than
// INVALID_REQUEST never normally escape the engine; should one surface anyway
// it reads as an upstream failure, not a caller mistake.
func codeToStatus(code lookup.Code) int {
	switch code {
	case lookup.CodeInvalidRequest:
		return http.StatusBadRequest
	case lookup.CodeTimeout:
		return http.StatusGatewayTimeout
	case lookup.CodeTransport, lookup.CodeDiagnostic, lookup.CodeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError translates a domain error into the shared envelope and aborts
// the request.
func HandleError(reqCtx *gin.Context, err error) {
	requestID := reqCtx.GetString("request_id")

	var le *lookup.Error
	if errors.As(err, &le) {
		reqCtx.AbortWithStatusJSON(codeToStatus(le.Code), ErrorResponse{
			Code:      string(le.Code),
			Error:     le.Message,
			RequestID: requestID,
		})
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Code:      "INTERNAL",
		Error:     err.Error(),
		RequestID: requestID,
	})
}

// HandleValidationError rejects a malformed request body at the route layer.
func HandleValidationError(reqCtx *gin.Context, message string) {
	reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Code:      string(lookup.CodeInvalidRequest),
		Error:     message,
		RequestID: reqCtx.GetString("request_id"),
	})
}
