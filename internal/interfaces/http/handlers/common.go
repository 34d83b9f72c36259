// Package handlers contains the HTTP handlers of the API server.  Handlers
// depend on narrow interfaces over the storage and messaging layers so tests
// can drive them with in-memory fakes.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error onto its HTTP status and writes
// the structured body.  Unclassified errors are masked as internal.
func respondError(c *gin.Context, err error) {
	code := appErrors.GetCode(err)
	status := appErrors.HTTPStatusForCode(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}

// queryInt parses an optional integer query parameter.  Absent or malformed
// values fall back to def.
func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
