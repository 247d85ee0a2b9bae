package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/student-management/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data})
}

// Accepted responds with HTTP 202 for work that continues in the background.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(StatusFor(appErr), Envelope{Error: appErr})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(err *appErrors.Error) int {
	switch err.Code {
	case appErrors.ErrValidation.Code, appErrors.ErrInvalidArgument.Code:
		return http.StatusBadRequest
	case appErrors.ErrNotFound.Code:
		return http.StatusNotFound
	case appErrors.ErrConflict.Code, appErrors.ErrReferential.Code:
		return http.StatusConflict
	case appErrors.ErrConnectionUnavailable.Code:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
