package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lrz80/chatbot-backend-sub001/platform/apperr"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// FromError maps a domain error onto the wire: typed errors keep their status
// and message, everything else becomes an opaque 500.
func FromError(c *gin.Context, err error) {
	if typed, ok := err.(*apperr.Error); ok {
		Error(c, typed.HTTPStatus(), typed.Message, nil)
		return
	}
	Error(c, http.StatusInternalServerError, "internal error", nil)
}
