package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookdrop/internal/domain/session"
	"bookdrop/internal/domain/upload"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleError maps domain errors to HTTP responses.
func HandleError(c *gin.Context, err error) {
	var validationErr *upload.ValidationError
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrForbidden):
		// Hint the client to drop the connection rather than retry.
		c.Header("Connection", "close")
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrCapacity):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Reason})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
