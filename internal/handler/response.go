package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/realsbd/bicxchange/internal/service"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// invalid answers 422 for a body, query or path that failed binding.
func invalid(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, e := range verrs {
			out = append(out, fieldError{Field: e.Namespace(), Rule: e.Tag(), Param: e.Param()})
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"msg": "invalid params", "errors": out})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"msg": "invalid params", "errors": []string{err.Error()}})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInactiveUser), errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail maps a service error to its status. Unexpected errors are recorded on
// the context for the request log and hidden from the client.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"msg": "internal server error"})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"msg": err.Error()})
}

type idURI struct {
	ID string `uri:"id" binding:"required"`
}

func bindID(c *gin.Context) (string, bool) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		invalid(c, err)
		return "", false
	}
	return uri.ID, true
}
