package report

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: status, Message: message})
}

func badRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message)
}

func notFound(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, message)
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "failed to compute statistics")
}
