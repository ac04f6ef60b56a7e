// internal/api/response.go
package api

import (
	"net/http"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type errorEnvelope struct {
	Success bool             `json:"success"`
	Error   string           `json:"error"`
	Code    errors.ErrorCode `json:"code,omitempty"`
	Details string           `json:"details,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

// respondError maps err onto its HTTP status. Internal failures are logged
// and their detail is not sent to the client.
func respondError(c *gin.Context, log logger.Logger, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	body := errorEnvelope{Error: stdErr.Message, Code: stdErr.Code, Details: stdErr.Details}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{
			"path":  c.FullPath(),
			"code":  stdErr.Code,
			"error": err.Error(),
		})
		body.Details = ""
	}
	c.AbortWithStatusJSON(status, body)
}
