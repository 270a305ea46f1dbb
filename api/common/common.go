package common

import (
	"net/http"

	"github.com/amamiya-dev/file-bed/internal/apperr"
	"github.com/gin-gonic/gin"
)

// MessageBody 纯消息响应体
type MessageBody struct {
	Message string `json:"message"`
}

// RespondMessage sends a plain message body.
func RespondMessage(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, MessageBody{Message: message})
}

// AbortWithError records the error for the error middleware and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// AbortUnauthorized renders a 401 immediately and stops the chain.
func AbortUnauthorized(c *gin.Context, message string) {
	appErr := apperr.Unauthorized(message)
	c.AbortWithStatusJSON(http.StatusUnauthorized, MessageBody{Message: appErr.Message})
}
