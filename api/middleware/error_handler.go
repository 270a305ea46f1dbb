package middleware

import (
	"log"
	"net/http"

	"github.com/amamiya-dev/file-bed/api/common"
	"github.com/amamiya-dev/file-bed/internal/apperr"
	"github.com/gin-gonic/gin"
)

// ErrorHandler 集中渲染处理器通过 c.Error 上报的错误
// 未识别的错误统一映射为 501，不泄露内部细节
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperr.StatusOf(err)
		if status == http.StatusNotImplemented {
			log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		common.RespondMessage(c, status, apperr.MessageOf(err))
	}
}
