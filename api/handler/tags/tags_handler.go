package tags

import (
	"net/http"

	"github.com/amamiya-dev/file-bed/api/common"
	"github.com/amamiya-dev/file-bed/internal/tags"
	"github.com/gin-gonic/gin"
)

// Handler 标签处理器
type Handler struct {
	tagService *tags.Service
}

// NewHandler 创建标签处理器
func NewHandler(tagService *tags.Service) *Handler {
	return &Handler{tagService: tagService}
}

// SearchHandlerFunc search tags by name fragment, excluding already-picked names
func (h *Handler) SearchHandlerFunc(c *gin.Context) {
	name := c.Query("name")
	except := c.QueryArray("except")

	result, err := h.tagService.Search(c.Request.Context(), name, except)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
