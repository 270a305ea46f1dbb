package files

import (
	"net/http"
	"strconv"

	"github.com/amamiya-dev/file-bed/api/common"
	"github.com/amamiya-dev/file-bed/api/middleware"
	"github.com/amamiya-dev/file-bed/internal/apperr"
	"github.com/amamiya-dev/file-bed/internal/files"
	"github.com/gin-gonic/gin"
)

// Handler 文件处理器
type Handler struct {
	fileService *files.Service
}

// NewHandler 创建文件处理器
func NewHandler(fileService *files.Service) *Handler {
	return &Handler{fileService: fileService}
}

// ListHandlerFunc list current user's files with tags
func (h *Handler) ListHandlerFunc(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.AbortUnauthorized(c, "")
		return
	}

	result, err := h.fileService.List(c.Request.Context(), user.ID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UploadHandlerFunc upload a single file with optional tags
func (h *Handler) UploadHandlerFunc(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.AbortUnauthorized(c, "")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		common.AbortWithError(c, apperr.BadRequest("Please attach the file"))
		return
	}

	fileHeaders := form.File["file"]
	if len(fileHeaders) == 0 {
		common.AbortWithError(c, apperr.BadRequest("Please attach the file"))
		return
	}

	result, err := h.fileService.Upload(c.Request.Context(), user.ID, fileHeaders[0], form.Value["tag"])
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	tags := result.AttachedTags
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, files.FileWithTags{File: *result.File, Tags: tags})
}

// DeleteHandlerFunc delete one of the current user's files
func (h *Handler) DeleteHandlerFunc(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.AbortUnauthorized(c, "")
		return
	}

	fileID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.AbortWithError(c, apperr.NotFound("File doesn't exists"))
		return
	}

	if err := h.fileService.Delete(c.Request.Context(), user.ID, uint(fileID)); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "File deleted")
}

// PublicGetHandlerFunc fetch a file by its public identifier
func (h *Handler) PublicGetHandlerFunc(c *gin.Context) {
	result, err := h.fileService.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PublicBumpHandlerFunc bump the view counter without resolving the file
func (h *Handler) PublicBumpHandlerFunc(c *gin.Context) {
	if err := h.fileService.BumpView(c.Request.Context(), c.Param("id")); err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct{}{})
}
