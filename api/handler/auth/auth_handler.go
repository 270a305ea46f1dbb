package auth

import (
	"net/http"
	"regexp"

	"github.com/amamiya-dev/file-bed/api/common"
	"github.com/amamiya-dev/file-bed/api/middleware"
	"github.com/amamiya-dev/file-bed/database/models"
	"github.com/amamiya-dev/file-bed/internal/apperr"
	"github.com/amamiya-dev/file-bed/internal/auth"
	"github.com/gin-gonic/gin"
)

// Handler 认证处理器
type Handler struct {
	loginService *auth.LoginService
}

// NewHandler 创建认证处理器
func NewHandler(loginService *auth.LoginService) *Handler {
	return &Handler{loginService: loginService}
}

var namePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)

type loginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4,max=20"`
}

type registerRequestBody struct {
	Name     string `json:"name" binding:"required,min=4,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4,max=20"`
}

type userView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func viewOf(user *models.User) userView {
	return userView{ID: user.ID, Name: user.Name, Email: user.Email}
}

// LoginHandlerFunc user login
func (h *Handler) LoginHandlerFunc(c *gin.Context) {
	var req loginRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	result, ok, err := h.loginService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	if !ok {
		common.AbortWithError(c, apperr.BadRequest("Credentials doesn't match"))
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token: result.Token,
		User:  viewOf(result.User),
	})
}

// RegisterHandlerFunc user registration
func (h *Handler) RegisterHandlerFunc(c *gin.Context) {
	var req registerRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if !namePattern.MatchString(req.Name) {
		common.RespondMessage(c, http.StatusBadRequest, "Name can only contain alphabets and spaces")
		return
	}

	taken, err := h.loginService.EmailTaken(c.Request.Context(), req.Email)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	if taken {
		common.AbortWithError(c, apperr.BadRequest("User with this email already exists."))
		return
	}

	result, err := h.loginService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token: result.Token,
		User:  viewOf(result.User),
	})
}

// CurrentUserHandlerFunc get current user
func (h *Handler) CurrentUserHandlerFunc(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.AbortUnauthorized(c, "")
		return
	}
	c.JSON(http.StatusOK, viewOf(user))
}
