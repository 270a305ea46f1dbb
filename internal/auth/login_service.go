package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/amamiya-dev/file-bed/database/models"
	"github.com/amamiya-dev/file-bed/database/repo/users"
	"github.com/amamiya-dev/file-bed/utils/crypto"
)

// LoginResult 登录/注册结果
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// LoginService 凭据校验与账户创建
type LoginService struct {
	usersRepo *users.Repository
	tokens    *TokenService
}

// NewLoginService 创建登录服务
func NewLoginService(usersRepo *users.Repository, tokens *TokenService) *LoginService {
	return &LoginService{
		usersRepo: usersRepo,
		tokens:    tokens,
	}
}

// Login 验证凭据并签发令牌
// 用户不存在与密码不匹配统一返回 ok=false，不区分失败原因
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, bool, error) {
	user, err := s.usersRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, false, nil
	}

	ok, err := crypto.VerifyPassword(password, user.Password)
	if err != nil {
		return nil, false, fmt.Errorf("password comparison failed: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	token, expiry, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiry}, true, nil
}

// Register 哈希密码、插入用户并签发令牌
// 邮箱查重由调用方在进入前完成
func (s *LoginService) Register(ctx context.Context, name, email, password string) (*LoginResult, error) {
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
	}
	if err := s.usersRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, expiry, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiry}, nil
}

// EmailTaken 邮箱是否已被注册
func (s *LoginService) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.usersRepo.ExistsByEmail(ctx, email)
}

// FindUser 通过主键查找用户，认证中间件用其还原当前用户
func (s *LoginService) FindUser(ctx context.Context, id uint) (*models.User, error) {
	return s.usersRepo.GetByID(ctx, id)
}
