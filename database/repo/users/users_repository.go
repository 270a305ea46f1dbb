package users

import (
	"context"
	"errors"

	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/models"
	"gorm.io/gorm"
)

// Repository 用户仓库 - 封装所有用户相关的数据库操作
type Repository struct {
	provider database.Provider
}

// NewRepository 创建新的用户仓库
func NewRepository(provider database.Provider) *Repository {
	return &Repository{provider: provider}
}

// GetByEmail 通过邮箱获取用户，不存在时返回 (nil, nil)
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.provider.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 通过主键获取用户，不存在时返回 (nil, nil)
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.provider.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 插入用户
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.provider.WithContext(ctx).Create(user).Error
}

// ExistsByEmail 检查邮箱是否已被注册
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.provider.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
