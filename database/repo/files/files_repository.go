package files

import (
	"context"
	"errors"

	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/models"
	"gorm.io/gorm"
)

// Repository 文件仓库 - 封装所有文件相关的数据库操作
type Repository struct {
	provider database.Provider
}

// NewRepository 创建新的文件仓库
func NewRepository(provider database.Provider) *Repository {
	return &Repository{provider: provider}
}

// Create 插入文件元数据
func (r *Repository) Create(ctx context.Context, file *models.File) error {
	return r.provider.WithContext(ctx).Create(file).Error
}

// ListByUser 获取用户全部文件，按创建时间倒序
func (r *Repository) ListByUser(ctx context.Context, userID uint) ([]models.File, error) {
	var files []models.File
	err := r.provider.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FindByIDAndUser 按主键查找文件并校验归属，不匹配时返回 (nil, nil)
func (r *Repository) FindByIDAndUser(ctx context.Context, fileID, userID uint) (*models.File, error) {
	var file models.File
	err := r.provider.WithContext(ctx).
		Where("id = ? AND user_id = ?", fileID, userID).
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// FindByUUID 通过公开标识查找文件，不存在时返回 (nil, nil)
func (r *Repository) FindByUUID(ctx context.Context, uuid string) (*models.File, error) {
	var file models.File
	err := r.provider.WithContext(ctx).Where("uuid = ?", uuid).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// Delete 删除文件行及其标签关联，同一事务内执行
func (r *Repository) Delete(ctx context.Context, fileID uint) error {
	return r.provider.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&models.TagFile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.File{}, fileID).Error
	})
}

// IncrementViewByUUID 浏览计数自增
// 标识不存在时静默无操作；不触碰 updated_at
func (r *Repository) IncrementViewByUUID(ctx context.Context, uuid string) error {
	return r.provider.WithContext(ctx).
		Model(&models.File{}).
		Where("uuid = ?", uuid).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}
