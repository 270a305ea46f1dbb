package tags

import (
	"context"
	"strings"

	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/models"
	"gorm.io/gorm"
)

// Repository 标签仓库 - 封装标签与关联表的数据库操作
type Repository struct {
	provider database.Provider
}

// NewRepository 创建新的标签仓库
func NewRepository(provider database.Provider) *Repository {
	return &Repository{provider: provider}
}

// FindByNames 按名称批量查找已有标签
func (r *Repository) FindByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	err := r.provider.WithContext(ctx).Where("name IN ?", names).Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Search 名称子串模糊搜索，忽略大小写，排除 except 中的名称
func (r *Repository) Search(ctx context.Context, query string, except []string) ([]models.Tag, error) {
	db := r.provider.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	if len(except) > 0 {
		db = db.Where("name NOT IN ?", except)
	}

	var tags []models.Tag
	if err := db.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ListAll 全表扫描所有标签
func (r *Repository) ListAll(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.provider.WithContext(ctx).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ListAllRelations 全表扫描所有标签-文件关联
func (r *Repository) ListAllRelations(ctx context.Context) ([]models.TagFile, error) {
	var relations []models.TagFile
	if err := r.provider.WithContext(ctx).Find(&relations).Error; err != nil {
		return nil, err
	}
	return relations, nil
}

// ListByFileID 获取单个文件的全部标签
func (r *Repository) ListByFileID(ctx context.Context, fileID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.provider.WithContext(ctx).
		Model(&models.Tag{}).
		Joins("JOIN tag_files ON tag_files.tag_id = tags.id").
		Where("tag_files.file_id = ?", fileID).
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// AttachToFile 将一组标签名关联到文件
// 查找已有标签、创建缺失标签、写入关联行在同一事务内完成，
// 避免崩溃后留下无关联的孤儿标签
func (r *Repository) AttachToFile(ctx context.Context, fileID uint, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var attached []string
	err := r.provider.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		var existing []models.Tag
		if err := tx.Where("name IN ?", names).Find(&existing).Error; err != nil {
			return err
		}

		existingNames := make(map[string]bool, len(existing))
		for _, tag := range existing {
			existingNames[tag.Name] = true
		}

		var creatable []models.Tag
		for _, name := range names {
			if !existingNames[name] {
				creatable = append(creatable, models.Tag{Name: name})
			}
		}
		if len(creatable) > 0 {
			if err := tx.Create(&creatable).Error; err != nil {
				return err
			}
		}

		all := append(existing, creatable...)
		links := make([]models.TagFile, 0, len(all))
		attached = make([]string, 0, len(all))
		for _, tag := range all {
			links = append(links, models.TagFile{TagID: tag.ID, FileID: fileID})
			attached = append(attached, tag.Name)
		}

		return tx.Create(&links).Error
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}
