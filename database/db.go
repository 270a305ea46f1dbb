package database

import (
	"fmt"

	"github.com/amamiya-dev/file-bed/config"
	"github.com/amamiya-dev/file-bed/database/models"
)

// AllModels 所有需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.File{},
		&models.Tag{},
		&models.TagFile{},
	}
}

// Connect 创建数据库提供者并执行自动迁移
func Connect(cfg *config.Config) (Provider, error) {
	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := provider.AutoMigrate(AllModels()...); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("failed to auto migrate database: %w", err)
	}

	return provider, nil
}
