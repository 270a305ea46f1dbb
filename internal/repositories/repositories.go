package repositories

import (
	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/database/repo/files"
	"github.com/amamiya-dev/file-bed/database/repo/tags"
	"github.com/amamiya-dev/file-bed/database/repo/users"
)

// Repositories 集中管理所有数据库仓库
type Repositories struct {
	Users *users.Repository
	Files *files.Repository
	Tags  *tags.Repository
}

// NewRepositories 创建所有仓库实例
func NewRepositories(provider database.Provider) *Repositories {
	return &Repositories{
		Users: users.NewRepository(provider),
		Files: files.NewRepository(provider),
		Tags:  tags.NewRepository(provider),
	}
}
