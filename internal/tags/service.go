package tags

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/amamiya-dev/file-bed/cache"
	"github.com/amamiya-dev/file-bed/database/models"
	"github.com/amamiya-dev/file-bed/database/repo/tags"
)

const (
	cacheKeyTags      = "tags:all"
	cacheKeyRelations = "tags:relations"
)

// Snapshot 标签全量快照，用于文件列表的内存关联
type Snapshot struct {
	Tags      []models.Tag     `json:"tags"`
	Relations []models.TagFile `json:"relations"`
}

// Service 标签服务
type Service struct {
	repo  *tags.Repository
	cache cache.Provider
	ttl   time.Duration
}

// NewService 创建标签服务
func NewService(repo *tags.Repository, cacheProvider cache.Provider, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cacheProvider,
		ttl:   ttl,
	}
}

// NormalizeNames 去除首尾空白、过滤空串并去重，保留首次出现的顺序
func NormalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// Attach 将标签名列表关联到文件，返回实际关联的名称
func (s *Service) Attach(ctx context.Context, fileID uint, names []string) ([]string, error) {
	names = NormalizeNames(names)
	if len(names) == 0 {
		return nil, nil
	}

	attached, err := s.repo.AttachToFile(ctx, fileID, names)
	if err != nil {
		return nil, err
	}

	s.InvalidateSnapshot(ctx)
	return attached, nil
}

// Search 按名称子串搜索标签，except 中的名称被排除
// 空查询直接返回空结果，不访问数据库
func (s *Service) Search(ctx context.Context, query string, except []string) ([]models.Tag, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Tag{}, nil
	}

	result, err := s.repo.Search(ctx, query, except)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []models.Tag{}
	}
	return result, nil
}

// ListByFile 获取单个文件的全部标签
func (s *Service) ListByFile(ctx context.Context, fileID uint) ([]models.Tag, error) {
	return s.repo.ListByFileID(ctx, fileID)
}

// GetSnapshot 获取标签全量快照，优先读缓存
func (s *Service) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	if err := s.cache.Get(ctx, cacheKeyTags, &snapshot.Tags); err == nil {
		if err := s.cache.Get(ctx, cacheKeyRelations, &snapshot.Relations); err == nil {
			return &snapshot, nil
		}
	}

	allTags, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	relations, err := s.repo.ListAllRelations(ctx)
	if err != nil {
		return nil, err
	}

	snapshot.Tags = allTags
	snapshot.Relations = relations

	if err := s.cache.Set(ctx, cacheKeyTags, allTags, s.ttl); err != nil {
		log.Printf("WARNING: failed to cache tags: %v", err)
	}
	if err := s.cache.Set(ctx, cacheKeyRelations, relations, s.ttl); err != nil {
		log.Printf("WARNING: failed to cache tag relations: %v", err)
	}

	return &snapshot, nil
}

// InvalidateSnapshot 标签或关联变更后使快照失效
func (s *Service) InvalidateSnapshot(ctx context.Context) {
	if err := s.cache.Delete(ctx, cacheKeyTags); err != nil {
		log.Printf("WARNING: failed to invalidate tag cache: %v", err)
	}
	if err := s.cache.Delete(ctx, cacheKeyRelations); err != nil {
		log.Printf("WARNING: failed to invalidate tag relation cache: %v", err)
	}
}

// NamesByFile 从快照构建 fileID 到标签名列表的映射
func (s *Snapshot) NamesByFile() map[uint][]string {
	tagNames := make(map[uint]string, len(s.Tags))
	for _, tag := range s.Tags {
		tagNames[tag.ID] = tag.Name
	}

	result := make(map[uint][]string)
	for _, rel := range s.Relations {
		name, ok := tagNames[rel.TagID]
		if !ok {
			continue
		}
		result[rel.FileID] = append(result[rel.FileID], name)
	}
	return result
}
