package files

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"

	"github.com/amamiya-dev/file-bed/database/models"
	filerepo "github.com/amamiya-dev/file-bed/database/repo/files"
	"github.com/amamiya-dev/file-bed/internal/apperr"
	"github.com/amamiya-dev/file-bed/internal/tags"
	"github.com/amamiya-dev/file-bed/storage"
	"github.com/amamiya-dev/file-bed/utils"
)

// allowedTypes 允许上传的 MIME 类型
var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/mpeg":      true,
	"application/pdf": true,
}

// UploadResult 上传结果
type UploadResult struct {
	File         *models.File
	AttachedTags []string
}

// FileWithTags 文件及其标签名列表
type FileWithTags struct {
	models.File
	Tags []string `json:"tags"`
}

// PublicFile 公开访问的文件及其标签
type PublicFile struct {
	File *models.File `json:"file"`
	Tags []models.Tag `json:"tags"`
}

// Service 文件服务
type Service struct {
	repo    *filerepo.Repository
	tags    *tags.Service
	storage storage.Provider
	maxSize int64
}

// NewService 创建文件服务
func NewService(repo *filerepo.Repository, tagService *tags.Service, storageProvider storage.Provider, maxSize int64) *Service {
	return &Service{
		repo:    repo,
		tags:    tagService,
		storage: storageProvider,
		maxSize: maxSize,
	}
}

// Upload 校验并保存上传文件，写入元数据后关联标签
// 存储写入成功后的失败不回收磁盘对象
func (s *Service) Upload(ctx context.Context, userID uint, fileHeader *multipart.FileHeader, tagNames []string) (*UploadResult, error) {
	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		return nil, apperr.BadRequest("Invalid file type. Only images and videos are allowed.")
	}
	if fileHeader.Size > s.maxSize {
		return nil, apperr.BadRequest("File size exceeds the maximum limit of 10 MB.")
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Printf("ERROR: failed to open uploaded file: %v", err)
		return nil, apperr.Internal()
	}
	defer src.Close()

	prefix, err := utils.GenerateIdentifier()
	if err != nil {
		log.Printf("ERROR: failed to generate file name: %v", err)
		return nil, apperr.Internal()
	}
	name := fmt.Sprintf("%s_%s", prefix, fileHeader.Filename)

	if err := s.storage.SaveWithContext(ctx, name, src); err != nil {
		log.Printf("ERROR: failed to store file '%s': %v", name, err)
		return nil, apperr.Internal()
	}

	uuid, err := utils.GenerateIdentifier()
	if err != nil {
		log.Printf("ERROR: failed to generate file identifier: %v", err)
		return nil, apperr.Internal()
	}

	file := &models.File{
		Path:   name,
		Type:   contentType,
		UserID: &userID,
		UUID:   uuid,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		log.Printf("ERROR: failed to save file metadata for '%s': %v", name, err)
		return nil, apperr.Internal()
	}

	attached, err := s.tags.Attach(ctx, file.ID, tagNames)
	if err != nil {
		log.Printf("ERROR: failed to attach tags to file %d: %v", file.ID, err)
		return nil, apperr.Internal()
	}

	return &UploadResult{File: file, AttachedTags: attached}, nil
}

// List 返回用户全部文件，按创建时间倒序，附带标签名
// 标签通过全量快照在内存中关联，避免逐文件查询
func (s *Service) List(ctx context.Context, userID uint) ([]FileWithTags, error) {
	userFiles, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.tags.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	namesByFile := snapshot.NamesByFile()

	result := make([]FileWithTags, 0, len(userFiles))
	for _, file := range userFiles {
		names := namesByFile[file.ID]
		if names == nil {
			names = []string{}
		}
		result = append(result, FileWithTags{File: file, Tags: names})
	}
	return result, nil
}

// Delete 删除用户自己的文件
// 磁盘对象缺失时容忍，元数据行和标签关联总是清除
func (s *Service) Delete(ctx context.Context, userID, fileID uint) error {
	file, err := s.repo.FindByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return err
	}
	if file == nil {
		return apperr.NotFound("File not found")
	}

	exists, err := s.storage.Exists(ctx, file.Path)
	if err != nil {
		return err
	}
	if exists {
		if err := s.storage.DeleteWithContext(ctx, file.Path); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, file.ID); err != nil {
		return err
	}

	s.tags.InvalidateSnapshot(ctx)
	return nil
}

// GetPublic 通过公开标识获取文件及其标签，每次成功访问浏览计数加一
func (s *Service) GetPublic(ctx context.Context, uuid string) (*PublicFile, error) {
	file, err := s.repo.FindByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, apperr.NotFound("")
	}

	fileTags, err := s.tags.ListByFile(ctx, file.ID)
	if err != nil {
		return nil, err
	}
	if fileTags == nil {
		fileTags = []models.Tag{}
	}

	if err := s.repo.IncrementViewByUUID(ctx, file.UUID); err != nil {
		return nil, err
	}

	return &PublicFile{File: file, Tags: fileTags}, nil
}

// BumpView 无校验的浏览计数自增，未知标识静默无操作
func (s *Service) BumpView(ctx context.Context, uuid string) error {
	return s.repo.IncrementViewByUUID(ctx, uuid)
}
