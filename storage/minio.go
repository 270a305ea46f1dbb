package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/amamiya-dev/file-bed/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage S3 兼容对象存储实现
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// NewMinioStorage 创建 MinIO 存储提供者
// bucket 不存在时自动创建
func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.StorageMinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageMinioAccessKey, cfg.StorageMinioSecretKey, ""),
		Secure: cfg.StorageMinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bucket := cfg.StorageMinioBucket
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", bucket, err)
		}
	}

	return &MinioStorage{
		client:     client,
		bucketName: bucket,
	}, nil
}

// SaveWithContext 保存文件到对象存储
func (s *MinioStorage) SaveWithContext(ctx context.Context, name string, file io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucketName, name, file, -1, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to put object '%s': %w", name, err)
	}
	return nil
}

// GetWithContext 从对象存储获取文件
func (s *MinioStorage) GetWithContext(ctx context.Context, name string) (io.ReadSeeker, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", name, err)
	}

	// GetObject 是懒加载的，Stat 确认对象确实存在
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, fmt.Errorf("object not found: %s", name)
	}

	return object, nil
}

// DeleteWithContext 从对象存储删除文件
func (s *MinioStorage) DeleteWithContext(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object '%s': %w", name, err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *MinioStorage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Health 检查对象存储连通性
func (s *MinioStorage) Health(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("minio unavailable: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", s.bucketName)
	}
	return nil
}

// Name 返回存储名称
func (s *MinioStorage) Name() string {
	return "minio"
}
