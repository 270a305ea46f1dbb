package storage

import (
	"fmt"
	"log"
	"strings"

	"github.com/amamiya-dev/file-bed/config"
)

// Factory 存储提供者工厂
type Factory struct {
	providers       map[string]Provider
	defaultProvider string
}

// NewFactory 根据配置初始化所有可用的存储提供者
// 本地存储始终可用，minio/webdav 仅在配置齐全时注册
func NewFactory(cfg *config.Config) (*Factory, error) {
	factory := &Factory{
		providers: make(map[string]Provider),
	}

	local, err := NewLocalStorage(cfg.StorageLocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}
	factory.providers["local"] = local

	if cfg.StorageMinioEndpoint != "" {
		minioStorage, err := NewMinioStorage(cfg)
		if err != nil {
			log.Printf("WARNING: minio storage unavailable: %v", err)
		} else {
			factory.providers["minio"] = minioStorage
		}
	}

	if cfg.StorageWebdavURL != "" {
		webdavStorage, err := NewWebDAVStorage(cfg)
		if err != nil {
			log.Printf("WARNING: webdav storage unavailable: %v", err)
		} else {
			factory.providers["webdav"] = webdavStorage
		}
	}

	defaultProvider := strings.ToLower(cfg.StorageType)
	if defaultProvider == "" {
		defaultProvider = "local"
	}
	if _, ok := factory.providers[defaultProvider]; !ok {
		return nil, fmt.Errorf("default storage provider '%s' is not available", defaultProvider)
	}
	factory.defaultProvider = defaultProvider

	return factory, nil
}

// Default 返回默认存储提供者
func (f *Factory) Default() Provider {
	return f.providers[f.defaultProvider]
}

// Get 按名称返回存储提供者
func (f *Factory) Get(name string) (Provider, error) {
	provider, ok := f.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown storage provider: %s", name)
	}
	return provider, nil
}

// Names 返回已注册的存储提供者名称
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	return names
}
