package cache

import (
	"fmt"
	"log"

	"github.com/amamiya-dev/file-bed/config"
)

// NewProvider 根据配置创建缓存提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "memory", "":
		log.Println("Using in-memory cache provider")
		return NewMemory(), nil
	case "redis":
		provider, err := NewRedis(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.CacheRedisAddr, err)
		}
		log.Printf("Using redis cache provider at %s", cfg.CacheRedisAddr)
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
