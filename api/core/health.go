package core

import (
	"context"

	"github.com/amamiya-dev/file-bed/cache"
	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/storage"
)

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}

	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	return "ok"
}

func checkStorageHealth(provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}

	if err := provider.Health(context.Background()); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
