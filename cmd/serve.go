package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amamiya-dev/file-bed/api/core"
	"github.com/amamiya-dev/file-bed/cache"
	"github.com/amamiya-dev/file-bed/config"
	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/internal/auth"
	"github.com/amamiya-dev/file-bed/internal/files"
	"github.com/amamiya-dev/file-bed/internal/repositories"
	"github.com/amamiya-dev/file-bed/internal/tags"
	"github.com/amamiya-dev/file-bed/storage"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbProvider, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("Database initialized, database type: %s", dbProvider.Name())

	repos := repositories.NewRepositories(dbProvider)

	cacheProvider, err := cache.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	log.Printf("Cache initialized, cache type: %s", cacheProvider.Name())

	storageFactory, err := storage.NewFactory(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	storageProvider := storageFactory.Default()
	log.Printf("Storage initialized, storage type: %s", storageProvider.Name())

	tokenService, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn())
	if err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}
	loginService := auth.NewLoginService(repos.Users, tokenService)
	tagService := tags.NewService(repos.Tags, cacheProvider, cfg.CacheTagTTL())
	fileService := files.NewService(repos.Files, tagService, storageProvider, cfg.UploadMaxSize())

	deps := &core.ServerDependencies{
		DBProvider:      dbProvider,
		CacheProvider:   cacheProvider,
		StorageProvider: storageProvider,
		TokenService:    tokenService,
		LoginService:    loginService,
		TagService:      tagService,
		FileService:     fileService,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := cacheProvider.Close(); err != nil {
		log.Printf("Error closing cache: %v", err)
	}
	if err := dbProvider.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited successfully")
}
