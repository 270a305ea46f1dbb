package core

import (
	"net/http"
	"time"

	handlerAuth "github.com/amamiya-dev/file-bed/api/handler/auth"
	handlerFiles "github.com/amamiya-dev/file-bed/api/handler/files"
	handlerTags "github.com/amamiya-dev/file-bed/api/handler/tags"
	"github.com/amamiya-dev/file-bed/api/middleware"
	"github.com/amamiya-dev/file-bed/cache"
	"github.com/amamiya-dev/file-bed/config"
	"github.com/amamiya-dev/file-bed/database"
	"github.com/amamiya-dev/file-bed/internal/auth"
	"github.com/amamiya-dev/file-bed/internal/files"
	"github.com/amamiya-dev/file-bed/internal/tags"
	"github.com/amamiya-dev/file-bed/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DBProvider      database.Provider
	CacheProvider   cache.Provider
	StorageProvider storage.Provider
	TokenService    *auth.TokenService
	LoginService    *auth.LoginService
	TagService      *tags.Service
	FileService     *files.Service
}

// 启动gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()

	// 仅在开发版本时启用 gin 日志
	if config.CommitHash != "n/a" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if config.CommitHash == "n/a" {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.UploadMaxSize()

	// 请求ID追踪
	router.Use(middleware.RequestID())

	// 基础监控指标
	router.Use(middleware.Metrics())

	// 错误集中渲染
	router.Use(middleware.ErrorHandler())

	// 速率限制
	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	publicRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitPublicRPS, cfg.RateLimitPublicBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		authRateLimiter.StopCleanup()
		apiRateLimiter.StopCleanup()
		publicRateLimiter.StopCleanup()
	}

	router.GET("/health", func(context *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks": gin.H{
				"database": checkDatabaseHealth(deps.DBProvider),
				"cache":    checkCacheHealth(deps.CacheProvider),
				"storage":  checkStorageHealth(deps.StorageProvider),
			},
		}
		httpStatus := http.StatusOK
		for _, checkResult := range health["checks"].(gin.H) {
			if result, ok := checkResult.(string); ok && result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		context.JSON(httpStatus, health)
	})
	router.GET("/version", func(context *gin.Context) {
		context.JSON(http.StatusOK, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})
	router.GET("/metrics", func(context *gin.Context) {
		context.JSON(http.StatusOK, middleware.GetMetrics())
	})

	// 创建处理器（依赖注入）
	authHandler := handlerAuth.NewHandler(deps.LoginService)
	fileHandler := handlerFiles.NewHandler(deps.FileService)
	tagHandler := handlerTags.NewHandler(deps.TagService)

	clientGroup := router.Group("/client")
	clientGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		// 认证路由
		authGroup := clientGroup.Group("")
		authGroup.Use(authRateLimiter.Middleware())
		{
			authGroup.POST("/login", authHandler.LoginHandlerFunc)       // POST /client/login
			authGroup.POST("/register", authHandler.RegisterHandlerFunc) // POST /client/register
		}

		// 公开文件访问
		publicGroup := clientGroup.Group("/files")
		publicGroup.Use(publicRateLimiter.Middleware())
		{
			publicGroup.GET("/:id", fileHandler.PublicGetHandlerFunc)    // GET /client/files/{uuid}
			publicGroup.PATCH("/:id", fileHandler.PublicBumpHandlerFunc) // PATCH /client/files/{uuid}
		}

		// 需认证的 API
		apiGroup := clientGroup.Group("/api")
		apiGroup.Use(apiRateLimiter.Middleware())
		apiGroup.Use(middleware.BearerAuth(deps.TokenService, deps.LoginService))
		{
			apiGroup.GET("/user", authHandler.CurrentUserHandlerFunc) // GET /client/api/user

			apiGroup.GET("/file", fileHandler.ListHandlerFunc)          // GET /client/api/file
			apiGroup.POST("/file", fileHandler.UploadHandlerFunc)       // POST /client/api/file
			apiGroup.DELETE("/file/:id", fileHandler.DeleteHandlerFunc) // DELETE /client/api/file/{id}

			apiGroup.GET("/tags", tagHandler.SearchHandlerFunc) // GET /client/api/tags
		}
	}

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
