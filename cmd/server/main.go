package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"burnlink/internal/config"
	"burnlink/internal/handler"
	"burnlink/internal/middleware"
	"burnlink/pkg/database"
	auth "burnlink/pkg/jwt"
	"burnlink/pkg/logger"
	"burnlink/pkg/redis"

	"burnlink/internal/engine"

	_ "burnlink/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title burnlink API
// @version 1.0
// @description 短链接生命周期引擎：slug 分配、过期与阅后即焚策略、访问记账、每日配额与批量清理
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Println("配置加载失败:", err)
		return
	}

	logger.InitLogger(cfg.App.Mode)
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := zap.S()

	db, err := database.InitMySQL(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库连接与迁移成功")

	rdb, err := redis.NewClient(&redis.Config{
		Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
	})
	if err != nil {
		sugaredLogger.Warnf("缓存连接失败，继续以无缓存模式运行: %v", err)
		rdb = nil
	} else if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
			}
		}()
		sugaredLogger.Info("✅ 缓存连接成功")
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		sugaredLogger.Fatalf("引擎时区加载失败: %v", err)
	}

	// 初始化并启动引擎（含后台访问记账协程）
	eng := engine.New(db, rdb, loc, sugaredLogger)
	eng.Start()
	defer eng.Stop()
	sugaredLogger.Info("✅ 短链引擎已启动")

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.RateLimit(&cfg.RateLimit))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	linkHandler := handler.NewLinkHandler(eng, cfg.Server.BaseURL, sugaredLogger)
	authHandler := handler.NewAuthHandler(cfg.Auth.AdminPasswordHash, tokenManager)

	registerRoutes(router, linkHandler, authHandler, middleware.AuthMiddleware(tokenManager))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
	sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugaredLogger.Fatalf("服务启动失败: %v", err)
	}
}

func registerRoutes(
	router *gin.Engine,
	linkHandler *handler.LinkHandler,
	authHandler *handler.AuthHandler,
	authMiddleware gin.HandlerFunc,
) {
	router.GET("/health", linkHandler.HealthCheck)
	router.GET("/:slug", linkHandler.Redirect)

	router.POST("/auth/login", authHandler.Login)

	// 创建是公开接口，只受传输层限流和引擎每日配额约束
	router.POST("/api/shorten", linkHandler.CreateLink)

	admin := router.Group("/api")
	admin.Use(authMiddleware)
	{
		admin.GET("/links", linkHandler.ListLinks)
		admin.DELETE("/links/:id", linkHandler.DeleteLink)
		admin.PUT("/links/:id/policy", linkHandler.UpdatePolicy)
		admin.PUT("/links/:id/note", linkHandler.UpdateNote)
		admin.GET("/settings", linkHandler.GetSettings)
		admin.POST("/settings", linkHandler.UpdateSettings)
		admin.POST("/clean", linkHandler.Clean)
		admin.GET("/dashboard", linkHandler.Dashboard)
	}
}
