package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/database"
	"github.com/ashwinyue/next-qbank/internal/handler"
	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/router"
	"github.com/ashwinyue/next-qbank/internal/service"
	"github.com/ashwinyue/next-qbank/internal/service/cache"
	"github.com/ashwinyue/next-qbank/internal/service/dedup"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLog.Sync()

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	// 初始化数据库
	db, err := database.New(cfg)
	if err != nil {
		appLog.Fatal("failed to init database", "error", err)
	}
	defer db.Close()
	appLog.Info("database connected", "driver", cfg.Database.Driver)

	// 初始化 Redis（可选）
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis.GetAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLog.Warn("redis unavailable, analysis cache is in-process only", "addr", cfg.Redis.GetAddr(), "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 初始化 Elasticsearch（可选）
	var esClient *elasticsearch.Client
	if cfg.Elastic.Enabled {
		esClient, err = dedup.NewElasticClient(&cfg.Elastic)
		if err != nil {
			appLog.Warn("elasticsearch unavailable", "host", cfg.Elastic.Host, "error", err)
			esClient = nil
		}
	}

	// 初始化各层
	repos := repository.NewRepositories(db.DB)
	services, err := service.NewServices(ctx, repos, cfg, redisClient, esClient, appLog)
	if err != nil {
		appLog.Fatal("failed to init services", "error", err)
	}
	handlers := handler.NewHandlers(services)

	// 初始化路由
	r := router.SetupRouter(services, handlers, appLog)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	go func() {
		appLog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("server error", "error", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down server")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
		return
	}

	appLog.Info("server exited")
}
