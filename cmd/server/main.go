package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"HibiscusSOS/internal/dispatch"
	handlers "HibiscusSOS/internal/handler"
	"HibiscusSOS/internal/models"
	"HibiscusSOS/internal/store"
	"HibiscusSOS/pkg/cache"
	"HibiscusSOS/pkg/config"
	"HibiscusSOS/pkg/geocode"
	"HibiscusSOS/pkg/llm"
	"HibiscusSOS/pkg/logger"
	"HibiscusSOS/pkg/metrics"
	"HibiscusSOS/pkg/middleware"
	"HibiscusSOS/pkg/scheduler"
	"HibiscusSOS/pkg/search"
	stores "HibiscusSOS/pkg/storage"
	ws "HibiscusSOS/pkg/websocket"
)

func main() {
	// 1) 配置与日志
	if err := config.Load(); err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	// 2) 共享状态与旁路组件
	st := store.New()

	var index *search.HistoryIndex
	if cfg.SearchEnabled {
		idx, err := search.New(search.Config{})
		if err != nil {
			logger.Fatalf("创建历史索引失败: %v", err)
		}
		defer idx.Close()
		index = idx
	}

	c := cache.New(cacheConfig(cfg))
	defer c.Close()

	geocoder := geocode.NewResolver(geocode.Config{
		BaseURL:     cfg.GeocodeURL,
		GeoIPDBPath: cfg.GeoIPDBPath,
	}, c, logrus.StandardLogger())
	defer geocoder.Close()

	var classifier llm.Classifier
	if cfg.LLMApiKey != "" {
		classifier = llm.NewOpenAIClassifier(cfg.LLMApiKey, cfg.LLMBaseURL, cfg.LLMModel, logrus.StandardLogger())
	} else {
		logger.Warn("未配置 LLM_API_KEY，告警分级走降级路径")
	}

	var evidence stores.Store
	if cfg.MinioEndpoint != "" {
		ev, err := stores.NewMinioStore(context.Background(), stores.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.MinioBaseURL,
		})
		if err != nil {
			logger.Fatalf("连接证据存储失败: %v", err)
		}
		evidence = ev
	}

	// 3) 事件路由与WebSocket集线器
	var hooks []dispatch.ArchiveHook
	if index != nil {
		hooks = append(hooks, func(alert *models.Alert) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := index.IndexAlert(ctx, alert); err != nil {
				logger.Warnf("归档告警 %s 索引失败: %v", alert.ID, err)
			}
		})
	}
	dispatcher := dispatch.New(st, hooks...)

	hub := ws.NewHub(ws.LoadConfigFromEnv(), dispatch.NewRouter(dispatcher))
	defer hub.Close()

	// 4) 静默用户清理。USER_EVICT_SCHEDULE 接受纯时长（如 "10m"）
	// 或 cron 表达式，前者走间隔调度器，后者走 cron。
	if cfg.UserEvictSchedule != "" && cfg.UserEvictAfter > 0 {
		evict := scheduler.FuncJob(func(ctx context.Context) {
			for _, out := range dispatcher.EvictStaleUsers(cfg.UserEvictAfter) {
				hub.Broadcast(ws.Frame{Type: out.Type, Payload: out.Payload})
			}
		})
		if interval, perr := time.ParseDuration(cfg.UserEvictSchedule); perr == nil {
			s := scheduler.New()
			s.Every(interval, evict)
			defer s.Stop()
		} else {
			cron := scheduler.NewCron(time.UTC)
			if _, err := cron.Add(cfg.UserEvictSchedule, evict); err != nil {
				logger.Fatalf("注册清理任务失败: %v", err)
			}
			cron.Start()
			defer cron.Stop()
		}
		logger.Infof("静默用户清理已启用: %s (阈值 %s)", cfg.UserEvictSchedule, cfg.UserEvictAfter)
	}

	// 5) HTTP路由
	engine := gin.New()
	engine.Use(gin.Recovery(), metrics.Middleware())

	if cfg.RateLimit != "" {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:       cfg.RateLimit,
			SkipPaths:  []string{"/healthz", "/metrics", "/ws"},
			AddHeaders: true,
		}, nil).WithObserver(middleware.NewPrometheusObserver())
		engine.Use(rl.Middleware())
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	ws.RegisterRoutes(engine, ws.NewHandler(hub))
	handlers.NewHandlers(st, index, classifier, geocoder, evidence).Register(engine)

	// 6) 启动与优雅退出
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: engine,
	}
	go func() {
		logger.Infof("服务启动: %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
}

func cacheConfig(cfg *config.Config) cache.Config {
	cc := cache.DefaultConfig()
	cc.Type = cfg.CacheType
	cc.Redis.Addr = cfg.RedisAddr
	cc.Redis.Password = cfg.RedisPass
	cc.Redis.DB = cfg.RedisDB
	return cc
}
