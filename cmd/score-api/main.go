package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/exam-score-api/api/swagger"
	"github.com/noah-isme/exam-score-api/internal/handler"
	internalmiddleware "github.com/noah-isme/exam-score-api/internal/middleware"
	"github.com/noah-isme/exam-score-api/internal/repository"
	"github.com/noah-isme/exam-score-api/internal/service"
	"github.com/noah-isme/exam-score-api/pkg/cache"
	"github.com/noah-isme/exam-score-api/pkg/config"
	"github.com/noah-isme/exam-score-api/pkg/database"
	"github.com/noah-isme/exam-score-api/pkg/logger"
	reqidmiddleware "github.com/noah-isme/exam-score-api/pkg/middleware/requestid"
)

// @title Exam Score API
// @version 0.1.0
// @description Score calculation and batch scoring for exam attempts and extra fields
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	resultCache := service.ResultCache(service.NewMemoryResultCache())
	var redisHealth *cache.HealthChecker
	if cfg.Scoring.CacheBackend == config.CacheBackendRedis {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close()
		redisHealth = cache.NewHealthChecker(redisClient, cfg.Redis.PingTimeout)
		resultCache = repository.NewResultCacheRepository(redisClient, cfg.Scoring.CacheKey, logr)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	scoreRepo := repository.NewScoreRepository(db)
	metricsSvc := service.NewMetricsService()
	calculator := service.NewScoreCalculator(service.NewInputValidator(nil), logr)
	batches := service.NewBatchProcessor(calculator, resultCache, service.BatchConfig{
		BatchSize:    cfg.Scoring.BatchSize,
		Concurrency:  cfg.Scoring.Concurrency,
		CacheResults: cfg.Scoring.CacheResults,
	}, metricsSvc, logr)

	scoreHandler := handler.NewScoreHandler(calculator, batches, scoreRepo)
	readiness := []handler.Pinger{scoreRepo}
	if redisHealth != nil {
		readiness = append(readiness, redisHealth)
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness...)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	scores := api.Group("/scores")
	scores.POST("/calculate", scoreHandler.Calculate)
	scores.POST("/batch", scoreHandler.Batch)
	scores.GET("/cache", scoreHandler.CacheSize)
	scores.GET("/cache/:code", scoreHandler.Cached)
	scores.DELETE("/cache", scoreHandler.ClearCache)
	scores.GET("/metrics", metricsHandler.Summary)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("cache_backend", cfg.Scoring.CacheBackend),
		zap.Bool("cache_results", cfg.Scoring.CacheResults),
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
