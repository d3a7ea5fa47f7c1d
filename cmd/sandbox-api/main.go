package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/alvishnu/school-desk/api/swagger"
	"github.com/alvishnu/school-desk/internal/sandbox"
	"github.com/alvishnu/school-desk/internal/sandbox/handler"
	"github.com/alvishnu/school-desk/internal/sandbox/repository"
	"github.com/alvishnu/school-desk/internal/sandbox/service"
	"github.com/alvishnu/school-desk/pkg/cache"
	"github.com/alvishnu/school-desk/pkg/config"
	"github.com/alvishnu/school-desk/pkg/database"
	"github.com/alvishnu/school-desk/pkg/logger"
)

// @title School Desk Sandbox API
// @version 0.1.0
// @description Development backend implementing the school administration wire contract
// @BasePath /api
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Sandbox.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Sandbox.EnableCache {
		redisClient, err = cache.NewRedis(ctx, cfg.Sandbox.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, response cache disabled", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	students := service.NewStudentService(repository.NewStudentRepository(db), validate, logr)
	fees := service.NewFeeService(repository.NewFeeRepository(db), repository.NewStudentRepository(db), validate, logr)
	auth := service.NewAuthService(repository.NewUserRepository(db), logr, service.AuthConfig{
		Secret:     cfg.Sandbox.JWT.Secret,
		Expiration: cfg.Sandbox.JWT.Expiration,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	r := sandbox.NewRouter(cfg.Sandbox, sandbox.Deps{
		Students:        handler.NewStudentHandler(students),
		Fees:            handler.NewFeeHandler(fees),
		Auth:            handler.NewAuthHandler(auth, int(cfg.Sandbox.JWT.Expiration.Seconds())),
		SessionVerifier: auth,
		Redis:           redisClient,
		Logger:          logr,
		Registry:        registry,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Sandbox.Port)
	logr.Sugar().Infow("sandbox starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("sandbox failed", "error", err)
	}
}
