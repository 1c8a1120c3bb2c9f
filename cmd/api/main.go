package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uni-dcs/records-api/api/swagger"
	"github.com/uni-dcs/records-api/internal/handler"
	internalmiddleware "github.com/uni-dcs/records-api/internal/middleware"
	"github.com/uni-dcs/records-api/internal/repository"
	"github.com/uni-dcs/records-api/internal/service"
	"github.com/uni-dcs/records-api/pkg/cache"
	"github.com/uni-dcs/records-api/pkg/config"
	"github.com/uni-dcs/records-api/pkg/database"
	"github.com/uni-dcs/records-api/pkg/logger"
	corsmiddleware "github.com/uni-dcs/records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uni-dcs/records-api/pkg/middleware/requestid"
)

// @title Academic Records API
// @version 1.0.0
// @description Role-based academic records service
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, statistics cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	snapshots := cache.NewSnapshot(redisClient, cfg.Statistics.CacheTTL)

	validate := validator.New()

	users := repository.NewUserRepository(db)
	departments := repository.NewDepartmentRepository(db)
	sessions := repository.NewSessionRepository(db)
	courses := repository.NewCourseRepository(db)
	results := repository.NewResultRepository(db)
	exams := repository.NewExamRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(users, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(users, departments, validate, logr)
	departmentSvc := service.NewDepartmentService(departments, validate, logr)
	sessionSvc := service.NewSessionService(sessions, validate, logr)
	courseSvc := service.NewCourseService(courses, users, departments, sessionSvc, validate, logr)
	registrationSvc := service.NewRegistrationService(courses, users, sessionSvc, validate, logr)
	resultSvc := service.NewResultService(results, courses, users, sessionSvc, validate, logr)
	examSvc := service.NewExamService(exams, courses, sessionSvc, validate, logr)
	transcriptSvc := service.NewTranscriptService(results, users, logr)
	statisticsSvc := service.NewStatisticsService(results, sessionSvc, snapshots, logr)
	importSvc := service.NewImportService(results, users, courses, sessionSvc, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Deps{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Departments:   handler.NewDepartmentHandler(departmentSvc),
		Sessions:      handler.NewSessionHandler(sessionSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc, metricsSvc),
		Results:       handler.NewResultHandler(resultSvc, statisticsSvc, metricsSvc),
		Exams:         handler.NewExamHandler(examSvc),
		Transcripts:   handler.NewTranscriptHandler(transcriptSvc, cfg.Transcripts),
		Statistics:    handler.NewStatisticsHandler(statisticsSvc),
		Imports:       handler.NewImportHandler(importSvc, statisticsSvc, metricsSvc),
		AuthService:   authSvc,
		Metrics:       metricsSvc,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
