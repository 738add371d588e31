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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/api/swagger"
	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/server"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/logger"
)

// @title Academic Records API
// @version 1.0.0
// @description Classes, teachers, students, attendance and exam results with role-scoped access.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	swagger.SwaggerInfo.BasePath = cfg.APIPrefix

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db, logr); err != nil {
			logr.Fatal("failed to migrate schema", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, service.CacheConfig{
		Enabled:    cfg.Reports.CacheEnabled && cacheRepo != nil,
		DefaultTTL: cfg.Reports.CacheTTL,
		Namespace:  "records",
	}, logr)

	auditRepo := repository.NewAuditRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	sessionRepo := repository.NewAcademicSessionRepository(db)
	membershipRepo := repository.NewClassMembershipRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	examRepo := repository.NewExamResultRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	identitySvc := service.NewIdentityService(teacherRepo, studentRepo, membershipRepo, logr)
	relationshipSvc := service.NewRelationshipService(membershipRepo, classRepo, teacherRepo, courseRepo, studentRepo, cacheSvc, logr)

	classSvc := service.NewClassService(classRepo, relationshipSvc, studentRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, relationshipSvc, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, sessionRepo, relationshipSvc, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, teacherRepo, nil, logr)
	periodSvc := service.NewPeriodService(periodRepo, classRepo, courseRepo, nil, logr)
	sessionSvc := service.NewAcademicSessionService(sessionRepo, nil, logr)

	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Repo:     attendanceRepo,
		Identity: identitySvc,
		Classes:  classRepo,
		Courses:  courseRepo,
		Periods:  periodRepo,
		Students: studentRepo,
		Teachers: teacherRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Logger:   logr,
	})
	examSvc := service.NewExamResultService(service.ExamResultServiceParams{
		Repo:     examRepo,
		Identity: identitySvc,
		Classes:  classRepo,
		Courses:  courseRepo,
		Students: studentRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Logger:   logr,
	})
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Results:  examRepo,
		Classes:  classRepo,
		Students: studentRepo,
		Identity: identitySvc,
		Exporter: service.NewExportService(logr, nil, nil, nil),
		Logger:   logr,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:       dashboardRepo,
		Results:    examRepo,
		Attendance: attendanceRepo,
		Students:   studentRepo,
		Identity:   identitySvc,
		Cache:      cacheSvc,
		Logger:     logr,
		Config:     service.DashboardConfig{CacheTTL: cfg.Reports.CacheTTL},
	})

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := server.NewRouter(server.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Docs.Enabled,
		EnableMetrics:  cfg.Metrics.Enabled,
		Auth:           authSvc,
		Audit:          auditRepo,
		MetricsService: metrics,
		Logger:         logr,
	}, server.Handlers{
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		ExamResults: handler.NewExamResultHandler(examSvc),
		Classes:     handler.NewClassHandler(classSvc, relationshipSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc, relationshipSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Periods:     handler.NewPeriodHandler(periodSvc),
		Sessions:    handler.NewAcademicSessionHandler(sessionSvc),
		Reports:     handler.NewReportHandler(reportSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
