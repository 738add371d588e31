package server

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// AuditWriter persists audit trail rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Attendance  *handler.AttendanceHandler
	ExamResults *handler.ExamResultHandler
	Classes     *handler.ClassHandler
	Teachers    *handler.TeacherHandler
	Students    *handler.StudentHandler
	Courses     *handler.CourseHandler
	Periods     *handler.PeriodHandler
	Sessions    *handler.AcademicSessionHandler
	Reports     *handler.ReportHandler
	Dashboard   *handler.DashboardHandler
	Metrics     *handler.MetricsHandler
}

// Options configures the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	EnableMetrics  bool
	Auth           TokenValidator
	Audit          AuditWriter
	MetricsService *service.MetricsService
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with the public probes and the
// authenticated API under the configured prefix.
func NewRouter(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	if opts.EnableMetrics && opts.MetricsService != nil {
		r.Use(middleware.Metrics(opts.MetricsService))
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, opts.Logger, action, resource)
	}
	admin := middleware.RequireAdmin()
	staff := middleware.RequireStaff()
	anyone := middleware.RBAC(models.RoleAdmin, models.RoleTeacher, models.RoleStudent)

	api := r.Group(opts.APIPrefix, middleware.JWT(opts.Auth))

	attendance := api.Group("/attendance")
	attendance.POST("", staff, audit(models.AuditActionMark, models.AuditResourceAttendance), h.Attendance.Mark)
	attendance.GET("", staff, h.Attendance.List)
	attendance.GET("/students/:id", anyone, h.Attendance.StudentHistory)

	results := api.Group("/exam-results")
	results.GET("/mine", middleware.RBAC(models.RoleStudent), h.ExamResults.Mine)
	results.GET("", staff, h.ExamResults.List)
	results.GET("/:id", anyone, h.ExamResults.Get)
	results.POST("", staff, audit(models.AuditActionCreate, models.AuditResourceExamResult), h.ExamResults.Create)
	results.PUT("/:id", staff, audit(models.AuditActionUpdate, models.AuditResourceExamResult), h.ExamResults.Update)
	results.DELETE("/:id", staff, audit(models.AuditActionDelete, models.AuditResourceExamResult), h.ExamResults.Delete)

	classes := api.Group("/classes")
	classes.GET("", staff, h.Classes.List)
	classes.GET("/:id", staff, h.Classes.Get)
	classes.GET("/:id/students", staff, h.Classes.Students)
	classes.POST("", admin, audit(models.AuditActionCreate, models.AuditResourceClass), h.Classes.Create)
	classes.PUT("/:id", admin, audit(models.AuditActionUpdate, models.AuditResourceClass), h.Classes.Update)
	classes.DELETE("/:id", admin, audit(models.AuditActionDelete, models.AuditResourceClass), h.Classes.Delete)
	classes.PUT("/:id/teachers", admin, audit(models.AuditActionAssign, models.AuditResourceClassTeachers), h.Classes.AssignTeachers)
	classes.PUT("/:id/courses", admin, audit(models.AuditActionAssign, models.AuditResourceClassCourses), h.Classes.AssignCourses)
	classes.POST("/:id/unassign", admin, audit(models.AuditActionAssign, models.AuditResourceClass), h.Classes.Unassign)

	teachers := api.Group("/teachers")
	teachers.GET("", staff, h.Teachers.List)
	teachers.GET("/:id", staff, h.Teachers.Get)
	teachers.GET("/:id/classes", admin, h.Teachers.Classes)
	teachers.POST("", admin, audit(models.AuditActionCreate, models.AuditResourceTeacher), h.Teachers.Create)
	teachers.PUT("/:id", admin, audit(models.AuditActionUpdate, models.AuditResourceTeacher), h.Teachers.Update)
	teachers.DELETE("/:id", admin, audit(models.AuditActionDelete, models.AuditResourceTeacher), h.Teachers.Delete)

	students := api.Group("/students")
	students.GET("", staff, h.Students.List)
	students.GET("/:id", staff, h.Students.Get)
	students.POST("", admin, audit(models.AuditActionCreate, models.AuditResourceStudent), h.Students.Create)
	students.PUT("/:id", admin, audit(models.AuditActionUpdate, models.AuditResourceStudent), h.Students.Update)
	students.DELETE("/:id", admin, audit(models.AuditActionDelete, models.AuditResourceStudent), h.Students.Delete)

	courses := api.Group("/courses")
	courses.GET("", anyone, h.Courses.List)
	courses.GET("/:id", anyone, h.Courses.Get)
	courses.POST("", admin, audit(models.AuditActionCreate, models.AuditResourceCourse), h.Courses.Create)
	courses.PUT("/:id", admin, audit(models.AuditActionUpdate, models.AuditResourceCourse), h.Courses.Update)
	courses.DELETE("/:id", admin, audit(models.AuditActionDelete, models.AuditResourceCourse), h.Courses.Delete)

	periods := api.Group("/periods")
	periods.GET("", anyone, h.Periods.List)
	periods.GET("/:id", anyone, h.Periods.Get)
	periods.POST("", admin, audit(models.AuditActionCreate, models.AuditResourcePeriod), h.Periods.Create)
	periods.PUT("/:id", admin, audit(models.AuditActionUpdate, models.AuditResourcePeriod), h.Periods.Update)
	periods.DELETE("/:id", admin, audit(models.AuditActionDelete, models.AuditResourcePeriod), h.Periods.Delete)

	sessions := api.Group("/sessions")
	sessions.GET("", anyone, h.Sessions.List)
	sessions.GET("/current", anyone, h.Sessions.Current)
	sessions.GET("/:id", anyone, h.Sessions.Get)
	sessions.POST("", admin, audit(models.AuditActionCreate, models.AuditResourceAcademicSession), h.Sessions.Create)
	sessions.PUT("/:id", admin, audit(models.AuditActionUpdate, models.AuditResourceAcademicSession), h.Sessions.Update)
	sessions.DELETE("/:id", admin, audit(models.AuditActionDelete, models.AuditResourceAcademicSession), h.Sessions.Delete)

	reports := api.Group("/reports", staff)
	reports.GET("/classes/:id", h.Reports.ClassResults)
	reports.GET("/classes/:id/export", h.Reports.ExportClassResults)
	reports.GET("/students/:id", h.Reports.StudentResults)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/admin", admin, h.Dashboard.Admin)
	dashboard.GET("/teacher", staff, h.Dashboard.Teacher)
	dashboard.GET("/student", anyone, h.Dashboard.Student)

	return r
}
