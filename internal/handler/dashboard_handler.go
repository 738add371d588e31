package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*models.AdminDashboard, bool, error)
	Teacher(ctx context.Context, actor *models.JWTClaims) (*models.TeacherDashboard, bool, error)
	Student(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.StudentDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin dashboard totals
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondDashboard(c, summary, cacheHit, start)
}

// Teacher godoc
// @Summary Dashboard of the calling teacher
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Teacher(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondDashboard(c, summary, cacheHit, start)
}

// Student godoc
// @Summary Student progress dashboard
// @Description Students get their own dashboard; staff pass studentId.
// @Tags Dashboard
// @Produce json
// @Param studentId query string false "Student ID, defaults to the caller"
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Student(c.Request.Context(), strings.TrimSpace(c.Query("studentId")), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondDashboard(c, summary, cacheHit, start)
}

func respondDashboard(c *gin.Context, summary interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
