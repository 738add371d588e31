package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, req dto.MarkAttendanceRequest, actor *models.JWTClaims) ([]dto.AttendanceView, error)
	ListBySession(ctx context.Context, query dto.AttendanceQuery, actor *models.JWTClaims) ([]dto.AttendanceView, error)
	StudentHistory(ctx context.Context, studentID string, query dto.AttendanceHistoryQuery, actor *models.JWTClaims) (*dto.StudentAttendanceHistory, error)
}

// AttendanceHandler exposes the attendance ledger.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Mark godoc
// @Summary Mark attendance for a class session
// @Description Upserts one mark per student for the class, course, period and date. The batch is atomic.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Attendance roster"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "attendance"))
		return
	}
	marks, err := h.service.Mark(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// List godoc
// @Summary List attendance for a class session
// @Tags Attendance
// @Produce json
// @Param classId query string true "Class ID"
// @Param courseId query string false "Course ID"
// @Param periodId query string false "Period ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "attendance query"))
		return
	}
	marks, err := h.service.ListBySession(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// StudentHistory godoc
// @Summary Attendance history of one student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{id} [get]
func (h *AttendanceHandler) StudentHistory(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.AttendanceHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "attendance query"))
		return
	}
	history, err := h.service.StudentHistory(c.Request.Context(), c.Param("id"), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
