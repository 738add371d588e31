package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type reportService interface {
	ResultsByClass(ctx context.Context, classID string, query dto.ResultReportQuery, actor *models.JWTClaims) (*dto.ResultReport, error)
	ResultsByStudent(ctx context.Context, studentID string, query dto.ResultReportQuery, actor *models.JWTClaims) (*dto.ResultReport, error)
	ExportClassResults(ctx context.Context, classID, format string, query dto.ResultReportQuery, actor *models.JWTClaims) (*service.ExportedFile, error)
}

// ReportHandler exposes result reports and exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler builds the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// ClassResults godoc
// @Summary Exam results of a class with averages
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Param examType query string false "Exam type"
// @Param examDate query string false "Exam date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/classes/{id} [get]
func (h *ReportHandler) ClassResults(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	query, ok := bindReportQuery(c)
	if !ok {
		return
	}
	report, err := h.service.ResultsByClass(c.Request.Context(), c.Param("id"), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// StudentResults godoc
// @Summary Exam results of a student with averages
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Param examType query string false "Exam type"
// @Param examDate query string false "Exam date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) StudentResults(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	query, ok := bindReportQuery(c)
	if !ok {
		return
	}
	report, err := h.service.ResultsByStudent(c.Request.Context(), c.Param("id"), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportClassResults godoc
// @Summary Download class exam results
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Param examType query string false "Exam type"
// @Param examDate query string false "Exam date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /reports/classes/{id}/export [get]
func (h *ReportHandler) ExportClassResults(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	query, ok := bindReportQuery(c)
	if !ok {
		return
	}
	file, err := h.service.ExportClassResults(c.Request.Context(), c.Param("id"), c.Query("format"), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, file.Filename, file.ContentType, file.Data)
}

func bindReportQuery(c *gin.Context) (dto.ResultReportQuery, bool) {
	var query dto.ResultReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "report query"))
		return query, false
	}
	return query, true
}
