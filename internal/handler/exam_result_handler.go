package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type examResultService interface {
	Create(ctx context.Context, req dto.ExamResultRequest, actor *models.JWTClaims) (*dto.ExamResultView, error)
	Update(ctx context.Context, id string, req dto.ExamResultRequest, actor *models.JWTClaims) (*dto.ExamResultView, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExamResultView, error)
	List(ctx context.Context, query dto.ExamResultQuery, actor *models.JWTClaims) ([]dto.ExamResultView, *models.Pagination, error)
	Mine(ctx context.Context, query dto.ExamResultQuery, actor *models.JWTClaims) ([]dto.ExamResultView, *models.Pagination, error)
}

// ExamResultHandler exposes the exam result ledger.
type ExamResultHandler struct {
	service examResultService
}

// NewExamResultHandler constructs the handler.
func NewExamResultHandler(service examResultService) *ExamResultHandler {
	return &ExamResultHandler{service: service}
}

// Create godoc
// @Summary Record an exam result
// @Tags Exam Results
// @Accept json
// @Produce json
// @Param payload body dto.ExamResultRequest true "Exam result"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-results [post]
func (h *ExamResultHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ExamResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "exam result"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Replace an exam result
// @Tags Exam Results
// @Accept json
// @Produce json
// @Param id path string true "Exam result ID"
// @Param payload body dto.ExamResultRequest true "Exam result"
// @Success 200 {object} response.Envelope
// @Router /exam-results/{id} [put]
func (h *ExamResultHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ExamResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "exam result"))
		return
	}
	result, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete an exam result
// @Tags Exam Results
// @Param id path string true "Exam result ID"
// @Success 204
// @Router /exam-results/{id} [delete]
func (h *ExamResultHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get an exam result
// @Tags Exam Results
// @Produce json
// @Param id path string true "Exam result ID"
// @Success 200 {object} response.Envelope
// @Router /exam-results/{id} [get]
func (h *ExamResultHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	result, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List exam results
// @Description Teachers only see results of their assigned classes.
// @Tags Exam Results
// @Produce json
// @Param classId query string false "Class ID"
// @Param courseId query string false "Course ID"
// @Param studentId query string false "Student ID"
// @Param examType query string false "Exam type"
// @Param examDate query string false "Exam date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exam-results [get]
func (h *ExamResultHandler) List(c *gin.Context) {
	h.list(c, h.service.List)
}

// Mine godoc
// @Summary List the caller's own exam results
// @Tags Exam Results
// @Produce json
// @Param examType query string false "Exam type"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exam-results/mine [get]
func (h *ExamResultHandler) Mine(c *gin.Context) {
	h.list(c, h.service.Mine)
}

type resultLister func(ctx context.Context, query dto.ExamResultQuery, actor *models.JWTClaims) ([]dto.ExamResultView, *models.Pagination, error)

func (h *ExamResultHandler) list(c *gin.Context, fetch resultLister) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.ExamResultQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "exam result query"))
		return
	}
	query.Page, query.PageSize = pageParams(c)
	results, pagination, err := fetch(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, pagination)
}
