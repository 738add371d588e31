package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type periodService interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error)
	Get(ctx context.Context, id string) (*models.Period, error)
	Create(ctx context.Context, req service.PeriodRequest) (*models.Period, error)
	Update(ctx context.Context, id string, req service.PeriodRequest) (*models.Period, error)
	Delete(ctx context.Context, id string) error
}

// PeriodHandler exposes period slots.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs the handler.
func NewPeriodHandler(service periodService) *PeriodHandler {
	return &PeriodHandler{service: service}
}

// List godoc
// @Summary List periods
// @Tags Periods
// @Produce json
// @Param classId query string false "Class ID"
// @Param courseId query string false "Course ID"
// @Param day query string false "Day of week (MONDAY..SUNDAY)"
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	filter := models.PeriodFilter{
		ClassID:   strings.TrimSpace(c.Query("classId")),
		CourseID:  strings.TrimSpace(c.Query("courseId")),
		DayOfWeek: strings.ToUpper(strings.TrimSpace(c.Query("day"))),
	}
	periods, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Get godoc
// @Summary Get period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "period"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update period
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req service.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "period"))
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Delete godoc
// @Summary Delete period
// @Tags Periods
// @Param id path string true "Period ID"
// @Success 204
// @Router /periods/{id} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
