package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type academicSessionService interface {
	List(ctx context.Context) ([]models.AcademicSession, error)
	Get(ctx context.Context, id string) (*models.AcademicSession, error)
	Current(ctx context.Context) (*models.AcademicSession, error)
	Create(ctx context.Context, req service.AcademicSessionRequest) (*models.AcademicSession, error)
	Update(ctx context.Context, id string, req service.AcademicSessionRequest) (*models.AcademicSession, error)
	Delete(ctx context.Context, id string) error
}

// AcademicSessionHandler exposes academic sessions.
type AcademicSessionHandler struct {
	service academicSessionService
}

// NewAcademicSessionHandler constructs the handler.
func NewAcademicSessionHandler(service academicSessionService) *AcademicSessionHandler {
	return &AcademicSessionHandler{service: service}
}

// List godoc
// @Summary List academic sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *AcademicSessionHandler) List(c *gin.Context) {
	sessions, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Current godoc
// @Summary Get the current academic session
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/current [get]
func (h *AcademicSessionHandler) Current(c *gin.Context) {
	session, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Get godoc
// @Summary Get academic session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *AcademicSessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Create academic session
// @Description Marking a session current clears the flag on every other session.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.AcademicSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *AcademicSessionHandler) Create(c *gin.Context) {
	var req service.AcademicSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "session"))
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update academic session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.AcademicSessionRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *AcademicSessionHandler) Update(c *gin.Context) {
	var req service.AcademicSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "session"))
		return
	}
	session, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete academic session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *AcademicSessionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
