package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, req service.CreateClassRequest) (*models.ClassDetail, error)
	Update(ctx context.Context, id string, req service.UpdateClassRequest) (*models.ClassDetail, error)
	Delete(ctx context.Context, id string) error
}

type classRelationships interface {
	AssignTeachers(ctx context.Context, classID string, teacherIDs []string) ([]models.TeacherSummary, error)
	AssignCourses(ctx context.Context, classID string, courseIDs []string) error
	UnassignClass(ctx context.Context, classID string) (*repository.ClassUnlink, error)
	ListClassStudents(ctx context.Context, classID string, page, pageSize int) ([]models.Student, *models.Pagination, error)
}

// ClassHandler manages classes and their relationship edges.
type ClassHandler struct {
	classes classService
	graph   classRelationships
}

// NewClassHandler constructs the handler.
func NewClassHandler(classes classService, graph classRelationships) *ClassHandler {
	return &ClassHandler{classes: classes, graph: graph}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (name,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.ClassFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class detail with teachers and courses
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "class"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "class"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class
// @Description Fails with 409 while periods, attendance or exam results still reference the class.
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignTeachers godoc
// @Summary Replace the teachers of a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.AssignTeachersRequest true "Teacher IDs"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/teachers [put]
func (h *ClassHandler) AssignTeachers(c *gin.Context) {
	var req service.AssignTeachersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "teacher assignment"))
		return
	}
	teachers, err := h.graph.AssignTeachers(c.Request.Context(), c.Param("id"), req.TeacherIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// AssignCourses godoc
// @Summary Replace the courses offered to a class
// @Tags Classes
// @Accept json
// @Param id path string true "Class ID"
// @Param payload body service.AssignCoursesRequest true "Course IDs"
// @Success 204
// @Router /classes/{id}/courses [put]
func (h *ClassHandler) AssignCourses(c *gin.Context) {
	var req service.AssignCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "course assignment"))
		return
	}
	if err := h.graph.AssignCourses(c.Request.Context(), c.Param("id"), req.CourseIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unassign godoc
// @Summary Detach every student and teacher from a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/unassign [post]
func (h *ClassHandler) Unassign(c *gin.Context) {
	result, err := h.graph.UnassignClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"studentsUnassigned": result.StudentsUnassigned,
		"teachersUnlinked":   result.TeachersUnlinked,
	}, nil)
}

// Students godoc
// @Summary List students of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students [get]
func (h *ClassHandler) Students(c *gin.Context) {
	page, size := pageParams(c)
	students, pagination, err := h.graph.ListClassStudents(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}
