package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Rename(ctx context.Context, class *models.Class) error
	ListCourses(ctx context.Context, classID string) ([]models.CourseSummary, error)
}

type classGraph interface {
	CreateClass(ctx context.Context, class *models.Class, teacherIDs []string) error
	AssignTeachers(ctx context.Context, classID string, teacherIDs []string) ([]models.TeacherSummary, error)
	ListClassTeachers(ctx context.Context, classID string) ([]models.TeacherSummary, error)
	DeleteClass(ctx context.Context, classID string) error
}

type classStudentCounter interface {
	CountByClass(ctx context.Context, classID string) (int, error)
}

// CreateClassRequest captures creation payload.
type CreateClassRequest struct {
	Name       string   `json:"name" validate:"required,max=100"`
	TeacherIDs []string `json:"teacher_ids" validate:"omitempty,dive,required"`
}

// UpdateClassRequest renames a class and optionally replaces its teachers.
type UpdateClassRequest struct {
	Name       string    `json:"name" validate:"required,max=100"`
	TeacherIDs *[]string `json:"teacher_ids"`
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	graph     classGraph
	students  classStudentCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, graph classGraph, students classStudentCounter, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, graph: graph, students: students, validator: validate, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a class with its teachers, courses and enrolment count.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "class not found", "failed to load class")
	}
	teachers, err := s.graph.ListClassTeachers(ctx, id)
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.ListCourses(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class courses")
	}
	count, err := s.students.CountByClass(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count class students")
	}
	return &models.ClassDetail{Class: *class, Teachers: teachers, Courses: courses, StudentCount: count}, nil
}

// Create adds a new class and its initial teacher set atomically.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid class payload")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}

	class := &models.Class{Name: name}
	if err := s.graph.CreateClass(ctx, class, req.TeacherIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, class.ID)
}

// Update renames a class; a non-nil teacher list replaces the teacher set.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid class payload")
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "class not found", "failed to load class")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}

	if class.Name != name {
		class.Name = name
		if err := s.repo.Rename(ctx, class); err != nil {
			return nil, mapProfileWriteError(err, "class", "failed to update class")
		}
	}
	if req.TeacherIDs != nil {
		if _, err := s.graph.AssignTeachers(ctx, id, *req.TeacherIDs); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the class through the relationship graph.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	return s.graph.DeleteClass(ctx, id)
}

func (s *ClassService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check class name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "class name already exists")
	}
	return nil
}
