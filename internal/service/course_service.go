package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CourseRequest is the payload for creating or updating courses.
type CourseRequest struct {
	Code        string  `json:"code" validate:"required,max=20"`
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	TeacherID   *string `json:"teacher_id"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	teachers  teacherReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, teachers teacherReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	return course, nil
}

// Create adds a course with a unique code.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.prepare(ctx, req, ""); err != nil {
		return nil, err
	}
	course := &models.Course{}
	applyCourseRequest(course, req)
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, mapCatalogueWriteError(err, "course code already exists", "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	if err := s.prepare(ctx, req, id); err != nil {
		return nil, err
	}
	applyCourseRequest(course, req)
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, mapCatalogueWriteError(err, "course code already exists", "failed to update course")
	}
	return course, nil
}

// Delete removes a course that nothing references any more.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapCatalogueDeleteError(err, "course", "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

func (s *CourseService) prepare(ctx context.Context, req CourseRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid course payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, strings.TrimSpace(req.Code), excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check course code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}
	if owner := normalizeOptional(req.TeacherID); owner != nil {
		if _, err := s.teachers.FindByID(ctx, *owner); err != nil {
			return invalidReference(err, "teacher not found", "failed to load teacher")
		}
	}
	return nil
}

func applyCourseRequest(course *models.Course, req CourseRequest) {
	course.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	course.Name = strings.TrimSpace(req.Name)
	course.Description = normalizeOptional(req.Description)
	course.TeacherID = normalizeOptional(req.TeacherID)
}

// mapCatalogueWriteError maps a unique violation to Conflict with the given message.
func mapCatalogueWriteError(err error, conflict, message string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict, conflict)
	case errors.Is(err, repository.ErrForeignKey):
		return appErrors.Invalid(err, "payload references an unknown record")
	}
	return appErrors.Internal(err, message)
}

func mapCatalogueDeleteError(err error, entity, message string) error {
	if errors.Is(err, repository.ErrForeignKey) {
		return appErrors.Wrap(err, appErrors.ErrIntegrityConflict, entity+" is still referenced by other records")
	}
	return notFoundOrInternal(err, entity+" not found", message)
}
