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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
}

type teacherRemover interface {
	DeleteTeacher(ctx context.Context, teacherID string) error
}

// TeacherRequest represents payload for creating or updating teachers.
type TeacherRequest struct {
	UserID         *string `json:"user_id" validate:"omitempty,uuid"`
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          *string `json:"phone" validate:"omitempty,max=50"`
	Specialization *string `json:"specialization" validate:"omitempty,max=255"`
	Active         *bool   `json:"active"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo      teacherRepository
	graph     teacherRemover
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, graph teacherRemover, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, graph: graph, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid teacher payload")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{Active: true}
	applyTeacherRequest(teacher, req)
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, mapProfileWriteError(err, "teacher", "failed to create teacher")
	}
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID))
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid teacher payload")
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "teacher not found", "failed to load teacher")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, id); err != nil {
		return nil, err
	}

	applyTeacherRequest(teacher, req)
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, mapProfileWriteError(err, "teacher", "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes the teacher and every assignment edge in one transaction.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	return s.graph.DeleteTeacher(ctx, id)
}

func (s *TeacherService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, strings.TrimSpace(email), excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	return nil
}

func applyTeacherRequest(teacher *models.Teacher, req TeacherRequest) {
	teacher.UserID = normalizeOptional(req.UserID)
	teacher.FirstName = strings.TrimSpace(req.FirstName)
	teacher.LastName = strings.TrimSpace(req.LastName)
	teacher.Email = strings.TrimSpace(req.Email)
	teacher.Phone = normalizeOptional(req.Phone)
	teacher.Specialization = normalizeOptional(req.Specialization)
	if req.Active != nil {
		teacher.Active = *req.Active
	}
}

// mapProfileWriteError covers the unique user_id/email constraints shared by
// teacher and student profiles.
func mapProfileWriteError(err error, entity, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Wrap(err, appErrors.ErrConflict, entity+" already exists")
	}
	if errors.Is(err, repository.ErrForeignKey) {
		return appErrors.Invalid(err, entity+" references an unknown record")
	}
	if repository.IsNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Internal(err, message)
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
