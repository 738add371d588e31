package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type studentRemover interface {
	DeleteStudent(ctx context.Context, studentID string) error
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
}

// StudentRequest holds payload for creating or updating students.
type StudentRequest struct {
	UserID        *string `json:"user_id" validate:"omitempty,uuid"`
	FirstName     string  `json:"first_name" validate:"required,max=100"`
	LastName      string  `json:"last_name" validate:"required,max=100"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DateOfBirth   *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	AdmissionDate *string `json:"admission_date" validate:"omitempty,datetime=2006-01-02"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	ClassID       *string `json:"class_id"`
	SessionID     *string `json:"session_id"`
	Active        *bool   `json:"active"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	classes   classReader
	sessions  sessionReader
	graph     studentRemover
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes classReader, sessions sessionReader, graph studentRemover, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, sessions: sessions, graph: graph, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a student, optionally enrolling it in a class and session.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid student payload")
	}
	if err := s.ensureReferences(ctx, req); err != nil {
		return nil, err
	}

	student := &models.Student{Active: true}
	applyStudentRequest(student, req)
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, mapProfileWriteError(err, "student", "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	if err := s.ensureReferences(ctx, req); err != nil {
		return nil, err
	}

	applyStudentRequest(student, req)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, mapProfileWriteError(err, "student", "failed to update student")
	}
	return student, nil
}

// Delete removes the student with its results and attendance.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	return s.graph.DeleteStudent(ctx, id)
}

func (s *StudentService) ensureReferences(ctx context.Context, req StudentRequest) error {
	if id := normalizeOptional(req.ClassID); id != nil {
		if _, err := s.classes.FindByID(ctx, *id); err != nil {
			return invalidReference(err, "class not found", "failed to load class")
		}
	}
	if id := normalizeOptional(req.SessionID); id != nil {
		if _, err := s.sessions.FindByID(ctx, *id); err != nil {
			return invalidReference(err, "academic session not found", "failed to load academic session")
		}
	}
	return nil
}

func applyStudentRequest(student *models.Student, req StudentRequest) {
	student.UserID = normalizeOptional(req.UserID)
	student.FirstName = strings.TrimSpace(req.FirstName)
	student.LastName = strings.TrimSpace(req.LastName)
	student.Gender = normalizeOptional(req.Gender)
	student.DateOfBirth = optionalDate(req.DateOfBirth)
	student.AdmissionDate = optionalDate(req.AdmissionDate)
	student.Address = normalizeOptional(req.Address)
	student.Phone = normalizeOptional(req.Phone)
	student.ClassID = normalizeOptional(req.ClassID)
	student.SessionID = normalizeOptional(req.SessionID)
	if req.Active != nil {
		student.Active = *req.Active
	}
}

func optionalDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	return parseOptionalDate(strings.TrimSpace(*raw))
}
