package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const clockLayout = "15:04"

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Delete(ctx context.Context, id string) error
}

// PeriodRequest is the payload for creating or updating a period slot.
type PeriodRequest struct {
	ClassID      string `json:"class_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	DayOfWeek    string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `json:"end_time" validate:"required,datetime=15:04"`
	PeriodNumber int    `json:"period_number" validate:"required,min=1,max=20"`
}

// PeriodService manages scheduled period slots.
type PeriodService struct {
	repo      periodRepository
	classes   classReader
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodRepository, classes classReader, courses courseReader, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, classes: classes, courses: courses, validator: validate, logger: logger}
}

// List returns periods for a class, optionally narrowed to a day or course.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	periods, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list periods")
	}
	return periods, nil
}

// Get returns a period by id.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "period not found", "failed to load period")
	}
	return period, nil
}

// Create adds a period; the (class, day, number) slot must be free.
func (s *PeriodService) Create(ctx context.Context, req PeriodRequest) (*models.Period, error) {
	if err := s.prepare(ctx, req); err != nil {
		return nil, err
	}
	period := &models.Period{}
	applyPeriodRequest(period, req)
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, mapCatalogueWriteError(err, "period slot already taken", "failed to create period")
	}
	s.logger.Info("period created", zap.String("period_id", period.ID), zap.String("class_id", period.ClassID))
	return period, nil
}

// Update modifies a period.
func (s *PeriodService) Update(ctx context.Context, id string, req PeriodRequest) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "period not found", "failed to load period")
	}
	if err := s.prepare(ctx, req); err != nil {
		return nil, err
	}
	applyPeriodRequest(period, req)
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, mapCatalogueWriteError(err, "period slot already taken", "failed to update period")
	}
	return period, nil
}

// Delete removes a period that has no attendance recorded against it.
func (s *PeriodService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapCatalogueDeleteError(err, "period", "failed to delete period")
	}
	s.logger.Info("period deleted", zap.String("period_id", id))
	return nil
}

func (s *PeriodService) prepare(ctx context.Context, req PeriodRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid period payload")
	}
	start, _ := time.Parse(clockLayout, req.StartTime)
	end, _ := time.Parse(clockLayout, req.EndTime)
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		return invalidReference(err, "class not found", "failed to load class")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return invalidReference(err, "course not found", "failed to load course")
	}
	return nil
}

func applyPeriodRequest(period *models.Period, req PeriodRequest) {
	period.ClassID = req.ClassID
	period.CourseID = req.CourseID
	period.DayOfWeek = req.DayOfWeek
	period.StartTime = req.StartTime
	period.EndTime = req.EndTime
	period.PeriodNumber = req.PeriodNumber
}
