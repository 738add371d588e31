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

type academicSessionRepository interface {
	List(ctx context.Context) ([]models.AcademicSession, error)
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	FindCurrent(ctx context.Context) (*models.AcademicSession, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Save(ctx context.Context, session *models.AcademicSession) error
	Delete(ctx context.Context, id string) error
}

// AcademicSessionRequest is the payload for creating or updating a session.
type AcademicSessionRequest struct {
	Name      string `json:"name" validate:"required,max=50"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	IsCurrent bool   `json:"is_current"`
}

// AcademicSessionService manages academic sessions.
type AcademicSessionService struct {
	repo      academicSessionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicSessionService constructs the service.
func NewAcademicSessionService(repo academicSessionRepository, validate *validator.Validate, logger *zap.Logger) *AcademicSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicSessionService{repo: repo, validator: validate, logger: logger}
}

// List returns every session, newest first.
func (s *AcademicSessionService) List(ctx context.Context) ([]models.AcademicSession, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list academic sessions")
	}
	return sessions, nil
}

// Get returns a session by id.
func (s *AcademicSessionService) Get(ctx context.Context, id string) (*models.AcademicSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "academic session not found", "failed to load academic session")
	}
	return session, nil
}

// Current returns the session flagged current.
func (s *AcademicSessionService) Current(ctx context.Context) (*models.AcademicSession, error) {
	session, err := s.repo.FindCurrent(ctx)
	if err != nil {
		return nil, notFoundOrInternal(err, "no current academic session", "failed to load current academic session")
	}
	return session, nil
}

// Create adds a session. Flagging it current clears the previous current one.
func (s *AcademicSessionService) Create(ctx context.Context, req AcademicSessionRequest) (*models.AcademicSession, error) {
	session := &models.AcademicSession{}
	if err := s.apply(ctx, session, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, mapCatalogueWriteError(err, "academic session already exists or another session became current", "failed to create academic session")
	}
	s.logger.Info("academic session created", zap.String("session_id", session.ID), zap.Bool("current", session.IsCurrent))
	return session, nil
}

// Update modifies a session.
func (s *AcademicSessionService) Update(ctx context.Context, id string, req AcademicSessionRequest) (*models.AcademicSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "academic session not found", "failed to load academic session")
	}
	if err := s.apply(ctx, session, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, mapCatalogueWriteError(err, "academic session already exists or another session became current", "failed to update academic session")
	}
	s.logger.Info("academic session updated", zap.String("session_id", session.ID), zap.Bool("current", session.IsCurrent))
	return session, nil
}

// Delete removes a session no student is enrolled in.
func (s *AcademicSessionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapCatalogueDeleteError(err, "academic session", "failed to delete academic session")
	}
	return nil
}

func (s *AcademicSessionService) apply(ctx context.Context, session *models.AcademicSession, req AcademicSessionRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Invalid(err, "invalid academic session payload")
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check academic session name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "academic session already exists")
	}
	session.Name = name
	session.StartDate = start
	session.EndDate = end
	session.IsCurrent = req.IsCurrent
	return nil
}
