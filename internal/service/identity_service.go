package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type teacherProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type studentProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type classAssignmentReader interface {
	ClassIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
}

// IdentityService turns token claims into a RoleContext backed by profile rows.
type IdentityService struct {
	teachers    teacherProfileReader
	students    studentProfileReader
	assignments classAssignmentReader
	logger      *zap.Logger
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(teachers teacherProfileReader, students studentProfileReader, assignments classAssignmentReader, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{teachers: teachers, students: students, assignments: assignments, logger: logger}
}

// Resolve loads the profile behind the principal. A teacher or student
// without a profile is an error, not an empty context.
func (s *IdentityService) Resolve(ctx context.Context, claims *models.JWTClaims) (*models.RoleContext, error) {
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	rc := &models.RoleContext{
		UserID:           claims.UserID,
		Role:             claims.Role,
		AssignedClassIDs: map[string]struct{}{},
	}

	switch {
	case claims.Role.IsAdmin():
		// admins may also hold a teacher profile, which is recorded as the marker
		teacher, err := s.teachers.FindByUserID(ctx, claims.UserID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, appErrors.Internal(err, "failed to load teacher profile")
		}
		if teacher != nil {
			rc.TeacherID = &teacher.ID
		}
	case claims.Role == models.RoleTeacher:
		teacher, err := s.teachers.FindByUserID(ctx, claims.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
			}
			return nil, appErrors.Internal(err, "failed to load teacher profile")
		}
		rc.TeacherID = &teacher.ID
		classIDs, err := s.assignments.ClassIDsByTeacher(ctx, teacher.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load class assignments")
		}
		for _, id := range classIDs {
			rc.AssignedClassIDs[id] = struct{}{}
		}
	case claims.Role == models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, claims.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
			}
			return nil, appErrors.Internal(err, "failed to load student profile")
		}
		rc.StudentID = &student.ID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unsupported role")
	}

	s.logger.Debug("role context resolved",
		zap.String("user_id", rc.UserID),
		zap.String("role", string(rc.Role)),
		zap.Int("classes", len(rc.AssignedClassIDs)),
	)
	return rc, nil
}
