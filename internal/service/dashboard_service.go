package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const (
	dashboardKeyPattern = "dash:summary:*"
	adminDashboardKey   = "dash:summary:admin"
)

func teacherDashboardKey(teacherID string) string {
	return fmt.Sprintf("dash:summary:teacher:%s", teacherID)
}

func studentDashboardKey(studentID string) string {
	return fmt.Sprintf("dash:student:%s", studentID)
}

type dashboardRepository interface {
	AdminTotals(ctx context.Context) (*models.AdminDashboard, error)
	TeacherTotals(ctx context.Context, teacherID string) (*models.TeacherDashboard, error)
}

type studentAverageReader interface {
	AveragesByStudent(ctx context.Context, studentID string) ([]models.CourseAverage, error)
}

type attendanceSummaryReader interface {
	Summary(ctx context.Context, studentID string, from, to *time.Time) (*models.AttendanceSummary, error)
}

// DashboardConfig tunes dashboard caching.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups dependencies for DashboardService.
type DashboardServiceParams struct {
	Repo       dashboardRepository
	Results    studentAverageReader
	Attendance attendanceSummaryReader
	Students   studentReader
	Identity   roleResolver
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardConfig
}

// DashboardService composes the per-role overview payloads.
type DashboardService struct {
	repo       dashboardRepository
	results    studentAverageReader
	attendance attendanceSummaryReader
	students   studentReader
	identity   roleResolver
	cache      *CacheService
	logger     *zap.Logger
	cfg        DashboardConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:       params.Repo,
		results:    params.Results,
		attendance: params.Attendance,
		students:   params.Students,
		identity:   params.Identity,
		cache:      params.Cache,
		logger:     logger,
		cfg:        params.Config,
	}
}

// Admin returns entity totals and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	var cached models.AdminDashboard
	if s.tryCache(ctx, adminDashboardKey, &cached) {
		return &cached, true, nil
	}
	summary, err := s.repo.AdminTotals(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load admin dashboard")
	}
	s.persistCache(ctx, adminDashboardKey, summary)
	return summary, false, nil
}

// Teacher returns totals for the calling teacher's classes.
func (s *DashboardService) Teacher(ctx context.Context, actor *models.JWTClaims) (*models.TeacherDashboard, bool, error) {
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	if rc.TeacherID == nil {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "teacher profile required")
	}
	key := teacherDashboardKey(*rc.TeacherID)
	var cached models.TeacherDashboard
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}
	summary, err := s.repo.TeacherTotals(ctx, *rc.TeacherID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load teacher dashboard")
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Student returns result averages and attendance rate for a student. An
// empty studentID means the calling student.
func (s *DashboardService) Student(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.StudentDashboard, bool, error) {
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, false, err
	}
	if studentID == "" {
		if rc.StudentID == nil {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
		}
		studentID = *rc.StudentID
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, false, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	if err := authoriseStudentRead(rc, student); err != nil {
		return nil, false, err
	}

	key := studentDashboardKey(student.ID)
	var cached models.StudentDashboard
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	averages, err := s.results.AveragesByStudent(ctx, student.ID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load exam averages")
	}
	attendance, err := s.attendance.Summary(ctx, student.ID, nil, nil)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load attendance summary")
	}

	summary := &models.StudentDashboard{
		StudentID:         student.ID,
		AttendancePercent: attendance.Percent,
		Courses:           averages,
	}
	var weighted float64
	for _, avg := range averages {
		summary.ExamResults += avg.Exams
		weighted += avg.Average * float64(avg.Exams)
	}
	if summary.ExamResults > 0 {
		summary.AverageScore = weighted / float64(summary.ExamResults)
		summary.AverageGrade = GradeOf(summary.AverageScore)
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// tryCache reports a hit; cache failures degrade to a miss.
func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
