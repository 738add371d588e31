package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type attendanceRepository interface {
	UpsertBatch(ctx context.Context, marks []*models.Attendance) (repository.UpsertOutcome, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error)
	Summary(ctx context.Context, studentID string, from, to *time.Time) (*models.AttendanceSummary, error)
}

type roleResolver interface {
	Resolve(ctx context.Context, claims *models.JWTClaims) (*models.RoleContext, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AttendanceService records and reads attendance marks.
type AttendanceService struct {
	repo      attendanceRepository
	identity  roleResolver
	classes   classReader
	courses   courseReader
	periods   periodReader
	students  studentReader
	teachers  teacherReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// AttendanceServiceParams groups the collaborators of AttendanceService.
type AttendanceServiceParams struct {
	Repo      attendanceRepository
	Identity  roleResolver
	Classes   classReader
	Courses   courseReader
	Periods   periodReader
	Students  studentReader
	Teachers  teacherReader
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      params.Repo,
		identity:  params.Identity,
		classes:   params.Classes,
		courses:   params.Courses,
		periods:   params.Periods,
		students:  params.Students,
		teachers:  params.Teachers,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// Mark upserts one mark per listed student. Every reference is resolved and
// the actor authorised before anything is written; the batch is all or nothing.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest, actor *models.JWTClaims) ([]dto.AttendanceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid attendance payload")
	}
	studentIDs, err := rosterIDs(req.Students)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}

	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class not found", "failed to load class")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		return nil, notFoundOrInternal(err, "period not found", "failed to load period")
	}
	if !period.BelongsTo(class.ID, course.ID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period does not belong to the given class and course")
	}

	if !rc.CanWriteClass(class.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}

	students, err := s.students.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}
	byID := make(map[string]models.Student, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}
	for _, id := range studentIDs {
		if _, ok := byID[id]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
		}
	}

	marks := make([]*models.Attendance, 0, len(req.Students))
	for _, entry := range req.Students {
		marks = append(marks, &models.Attendance{
			StudentID:      entry.StudentID,
			ClassID:        class.ID,
			CourseID:       course.ID,
			PeriodID:       period.ID,
			AttendanceDate: date,
			Present:        entry.Present,
			Remarks:        entry.Remarks,
			MarkedBy:       rc.TeacherID,
		})
	}

	outcome, err := s.repo.UpsertBatch(ctx, marks)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, appErrors.Wrap(err, appErrors.ErrIntegrityConflict, "attendance references a record that no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to record attendance")
	}
	s.metrics.RecordAttendanceMarks(outcome.Inserted, outcome.Updated)
	s.logger.Info("attendance marked",
		zap.String("class_id", class.ID),
		zap.String("period_id", period.ID),
		zap.String("date", req.Date),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
	)
	s.invalidateStudents(ctx, studentIDs)

	markerName := s.markerName(ctx, rc.TeacherID)
	views := make([]dto.AttendanceView, 0, len(marks))
	for _, mark := range marks {
		views = append(views, dto.AttendanceView{
			ID:           mark.ID,
			StudentID:    mark.StudentID,
			StudentName:  byID[mark.StudentID].FullName(),
			ClassID:      class.ID,
			ClassName:    class.Name,
			CourseID:     course.ID,
			CourseName:   course.Name,
			PeriodID:     period.ID,
			PeriodName:   period.Label(course.Name),
			Date:         req.Date,
			Present:      mark.Present,
			Remarks:      mark.Remarks,
			MarkedBy:     mark.MarkedBy,
			MarkedByName: markerName,
		})
	}
	return views, nil
}

// ListBySession returns the marks of a class, optionally narrowed to a
// course, period and date.
func (s *AttendanceService) ListBySession(ctx context.Context, query dto.AttendanceQuery, actor *models.JWTClaims) ([]dto.AttendanceView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid attendance query")
	}
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !rc.CanWriteClass(query.ClassID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}

	filter := models.AttendanceFilter{ClassID: query.ClassID, CourseID: query.CourseID, PeriodID: query.PeriodID}
	if query.Date != "" {
		date, _ := time.Parse(dateLayout, query.Date)
		filter.Date = &date
	}
	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	return attendanceViews(details), nil
}

// StudentHistory returns a student's marks and summary. Students may only
// read their own history and teachers only those of students in their classes.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID string, query dto.AttendanceHistoryQuery, actor *models.JWTClaims) (*dto.StudentAttendanceHistory, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Invalid(err, "invalid history query")
	}
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	if err := authoriseStudentRead(rc, student); err != nil {
		return nil, err
	}

	from := parseOptionalDate(query.From)
	to := parseOptionalDate(query.To)
	details, err := s.repo.List(ctx, models.AttendanceFilter{StudentID: student.ID, DateFrom: from, DateTo: to})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	summary, err := s.repo.Summary(ctx, student.ID, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarise attendance")
	}
	return &dto.StudentAttendanceHistory{StudentID: student.ID, Summary: *summary, Records: attendanceViews(details)}, nil
}

func (s *AttendanceService) markerName(ctx context.Context, teacherID *string) *string {
	if teacherID == nil {
		return nil
	}
	teacher, err := s.teachers.FindByID(ctx, *teacherID)
	if err != nil {
		s.logger.Warn("marker lookup failed", zap.String("teacher_id", *teacherID), zap.Error(err))
		return nil
	}
	name := teacher.FullName()
	return &name
}

func (s *AttendanceService) invalidateStudents(ctx context.Context, studentIDs []string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(studentIDs)+1)
	for _, id := range studentIDs {
		keys = append(keys, studentDashboardKey(id))
	}
	_ = s.cache.Invalidate(ctx, append(keys, dashboardKeyPattern)...)
}

// rosterIDs rejects a roster that lists the same student twice.
func rosterIDs(entries []dto.AttendanceEntry) ([]string, error) {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed more than once", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
		ids = append(ids, entry.StudentID)
	}
	return ids, nil
}

func authoriseStudentRead(rc *models.RoleContext, student *models.Student) error {
	switch {
	case rc.IsAdmin():
		return nil
	case rc.Role == models.RoleStudent:
		if rc.StudentID != nil && *rc.StudentID == student.ID {
			return nil
		}
	case rc.Role == models.RoleTeacher:
		if student.ClassID != nil && rc.IsTeacherAssigned(*student.ClassID) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student")
}

func attendanceViews(details []models.AttendanceDetail) []dto.AttendanceView {
	views := make([]dto.AttendanceView, 0, len(details))
	for _, d := range details {
		views = append(views, dto.AttendanceView{
			ID:           d.ID,
			StudentID:    d.StudentID,
			StudentName:  d.StudentName,
			ClassID:      d.ClassID,
			ClassName:    d.ClassName,
			CourseID:     d.CourseID,
			CourseName:   d.CourseName,
			PeriodID:     d.PeriodID,
			PeriodName:   models.Period{PeriodNumber: d.PeriodNumber}.Label(d.CourseName),
			Date:         d.AttendanceDate.Format(dateLayout),
			Present:      d.Present,
			Remarks:      d.Remarks,
			MarkedBy:     d.MarkedBy,
			MarkedByName: d.MarkedByName,
		})
	}
	return views
}

func parseOptionalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if repository.IsNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
