package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type examResultRepository interface {
	FindByID(ctx context.Context, id string) (*models.ExamResult, error)
	FindDetailByID(ctx context.Context, id string) (*models.ExamResultDetail, error)
	ExistsByNaturalKey(ctx context.Context, studentID, courseID, examType string, examDate time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, result *models.ExamResult) error
	Update(ctx context.Context, result *models.ExamResult) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResultDetail, int, error)
}

// ExamResultService manages the lifecycle of graded exam results.
type ExamResultService struct {
	repo      examResultRepository
	identity  roleResolver
	classes   classReader
	courses   courseReader
	students  studentReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// ExamResultServiceParams groups the collaborators of ExamResultService.
type ExamResultServiceParams struct {
	Repo      examResultRepository
	Identity  roleResolver
	Classes   classReader
	Courses   courseReader
	Students  studentReader
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewExamResultService constructs an ExamResultService.
func NewExamResultService(params ExamResultServiceParams) *ExamResultService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &ExamResultService{
		repo:      params.Repo,
		identity:  params.Identity,
		classes:   params.Classes,
		courses:   params.Courses,
		students:  params.Students,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// resolvedResult carries the entities a request refers to.
type resolvedResult struct {
	student *models.Student
	class   *models.Class
	course  *models.Course
	date    time.Time
	score   float64
}

// Create records a new result and derives its grade.
func (s *ExamResultService) Create(ctx context.Context, req dto.ExamResultRequest, actor *models.JWTClaims) (*dto.ExamResultView, error) {
	rc, err := s.resolveWriter(ctx, actor)
	if err != nil {
		return nil, err
	}
	refs, err := s.resolve(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if err := authoriseResultWrite(rc, refs.class.ID); err != nil {
		return nil, err
	}

	result := &models.ExamResult{
		StudentID: refs.student.ID,
		ClassID:   refs.class.ID,
		CourseID:  refs.course.ID,
		ExamType:  req.ExamType,
		ExamDate:  refs.date,
		Score:     refs.score,
		Grade:     GradeOf(refs.score),
		Remarks:   req.Remarks,
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, mapResultWriteError(err, "failed to create exam result")
	}

	s.metrics.RecordExamResultWrite(LedgerOpCreate)
	s.logger.Info("exam result created",
		zap.String("id", result.ID),
		zap.String("student_id", result.StudentID),
		zap.String("course_id", result.CourseID),
		zap.String("grade", result.Grade),
	)
	s.invalidate(ctx, result.StudentID)
	return resultView(result, refs), nil
}

// Update replaces an existing result; the duplicate check ignores the row
// itself. Authorization follows create and is keyed on the target class.
func (s *ExamResultService) Update(ctx context.Context, id string, req dto.ExamResultRequest, actor *models.JWTClaims) (*dto.ExamResultView, error) {
	rc, err := s.resolveWriter(ctx, actor)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "exam result not found", "failed to load exam result")
	}
	refs, err := s.resolve(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if err := authoriseResultWrite(rc, refs.class.ID); err != nil {
		return nil, err
	}

	previousStudent := existing.StudentID
	existing.StudentID = refs.student.ID
	existing.ClassID = refs.class.ID
	existing.CourseID = refs.course.ID
	existing.ExamType = req.ExamType
	existing.ExamDate = refs.date
	existing.Score = refs.score
	existing.Grade = GradeOf(refs.score)
	existing.Remarks = req.Remarks
	if err := s.repo.Update(ctx, existing); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam result not found")
		}
		return nil, mapResultWriteError(err, "failed to update exam result")
	}

	s.metrics.RecordExamResultWrite(LedgerOpUpdate)
	s.logger.Info("exam result updated", zap.String("id", existing.ID), zap.String("grade", existing.Grade))
	s.invalidate(ctx, existing.StudentID)
	if previousStudent != existing.StudentID {
		s.invalidate(ctx, previousStudent)
	}
	return resultView(existing, refs), nil
}

// Delete hard-deletes a result. Route-level RBAC is the only gate; class
// assignment is not checked here.
func (s *ExamResultService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "exam result not found", "failed to load exam result")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOrInternal(err, "exam result not found", "failed to delete exam result")
	}
	s.metrics.RecordExamResultWrite(LedgerOpDelete)
	s.logger.Info("exam result deleted", zap.String("id", id), zap.String("student_id", existing.StudentID))
	s.invalidate(ctx, existing.StudentID)
	return nil
}

// Get returns one result visible to the actor.
func (s *ExamResultService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExamResultView, error) {
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "exam result not found", "failed to load exam result")
	}
	switch {
	case rc.IsAdmin():
	case rc.Role == models.RoleTeacher && rc.IsTeacherAssigned(detail.ClassID):
	case rc.Role == models.RoleStudent && rc.StudentID != nil && *rc.StudentID == detail.StudentID:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this exam result")
	}
	view := detailView(*detail)
	return &view, nil
}

// List returns results scoped to what the actor may see.
func (s *ExamResultService) List(ctx context.Context, query dto.ExamResultQuery, actor *models.JWTClaims) ([]dto.ExamResultView, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Invalid(err, "invalid exam result query")
	}
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	filter := resultFilter(query)
	switch {
	case rc.IsAdmin():
		return s.list(ctx, filter)
	case rc.Role == models.RoleTeacher:
		return s.ListForTeacher(ctx, rc, filter)
	case rc.Role == models.RoleStudent:
		return s.ListForStudent(ctx, rc, filter)
	}
	return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to list exam results")
}

// ListForTeacher restricts the listing to the teacher's assigned classes.
func (s *ExamResultService) ListForTeacher(ctx context.Context, rc *models.RoleContext, filter models.ExamResultFilter) ([]dto.ExamResultView, *models.Pagination, error) {
	if filter.ClassID != "" && !rc.IsTeacherAssigned(filter.ClassID) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}
	filter.ClassIDs = rc.ClassIDs()
	return s.list(ctx, filter)
}

// ListForStudent restricts the listing to the student's own results.
func (s *ExamResultService) ListForStudent(ctx context.Context, rc *models.RoleContext, filter models.ExamResultFilter) ([]dto.ExamResultView, *models.Pagination, error) {
	if rc.StudentID == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "student profile required")
	}
	filter.StudentID = *rc.StudentID
	return s.list(ctx, filter)
}

// Mine lists the calling student's own results.
func (s *ExamResultService) Mine(ctx context.Context, query dto.ExamResultQuery, actor *models.JWTClaims) ([]dto.ExamResultView, *models.Pagination, error) {
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	return s.ListForStudent(ctx, rc, resultFilter(query))
}

func (s *ExamResultService) list(ctx context.Context, filter models.ExamResultFilter) ([]dto.ExamResultView, *models.Pagination, error) {
	details, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list exam results")
	}
	views := make([]dto.ExamResultView, 0, len(details))
	for _, d := range details {
		views = append(views, detailView(d))
	}
	return views, paginationFor(filter.Page, filter.PageSize, total), nil
}

// resolve validates the payload and loads the referenced rows. Missing
// references are request errors rather than NotFound.
func (s *ExamResultService) resolve(ctx context.Context, req dto.ExamResultRequest, excludeID string) (*resolvedResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid exam result payload")
	}
	date, err := time.Parse(dateLayout, req.ExamDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examDate must use YYYY-MM-DD")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, invalidReference(err, "student not found", "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, invalidReference(err, "class not found", "failed to load class")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, invalidReference(err, "course not found", "failed to load course")
	}

	score := roundScore(*req.Score)
	if score < 0 || score > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and 100")
	}
	if !student.InClass(class.ID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this class")
	}

	exists, err := s.repo.ExistsByNaturalKey(ctx, student.ID, course.ID, req.ExamType, date, excludeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check duplicate exam result")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "exam result already recorded for this student, course, exam type and date")
	}
	return &resolvedResult{student: student, class: class, course: course, date: date, score: score}, nil
}

// resolveWriter resolves the actor of a write. A teacher without a profile
// is refused rather than reported as a missing record.
func (s *ExamResultService) resolveWriter(ctx context.Context, actor *models.JWTClaims) (*models.RoleContext, error) {
	rc, err := s.identity.Resolve(ctx, actor)
	if err == nil {
		return rc, nil
	}
	if actor != nil && actor.Role == models.RoleTeacher && appErrors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden, "teacher profile required")
	}
	return nil, err
}

// roundScore matches the NUMERIC(5,2) column so the grade is derived from
// the value that is stored.
func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

func (s *ExamResultService) invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, studentDashboardKey(studentID), dashboardKeyPattern)
}

func authoriseResultWrite(rc *models.RoleContext, classID string) error {
	if rc.IsAdmin() {
		return nil
	}
	if rc.TeacherID == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "teacher profile required")
	}
	if !rc.IsTeacherAssigned(classID) {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}
	return nil
}

func mapResultWriteError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict, "exam result already recorded for this student, course, exam type and date")
	case errors.Is(err, repository.ErrForeignKey):
		return appErrors.Wrap(err, appErrors.ErrIntegrityConflict, "exam result references a record that no longer exists")
	}
	return appErrors.Internal(err, message)
}

func invalidReference(err error, message, internal string) error {
	if repository.IsNotFound(err) {
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	return appErrors.Internal(err, internal)
}

func resultFilter(query dto.ExamResultQuery) models.ExamResultFilter {
	return models.ExamResultFilter{
		ClassID:   query.ClassID,
		CourseID:  query.CourseID,
		StudentID: query.StudentID,
		ExamType:  query.ExamType,
		ExamDate:  parseOptionalDate(query.ExamDate),
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
}

func resultView(result *models.ExamResult, refs *resolvedResult) *dto.ExamResultView {
	return &dto.ExamResultView{
		ID:          result.ID,
		StudentID:   result.StudentID,
		StudentName: refs.student.FullName(),
		ClassID:     result.ClassID,
		ClassName:   refs.class.Name,
		CourseID:    result.CourseID,
		CourseName:  refs.course.Name,
		ExamType:    result.ExamType,
		ExamDate:    result.ExamDate.Format(dateLayout),
		Score:       result.Score,
		Grade:       result.Grade,
		Remarks:     result.Remarks,
	}
}

func detailView(d models.ExamResultDetail) dto.ExamResultView {
	return dto.ExamResultView{
		ID:          d.ID,
		StudentID:   d.StudentID,
		StudentName: d.StudentName,
		ClassID:     d.ClassID,
		ClassName:   d.ClassName,
		CourseID:    d.CourseID,
		CourseName:  d.CourseName,
		ExamType:    d.ExamType,
		ExamDate:    d.ExamDate.Format(dateLayout),
		Score:       d.Score,
		Grade:       d.Grade,
		Remarks:     d.Remarks,
	}
}
