package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type classMembershipRepository interface {
	CreateClass(ctx context.Context, class *models.Class, teacherIDs []string) error
	ReplaceTeachers(ctx context.Context, classID string, teacherIDs []string) (repository.TeacherDiff, error)
	ReplaceCourses(ctx context.Context, classID string, courseIDs []string) error
	UnassignClass(ctx context.Context, classID string) (repository.ClassUnlink, error)
	DeleteClass(ctx context.Context, classID string) (repository.ClassUnlink, error)
	DeleteTeacher(ctx context.Context, teacherID string) error
	DeleteStudent(ctx context.Context, studentID string) error
	ListTeachersByClass(ctx context.Context, classID string) ([]models.TeacherSummary, error)
	ListClassesByTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error)
	IsTeacherAssigned(ctx context.Context, teacherID, classID string) (bool, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type teacherBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type courseBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type classStudentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// RelationshipService owns the teacher/class/student graph. Both sides of the
// teacher/class relation are read from the same junction rows, so a change is
// visible from either side as soon as its transaction commits.
type RelationshipService struct {
	membership classMembershipRepository
	classes    classReader
	teachers   teacherBatchReader
	courses    courseBatchReader
	students   classStudentLister
	cache      *CacheService
	logger     *zap.Logger
}

// NewRelationshipService constructs a RelationshipService.
func NewRelationshipService(membership classMembershipRepository, classes classReader, teachers teacherBatchReader, courses courseBatchReader, students classStudentLister, cache *CacheService, logger *zap.Logger) *RelationshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationshipService{
		membership: membership,
		classes:    classes,
		teachers:   teachers,
		courses:    courses,
		students:   students,
		cache:      cache,
		logger:     logger,
	}
}

// AssignTeachersRequest replaces a class's teacher set.
type AssignTeachersRequest struct {
	TeacherIDs []string `json:"teacher_ids" validate:"omitempty,dive,required"`
}

// AssignCoursesRequest replaces a class's course offering.
type AssignCoursesRequest struct {
	CourseIDs []string `json:"course_ids" validate:"omitempty,dive,required"`
}

// CreateClass inserts the class together with its initial teacher edges.
func (s *RelationshipService) CreateClass(ctx context.Context, class *models.Class, teacherIDs []string) error {
	if err := s.ValidateTeachers(ctx, teacherIDs); err != nil {
		return err
	}
	if err := s.membership.CreateClass(ctx, class, teacherIDs); err != nil {
		return s.mapGraphError(err, "class", "failed to create class")
	}
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.Int("teachers", len(teacherIDs)))
	s.invalidateDashboards(ctx)
	return nil
}

// AssignTeachers makes teacherIDs the complete teacher set of the class.
func (s *RelationshipService) AssignTeachers(ctx context.Context, classID string, teacherIDs []string) ([]models.TeacherSummary, error) {
	if err := s.ensureClass(ctx, classID); err != nil {
		return nil, err
	}
	if err := s.ValidateTeachers(ctx, teacherIDs); err != nil {
		return nil, err
	}

	diff, err := s.membership.ReplaceTeachers(ctx, classID, teacherIDs)
	if err != nil {
		return nil, s.mapGraphError(err, "class", "failed to assign teachers")
	}
	s.logger.Info("class teachers replaced",
		zap.String("class_id", classID),
		zap.Strings("added", diff.Added),
		zap.Strings("removed", diff.Removed),
	)
	s.invalidateDashboards(ctx)
	return s.ListClassTeachers(ctx, classID)
}

// AssignCourses makes courseIDs the complete course offering of the class.
func (s *RelationshipService) AssignCourses(ctx context.Context, classID string, courseIDs []string) error {
	if err := s.ensureClass(ctx, classID); err != nil {
		return err
	}
	if len(courseIDs) > 0 {
		found, err := s.courses.FindByIDs(ctx, courseIDs)
		if err != nil {
			return appErrors.Internal(err, "failed to load courses")
		}
		if missing := firstMissing(courseIDs, courseIDSet(found)); missing != "" {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", missing))
		}
	}
	if err := s.membership.ReplaceCourses(ctx, classID, courseIDs); err != nil {
		return s.mapGraphError(err, "class", "failed to assign courses")
	}
	s.logger.Info("class courses replaced", zap.String("class_id", classID), zap.Int("courses", len(courseIDs)))
	return nil
}

// UnassignClass detaches every student and teacher from the class.
func (s *RelationshipService) UnassignClass(ctx context.Context, classID string) (*repository.ClassUnlink, error) {
	result, err := s.membership.UnassignClass(ctx, classID)
	if err != nil {
		return nil, s.mapGraphError(err, "class", "failed to unassign class")
	}
	s.logger.Info("class unassigned",
		zap.String("class_id", classID),
		zap.Int64("students", result.StudentsUnassigned),
		zap.Int64("teachers", result.TeachersUnlinked),
	)
	s.invalidateDashboards(ctx)
	return &result, nil
}

// DeleteClass unlinks the class and removes it. Periods, attendance or
// results that still reference it abort the delete with IntegrityConflict.
func (s *RelationshipService) DeleteClass(ctx context.Context, classID string) error {
	result, err := s.membership.DeleteClass(ctx, classID)
	if err != nil {
		return s.mapGraphError(err, "class", "failed to delete class")
	}
	s.logger.Info("class deleted",
		zap.String("class_id", classID),
		zap.Int64("students", result.StudentsUnassigned),
		zap.Int64("teachers", result.TeachersUnlinked),
		zap.Int64("courses", result.CoursesUnlinked),
	)
	s.invalidateDashboards(ctx)
	return nil
}

// DeleteTeacher removes the teacher together with every edge pointing at it.
func (s *RelationshipService) DeleteTeacher(ctx context.Context, teacherID string) error {
	if err := s.membership.DeleteTeacher(ctx, teacherID); err != nil {
		return s.mapGraphError(err, "teacher", "failed to delete teacher")
	}
	s.logger.Info("teacher deleted", zap.String("teacher_id", teacherID))
	s.invalidateDashboards(ctx)
	return nil
}

// DeleteStudent removes the student after its results and attendance.
func (s *RelationshipService) DeleteStudent(ctx context.Context, studentID string) error {
	if err := s.membership.DeleteStudent(ctx, studentID); err != nil {
		return s.mapGraphError(err, "student", "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", studentID))
	s.invalidateDashboards(ctx)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, studentDashboardKey(studentID))
	}
	return nil
}

// ListClassTeachers returns the teachers assigned to a class.
func (s *RelationshipService) ListClassTeachers(ctx context.Context, classID string) ([]models.TeacherSummary, error) {
	teachers, err := s.membership.ListTeachersByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class teachers")
	}
	return teachers, nil
}

// ListTeacherClasses returns the classes a teacher is assigned to.
func (s *RelationshipService) ListTeacherClasses(ctx context.Context, teacherID string) ([]models.ClassSummary, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	classes, err := s.membership.ListClassesByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teacher classes")
	}
	return classes, nil
}

// ListClassStudents returns the students currently enrolled in a class.
func (s *RelationshipService) ListClassStudents(ctx context.Context, classID string, page, pageSize int) ([]models.Student, *models.Pagination, error) {
	if err := s.ensureClass(ctx, classID); err != nil {
		return nil, nil, err
	}
	filter := models.StudentFilter{ClassID: classID, Page: page, PageSize: pageSize}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list class students")
	}
	return students, paginationFor(page, pageSize, total), nil
}

// IsTeacherAssigned reports whether the teacher is assigned to the class.
func (s *RelationshipService) IsTeacherAssigned(ctx context.Context, teacherID, classID string) (bool, error) {
	ok, err := s.membership.IsTeacherAssigned(ctx, teacherID, classID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to check teacher assignment")
	}
	return ok, nil
}

func (s *RelationshipService) ensureClass(ctx context.Context, classID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if repository.IsNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Internal(err, "failed to load class")
	}
	return nil
}

// ValidateTeachers fails with NotFound naming the first unknown teacher id.
func (s *RelationshipService) ValidateTeachers(ctx context.Context, teacherIDs []string) error {
	if len(teacherIDs) == 0 {
		return nil
	}
	found, err := s.teachers.FindByIDs(ctx, teacherIDs)
	if err != nil {
		return appErrors.Internal(err, "failed to load teachers")
	}
	known := make(map[string]struct{}, len(found))
	for _, teacher := range found {
		known[teacher.ID] = struct{}{}
	}
	if missing := firstMissing(teacherIDs, known); missing != "" {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %s not found", missing))
	}
	return nil
}

func (s *RelationshipService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, dashboardKeyPattern)
}

// mapGraphError translates repository failures of graph mutations.
func (s *RelationshipService) mapGraphError(err error, entity, message string) error {
	switch {
	case repository.IsNotFound(err):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrForeignKey):
		s.logger.Warn("graph mutation blocked by references", zap.String("entity", entity), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrIntegrityConflict, entity+" is still referenced by other records")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict, entity+" already exists")
	}
	return appErrors.Internal(err, message)
}

func courseIDSet(courses []models.Course) map[string]struct{} {
	set := make(map[string]struct{}, len(courses))
	for _, course := range courses {
		set[course.ID] = struct{}{}
	}
	return set
}

// firstMissing returns the first requested id absent from known.
func firstMissing(requested []string, known map[string]struct{}) string {
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			return id
		}
	}
	return ""
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
