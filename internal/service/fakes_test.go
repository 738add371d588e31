package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func adminCtx() *models.RoleContext {
	return &models.RoleContext{UserID: "admin-user", Role: models.RoleAdmin, AssignedClassIDs: map[string]struct{}{}}
}

func teacherCtx(teacherID string, classIDs ...string) *models.RoleContext {
	assigned := map[string]struct{}{}
	for _, id := range classIDs {
		assigned[id] = struct{}{}
	}
	return &models.RoleContext{UserID: "user-" + teacherID, Role: models.RoleTeacher, TeacherID: strPtr(teacherID), AssignedClassIDs: assigned}
}

func studentCtx(studentID string) *models.RoleContext {
	return &models.RoleContext{UserID: "user-" + studentID, Role: models.RoleStudent, StudentID: strPtr(studentID), AssignedClassIDs: map[string]struct{}{}}
}

var anyActor = &models.JWTClaims{UserID: "caller"}

type fakeIdentity struct {
	rc  *models.RoleContext
	err error
}

func (f fakeIdentity) Resolve(ctx context.Context, claims *models.JWTClaims) (*models.RoleContext, error) {
	return f.rc, f.err
}

type fakeClasses struct {
	items map[string]*models.Class
	err   error
}

func (f fakeClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.items[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCourses struct {
	items map[string]*models.Course
}

func (f fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.items[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeCourses) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	out := []models.Course{}
	for _, id := range ids {
		if c, ok := f.items[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakePeriods struct {
	items map[string]*models.Period
}

func (f fakePeriods) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := f.items[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type fakeStudents struct {
	items map[string]*models.Student
	err   error
}

func (f fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.items[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeStudents) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Student{}
	for _, id := range ids {
		if s, ok := f.items[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f fakeStudents) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.items {
		if s.UserID != nil && *s.UserID == userID {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := []models.Student{}
	for _, s := range f.items {
		if filter.ClassID == "" || s.InClass(filter.ClassID) {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (f fakeStudents) CountByClass(ctx context.Context, classID string) (int, error) {
	_, total, err := f.List(ctx, models.StudentFilter{ClassID: classID})
	return total, err
}

type fakeTeachers struct {
	items map[string]*models.Teacher
	err   error
}

func (f fakeTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.items[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeTeachers) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	out := []models.Teacher{}
	for _, id := range ids {
		if t, ok := f.items[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f fakeTeachers) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.items {
		if t.UserID != nil && *t.UserID == userID {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeAssignments struct {
	byTeacher map[string][]string
	err       error
}

func (f fakeAssignments) ClassIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	return f.byTeacher[teacherID], f.err
}

type fakeAttendanceRepo struct {
	upserted  []*models.Attendance
	rows      map[string]models.Attendance
	upsertErr error
	details   []models.AttendanceDetail
	filters   []models.AttendanceFilter
	summary   *models.AttendanceSummary
}

func (f *fakeAttendanceRepo) UpsertBatch(ctx context.Context, marks []*models.Attendance) (repository.UpsertOutcome, error) {
	if f.upsertErr != nil {
		return repository.UpsertOutcome{}, f.upsertErr
	}
	if f.rows == nil {
		f.rows = map[string]models.Attendance{}
	}
	var outcome repository.UpsertOutcome
	for _, m := range marks {
		key := strings.Join([]string{m.StudentID, m.ClassID, m.CourseID, m.PeriodID, m.AttendanceDate.Format(dateLayout)}, "|")
		if stored, ok := f.rows[key]; ok {
			m.ID = stored.ID
			outcome.Updated++
		} else {
			m.ID = "att-" + m.StudentID + "-" + m.AttendanceDate.Format(dateLayout)
			outcome.Inserted++
		}
		f.rows[key] = *m
	}
	f.upserted = append(f.upserted, marks...)
	return outcome, nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	f.filters = append(f.filters, filter)
	return f.details, nil
}

func (f *fakeAttendanceRepo) Summary(ctx context.Context, studentID string, from, to *time.Time) (*models.AttendanceSummary, error) {
	if f.summary == nil {
		return &models.AttendanceSummary{}, nil
	}
	return f.summary, nil
}

type fakeExamRepo struct {
	results   map[string]*models.ExamResult
	details   []models.ExamResultDetail
	excluded  []string
	createErr error
	filters   []models.ExamResultFilter
	deleted   []string
	averages  []models.CourseAverage
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{results: map[string]*models.ExamResult{}}
}

func (f *fakeExamRepo) FindByID(ctx context.Context, id string) (*models.ExamResult, error) {
	if r, ok := f.results[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeExamRepo) FindDetailByID(ctx context.Context, id string) (*models.ExamResultDetail, error) {
	r, ok := f.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ExamResultDetail{ExamResult: *r}, nil
}

// ExistsByNaturalKey matches the stored rows the way the unique constraint does.
func (f *fakeExamRepo) ExistsByNaturalKey(ctx context.Context, studentID, courseID, examType string, examDate time.Time, excludeID string) (bool, error) {
	f.excluded = append(f.excluded, excludeID)
	for id, r := range f.results {
		if id == excludeID {
			continue
		}
		if r.StudentID == studentID && r.CourseID == courseID && r.ExamType == examType && r.ExamDate.Equal(examDate) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExamRepo) Create(ctx context.Context, result *models.ExamResult) error {
	if f.createErr != nil {
		return f.createErr
	}
	if result.ID == "" {
		result.ID = "res-" + result.StudentID
	}
	clone := *result
	f.results[result.ID] = &clone
	return nil
}

func (f *fakeExamRepo) Update(ctx context.Context, result *models.ExamResult) error {
	if _, ok := f.results[result.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *result
	f.results[result.ID] = &clone
	return nil
}

func (f *fakeExamRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.results[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.results, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// List pages over details using the filter's page size.
func (f *fakeExamRepo) List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResultDetail, int, error) {
	f.filters = append(f.filters, filter)
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(f.details) {
		return []models.ExamResultDetail{}, len(f.details), nil
	}
	end := start + size
	if end > len(f.details) {
		end = len(f.details)
	}
	return f.details[start:end], len(f.details), nil
}

func (f *fakeExamRepo) AveragesByStudent(ctx context.Context, studentID string) ([]models.CourseAverage, error) {
	return f.averages, nil
}

type fakeMembership struct {
	teachersByClass map[string][]models.TeacherSummary
	classesByTeach  map[string][]models.ClassSummary
	created         []*models.Class
	replacedTeach   map[string][]string
	replacedCourses map[string][]string
	unlink          repository.ClassUnlink
	err             error
	deletedClasses  []string
	deletedTeachers []string
	deletedStudents []string
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{
		teachersByClass: map[string][]models.TeacherSummary{},
		classesByTeach:  map[string][]models.ClassSummary{},
		replacedTeach:   map[string][]string{},
		replacedCourses: map[string][]string{},
	}
}

func (f *fakeMembership) CreateClass(ctx context.Context, class *models.Class, teacherIDs []string) error {
	if f.err != nil {
		return f.err
	}
	if class.ID == "" {
		class.ID = "class-" + strings.ToLower(strings.ReplaceAll(class.Name, " ", "-"))
	}
	f.created = append(f.created, class)
	_, err := f.ReplaceTeachers(ctx, class.ID, teacherIDs)
	return err
}

func (f *fakeMembership) ReplaceTeachers(ctx context.Context, classID string, teacherIDs []string) (repository.TeacherDiff, error) {
	if f.err != nil {
		return repository.TeacherDiff{}, f.err
	}
	f.replacedTeach[classID] = teacherIDs
	summaries := make([]models.TeacherSummary, 0, len(teacherIDs))
	for _, id := range teacherIDs {
		summaries = append(summaries, models.TeacherSummary{ID: id})
	}
	f.teachersByClass[classID] = summaries
	return repository.TeacherDiff{Added: teacherIDs}, nil
}

func (f *fakeMembership) ReplaceCourses(ctx context.Context, classID string, courseIDs []string) error {
	if f.err != nil {
		return f.err
	}
	f.replacedCourses[classID] = courseIDs
	return nil
}

func (f *fakeMembership) UnassignClass(ctx context.Context, classID string) (repository.ClassUnlink, error) {
	return f.unlink, f.err
}

func (f *fakeMembership) DeleteClass(ctx context.Context, classID string) (repository.ClassUnlink, error) {
	if f.err != nil {
		return repository.ClassUnlink{}, f.err
	}
	f.deletedClasses = append(f.deletedClasses, classID)
	return f.unlink, nil
}

func (f *fakeMembership) DeleteTeacher(ctx context.Context, teacherID string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedTeachers = append(f.deletedTeachers, teacherID)
	return nil
}

func (f *fakeMembership) DeleteStudent(ctx context.Context, studentID string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedStudents = append(f.deletedStudents, studentID)
	return nil
}

func (f *fakeMembership) ListTeachersByClass(ctx context.Context, classID string) ([]models.TeacherSummary, error) {
	return f.teachersByClass[classID], nil
}

func (f *fakeMembership) ListClassesByTeacher(ctx context.Context, teacherID string) ([]models.ClassSummary, error) {
	return f.classesByTeach[teacherID], nil
}

func (f *fakeMembership) IsTeacherAssigned(ctx context.Context, teacherID, classID string) (bool, error) {
	for _, t := range f.teachersByClass[classID] {
		if t.ID == teacherID {
			return true, nil
		}
	}
	return false, nil
}

// fakeCacheStore keeps JSON payloads in memory and records deletions.
type fakeCacheStore struct {
	data     map[string][]byte
	deleted  []string
	patterns []string
	getErr   error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{data: map[string][]byte{}}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCacheStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

func newTestCache(store *fakeCacheStore) *CacheService {
	return NewCacheService(store, nil, CacheConfig{Enabled: true, DefaultTTL: time.Minute}, nil)
}
