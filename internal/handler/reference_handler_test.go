package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type fakeTeacherSrv struct {
	filter    models.TeacherFilter
	req       service.TeacherRequest
	deletedID string
	err       error
}

func (f *fakeTeacherSrv) List(_ context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	f.filter = filter
	return nil, &models.Pagination{}, f.err
}

func (f *fakeTeacherSrv) Get(_ context.Context, id string) (*models.Teacher, error) {
	return &models.Teacher{ID: id}, f.err
}

func (f *fakeTeacherSrv) Create(_ context.Context, req service.TeacherRequest) (*models.Teacher, error) {
	f.req = req
	return &models.Teacher{ID: "t-new", Email: req.Email}, f.err
}

func (f *fakeTeacherSrv) Update(_ context.Context, id string, req service.TeacherRequest) (*models.Teacher, error) {
	f.req = req
	return &models.Teacher{ID: id}, f.err
}

func (f *fakeTeacherSrv) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return f.err
}

type fakeTeacherClasses struct {
	teacherID string
	err       error
}

func (f *fakeTeacherClasses) ListTeacherClasses(_ context.Context, teacherID string) ([]models.ClassSummary, error) {
	f.teacherID = teacherID
	return []models.ClassSummary{{ID: "class-1", Name: "7A"}, {ID: "class-2", Name: "8B"}}, f.err
}

type fakeCourseSrv struct {
	filter models.CourseFilter
	err    error
}

func (f *fakeCourseSrv) List(_ context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	f.filter = filter
	return nil, &models.Pagination{}, f.err
}

func (f *fakeCourseSrv) Get(_ context.Context, id string) (*models.Course, error) {
	return &models.Course{ID: id}, f.err
}

func (f *fakeCourseSrv) Create(_ context.Context, req service.CourseRequest) (*models.Course, error) {
	return &models.Course{Code: req.Code}, f.err
}

func (f *fakeCourseSrv) Update(_ context.Context, id string, _ service.CourseRequest) (*models.Course, error) {
	return &models.Course{ID: id}, f.err
}

func (f *fakeCourseSrv) Delete(context.Context, string) error { return f.err }

type fakePeriodSrv struct {
	filter models.PeriodFilter
	err    error
}

func (f *fakePeriodSrv) List(_ context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	f.filter = filter
	return []models.Period{}, f.err
}

func (f *fakePeriodSrv) Get(_ context.Context, id string) (*models.Period, error) {
	return &models.Period{ID: id}, f.err
}

func (f *fakePeriodSrv) Create(context.Context, service.PeriodRequest) (*models.Period, error) {
	return &models.Period{ID: "p-1"}, f.err
}

func (f *fakePeriodSrv) Update(_ context.Context, id string, _ service.PeriodRequest) (*models.Period, error) {
	return &models.Period{ID: id}, f.err
}

func (f *fakePeriodSrv) Delete(context.Context, string) error { return f.err }

type fakeSessionSrv struct {
	current *models.AcademicSession
	req     service.AcademicSessionRequest
	err     error
}

func (f *fakeSessionSrv) List(context.Context) ([]models.AcademicSession, error) {
	return []models.AcademicSession{}, f.err
}

func (f *fakeSessionSrv) Get(_ context.Context, id string) (*models.AcademicSession, error) {
	return &models.AcademicSession{ID: id}, f.err
}

func (f *fakeSessionSrv) Current(context.Context) (*models.AcademicSession, error) {
	return f.current, f.err
}

func (f *fakeSessionSrv) Create(_ context.Context, req service.AcademicSessionRequest) (*models.AcademicSession, error) {
	f.req = req
	return &models.AcademicSession{ID: "sess-1", Name: req.Name, IsCurrent: req.IsCurrent}, f.err
}

func (f *fakeSessionSrv) Update(_ context.Context, id string, req service.AcademicSessionRequest) (*models.AcademicSession, error) {
	f.req = req
	return &models.AcademicSession{ID: id}, f.err
}

func (f *fakeSessionSrv) Delete(context.Context, string) error { return f.err }

func TestTeacherListParsesActiveFlag(t *testing.T) {
	srv := &fakeTeacherSrv{}
	h := NewTeacherHandler(srv, &fakeTeacherClasses{})
	c, rec := newContext(http.MethodGet, "/teachers?active=FALSE&search=ana", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.filter.Active)
	assert.False(t, *srv.filter.Active)
	assert.Equal(t, "ana", srv.filter.Search)
}

func TestTeacherCreateConflict(t *testing.T) {
	srv := &fakeTeacherSrv{err: appErrors.Clone(appErrors.ErrConflict, "email already in use")}
	h := NewTeacherHandler(srv, &fakeTeacherClasses{})
	c, rec := newContext(http.MethodPost, "/teachers", map[string]interface{}{
		"first_name": "Ana", "last_name": "Putri", "email": "ana@example.com",
	})

	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ana@example.com", srv.req.Email)
}

func TestTeacherClassesReadsJunction(t *testing.T) {
	classes := &fakeTeacherClasses{}
	h := NewTeacherHandler(&fakeTeacherSrv{}, classes)
	c, rec := newContext(http.MethodGet, "/teachers/t-1/classes", nil)
	withParam(c, "id", "t-1")

	h.Classes(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-1", classes.teacherID)
	var body listEnvelope
	decode(t, rec, &body)
	assert.Len(t, body.Data, 2)
}

func TestTeacherDeleteNoContent(t *testing.T) {
	srv := &fakeTeacherSrv{}
	h := NewTeacherHandler(srv, &fakeTeacherClasses{})
	c, _ := newContext(http.MethodDelete, "/teachers/t-4", nil)
	withParam(c, "id", "t-4")

	h.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "t-4", srv.deletedID)
}

func TestCourseListFilters(t *testing.T) {
	srv := &fakeCourseSrv{}
	h := NewCourseHandler(srv)
	c, rec := newContext(http.MethodGet, "/courses?teacherId=t-1&search=math", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-1", srv.filter.TeacherID)
	assert.Equal(t, "math", srv.filter.Search)
}

func TestCourseCreateMalformed(t *testing.T) {
	h := NewCourseHandler(&fakeCourseSrv{})
	c, rec := newContext(http.MethodPost, "/courses", "[")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPeriodListUppercasesDay(t *testing.T) {
	srv := &fakePeriodSrv{}
	h := NewPeriodHandler(srv)
	c, rec := newContext(http.MethodGet, "/periods?classId=class-1&day=monday", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "class-1", srv.filter.ClassID)
	assert.Equal(t, "MONDAY", srv.filter.DayOfWeek)
}

func TestPeriodCreateSlotConflict(t *testing.T) {
	h := NewPeriodHandler(&fakePeriodSrv{err: appErrors.Clone(appErrors.ErrConflict, "period slot already taken")})
	c, rec := newContext(http.MethodPost, "/periods", service.PeriodRequest{ClassID: "class-1"})

	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionCurrentNotFound(t *testing.T) {
	h := NewAcademicSessionHandler(&fakeSessionSrv{err: appErrors.Clone(appErrors.ErrNotFound, "no current academic session")})
	c, rec := newContext(http.MethodGet, "/sessions/current", nil)

	h.Current(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionCreateCurrent(t *testing.T) {
	srv := &fakeSessionSrv{}
	h := NewAcademicSessionHandler(srv)
	c, rec := newContext(http.MethodPost, "/sessions", service.AcademicSessionRequest{
		Name: "2024/2025", StartDate: "2024-07-15", EndDate: "2025-06-20", IsCurrent: true,
	})

	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, srv.req.IsCurrent)
	var body responseEnvelope
	decode(t, rec, &body)
	assert.Equal(t, "2024/2025", body.Data["name"])
}
