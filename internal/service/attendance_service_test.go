package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type attendanceFixture struct {
	svc   *AttendanceService
	repo  *fakeAttendanceRepo
	cache *fakeCacheStore
}

func newAttendanceFixture(rc *models.RoleContext) attendanceFixture {
	repo := &fakeAttendanceRepo{}
	store := newFakeCacheStore()
	svc := NewAttendanceService(AttendanceServiceParams{
		Repo:     repo,
		Identity: fakeIdentity{rc: rc},
		Classes:  fakeClasses{items: map[string]*models.Class{"c1": {ID: "c1", Name: "10A"}, "c2": {ID: "c2", Name: "10B"}}},
		Courses:  fakeCourses{items: map[string]*models.Course{"math": {ID: "math", Name: "Mathematics"}}},
		Periods: fakePeriods{items: map[string]*models.Period{
			"p1": {ID: "p1", ClassID: "c1", CourseID: "math", PeriodNumber: 2},
			"p2": {ID: "p2", ClassID: "c2", CourseID: "math", PeriodNumber: 1},
		}},
		Students: fakeStudents{items: map[string]*models.Student{
			"s1": {ID: "s1", FirstName: "Ana", LastName: "Diaz", ClassID: strPtr("c1")},
			"s2": {ID: "s2", FirstName: "Ben", LastName: "Okafor", ClassID: strPtr("c1")},
			"s3": {ID: "s3", FirstName: "Cy", ClassID: strPtr("c2")},
		}},
		Teachers: fakeTeachers{items: map[string]*models.Teacher{"t1": {ID: "t1", FirstName: "Ada", LastName: "Lovelace"}}},
		Cache:    newTestCache(store),
		Metrics:  NewMetricsService(),
	})
	return attendanceFixture{svc: svc, repo: repo, cache: store}
}

func markRequest(students ...dto.AttendanceEntry) dto.MarkAttendanceRequest {
	return dto.MarkAttendanceRequest{ClassID: "c1", CourseID: "math", PeriodID: "p1", Date: "2026-03-02", Students: students}
}

func TestMarkAttendanceByAssignedTeacher(t *testing.T) {
	fx := newAttendanceFixture(teacherCtx("t1", "c1"))

	views, err := fx.svc.Mark(context.Background(), markRequest(
		dto.AttendanceEntry{StudentID: "s1", Present: true},
		dto.AttendanceEntry{StudentID: "s2", Present: false, Remarks: strPtr("sick")},
	), anyActor)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Ana Diaz", views[0].StudentName)
	assert.Equal(t, "Period 2 - Mathematics", views[0].PeriodName)
	require.NotNil(t, views[1].MarkedByName)
	assert.Equal(t, "Ada Lovelace", *views[1].MarkedByName)

	require.Len(t, fx.repo.upserted, 2)
	assert.Equal(t, "t1", *fx.repo.upserted[0].MarkedBy)
	assert.Equal(t, "2026-03-02", fx.repo.upserted[0].AttendanceDate.Format(dateLayout))
	assert.Contains(t, fx.cache.deleted, studentDashboardKey("s2"))
}

func TestMarkAttendanceUnassignedTeacherIsForbidden(t *testing.T) {
	fx := newAttendanceFixture(teacherCtx("t1", "c2"))

	_, err := fx.svc.Mark(context.Background(), markRequest(dto.AttendanceEntry{StudentID: "s1", Present: true}), anyActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, fx.repo.upserted)
}

func TestMarkAttendanceAdminWithoutProfileHasNoMarker(t *testing.T) {
	fx := newAttendanceFixture(adminCtx())

	views, err := fx.svc.Mark(context.Background(), markRequest(dto.AttendanceEntry{StudentID: "s1", Present: true}), anyActor)
	require.NoError(t, err)
	assert.Nil(t, fx.repo.upserted[0].MarkedBy)
	assert.Nil(t, views[0].MarkedByName)
}

func TestMarkAttendanceRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		req  dto.MarkAttendanceRequest
		want *appErrors.Error
	}{
		"empty roster":      {req: markRequest(), want: appErrors.ErrValidation},
		"duplicate student": {req: markRequest(dto.AttendanceEntry{StudentID: "s1"}, dto.AttendanceEntry{StudentID: "s1"}), want: appErrors.ErrValidation},
		"bad date": {req: func() dto.MarkAttendanceRequest {
			r := markRequest(dto.AttendanceEntry{StudentID: "s1"})
			r.Date = "02/03/2026"
			return r
		}(), want: appErrors.ErrValidation},
		"period of other class": {req: func() dto.MarkAttendanceRequest {
			r := markRequest(dto.AttendanceEntry{StudentID: "s1"})
			r.PeriodID = "p2"
			return r
		}(), want: appErrors.ErrValidation},
		"unknown class": {req: func() dto.MarkAttendanceRequest {
			r := markRequest(dto.AttendanceEntry{StudentID: "s1"})
			r.ClassID = "nope"
			return r
		}(), want: appErrors.ErrNotFound},
		"unknown student": {req: markRequest(dto.AttendanceEntry{StudentID: "s1"}, dto.AttendanceEntry{StudentID: "ghost"}), want: appErrors.ErrNotFound},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fx := newAttendanceFixture(adminCtx())
			_, err := fx.svc.Mark(context.Background(), tc.req, anyActor)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, tc.want), "got %v", err)
			assert.Empty(t, fx.repo.upserted)
		})
	}
}

func TestMarkAttendanceForeignKeyIsIntegrityConflict(t *testing.T) {
	fx := newAttendanceFixture(adminCtx())
	fx.repo.upsertErr = fmt.Errorf("upsert attendance for student s1: %w", repository.ErrForeignKey)

	_, err := fx.svc.Mark(context.Background(), markRequest(dto.AttendanceEntry{StudentID: "s1"}), anyActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrIntegrityConflict))
}

func TestListBySessionScopesTeachers(t *testing.T) {
	fx := newAttendanceFixture(teacherCtx("t1", "c1"))
	fx.repo.details = []models.AttendanceDetail{{Attendance: models.Attendance{ID: "a1", StudentID: "s1"}, StudentName: "Ana Diaz", PeriodNumber: 2, CourseName: "Mathematics"}}

	views, err := fx.svc.ListBySession(context.Background(), dto.AttendanceQuery{ClassID: "c1", Date: "2026-03-02"}, anyActor)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, fx.repo.filters[0].Date)

	_, err = fx.svc.ListBySession(context.Background(), dto.AttendanceQuery{ClassID: "c2"}, anyActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestStudentHistoryAuthorisation(t *testing.T) {
	ctx := context.Background()

	own := newAttendanceFixture(studentCtx("s1"))
	own.repo.summary = &models.AttendanceSummary{Present: 3, Absent: 1, Total: 4, Percent: 75}
	history, err := own.svc.StudentHistory(ctx, "s1", dto.AttendanceHistoryQuery{From: "2026-01-01"}, anyActor)
	require.NoError(t, err)
	assert.Equal(t, 75.0, history.Summary.Percent)
	require.NotNil(t, own.repo.filters[0].DateFrom)

	_, err = own.svc.StudentHistory(ctx, "s2", dto.AttendanceHistoryQuery{}, anyActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	teacher := newAttendanceFixture(teacherCtx("t1", "c1"))
	_, err = teacher.svc.StudentHistory(ctx, "s2", dto.AttendanceHistoryQuery{}, anyActor)
	assert.NoError(t, err)
	_, err = teacher.svc.StudentHistory(ctx, "s3", dto.AttendanceHistoryQuery{}, anyActor)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestMarkAttendanceTwiceKeepsOneRowPerStudent(t *testing.T) {
	fx := newAttendanceFixture(teacherCtx("t1", "c1"))
	ctx := context.Background()

	first, err := fx.svc.Mark(ctx, markRequest(
		dto.AttendanceEntry{StudentID: "s1", Present: true},
		dto.AttendanceEntry{StudentID: "s2", Present: false},
	), anyActor)
	require.NoError(t, err)

	second, err := fx.svc.Mark(ctx, markRequest(
		dto.AttendanceEntry{StudentID: "s1", Present: false, Remarks: strPtr("left early")},
		dto.AttendanceEntry{StudentID: "s2", Present: true},
	), anyActor)
	require.NoError(t, err)

	require.Len(t, fx.repo.rows, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	for _, row := range fx.repo.rows {
		switch row.StudentID {
		case "s1":
			assert.False(t, row.Present)
			require.NotNil(t, row.Remarks)
			assert.Equal(t, "left early", *row.Remarks)
		case "s2":
			assert.True(t, row.Present)
		}
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.svc.metrics.attendanceMarks.WithLabelValues("inserted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(fx.svc.metrics.attendanceMarks.WithLabelValues("updated")))
}

func TestMarkAttendanceMalformedIDsAreNotFound(t *testing.T) {
	fx := newAttendanceFixture(adminCtx())
	fx.svc.classes = fakeClasses{err: fmt.Errorf("find class: %w", repository.ErrInvalidID)}

	_, err := fx.svc.Mark(context.Background(), markRequest(dto.AttendanceEntry{StudentID: "s1"}), anyActor)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "got %v", err)
	assert.Empty(t, fx.repo.upserted)
}

func TestMarkAttendanceNamesMissingStudent(t *testing.T) {
	fx := newAttendanceFixture(adminCtx())

	_, err := fx.svc.Mark(context.Background(), markRequest(
		dto.AttendanceEntry{StudentID: "s1"},
		dto.AttendanceEntry{StudentID: "S1-typo"},
	), anyActor)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Contains(t, err.Error(), "S1-typo")
	assert.Empty(t, fx.repo.upserted)
}
