package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type fakeAttendanceSrv struct {
	markReq   dto.MarkAttendanceRequest
	markActor *models.JWTClaims
	markResp  []dto.AttendanceView
	markErr   error

	query     dto.AttendanceQuery
	historyID string
	history   *dto.StudentAttendanceHistory
	err       error
}

func (f *fakeAttendanceSrv) Mark(_ context.Context, req dto.MarkAttendanceRequest, actor *models.JWTClaims) ([]dto.AttendanceView, error) {
	f.markReq, f.markActor = req, actor
	return f.markResp, f.markErr
}

func (f *fakeAttendanceSrv) ListBySession(_ context.Context, query dto.AttendanceQuery, _ *models.JWTClaims) ([]dto.AttendanceView, error) {
	f.query = query
	return f.markResp, f.err
}

func (f *fakeAttendanceSrv) StudentHistory(_ context.Context, studentID string, _ dto.AttendanceHistoryQuery, _ *models.JWTClaims) (*dto.StudentAttendanceHistory, error) {
	f.historyID = studentID
	return f.history, f.err
}

func TestAttendanceMarkRequiresClaims(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceSrv{})
	c, rec := newContext(http.MethodPost, "/attendance", dto.MarkAttendanceRequest{})

	h.Mark(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceMarkRejectsMalformedBody(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceSrv{})
	c, rec := newContext(http.MethodPost, "/attendance", "{not json")
	asUser(c, "u-1", models.RoleTeacher)

	h.Mark(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceMarkPassesRosterAndActor(t *testing.T) {
	srv := &fakeAttendanceSrv{markResp: []dto.AttendanceView{{ID: "a-1", StudentID: "s-1", Present: true}}}
	h := NewAttendanceHandler(srv)
	c, rec := newContext(http.MethodPost, "/attendance", dto.MarkAttendanceRequest{
		ClassID: "class-1", CourseID: "course-1", PeriodID: "period-1", Date: "2024-03-04",
		Students: []dto.AttendanceEntry{{StudentID: "s-1", Present: true}},
	})
	claims := asUser(c, "u-1", models.RoleTeacher)

	h.Mark(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "class-1", srv.markReq.ClassID)
	assert.Len(t, srv.markReq.Students, 1)
	assert.Same(t, claims, srv.markActor)
	var body listEnvelope
	decode(t, rec, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "s-1", body.Data[0]["studentId"])
}

func TestAttendanceMarkMapsForbidden(t *testing.T) {
	srv := &fakeAttendanceSrv{markErr: appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this class")}
	h := NewAttendanceHandler(srv)
	c, rec := newContext(http.MethodPost, "/attendance", dto.MarkAttendanceRequest{ClassID: "class-2"})
	asUser(c, "u-1", models.RoleTeacher)

	h.Mark(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body responseEnvelope
	decode(t, rec, &body)
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrForbidden.Code, body.Error.Code)
}

func TestAttendanceListBindsQuery(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	h := NewAttendanceHandler(srv)
	c, rec := newContext(http.MethodGet, "/attendance?classId=class-1&courseId=course-1&date=2024-03-04", nil)
	asUser(c, "u-1", models.RoleAdmin)

	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "class-1", srv.query.ClassID)
	assert.Equal(t, "course-1", srv.query.CourseID)
	assert.Equal(t, "2024-03-04", srv.query.Date)
}

func TestAttendanceStudentHistoryUsesPathID(t *testing.T) {
	srv := &fakeAttendanceSrv{history: &dto.StudentAttendanceHistory{
		StudentID: "s-9",
		Summary:   models.AttendanceSummary{Present: 3, Absent: 1, Total: 4, Percent: 75},
	}}
	h := NewAttendanceHandler(srv)
	c, rec := newContext(http.MethodGet, "/attendance/students/s-9", nil)
	withParam(c, "id", "s-9")
	asUser(c, "u-2", models.RoleStudent)

	h.StudentHistory(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-9", srv.historyID)
	var body responseEnvelope
	decode(t, rec, &body)
	assert.Equal(t, "s-9", body.Data["studentId"])
}
