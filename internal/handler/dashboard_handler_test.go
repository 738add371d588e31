package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type fakeDashboardSrv struct {
	adminResp   *models.AdminDashboard
	adminHit    bool
	teacherResp *models.TeacherDashboard
	studentResp *models.StudentDashboard
	studentHit  bool
	err         error
	lastActor   *models.JWTClaims
	lastStudent string
}

func (f *fakeDashboardSrv) Admin(context.Context) (*models.AdminDashboard, bool, error) {
	return f.adminResp, f.adminHit, f.err
}

func (f *fakeDashboardSrv) Teacher(_ context.Context, actor *models.JWTClaims) (*models.TeacherDashboard, bool, error) {
	f.lastActor = actor
	return f.teacherResp, false, f.err
}

func (f *fakeDashboardSrv) Student(_ context.Context, studentID string, actor *models.JWTClaims) (*models.StudentDashboard, bool, error) {
	f.lastStudent, f.lastActor = studentID, actor
	return f.studentResp, f.studentHit, f.err
}

func TestDashboardHandlerAdminSuccess(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{
		adminResp: &models.AdminDashboard{Classes: 4, Students: 120},
		adminHit:  true,
	})
	c, rec := newContext(http.MethodGet, "/dashboard/admin", nil)

	h.Admin(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	decode(t, rec, &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.EqualValues(t, 120, envelope.Data["students"])
}

func TestDashboardHandlerTeacherRequiresClaims(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{})
	c, rec := newContext(http.MethodGet, "/dashboard/teacher", nil)

	h.Teacher(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerTeacherWithoutProfile(t *testing.T) {
	srv := &fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrForbidden, "teacher profile required")}
	h := NewDashboardHandler(srv)
	c, rec := newContext(http.MethodGet, "/dashboard/teacher", nil)
	claims := asUser(c, "u-1", models.RoleAdmin)

	h.Teacher(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Same(t, claims, srv.lastActor)
}

func TestDashboardHandlerStudentDefaultsToCaller(t *testing.T) {
	srv := &fakeDashboardSrv{studentResp: &models.StudentDashboard{StudentID: "s-1", AverageGrade: "A"}, studentHit: false}
	h := NewDashboardHandler(srv)
	c, rec := newContext(http.MethodGet, "/dashboard/student", nil)
	asUser(c, "u-2", models.RoleStudent)

	h.Student(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.lastStudent)
	var envelope responseEnvelope
	decode(t, rec, &envelope)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.Equal(t, "s-1", envelope.Data["student_id"])
}

func TestDashboardHandlerStudentExplicitID(t *testing.T) {
	srv := &fakeDashboardSrv{studentResp: &models.StudentDashboard{StudentID: "s-7"}}
	h := NewDashboardHandler(srv)
	c, _ := newContext(http.MethodGet, "/dashboard/student?studentId=s-7", nil)
	asUser(c, "u-1", models.RoleTeacher)

	h.Student(c)

	assert.Equal(t, "s-7", srv.lastStudent)
}

func TestDashboardHandlerNilService(t *testing.T) {
	h := NewDashboardHandler(nil)
	c, rec := newContext(http.MethodGet, "/dashboard/admin", nil)

	h.Admin(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
