package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newIdentityFixture() *IdentityService {
	teachers := fakeTeachers{items: map[string]*models.Teacher{
		"t1": {ID: "t1", UserID: strPtr("u-teacher"), FirstName: "Ada", LastName: "Lovelace"},
		"t2": {ID: "t2", UserID: strPtr("u-admin-teacher")},
	}}
	students := fakeStudents{items: map[string]*models.Student{
		"s1": {ID: "s1", UserID: strPtr("u-student")},
	}}
	assignments := fakeAssignments{byTeacher: map[string][]string{"t1": {"c1", "c2"}}}
	return NewIdentityService(teachers, students, assignments, nil)
}

func TestResolveTeacherLoadsAssignedClasses(t *testing.T) {
	svc := newIdentityFixture()

	rc, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: "u-teacher", Role: models.RoleTeacher})
	require.NoError(t, err)
	require.NotNil(t, rc.TeacherID)
	assert.Equal(t, "t1", *rc.TeacherID)
	assert.True(t, rc.IsTeacherAssigned("c1"))
	assert.False(t, rc.IsTeacherAssigned("c9"))
	assert.Equal(t, []string{"c1", "c2"}, rc.ClassIDs())
}

func TestResolveStudentProfile(t *testing.T) {
	svc := newIdentityFixture()

	rc, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: "u-student", Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, rc.StudentID)
	assert.Equal(t, "s1", *rc.StudentID)
	assert.Nil(t, rc.TeacherID)
}

func TestResolveAdminWithAndWithoutTeacherProfile(t *testing.T) {
	svc := newIdentityFixture()

	rc, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: "u-admin-teacher", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.NotNil(t, rc.TeacherID)
	assert.Equal(t, "t2", *rc.TeacherID)
	assert.True(t, rc.CanWriteClass("any"))

	rc, err = svc.Resolve(context.Background(), &models.JWTClaims{UserID: "u-plain-admin", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Nil(t, rc.TeacherID)
	assert.True(t, rc.IsAdmin())
}

func TestResolveFailures(t *testing.T) {
	svc := newIdentityFixture()
	ctx := context.Background()

	_, err := svc.Resolve(ctx, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.Resolve(ctx, &models.JWTClaims{UserID: "nobody", Role: models.RoleTeacher})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Resolve(ctx, &models.JWTClaims{UserID: "nobody", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Resolve(ctx, &models.JWTClaims{UserID: "u-teacher", Role: models.UserRole("GUEST")})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestResolveAssignmentLookupFailure(t *testing.T) {
	teachers := fakeTeachers{items: map[string]*models.Teacher{"t1": {ID: "t1", UserID: strPtr("u")}}}
	svc := NewIdentityService(teachers, fakeStudents{}, fakeAssignments{err: errors.New("db down")}, nil)

	_, err := svc.Resolve(context.Background(), &models.JWTClaims{UserID: "u", Role: models.RoleTeacher})
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestResolveRejectedUserIDIsMissingProfile(t *testing.T) {
	rejected := fmt.Errorf("find teacher by user: %w", repository.ErrInvalidID)
	svc := NewIdentityService(fakeTeachers{err: rejected}, fakeStudents{err: rejected}, fakeAssignments{}, nil)
	ctx := context.Background()

	rc, err := svc.Resolve(ctx, &models.JWTClaims{UserID: "auth0|42", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, rc.TeacherID)

	_, err = svc.Resolve(ctx, &models.JWTClaims{UserID: "auth0|42", Role: models.RoleTeacher})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "got %v", err)

	_, err = svc.Resolve(ctx, &models.JWTClaims{UserID: "auth0|42", Role: models.RoleStudent})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "got %v", err)
}
