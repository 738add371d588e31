package models

import "sort"

// RoleContext is the acting principal resolved against its profile rows.
type RoleContext struct {
	UserID           string
	Role             UserRole
	TeacherID        *string
	StudentID        *string
	AssignedClassIDs map[string]struct{}
}

// IsAdmin reports whether the principal bypasses class assignment checks.
func (rc *RoleContext) IsAdmin() bool {
	return rc != nil && rc.Role.IsAdmin()
}

// IsTeacherAssigned reports whether the principal teaches the class.
func (rc *RoleContext) IsTeacherAssigned(classID string) bool {
	if rc == nil || rc.TeacherID == nil {
		return false
	}
	_, ok := rc.AssignedClassIDs[classID]
	return ok
}

// CanWriteClass reports whether attendance or results may be written for the class.
func (rc *RoleContext) CanWriteClass(classID string) bool {
	if rc.IsAdmin() {
		return true
	}
	return rc != nil && rc.Role == RoleTeacher && rc.IsTeacherAssigned(classID)
}

// ClassIDs returns the assigned classes in a stable order.
func (rc *RoleContext) ClassIDs() []string {
	if rc == nil {
		return nil
	}
	ids := make([]string, 0, len(rc.AssignedClassIDs))
	for id := range rc.AssignedClassIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
