package models

import "time"

// Audit actions written by the mutation routes.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionMark   = "MARK"
	AuditActionAssign = "ASSIGN"
)

// Audited resource names.
const (
	AuditResourceAttendance      = "attendance"
	AuditResourceExamResult      = "exam_result"
	AuditResourceClass           = "class"
	AuditResourceClassTeachers   = "class_teachers"
	AuditResourceClassCourses    = "class_courses"
	AuditResourceTeacher         = "teacher"
	AuditResourceStudent         = "student"
	AuditResourceCourse          = "course"
	AuditResourcePeriod          = "period"
	AuditResourceAcademicSession = "academic_session"
)

// AuditLog is one append-only row of the mutation trail. NewValues holds the
// request outcome, not the entity snapshot.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"-"`
	NewValues  []byte    `db:"new_values" json:"-"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
