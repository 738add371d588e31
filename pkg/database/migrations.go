package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type migration struct {
	name  string
	query string
}

// Statements are idempotent and applied in order on every start.
var migrations = []migration{
	{name: "academic_sessions", query: `
CREATE TABLE IF NOT EXISTS academic_sessions (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	is_current BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (start_date <= end_date)
)`},
	{name: "academic_sessions_single_current", query: `
CREATE UNIQUE INDEX IF NOT EXISTS academic_sessions_single_current ON academic_sessions (is_current) WHERE is_current`},
	{name: "classes", query: `
CREATE TABLE IF NOT EXISTS classes (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{name: "classes_name_unique", query: `
CREATE UNIQUE INDEX IF NOT EXISTS classes_name_unique ON classes (LOWER(name))`},
	{name: "teachers", query: `
CREATE TABLE IF NOT EXISTS teachers (
	id UUID PRIMARY KEY,
	user_id UUID UNIQUE,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT,
	specialization TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{name: "students", query: `
CREATE TABLE IF NOT EXISTS students (
	id UUID PRIMARY KEY,
	user_id UUID UNIQUE,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	gender TEXT,
	date_of_birth DATE,
	admission_date DATE,
	address TEXT,
	phone TEXT,
	class_id UUID REFERENCES classes(id),
	session_id UUID REFERENCES academic_sessions(id),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{name: "courses", query: `
CREATE TABLE IF NOT EXISTS courses (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT,
	teacher_id UUID REFERENCES teachers(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{name: "class_teachers", query: `
CREATE TABLE IF NOT EXISTS class_teachers (
	class_id UUID NOT NULL REFERENCES classes(id),
	teacher_id UUID NOT NULL REFERENCES teachers(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (class_id, teacher_id)
)`},
	{name: "class_teachers_teacher_idx", query: `
CREATE INDEX IF NOT EXISTS class_teachers_teacher_idx ON class_teachers (teacher_id, class_id)`},
	{name: "class_courses", query: `
CREATE TABLE IF NOT EXISTS class_courses (
	class_id UUID NOT NULL REFERENCES classes(id),
	course_id UUID NOT NULL REFERENCES courses(id),
	PRIMARY KEY (class_id, course_id)
)`},
	{name: "periods", query: `
CREATE TABLE IF NOT EXISTS periods (
	id UUID PRIMARY KEY,
	class_id UUID NOT NULL REFERENCES classes(id),
	course_id UUID NOT NULL REFERENCES courses(id),
	day_of_week TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	period_number INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (class_id, day_of_week, period_number)
)`},
	{name: "attendance", query: `
CREATE TABLE IF NOT EXISTS attendance (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	class_id UUID NOT NULL REFERENCES classes(id),
	course_id UUID NOT NULL REFERENCES courses(id),
	period_id UUID NOT NULL REFERENCES periods(id),
	attendance_date DATE NOT NULL,
	present BOOLEAN NOT NULL,
	remarks TEXT,
	marked_by UUID REFERENCES teachers(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT attendance_natural_key UNIQUE (student_id, class_id, course_id, period_id, attendance_date)
)`},
	{name: "exam_results", query: `
CREATE TABLE IF NOT EXISTS exam_results (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	class_id UUID NOT NULL REFERENCES classes(id),
	course_id UUID NOT NULL REFERENCES courses(id),
	exam_type TEXT NOT NULL,
	exam_date DATE NOT NULL,
	score NUMERIC(5,2) NOT NULL CHECK (score >= 0 AND score <= 100),
	grade TEXT NOT NULL,
	remarks TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT exam_results_natural_key UNIQUE (student_id, course_id, exam_type, exam_date)
)`},
	{name: "audit_logs", query: `
CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY,
	user_id TEXT,
	action TEXT NOT NULL,
	resource TEXT NOT NULL,
	resource_id TEXT,
	old_values JSONB,
	new_values JSONB,
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (err error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, m := range migrations {
		if _, err = tx.ExecContext(ctx, m.query); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		logger.Debug("migration applied", zap.String("name", m.name))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	logger.Info("database schema up to date", zap.Int("statements", len(migrations)))
	return nil
}
