package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrAlreadyMarked  = errors.New("attendance already marked")
	ErrNoChanges      = errors.New("no changes")
	ErrRecordNotFound = errors.New("attendance record not found")
)

// Status is the attendance status of a student or a teacher on a given day.
type Status string

// Statuses
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"  // students only
	StatusLeave   Status = "leave" // teachers only
)

var (
	StudentStatuses = []Status{StatusPresent, StatusAbsent, StatusLate}
	TeacherStatuses = []Status{StatusPresent, StatusAbsent, StatusLeave}
)

func (s Status) ValidForStudent() bool { return statusIn(s, StudentStatuses) }
func (s Status) ValidForTeacher() bool { return statusIn(s, TeacherStatuses) }

func statusIn(s Status, statuses []Status) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// StudentRecord is the attendance of one student on one date. There is at most one per (student, date).
type StudentRecord struct {
	ID            string    `json:"id"`
	SchoolID      string    `json:"school_id"`
	StudentID     string    `json:"student_id"`
	ClassID       string    `json:"class_id"`
	Date          core.Date `json:"date"`
	Day           string    `json:"day"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes"`
	EnteredByID   string    `json:"entered_by_id"`
	EnteredByName string    `json:"entered_by_name"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// TeacherRecord is the attendance of one teacher on one date. There is at most one per (teacher, date).
type TeacherRecord struct {
	ID            string    `json:"id"`
	SchoolID      string    `json:"school_id"`
	TeacherID     string    `json:"teacher_id"`
	Date          core.Date `json:"date"`
	Day           string    `json:"day"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes"`
	EnteredByID   string    `json:"entered_by_id"`
	EnteredByName string    `json:"entered_by_name"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// StudentFilter applies AND operation on its set fields. From & To are inclusive.
type StudentFilter struct {
	SchoolID  string
	ClassIDs  []string
	StudentID string
	From      core.Date
	To        core.Date
}

// TeacherFilter applies AND operation on its set fields. From & To are inclusive.
type TeacherFilter struct {
	SchoolID  string
	TeacherID string
	From      core.Date
	To        core.Date
}

// Repository is the attendance record store.
// Found records are ordered by date, then by student/teacher id.
type Repository interface {
	// InsertStudentRecords inserts all records or none. It returns ErrAlreadyMarked when
	// classID already has records on date or when any (student, date) pair already exists.
	InsertStudentRecords(ctx context.Context, classID string, date core.Date, records []StudentRecord) ([]StudentRecord, error)
	// UpdateStudentRecords updates status, notes & entry metadata of the records matching
	// (student id, class id, date). It fails with ErrRecordNotFound, updating nothing,
	// when any of the keys has no stored record.
	UpdateStudentRecords(ctx context.Context, records []StudentRecord) ([]StudentRecord, error)
	FindStudentRecords(ctx context.Context, filter StudentFilter) ([]StudentRecord, error)

	InsertTeacherRecords(ctx context.Context, schoolID string, date core.Date, records []TeacherRecord) ([]TeacherRecord, error)
	UpdateTeacherRecords(ctx context.Context, records []TeacherRecord) ([]TeacherRecord, error)
	FindTeacherRecords(ctx context.Context, filter TeacherFilter) ([]TeacherRecord, error)
}

// DayLabel returns the weekday name stored alongside records, eg. "Thursday".
func DayLabel(d core.Date) string {
	return d.Weekday().String()
}
