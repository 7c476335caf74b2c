package school

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("school not found")

type (
	Class struct {
		ID             string `json:"id" db:"id"`
		SchoolID       string `json:"school_id" db:"school_id"`
		Name           string `json:"name" db:"name"`
		ClassTeacherID string `json:"class_teacher_id" db:"class_teacher_id"`
	}

	Student struct {
		ID       string `json:"id" db:"id"`
		SchoolID string `json:"school_id" db:"school_id"`
		Name     string `json:"name" db:"name"`
		ClassID  string `json:"class_id" db:"class_id"`
	}

	Teacher struct {
		ID       string `json:"id" db:"id"`
		SchoolID string `json:"school_id" db:"school_id"`
		Name     string `json:"name" db:"name"`
	}

	// Roster is the school context every attendance operation runs against:
	// the classes, students and teachers of one school.
	Roster struct {
		SchoolID string    `json:"school_id"`
		Classes  []Class   `json:"classes"`
		Students []Student `json:"students"`
		Teachers []Teacher `json:"teachers"`
	}

	// Directory loads school rosters from storage.
	Directory interface {
		// GetRoster returns ErrNotFound when the school has no classes, students nor teachers.
		GetRoster(ctx context.Context, schoolID string) (Roster, error)
	}

	// Repository is a Directory that can also import rosters.
	Repository interface {
		Directory
		// SaveRoster upserts the classes, teachers & students of roster, by id.
		SaveRoster(ctx context.Context, roster Roster) error
	}
)

func (r Roster) Class(id string) (Class, bool) {
	for _, c := range r.Classes {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

func (r Roster) Student(id string) (Student, bool) {
	for _, s := range r.Students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

func (r Roster) Teacher(id string) (Teacher, bool) {
	for _, t := range r.Teachers {
		if t.ID == id {
			return t, true
		}
	}
	return Teacher{}, false
}

// ClassIDs returns the ids of all classes of the school.
func (r Roster) ClassIDs() []string {
	ids := make([]string, 0, len(r.Classes))
	for _, c := range r.Classes {
		ids = append(ids, c.ID)
	}
	return ids
}

// HomeroomClassIDs returns the ids of the classes whose class teacher is teacherID.
func (r Roster) HomeroomClassIDs(teacherID string) []string {
	ids := make([]string, 0)
	if teacherID == "" {
		return ids
	}
	for _, c := range r.Classes {
		if c.ClassTeacherID == teacherID {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (r Roster) IsEmpty() bool {
	return len(r.Classes) == 0 && len(r.Students) == 0 && len(r.Teachers) == 0
}
