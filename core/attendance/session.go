package attendance

import (
	"sort"

	"github.com/trezcool/mahudhurio/core"
)

type entry struct {
	status Status
	notes  string
}

// EditSession captures a snapshot of the attendance of one scope on one date and tracks edits
// made to it, so that only the entities whose status or notes actually changed get written.
type EditSession struct {
	scopeID  string
	date     core.Date
	original map[string]entry
	working  map[string]entry
}

func newEditSession(scopeID string, date core.Date) *EditSession {
	return &EditSession{
		scopeID:  scopeID,
		date:     date,
		original: make(map[string]entry),
		working:  make(map[string]entry),
	}
}

// NewStudentEditSession starts a session over the student records of classID on date.
func NewStudentEditSession(classID string, date core.Date, records []StudentRecord) *EditSession {
	s := newEditSession(classID, date)
	for _, rec := range records {
		e := entry{status: rec.Status, notes: rec.Notes}
		s.original[rec.StudentID] = e
		s.working[rec.StudentID] = e
	}
	return s
}

// NewTeacherEditSession starts a session over the teacher records of schoolID on date.
func NewTeacherEditSession(schoolID string, date core.Date, records []TeacherRecord) *EditSession {
	s := newEditSession(schoolID, date)
	for _, rec := range records {
		e := entry{status: rec.Status, notes: rec.Notes}
		s.original[rec.TeacherID] = e
		s.working[rec.TeacherID] = e
	}
	return s
}

// Set edits the working status & notes of entityID. It returns ErrRecordNotFound
// when entityID is not part of the snapshot.
func (s *EditSession) Set(entityID string, status Status, notes string) error {
	if _, ok := s.original[entityID]; !ok {
		return ErrRecordNotFound
	}
	s.working[entityID] = entry{status: status, notes: notes}
	return nil
}

// SetStatus edits the working status of entityID, keeping its notes.
func (s *EditSession) SetStatus(entityID string, status Status) error {
	e, ok := s.working[entityID]
	if !ok {
		return ErrRecordNotFound
	}
	return s.Set(entityID, status, e.notes)
}

// ChangedIDs returns the sorted ids of the entities that differ from the snapshot,
// or ErrNoChanges when there are none.
func (s *EditSession) ChangedIDs() ([]string, error) {
	ids := make([]string, 0)
	for id, e := range s.working {
		if s.original[id] != e {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoChanges
	}
	sort.Strings(ids)
	return ids, nil
}

// StudentChanges returns the changed entities as student marks.
func (s *EditSession) StudentChanges() ([]StudentMark, error) {
	ids, err := s.ChangedIDs()
	if err != nil {
		return nil, err
	}
	marks := make([]StudentMark, 0, len(ids))
	for _, id := range ids {
		e := s.working[id]
		marks = append(marks, StudentMark{StudentID: id, ClassID: s.scopeID, Date: s.date.String(), Status: e.status, Notes: e.notes})
	}
	return marks, nil
}

// TeacherChanges returns the changed entities as teacher marks.
func (s *EditSession) TeacherChanges() ([]TeacherMark, error) {
	ids, err := s.ChangedIDs()
	if err != nil {
		return nil, err
	}
	marks := make([]TeacherMark, 0, len(ids))
	for _, id := range ids {
		e := s.working[id]
		marks = append(marks, TeacherMark{TeacherID: id, SchoolID: s.scopeID, Date: s.date.String(), Status: e.status, Notes: e.notes})
	}
	return marks, nil
}
