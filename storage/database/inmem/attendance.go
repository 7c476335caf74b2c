package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	student *studentAttendanceTable
	teacher *teacherAttendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{student: db.student, teacher: db.teacher}
}

func inRange(d, from, to core.Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

func (repo *attendanceRepository) InsertStudentRecords(
	_ context.Context,
	classID string,
	date core.Date,
	records []attendance.StudentRecord,
) ([]attendance.StudentRecord, error) {
	repo.student.Lock()
	defer repo.student.Unlock()

	for _, rec := range repo.student.table {
		if rec.ClassID == classID && rec.Date == date {
			return nil, attendance.ErrAlreadyMarked
		}
	}
	for _, rec := range records {
		if _, ok := repo.student.keys[entityDate{rec.StudentID, rec.Date}]; ok {
			return nil, attendance.ErrAlreadyMarked
		}
	}

	created := make([]attendance.StudentRecord, 0, len(records))
	for _, rec := range records {
		rec := rec
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		repo.student.table[rec.ID] = &rec
		repo.student.keys[entityDate{rec.StudentID, rec.Date}] = rec.ID
		created = append(created, rec)
	}
	return created, nil
}

func (repo *attendanceRepository) UpdateStudentRecords(_ context.Context, records []attendance.StudentRecord) ([]attendance.StudentRecord, error) {
	repo.student.Lock()
	defer repo.student.Unlock()

	// check every key first: the batch applies entirely or not at all
	targets := make([]*attendance.StudentRecord, 0, len(records))
	for _, rec := range records {
		id, ok := repo.student.keys[entityDate{rec.StudentID, rec.Date}]
		if !ok || repo.student.table[id].ClassID != rec.ClassID {
			return nil, attendance.ErrRecordNotFound
		}
		targets = append(targets, repo.student.table[id])
	}

	updated := make([]attendance.StudentRecord, 0, len(records))
	for i, rec := range records {
		orig := targets[i]
		orig.Status = rec.Status
		orig.Notes = rec.Notes
		orig.EnteredByID = rec.EnteredByID
		orig.EnteredByName = rec.EnteredByName
		orig.UpdatedAt = rec.UpdatedAt
		updated = append(updated, *orig)
	}
	return updated, nil
}

func (repo *attendanceRepository) FindStudentRecords(_ context.Context, filter attendance.StudentFilter) ([]attendance.StudentRecord, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()

	recs := make([]attendance.StudentRecord, 0)
	for _, rec := range repo.student.table {
		if filter.SchoolID != "" && rec.SchoolID != filter.SchoolID {
			continue
		}
		if len(filter.ClassIDs) > 0 && !core.ContainsString(filter.ClassIDs, rec.ClassID) {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if !inRange(rec.Date, filter.From, filter.To) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date.Before(recs[j].Date)
		}
		return recs[i].StudentID < recs[j].StudentID
	})
	return recs, nil
}

func (repo *attendanceRepository) InsertTeacherRecords(
	_ context.Context,
	schoolID string,
	date core.Date,
	records []attendance.TeacherRecord,
) ([]attendance.TeacherRecord, error) {
	repo.teacher.Lock()
	defer repo.teacher.Unlock()

	for _, rec := range repo.teacher.table {
		if rec.SchoolID == schoolID && rec.Date == date {
			return nil, attendance.ErrAlreadyMarked
		}
	}
	for _, rec := range records {
		if _, ok := repo.teacher.keys[entityDate{rec.TeacherID, rec.Date}]; ok {
			return nil, attendance.ErrAlreadyMarked
		}
	}

	created := make([]attendance.TeacherRecord, 0, len(records))
	for _, rec := range records {
		rec := rec
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		repo.teacher.table[rec.ID] = &rec
		repo.teacher.keys[entityDate{rec.TeacherID, rec.Date}] = rec.ID
		created = append(created, rec)
	}
	return created, nil
}

func (repo *attendanceRepository) UpdateTeacherRecords(_ context.Context, records []attendance.TeacherRecord) ([]attendance.TeacherRecord, error) {
	repo.teacher.Lock()
	defer repo.teacher.Unlock()

	targets := make([]*attendance.TeacherRecord, 0, len(records))
	for _, rec := range records {
		id, ok := repo.teacher.keys[entityDate{rec.TeacherID, rec.Date}]
		if !ok || repo.teacher.table[id].SchoolID != rec.SchoolID {
			return nil, attendance.ErrRecordNotFound
		}
		targets = append(targets, repo.teacher.table[id])
	}

	updated := make([]attendance.TeacherRecord, 0, len(records))
	for i, rec := range records {
		orig := targets[i]
		orig.Status = rec.Status
		orig.Notes = rec.Notes
		orig.EnteredByID = rec.EnteredByID
		orig.EnteredByName = rec.EnteredByName
		orig.UpdatedAt = rec.UpdatedAt
		updated = append(updated, *orig)
	}
	return updated, nil
}

func (repo *attendanceRepository) FindTeacherRecords(_ context.Context, filter attendance.TeacherFilter) ([]attendance.TeacherRecord, error) {
	repo.teacher.RLock()
	defer repo.teacher.RUnlock()

	recs := make([]attendance.TeacherRecord, 0)
	for _, rec := range repo.teacher.table {
		if filter.SchoolID != "" && rec.SchoolID != filter.SchoolID {
			continue
		}
		if filter.TeacherID != "" && rec.TeacherID != filter.TeacherID {
			continue
		}
		if !inRange(rec.Date, filter.From, filter.To) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date.Before(recs[j].Date)
		}
		return recs[i].TeacherID < recs[j].TeacherID
	})
	return recs, nil
}
