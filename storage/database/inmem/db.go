package inmemdb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

type (
	DB struct {
		school  *schoolTable
		student *studentAttendanceTable
		teacher *teacherAttendanceTable
	}

	schoolTable struct {
		sync.RWMutex
		table map[string]*school.Roster
	}

	entityDate struct {
		entityID string
		date     core.Date
	}

	studentAttendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.StudentRecord
		keys  map[entityDate]string // (student, date) -> record id
	}

	teacherAttendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.TeacherRecord
		keys  map[entityDate]string // (teacher, date) -> record id
	}
)

func Open() (*DB, error) {
	db := &DB{
		school: &schoolTable{table: make(map[string]*school.Roster)},
		student: &studentAttendanceTable{
			table: make(map[string]*attendance.StudentRecord),
			keys:  make(map[entityDate]string),
		},
		teacher: &teacherAttendanceTable{
			table: make(map[string]*attendance.TeacherRecord),
			keys:  make(map[entityDate]string),
		},
	}
	return db, nil
}

// Reset drops all attendance records.
func (db *DB) Reset() {
	db.student.Lock()
	db.student.table = make(map[string]*attendance.StudentRecord)
	db.student.keys = make(map[entityDate]string)
	db.student.Unlock()

	db.teacher.Lock()
	db.teacher.table = make(map[string]*attendance.TeacherRecord)
	db.teacher.keys = make(map[entityDate]string)
	db.teacher.Unlock()
}
