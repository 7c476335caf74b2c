package inmemdb

import (
	"context"

	"github.com/trezcool/mahudhurio/core/school"
)

type directory struct {
	db *schoolTable
}

var _ school.Repository = (*directory)(nil) // interface compliance check

func NewDirectory(db *DB) *directory {
	return &directory{db: db.school}
}

func (dir *directory) GetRoster(_ context.Context, schoolID string) (school.Roster, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	roster, ok := dir.db.table[schoolID]
	if !ok {
		return school.Roster{}, school.ErrNotFound
	}
	// copy, so callers cannot mutate the table
	return school.Roster{
		SchoolID: roster.SchoolID,
		Classes:  append([]school.Class(nil), roster.Classes...),
		Students: append([]school.Student(nil), roster.Students...),
		Teachers: append([]school.Teacher(nil), roster.Teachers...),
	}, nil
}

// SaveRoster upserts the classes, teachers & students of roster.
func (dir *directory) SaveRoster(_ context.Context, roster school.Roster) error {
	dir.db.Lock()
	defer dir.db.Unlock()

	stored, ok := dir.db.table[roster.SchoolID]
	if !ok {
		stored = &school.Roster{SchoolID: roster.SchoolID}
		dir.db.table[roster.SchoolID] = stored
	}

	for _, c := range roster.Classes {
		c.SchoolID = roster.SchoolID
		if i := indexOf(len(stored.Classes), func(i int) bool { return stored.Classes[i].ID == c.ID }); i >= 0 {
			stored.Classes[i] = c
		} else {
			stored.Classes = append(stored.Classes, c)
		}
	}
	for _, t := range roster.Teachers {
		t.SchoolID = roster.SchoolID
		if i := indexOf(len(stored.Teachers), func(i int) bool { return stored.Teachers[i].ID == t.ID }); i >= 0 {
			stored.Teachers[i] = t
		} else {
			stored.Teachers = append(stored.Teachers, t)
		}
	}
	for _, st := range roster.Students {
		st.SchoolID = roster.SchoolID
		if i := indexOf(len(stored.Students), func(i int) bool { return stored.Students[i].ID == st.ID }); i >= 0 {
			stored.Students[i] = st
		} else {
			stored.Students = append(stored.Students, st)
		}
	}
	return nil
}

func indexOf(n int, match func(i int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}
