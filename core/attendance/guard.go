package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// Guard tells whether attendance may still be created for a scope on a date.
// Stores repeat the check atomically with the insert; the Guard lets callers fail
// fast and display the "already marked" state.
type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// CanCreateStudents reports whether classID has no student attendance on date.
func (g *Guard) CanCreateStudents(ctx context.Context, classID string, date core.Date) (bool, error) {
	recs, err := g.repo.FindStudentRecords(ctx, StudentFilter{ClassIDs: []string{classID}, From: date, To: date})
	if err != nil {
		return false, errors.Wrap(err, "finding student records")
	}
	return len(recs) == 0, nil
}

// CanCreateTeachers reports whether schoolID has no teacher attendance on date.
func (g *Guard) CanCreateTeachers(ctx context.Context, schoolID string, date core.Date) (bool, error) {
	recs, err := g.repo.FindTeacherRecords(ctx, TeacherFilter{SchoolID: schoolID, From: date, To: date})
	if err != nil {
		return false, errors.Wrap(err, "finding teacher records")
	}
	return len(recs) == 0, nil
}
