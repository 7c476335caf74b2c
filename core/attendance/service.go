package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

var NowFunc = time.Now // mockable

type Service struct {
	repo       Repository
	guard      *Guard
	scope      ScopeResolver
	aggregator *Aggregator
}

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{
		repo:       repo,
		guard:      NewGuard(repo),
		aggregator: NewAggregator(NewClassifier(conf.Attendance)),
	}
}

func (svc *Service) Scope() ScopeResolver { return svc.scope }

// ClassAttendance returns the student records of classID on date and whether the class was already marked.
func (svc *Service) ClassAttendance(
	ctx context.Context,
	actor user.User,
	roster school.Roster,
	classID string,
	date core.Date,
) ([]StudentRecord, bool, error) {
	if err := svc.scope.AuthorizeViewClass(actor, roster, classID); err != nil {
		return nil, false, err
	}
	recs, err := svc.repo.FindStudentRecords(ctx, StudentFilter{
		SchoolID: roster.SchoolID,
		ClassIDs: []string{classID},
		From:     date,
		To:       date,
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "finding student records")
	}
	return recs, len(recs) > 0, nil
}

// SchoolTeacherAttendance returns the teacher records of the roster's school on date and whether they were already marked.
func (svc *Service) SchoolTeacherAttendance(
	ctx context.Context,
	actor user.User,
	roster school.Roster,
	date core.Date,
) ([]TeacherRecord, bool, error) {
	if err := svc.scope.AuthorizeMarkTeachers(actor, roster); err != nil {
		return nil, false, err
	}
	recs, err := svc.repo.FindTeacherRecords(ctx, TeacherFilter{SchoolID: roster.SchoolID, From: date, To: date})
	if err != nil {
		return nil, false, errors.Wrap(err, "finding teacher records")
	}
	return recs, len(recs) > 0, nil
}

// StudentHistory returns the caller's own student records between from & to (both optional).
func (svc *Service) StudentHistory(ctx context.Context, actor user.User, from, to core.Date) ([]StudentRecord, error) {
	if !actor.IsStudent() {
		return nil, core.NewAuthorizationError("only students have student attendance")
	}
	recs, err := svc.repo.FindStudentRecords(ctx, StudentFilter{SchoolID: actor.SchoolID, StudentID: actor.ID, From: from, To: to})
	return recs, errors.Wrap(err, "finding student records")
}

// TeacherHistory returns the caller's own teacher records between from & to (both optional).
func (svc *Service) TeacherHistory(ctx context.Context, actor user.User, from, to core.Date) ([]TeacherRecord, error) {
	if !actor.IsTeacher() {
		return nil, core.NewAuthorizationError("only teachers have teacher attendance")
	}
	recs, err := svc.repo.FindTeacherRecords(ctx, TeacherFilter{SchoolID: actor.SchoolID, TeacherID: actor.ID, From: from, To: to})
	return recs, errors.Wrap(err, "finding teacher records")
}

// CreateStudentAttendance records a validated batch for one class on one date, all or nothing.
// It fails with ErrAlreadyMarked when the class already has attendance on that date.
func (svc *Service) CreateStudentAttendance(
	ctx context.Context,
	actor user.User,
	roster school.Roster,
	batch StudentBatch,
) ([]StudentRecord, error) {
	classID, date := batch.Scope()
	if err := svc.scope.AuthorizeMarkClass(actor, roster, classID); err != nil {
		return nil, err
	}
	if err := checkEnrolled(roster, classID, batch.Records); err != nil {
		return nil, err
	}

	ok, err := svc.guard.CanCreateStudents(ctx, classID, date)
	if err != nil {
		return nil, errors.Wrap(err, "checking existing attendance")
	}
	if !ok {
		return nil, ErrAlreadyMarked
	}

	now := NowFunc().UTC()
	recs := make([]StudentRecord, 0, len(batch.Records))
	for _, mark := range batch.Records {
		recs = append(recs, StudentRecord{
			SchoolID:      roster.SchoolID,
			StudentID:     mark.StudentID,
			ClassID:       classID,
			Date:          date,
			Day:           DayLabel(date),
			Status:        mark.Status,
			Notes:         mark.Notes,
			EnteredByID:   actor.ID,
			EnteredByName: actor.DisplayName(),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return svc.repo.InsertStudentRecords(ctx, classID, date, recs)
}

// CreateTeacherAttendance records a validated batch for the roster's school on one date, all or nothing.
func (svc *Service) CreateTeacherAttendance(
	ctx context.Context,
	actor user.User,
	roster school.Roster,
	batch TeacherBatch,
) ([]TeacherRecord, error) {
	schoolID, date := batch.Scope()
	if err := svc.authorizeTeacherBatch(actor, roster, schoolID, batch.Records); err != nil {
		return nil, err
	}

	ok, err := svc.guard.CanCreateTeachers(ctx, roster.SchoolID, date)
	if err != nil {
		return nil, errors.Wrap(err, "checking existing attendance")
	}
	if !ok {
		return nil, ErrAlreadyMarked
	}

	now := NowFunc().UTC()
	recs := make([]TeacherRecord, 0, len(batch.Records))
	for _, mark := range batch.Records {
		recs = append(recs, TeacherRecord{
			SchoolID:      roster.SchoolID,
			TeacherID:     mark.TeacherID,
			Date:          date,
			Day:           DayLabel(date),
			Status:        mark.Status,
			Notes:         mark.Notes,
			EnteredByID:   actor.ID,
			EnteredByName: actor.DisplayName(),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return svc.repo.InsertTeacherRecords(ctx, roster.SchoolID, date, recs)
}

// UpdateStudentAttendance writes the marks of batch that differ from the stored records of its class & date.
// It returns ErrNoChanges, writing nothing, when every mark matches what is stored.
func (svc *Service) UpdateStudentAttendance(
	ctx context.Context,
	actor user.User,
	roster school.Roster,
	batch StudentBatch,
) ([]StudentRecord, error) {
	classID, date := batch.Scope()
	if err := svc.scope.AuthorizeMarkClass(actor, roster, classID); err != nil {
		return nil, err
	}

	stored, err := svc.repo.FindStudentRecords(ctx, StudentFilter{
		SchoolID: roster.SchoolID,
		ClassIDs: []string{classID},
		From:     date,
		To:       date,
	})
	if err != nil {
		return nil, errors.Wrap(err, "finding student records")
	}

	session := NewStudentEditSession(classID, date, stored)
	for _, mark := range batch.Records {
		if err = session.Set(mark.StudentID, mark.Status, mark.Notes); err != nil {
			return nil, err
		}
	}
	changes, err := session.StudentChanges()
	if err != nil {
		return nil, err
	}

	now := NowFunc().UTC()
	recs := make([]StudentRecord, 0, len(changes))
	for _, mark := range changes {
		recs = append(recs, StudentRecord{
			SchoolID:      roster.SchoolID,
			StudentID:     mark.StudentID,
			ClassID:       classID,
			Date:          date,
			Status:        mark.Status,
			Notes:         mark.Notes,
			EnteredByID:   actor.ID,
			EnteredByName: actor.DisplayName(),
			UpdatedAt:     now,
		})
	}
	return svc.repo.UpdateStudentRecords(ctx, recs)
}

// UpdateTeacherAttendance writes the marks of batch that differ from the stored records of the school & date.
func (svc *Service) UpdateTeacherAttendance(
	ctx context.Context,
	actor user.User,
	roster school.Roster,
	batch TeacherBatch,
) ([]TeacherRecord, error) {
	schoolID, date := batch.Scope()
	if err := svc.authorizeTeacherBatch(actor, roster, schoolID, batch.Records); err != nil {
		return nil, err
	}

	stored, err := svc.repo.FindTeacherRecords(ctx, TeacherFilter{SchoolID: roster.SchoolID, From: date, To: date})
	if err != nil {
		return nil, errors.Wrap(err, "finding teacher records")
	}

	session := NewTeacherEditSession(roster.SchoolID, date, stored)
	for _, mark := range batch.Records {
		if err = session.Set(mark.TeacherID, mark.Status, mark.Notes); err != nil {
			return nil, err
		}
	}
	changes, err := session.TeacherChanges()
	if err != nil {
		return nil, err
	}

	now := NowFunc().UTC()
	recs := make([]TeacherRecord, 0, len(changes))
	for _, mark := range changes {
		recs = append(recs, TeacherRecord{
			SchoolID:      roster.SchoolID,
			TeacherID:     mark.TeacherID,
			Date:          date,
			Status:        mark.Status,
			Notes:         mark.Notes,
			EnteredByID:   actor.ID,
			EnteredByName: actor.DisplayName(),
			UpdatedAt:     now,
		})
	}
	return svc.repo.UpdateTeacherRecords(ctx, recs)
}

// Report authorizes q, fetches the records it covers & aggregates them.
// q must have been validated.
func (svc *Service) Report(ctx context.Context, actor user.User, roster school.Roster, q ReportQuery) (Report, error) {
	from, to := q.DateRange()

	classIDs, err := svc.scope.AuthorizeReport(actor, roster, q)
	if err != nil {
		return EmptyReport(q.Type, from, to), err
	}

	switch q.Type {
	case ReportTeacher:
		recs, err := svc.repo.FindTeacherRecords(ctx, TeacherFilter{SchoolID: roster.SchoolID, From: from, To: to})
		if err != nil {
			return EmptyReport(q.Type, from, to), errors.Wrap(err, "finding teacher records")
		}
		return svc.aggregator.TeacherReport(recs, roster, from, to), nil
	default:
		recs, err := svc.repo.FindStudentRecords(ctx, StudentFilter{SchoolID: roster.SchoolID, ClassIDs: classIDs, From: from, To: to})
		if err != nil {
			return EmptyReport(q.Type, from, to), errors.Wrap(err, "finding student records")
		}
		if q.Type == ReportClass {
			return svc.aggregator.ClassReport(recs, roster, from, to), nil
		}
		return svc.aggregator.StudentReport(recs, roster, from, to), nil
	}
}

func (svc *Service) authorizeTeacherBatch(actor user.User, roster school.Roster, schoolID string, marks []TeacherMark) error {
	if schoolID != "" && schoolID != roster.SchoolID {
		return core.NewAuthorizationError(reasonOtherSchool)
	}
	if err := svc.scope.AuthorizeMarkTeachers(actor, roster); err != nil {
		return err
	}
	for i, mark := range marks {
		if _, ok := roster.Teacher(mark.TeacherID); !ok {
			return batchError(i, "teacher_id", "teacher does not belong to this school")
		}
	}
	return nil
}

func checkEnrolled(roster school.Roster, classID string, marks []StudentMark) error {
	for i, mark := range marks {
		st, ok := roster.Student(mark.StudentID)
		if !ok || st.ClassID != classID {
			return batchError(i, "student_id", fmt.Sprintf("student is not enrolled in class %s", classID))
		}
	}
	return nil
}
