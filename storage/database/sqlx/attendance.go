package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	studentColumns = "id, school_id, student_id, class_id, date, day, status, notes, entered_by_id, entered_by_name, created_at, updated_at"
	teacherColumns = "id, school_id, teacher_id, date, day, status, notes, entered_by_id, entered_by_name, created_at, updated_at"
)

type (
	studentRow struct {
		ID            string      `db:"id"`
		SchoolID      string      `db:"school_id"`
		StudentID     string      `db:"student_id"`
		ClassID       string      `db:"class_id"`
		Date          core.Date   `db:"date"`
		Day           string      `db:"day"`
		Status        string      `db:"status"`
		Notes         null.String `db:"notes"`
		EnteredByID   string      `db:"entered_by_id"`
		EnteredByName null.String `db:"entered_by_name"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}

	teacherRow struct {
		ID            string      `db:"id"`
		SchoolID      string      `db:"school_id"`
		TeacherID     string      `db:"teacher_id"`
		Date          core.Date   `db:"date"`
		Day           string      `db:"day"`
		Status        string      `db:"status"`
		Notes         null.String `db:"notes"`
		EnteredByID   string      `db:"entered_by_id"`
		EnteredByName null.String `db:"entered_by_name"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}
)

func newStudentRow(rec attendance.StudentRecord) studentRow {
	row := studentRow{
		ID:            rec.ID,
		SchoolID:      rec.SchoolID,
		StudentID:     rec.StudentID,
		ClassID:       rec.ClassID,
		Date:          rec.Date,
		Day:           rec.Day,
		Status:        string(rec.Status),
		Notes:         null.NewString(rec.Notes, rec.Notes != ""),
		EnteredByID:   rec.EnteredByID,
		EnteredByName: null.NewString(rec.EnteredByName, rec.EnteredByName != ""),
		CreatedAt:     rec.CreatedAt.UTC(),
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	return row
}

func (row studentRow) record() attendance.StudentRecord {
	return attendance.StudentRecord{
		ID:            row.ID,
		SchoolID:      row.SchoolID,
		StudentID:     row.StudentID,
		ClassID:       row.ClassID,
		Date:          row.Date,
		Day:           row.Day,
		Status:        attendance.Status(row.Status),
		Notes:         row.Notes.String,
		EnteredByID:   row.EnteredByID,
		EnteredByName: row.EnteredByName.String,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func newTeacherRow(rec attendance.TeacherRecord) teacherRow {
	row := teacherRow{
		ID:            rec.ID,
		SchoolID:      rec.SchoolID,
		TeacherID:     rec.TeacherID,
		Date:          rec.Date,
		Day:           rec.Day,
		Status:        string(rec.Status),
		Notes:         null.NewString(rec.Notes, rec.Notes != ""),
		EnteredByID:   rec.EnteredByID,
		EnteredByName: null.NewString(rec.EnteredByName, rec.EnteredByName != ""),
		CreatedAt:     rec.CreatedAt.UTC(),
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	return row
}

func (row teacherRow) record() attendance.TeacherRecord {
	return attendance.TeacherRecord{
		ID:            row.ID,
		SchoolID:      row.SchoolID,
		TeacherID:     row.TeacherID,
		Date:          row.Date,
		Day:           row.Day,
		Status:        attendance.Status(row.Status),
		Notes:         row.Notes.String,
		EnteredByID:   row.EnteredByID,
		EnteredByName: row.EnteredByName.String,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// where accumulates AND-ed conditions & their args.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) dateRange(from, to core.Date) {
	if !from.IsZero() {
		w.add("date >= ?", from)
	}
	if !to.IsZero() {
		w.add("date <= ?", to)
	}
}

func (w *where) query(base, orderBy string) (string, []interface{}, error) {
	q := base
	if len(w.conds) > 0 {
		q += " WHERE " + strings.Join(w.conds, " AND ")
	}
	q += " ORDER BY " + orderBy
	return sqlx.In(q, w.args...)
}

func (repo *attendanceRepository) InsertStudentRecords(
	ctx context.Context,
	classID string,
	date core.Date,
	records []attendance.StudentRecord,
) ([]attendance.StudentRecord, error) {
	created := make([]attendance.StudentRecord, 0, len(records))

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var count int
		q := tx.Rebind("SELECT COUNT(*) FROM student_attendance WHERE class_id = ? AND date = ?")
		if err := tx.GetContext(ctx, &count, q, classID, date); err != nil {
			return errors.Wrap(err, "counting class attendance")
		}
		if count > 0 {
			return attendance.ErrAlreadyMarked
		}

		q = "INSERT INTO student_attendance (" + studentColumns + ") VALUES (:id, :school_id, :student_id, :class_id, :date, :day, :status, :notes, :entered_by_id, :entered_by_name, :created_at, :updated_at)"
		for _, rec := range records {
			row := newStudentRow(rec)
			if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
				if isUniqueViolation(err) {
					return attendance.ErrAlreadyMarked
				}
				return errors.Wrap(err, "inserting student attendance")
			}
			created = append(created, row.record())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *attendanceRepository) UpdateStudentRecords(ctx context.Context, records []attendance.StudentRecord) ([]attendance.StudentRecord, error) {
	updated := make([]attendance.StudentRecord, 0, len(records))

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		upd := tx.Rebind(`UPDATE student_attendance
			SET status = ?, notes = ?, entered_by_id = ?, entered_by_name = ?, updated_at = ?
			WHERE student_id = ? AND class_id = ? AND date = ?`)
		sel := tx.Rebind("SELECT " + studentColumns + " FROM student_attendance WHERE student_id = ? AND date = ?")

		for _, rec := range records {
			row := newStudentRow(rec)
			res, err := tx.ExecContext(ctx, upd,
				row.Status, row.Notes, row.EnteredByID, row.EnteredByName, row.UpdatedAt,
				row.StudentID, row.ClassID, row.Date,
			)
			if err != nil {
				return errors.Wrap(err, "updating student attendance")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.Wrap(err, "updating student attendance")
			}
			if n == 0 {
				return attendance.ErrRecordNotFound
			}

			var stored studentRow
			if err = tx.GetContext(ctx, &stored, sel, row.StudentID, row.Date); err != nil {
				return errors.Wrap(err, "reloading student attendance")
			}
			updated = append(updated, stored.record())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (repo *attendanceRepository) FindStudentRecords(ctx context.Context, filter attendance.StudentFilter) ([]attendance.StudentRecord, error) {
	var w where
	if filter.SchoolID != "" {
		w.add("school_id = ?", filter.SchoolID)
	}
	if len(filter.ClassIDs) > 0 {
		w.add("class_id IN (?)", filter.ClassIDs)
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	w.dateRange(filter.From, filter.To)

	q, args, err := w.query("SELECT "+studentColumns+" FROM student_attendance", "date, student_id")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting student attendance")
	}

	recs := make([]attendance.StudentRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) InsertTeacherRecords(
	ctx context.Context,
	schoolID string,
	date core.Date,
	records []attendance.TeacherRecord,
) ([]attendance.TeacherRecord, error) {
	created := make([]attendance.TeacherRecord, 0, len(records))

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var count int
		q := tx.Rebind("SELECT COUNT(*) FROM teacher_attendance WHERE school_id = ? AND date = ?")
		if err := tx.GetContext(ctx, &count, q, schoolID, date); err != nil {
			return errors.Wrap(err, "counting school attendance")
		}
		if count > 0 {
			return attendance.ErrAlreadyMarked
		}

		q = "INSERT INTO teacher_attendance (" + teacherColumns + ") VALUES (:id, :school_id, :teacher_id, :date, :day, :status, :notes, :entered_by_id, :entered_by_name, :created_at, :updated_at)"
		for _, rec := range records {
			row := newTeacherRow(rec)
			if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
				if isUniqueViolation(err) {
					return attendance.ErrAlreadyMarked
				}
				return errors.Wrap(err, "inserting teacher attendance")
			}
			created = append(created, row.record())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *attendanceRepository) UpdateTeacherRecords(ctx context.Context, records []attendance.TeacherRecord) ([]attendance.TeacherRecord, error) {
	updated := make([]attendance.TeacherRecord, 0, len(records))

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		upd := tx.Rebind(`UPDATE teacher_attendance
			SET status = ?, notes = ?, entered_by_id = ?, entered_by_name = ?, updated_at = ?
			WHERE teacher_id = ? AND school_id = ? AND date = ?`)
		sel := tx.Rebind("SELECT " + teacherColumns + " FROM teacher_attendance WHERE teacher_id = ? AND date = ?")

		for _, rec := range records {
			row := newTeacherRow(rec)
			res, err := tx.ExecContext(ctx, upd,
				row.Status, row.Notes, row.EnteredByID, row.EnteredByName, row.UpdatedAt,
				row.TeacherID, row.SchoolID, row.Date,
			)
			if err != nil {
				return errors.Wrap(err, "updating teacher attendance")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.Wrap(err, "updating teacher attendance")
			}
			if n == 0 {
				return attendance.ErrRecordNotFound
			}

			var stored teacherRow
			if err = tx.GetContext(ctx, &stored, sel, row.TeacherID, row.Date); err != nil {
				return errors.Wrap(err, "reloading teacher attendance")
			}
			updated = append(updated, stored.record())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (repo *attendanceRepository) FindTeacherRecords(ctx context.Context, filter attendance.TeacherFilter) ([]attendance.TeacherRecord, error) {
	var w where
	if filter.SchoolID != "" {
		w.add("school_id = ?", filter.SchoolID)
	}
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	w.dateRange(filter.From, filter.To)

	q, args, err := w.query("SELECT "+teacherColumns+" FROM teacher_attendance", "date, teacher_id")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []teacherRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting teacher attendance")
	}

	recs := make([]attendance.TeacherRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}
