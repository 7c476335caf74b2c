package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/school"
)

type classRow struct {
	ID             string      `db:"id"`
	SchoolID       string      `db:"school_id"`
	Name           string      `db:"name"`
	ClassTeacherID null.String `db:"class_teacher_id"`
}

type directory struct {
	db *sqlx.DB
}

var _ school.Repository = (*directory)(nil) // interface compliance check

func NewDirectory(db *sqlx.DB) *directory {
	return &directory{db: db}
}

func (dir *directory) GetRoster(ctx context.Context, schoolID string) (school.Roster, error) {
	roster := school.Roster{SchoolID: schoolID}

	var classes []classRow
	q := dir.db.Rebind("SELECT id, school_id, name, class_teacher_id FROM classes WHERE school_id = ? ORDER BY name, id")
	if err := dir.db.SelectContext(ctx, &classes, q, schoolID); err != nil {
		return school.Roster{}, errors.Wrap(err, "selecting classes")
	}
	for _, c := range classes {
		roster.Classes = append(roster.Classes, school.Class{
			ID:             c.ID,
			SchoolID:       c.SchoolID,
			Name:           c.Name,
			ClassTeacherID: c.ClassTeacherID.String,
		})
	}

	q = dir.db.Rebind("SELECT id, school_id, name, class_id FROM students WHERE school_id = ? ORDER BY name, id")
	if err := dir.db.SelectContext(ctx, &roster.Students, q, schoolID); err != nil {
		return school.Roster{}, errors.Wrap(err, "selecting students")
	}

	q = dir.db.Rebind("SELECT id, school_id, name FROM teachers WHERE school_id = ? ORDER BY name, id")
	if err := dir.db.SelectContext(ctx, &roster.Teachers, q, schoolID); err != nil {
		return school.Roster{}, errors.Wrap(err, "selecting teachers")
	}

	if roster.IsEmpty() {
		return school.Roster{}, school.ErrNotFound
	}
	return roster, nil
}

// SaveRoster upserts the classes, teachers & students of roster.
func (dir *directory) SaveRoster(ctx context.Context, roster school.Roster) error {
	return withTx(ctx, dir.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO classes (id, school_id, name, class_teacher_id) VALUES (:id, :school_id, :name, :class_teacher_id)
			ON CONFLICT (id) DO UPDATE SET school_id = excluded.school_id, name = excluded.name, class_teacher_id = excluded.class_teacher_id`
		for _, c := range roster.Classes {
			row := classRow{
				ID:             c.ID,
				SchoolID:       roster.SchoolID,
				Name:           c.Name,
				ClassTeacherID: null.NewString(c.ClassTeacherID, c.ClassTeacherID != ""),
			}
			if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
				return errors.Wrap(err, "saving class")
			}
		}

		q = `INSERT INTO teachers (id, school_id, name) VALUES (:id, :school_id, :name)
			ON CONFLICT (id) DO UPDATE SET school_id = excluded.school_id, name = excluded.name`
		for _, t := range roster.Teachers {
			t.SchoolID = roster.SchoolID
			if _, err := tx.NamedExecContext(ctx, q, t); err != nil {
				return errors.Wrap(err, "saving teacher")
			}
		}

		q = `INSERT INTO students (id, school_id, name, class_id) VALUES (:id, :school_id, :name, :class_id)
			ON CONFLICT (id) DO UPDATE SET school_id = excluded.school_id, name = excluded.name, class_id = excluded.class_id`
		for _, s := range roster.Students {
			s.SchoolID = roster.SchoolID
			if _, err := tx.NamedExecContext(ctx, q, s); err != nil {
				return errors.Wrap(err, "saving student")
			}
		}
		return nil
	})
}
