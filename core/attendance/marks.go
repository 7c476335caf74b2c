package attendance

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

// StudentMark is one entry of a bulk student attendance submission.
type StudentMark struct {
	StudentID string `json:"student_id" validate:"required,notblank"`
	ClassID   string `json:"class_id" validate:"required,notblank"`
	Date      string `json:"date" validate:"required,isodate"`
	Status    Status `json:"status" validate:"required,oneof=present absent late"`
	Notes     string `json:"notes" validate:"max=500"`
}

// TeacherMark is one entry of a bulk teacher attendance submission.
// SchoolID defaults to the school of the submitter.
type TeacherMark struct {
	TeacherID string `json:"teacher_id" validate:"required,notblank"`
	SchoolID  string `json:"school_id"`
	Date      string `json:"date" validate:"required,isodate"`
	Status    Status `json:"status" validate:"required,oneof=present absent leave"`
	Notes     string `json:"notes" validate:"max=500"`
}

// StudentBatch is a bulk student attendance submission. All marks target one class on one date.
type StudentBatch struct {
	Records []StudentMark `json:"records" validate:"required,min=1,dive"`
}

// TeacherBatch is a bulk teacher attendance submission. All marks target one school on one date.
type TeacherBatch struct {
	Records []TeacherMark `json:"records" validate:"required,min=1,dive"`
}

func (b *StudentBatch) Validate(validate *validator.Validate) error {
	for i := range b.Records {
		b.Records[i].StudentID = core.CleanString(b.Records[i].StudentID)
		b.Records[i].ClassID = core.CleanString(b.Records[i].ClassID)
		b.Records[i].Date = core.CleanString(b.Records[i].Date)
		b.Records[i].Notes = core.CleanString(b.Records[i].Notes)
	}
	if err := validate.Struct(b); err != nil {
		return err
	}

	first := b.Records[0]
	seen := make(map[string]bool, len(b.Records))
	for i, mark := range b.Records {
		switch {
		case mark.ClassID != first.ClassID:
			return batchError(i, "class_id", "all records must target the same class")
		case mark.Date != first.Date:
			return batchError(i, "date", "all records must target the same date")
		case seen[mark.StudentID]:
			return batchError(i, "student_id", "duplicate student in batch")
		}
		seen[mark.StudentID] = true
	}
	return nil
}

// Scope returns the class & date targeted by a validated batch.
func (b StudentBatch) Scope() (classID string, date core.Date) {
	date, _ = core.ParseDate(b.Records[0].Date)
	return b.Records[0].ClassID, date
}

func (b *TeacherBatch) Validate(validate *validator.Validate) error {
	for i := range b.Records {
		b.Records[i].TeacherID = core.CleanString(b.Records[i].TeacherID)
		b.Records[i].SchoolID = core.CleanString(b.Records[i].SchoolID)
		b.Records[i].Date = core.CleanString(b.Records[i].Date)
		b.Records[i].Notes = core.CleanString(b.Records[i].Notes)
	}
	if err := validate.Struct(b); err != nil {
		return err
	}

	first := b.Records[0]
	seen := make(map[string]bool, len(b.Records))
	for i, mark := range b.Records {
		switch {
		case mark.SchoolID != first.SchoolID:
			return batchError(i, "school_id", "all records must target the same school")
		case mark.Date != first.Date:
			return batchError(i, "date", "all records must target the same date")
		case seen[mark.TeacherID]:
			return batchError(i, "teacher_id", "duplicate teacher in batch")
		}
		seen[mark.TeacherID] = true
	}
	return nil
}

// Scope returns the school (possibly empty) & date targeted by a validated batch.
func (b TeacherBatch) Scope() (schoolID string, date core.Date) {
	date, _ = core.ParseDate(b.Records[0].Date)
	return b.Records[0].SchoolID, date
}

func batchError(idx int, field, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: fmt.Sprintf("records[%d].%s", idx, field), Error: msg})
}
