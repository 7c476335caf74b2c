package attendance

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

type (
	ReportType string
	Period     string
	Shape      string
)

// Report types
const (
	ReportStudent ReportType = "student"
	ReportTeacher ReportType = "teacher"
	ReportClass   ReportType = "class"
)

// Periods
const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodTerm  Period = "term"
	PeriodYear  Period = "year"
)

// Report shapes
const (
	ShapeGrid    Shape = "grid"
	ShapeSummary Shape = "summary"
)

// ReportQuery describes an attendance report request.
type ReportQuery struct {
	Type    ReportType `json:"reportType" query:"reportType" validate:"required,oneof=student teacher class"`
	Period  Period     `json:"timePeriod" query:"timePeriod" validate:"required,oneof=week month term year"`
	Month   int        `json:"month" query:"month" validate:"required,min=1,max=12"`
	Year    int        `json:"year" query:"year" validate:"required,min=1900,max=9999"`
	Week    int        `json:"week" query:"week" validate:"omitempty,min=1,max=5"`
	ClassID string     `json:"classId" query:"classId"`
	Shape   Shape      `json:"shape" query:"shape" validate:"omitempty,oneof=grid summary"`
}

func (q *ReportQuery) Validate(validate *validator.Validate) error {
	q.Type = ReportType(core.CleanString(string(q.Type), true /* lower */))
	q.Period = Period(core.CleanString(string(q.Period), true /* lower */))
	q.Shape = Shape(core.CleanString(string(q.Shape), true /* lower */))
	q.ClassID = core.CleanString(q.ClassID)

	if err := validate.Struct(q); err != nil {
		return err
	}
	if q.Type == ReportStudent && q.ClassID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "classId", Error: "this field is required for student reports"})
	}
	if q.Type == ReportTeacher && q.ClassID != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "classId", Error: "teacher reports cannot be filtered by class"})
	}
	if q.Shape == "" {
		q.Shape = ShapeGrid
	}
	if q.Period == PeriodWeek {
		if q.Week == 0 {
			q.Week = 1
		}
		if from, _ := q.DateRange(); from.Month() != time.Month(q.Month) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "week",
				Error: fmt.Sprintf("%d-%02d has no week %d", q.Year, q.Month, q.Week),
			})
		}
	}
	return nil
}

// DateRange returns the inclusive date range covered by q.
//   - week: days [1+7(w-1), min(7w, last day)] of the month; empty (from after to) when
//     the week starts past the end of the month
//   - month: the whole month
//   - term: the calendar quarter holding the month
//   - year: the whole year
func (q ReportQuery) DateRange() (from, to core.Date) {
	month := time.Month(q.Month)
	switch q.Period {
	case PeriodWeek:
		week := q.Week
		if week < 1 {
			week = 1
		}
		last := core.LastDayOfMonth(q.Year, month)
		from = core.NewDate(q.Year, month, 1).AddDays(7 * (week - 1))
		to = from.AddDays(6)
		if to.After(last) {
			to = last
		}
		return from, to
	case PeriodTerm:
		first := time.Month(((q.Month-1)/3)*3 + 1)
		return core.NewDate(q.Year, first, 1), core.LastDayOfMonth(q.Year, first+2)
	case PeriodYear:
		return core.NewDate(q.Year, time.January, 1), core.NewDate(q.Year, time.December, 31)
	default: // month
		return core.NewDate(q.Year, month, 1), core.LastDayOfMonth(q.Year, month)
	}
}
