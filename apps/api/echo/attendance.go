package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

// Attendance scopes
const (
	scopeClass  = "class"
	scopeSchool = "school"
)

type attendanceQuery struct {
	Scope   string `query:"scope" json:"scope" validate:"required,oneof=class school"`
	ClassID string `query:"classId" json:"classId"`
	Date    string `query:"date" json:"date" validate:"required,isodate"`
}

func (q *attendanceQuery) Validate(validate *validator.Validate) error {
	q.Scope = core.CleanString(q.Scope, true /* lower */)
	q.ClassID = core.CleanString(q.ClassID)
	q.Date = core.CleanString(q.Date)

	if err := validate.Struct(q); err != nil {
		return err
	}
	if q.Scope == scopeClass && q.ClassID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "classId", Error: "this field is required"})
	}
	return nil
}

type attendanceApi struct {
	svc       *attendance.Service
	directory school.Directory
	validate  *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	directory school.Directory,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:       svc,
		directory: directory,
		validate:  validate,
	}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)
	ag.GET("/me", api.history)

	sg := g.Group("/bulk-student-attendance", jwt)
	sg.POST("", api.createStudents)
	sg.PUT("", api.updateStudents)

	tg := g.Group("/bulk-teacher-attendance", jwt, adminMiddleware())
	tg.POST("", api.createTeachers)
	tg.PUT("", api.updateTeachers)
}

// contextUserAndRoster returns the caller & the roster of their school.
func contextUserAndRoster(ctx echo.Context, directory school.Directory) (user.User, school.Roster, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return user.User{}, school.Roster{}, errors.Wrap(err, "getting context user")
	}
	roster, err := directory.GetRoster(ctx.Request().Context(), usr.SchoolID)
	if err != nil {
		return user.User{}, school.Roster{}, errors.Wrap(err, "getting roster")
	}
	return usr, roster, nil
}

// Handlers

func (api *attendanceApi) query(ctx echo.Context) error {
	var q attendanceQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to attendanceQuery")
	}
	if err := q.Validate(api.validate); err != nil {
		return err
	}
	date, err := core.ParseDate(q.Date)
	if err != nil {
		return errors.Wrap(err, "parsing date")
	}

	usr, roster, err := contextUserAndRoster(ctx, api.directory)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if q.Scope == scopeSchool {
		recs, marked, err := api.svc.SchoolTeacherAttendance(reqCtx, usr, roster, date)
		if err != nil {
			return errors.Wrap(err, "getting school teacher attendance")
		}
		return ctx.JSON(http.StatusOK, echo.Map{"records": recs, "marked": marked})
	}

	recs, marked, err := api.svc.ClassAttendance(reqCtx, usr, roster, q.ClassID, date)
	if err != nil {
		return errors.Wrap(err, "getting class attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"records": recs, "marked": marked})
}

func (api *attendanceApi) history(ctx echo.Context) error {
	var dr dateRange
	if err := dr.Bind(ctx); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqCtx := ctx.Request().Context()
	switch {
	case usr.IsStudent():
		recs, err := api.svc.StudentHistory(reqCtx, usr, dr.From, dr.To)
		if err != nil {
			return errors.Wrap(err, "getting student history")
		}
		return ctx.JSON(http.StatusOK, recs)
	case usr.IsTeacher():
		recs, err := api.svc.TeacherHistory(reqCtx, usr, dr.From, dr.To)
		if err != nil {
			return errors.Wrap(err, "getting teacher history")
		}
		return ctx.JSON(http.StatusOK, recs)
	default:
		return errHttpForbidden
	}
}

func (api *attendanceApi) createStudents(ctx echo.Context) error {
	var data attendance.StudentBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, roster, err := contextUserAndRoster(ctx, api.directory)
	if err != nil {
		return err
	}
	recs, err := api.svc.CreateStudentAttendance(ctx.Request().Context(), usr, roster, data)
	if err != nil {
		return errors.Wrap(err, "creating student attendance")
	}
	return ctx.JSON(http.StatusCreated, recs)
}

func (api *attendanceApi) updateStudents(ctx echo.Context) error {
	var data attendance.StudentBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, roster, err := contextUserAndRoster(ctx, api.directory)
	if err != nil {
		return err
	}
	recs, err := api.svc.UpdateStudentAttendance(ctx.Request().Context(), usr, roster, data)
	if err == attendance.ErrNoChanges {
		return ctx.JSON(http.StatusOK, noChangesResponse())
	}
	if err != nil {
		return errors.Wrap(err, "updating student attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"updated": len(recs), "records": recs})
}

func (api *attendanceApi) createTeachers(ctx echo.Context) error {
	var data attendance.TeacherBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, roster, err := contextUserAndRoster(ctx, api.directory)
	if err != nil {
		return err
	}
	recs, err := api.svc.CreateTeacherAttendance(ctx.Request().Context(), usr, roster, data)
	if err != nil {
		return errors.Wrap(err, "creating teacher attendance")
	}
	return ctx.JSON(http.StatusCreated, recs)
}

func (api *attendanceApi) updateTeachers(ctx echo.Context) error {
	var data attendance.TeacherBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, roster, err := contextUserAndRoster(ctx, api.directory)
	if err != nil {
		return err
	}
	recs, err := api.svc.UpdateTeacherAttendance(ctx.Request().Context(), usr, roster, data)
	if err == attendance.ErrNoChanges {
		return ctx.JSON(http.StatusOK, noChangesResponse())
	}
	if err != nil {
		return errors.Wrap(err, "updating teacher attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"updated": len(recs), "records": recs})
}

func noChangesResponse() echo.Map {
	return echo.Map{"updated": 0, "message": attendance.ErrNoChanges.Error()}
}
