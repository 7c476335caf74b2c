package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

const reportFailedMsg = "could not load attendance records"

type (
	gridResponse struct {
		Summary attendance.Summary `json:"summary"`
		Headers []core.Date        `json:"headers"`
		Rows    []attendance.Row   `json:"rows"`
		Error   string             `json:"error,omitempty"`
	}

	summaryResponse struct {
		Data    []attendance.EntitySummary `json:"data"`
		Summary attendance.Summary         `json:"summary"`
		Error   string                     `json:"error,omitempty"`
	}
)

func newReportResponse(report attendance.Report, shape attendance.Shape, errMsg string) interface{} {
	if shape == attendance.ShapeSummary {
		return summaryResponse{Data: report.Entities, Summary: report.Summary, Error: errMsg}
	}
	return gridResponse{Summary: report.Summary, Headers: report.Grid.Headers, Rows: report.Grid.Rows, Error: errMsg}
}

type reportApi struct {
	svc       *attendance.Service
	directory school.Directory
	validate  *validator.Validate
	logger    core.Logger
}

func registerReportAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	directory school.Directory,
	validate *validator.Validate,
	logger core.Logger,
) {
	api := reportApi{
		svc:       svc,
		directory: directory,
		validate:  validate,
		logger:    logger,
	}

	rg := g.Group("/reports", jwt)
	rg.GET("/attendance", api.attendance)
}

// Handlers

func (api *reportApi) attendance(ctx echo.Context) error {
	var q attendance.ReportQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to ReportQuery")
	}
	if err := q.Validate(api.validate); err != nil {
		return err
	}

	usr, roster, err := contextUserAndRoster(ctx, api.directory)
	if err != nil {
		return err
	}

	report, err := api.svc.Report(ctx.Request().Context(), usr, roster, q)
	if err != nil {
		if core.IsAuthorizationError(err) {
			return err
		}
		// degrade to the empty report
		api.logger.Error(reportFailedMsg, errors.Wrap(err, "building attendance report"), usr)
		return ctx.JSON(http.StatusOK, newReportResponse(report, q.Shape, reportFailedMsg))
	}
	return ctx.JSON(http.StatusOK, newReportResponse(report, q.Shape, ""))
}
