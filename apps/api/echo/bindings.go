package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core"
)

// dateRange is the optional `from` & `to` (YYYY-MM-DD) query params of history endpoints.
type dateRange struct {
	From core.Date
	To   core.Date
}

func (dr *dateRange) Bind(ctx echo.Context) error {
	var fldErrs []core.FieldError
	for _, p := range []struct {
		name string
		dst  *core.Date
	}{{"from", &dr.From}, {"to", &dr.To}} {
		val := core.CleanString(ctx.QueryParam(p.name))
		if val == "" {
			continue
		}
		d, err := core.ParseDate(val)
		if err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: p.name, Error: "must be a date formatted as YYYY-MM-DD"})
			continue
		}
		*p.dst = d
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.To.Before(dr.From) {
		return core.NewValidationError(nil, core.FieldError{Field: "to", Error: "cannot be before from"})
	}
	return nil
}
