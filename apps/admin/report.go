package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

type reportOutput struct {
	Type    attendance.ReportType      `json:"reportType"`
	From    core.Date                  `json:"from"`
	To      core.Date                  `json:"to"`
	Summary attendance.Summary         `json:"summary"`
	Headers []core.Date                `json:"headers,omitempty"`
	Rows    []attendance.Row           `json:"rows,omitempty"`
	Data    []attendance.EntitySummary `json:"data,omitempty"`
}

// operator acts on behalf of the CLI user; it may see every report of schoolID.
func operator(schoolID string) user.User {
	return user.User{ID: "admin-cli", Name: "Admin CLI", SchoolID: schoolID, Roles: []string{user.RoleAdminSuper}}
}

// report prints the attendance report q of schoolID as JSON, and emails it to the
// comma separated addresses of emailTo if any.
func (cli *commandLine) report(schoolID, emailTo string, q attendance.ReportQuery) error {
	if err := q.Validate(cli.validate); err != nil {
		return cli.translate(err)
	}
	var recipients []*mail.Address
	if emailTo = strings.TrimSpace(emailTo); emailTo != "" {
		var err error
		if recipients, err = mail.ParseAddressList(emailTo); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: err.Error()})
		}
	}

	ctx := context.Background()
	roster, err := cli.schools.GetRoster(ctx, schoolID)
	if err != nil {
		return errors.Wrapf(err, "loading roster of %s", schoolID)
	}

	report, err := cli.svc.Report(ctx, operator(schoolID), roster, q)
	if err != nil {
		return err
	}

	out := reportOutput{Type: report.Type, From: report.From, To: report.To, Summary: report.Summary}
	if q.Shape == attendance.ShapeSummary {
		out.Data = report.Entities
	} else {
		out.Headers = report.Grid.Headers
		out.Rows = report.Grid.Rows
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err = enc.Encode(out); err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if _, err = cli.out.Write(buf.Bytes()); err != nil {
		return err
	}

	if len(recipients) == 0 {
		return nil
	}
	return cli.mailer.SendMessages(reportMessage(schoolID, report, recipients, buf.Bytes()))
}

func reportMessage(schoolID string, report attendance.Report, recipients []*mail.Address, content []byte) *core.EmailMessage {
	msg := &core.EmailMessage{
		Subject: fmt.Sprintf("%s attendance report of %s (%s to %s)", report.Type, schoolID, report.From, report.To),
		TextContent: fmt.Sprintf(
			"Present: %d\nAbsent: %d\nLate: %d\nLeave: %d\nTotal: %d\nAttendance: %d%%\nGood: %d, average: %d, poor: %d\n",
			report.Summary.Present, report.Summary.Absent, report.Summary.Late, report.Summary.Leave,
			report.Summary.Total, report.Summary.Percentage,
			report.Summary.Tiers.Good, report.Summary.Tiers.Average, report.Summary.Tiers.Poor,
		),
	}
	for _, addr := range recipients {
		msg.To = append(msg.To, *addr)
	}
	msg.Attach(content, fmt.Sprintf("attendance-%s-%s-%s.json", report.Type, report.From, report.To), "application/json")
	return msg
}
