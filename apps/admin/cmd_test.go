package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
	"github.com/trezcool/mahudhurio/testutil"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := core.NewTestConfig()
	conf.Database.Backend = core.BackendPostgres

	// set up DB & repos
	db := testutil.OpenSQLite(t)
	schools := sqlxrepos.NewDirectory(db)
	testutil.SaveRosters(t, schools, testutil.Roster())
	validate, translator := testutil.Validator()

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		conf:       conf,
		db:         db,
		schools:    schools,
		svc:        attendance.NewService(sqlxrepos.NewAttendanceRepository(db), conf),
		validate:   validate,
		translator: translator,
		mailer:     emailsvc.NewConsoleService(conf, io.Discard),
		out:        out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "token: no args", args: []string{"token"}, wantErr: errHelp},
		{name: "token: help", args: []string{"token", "-h"}, wantErr: errHelp},
		{name: "token: unknown flag", args: []string{"token", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
		{name: "report: no school", args: []string{"report", "-type", "class"}, wantErr: errHelp},
		{name: "roster: no file", args: []string{"roster"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "guardians", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("non relational backend", func(t *testing.T) {
		memCli := &commandLine{conf: core.NewTestConfig(), out: new(bytes.Buffer)}
		err := memCli.run([]string{"admin", "migrate", "up"})
		assert.EqualError(t, err, "migrations need the postgres backend (got memory)")
	})
}

func Test_commandLine_token(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{
			name:    "missing role",
			args:    []string{"token", "-id", "teacher-1", "-school", testutil.SchoolID},
			wantErr: errHelp,
		},
		{
			name:       "invalid role",
			args:       []string{"token", "-id", "teacher-1", "-school", testutil.SchoolID, "-role", "janitor"},
			wantErrStr: `"janitor": invalid role`,
		},
		{
			name:       "blank roles",
			args:       []string{"token", "-id", "teacher-1", "-school", testutil.SchoolID, "-role", " , "},
			wantErrStr: "at least one role is required",
		},
		{
			name: "teacher",
			args: []string{"token", "-id", "teacher-1", "-name", "Juma", "-username", " Juma ", "-school", testutil.SchoolID, "-role", "Teacher:"},
			extra: user.User{
				ID:       "teacher-1",
				Name:     "Juma",
				Username: "juma",
				SchoolID: testutil.SchoolID,
				Roles:    []string{user.RoleTeacher},
			},
		},
		{
			name: "many roles",
			args: []string{"token", "-id", "admin-1", "-school", testutil.SchoolID, "-role", "admin:school,teacher:"},
			extra: user.User{
				ID:       "admin-1",
				SchoolID: testutil.SchoolID,
				Roles:    []string{user.RoleAdminSchool, user.RoleTeacher},
			},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}

			claims := new(echoapi.Claims)
			_, err = jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(cli.conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.extra, claims.User())
			assert.Equal(t, cli.conf.AppName, claims.Issuer)
		})
	}
}

func Test_commandLine_report(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	roster, err := cli.schools.GetRoster(ctx, testutil.SchoolID)
	require.NoError(t, err)
	batch := attendance.StudentBatch{Records: []attendance.StudentMark{
		{StudentID: testutil.StudentAmani, ClassID: testutil.ClassSeven, Date: "2025-05-01", Status: attendance.StatusPresent},
		{StudentID: testutil.StudentBaraka, ClassID: testutil.ClassSeven, Date: "2025-05-01", Status: attendance.StatusAbsent},
		{StudentID: testutil.StudentChausiku, ClassID: testutil.ClassSeven, Date: "2025-05-01", Status: attendance.StatusLate},
	}}
	require.NoError(t, batch.Validate(cli.validate))
	_, err = cli.svc.CreateStudentAttendance(ctx, testutil.Admin(), roster, batch)
	require.NoError(t, err)

	type output struct {
		Type    attendance.ReportType      `json:"reportType"`
		From    string                     `json:"from"`
		To      string                     `json:"to"`
		Summary attendance.Summary         `json:"summary"`
		Headers []string                   `json:"headers"`
		Rows    []map[string]interface{}   `json:"rows"`
		Data    []attendance.EntitySummary `json:"data"`
	}
	base := []string{"report", "-school", testutil.SchoolID, "-period", "month", "-month", "5", "-year", "2025"}

	tests := []cliTest{
		{name: "invalid type", args: append(base, "-type", "lol"), wantErrStr: "reportType: reportType must be one of [student teacher class]"},
		{name: "week past the end of the month", args: []string{"report", "-school", testutil.SchoolID, "-type", "class", "-period", "week", "-week", "5", "-month", "2", "-year", "2025"}, wantErrStr: "week: 2025-02 has no week 5"},
		{name: "student report without class", args: append(base, "-type", "student"), wantErrStr: "classId: this field is required for student reports"},
		{name: "unknown school", args: []string{"report", "-school", "lol", "-type", "class", "-period", "month", "-month", "5", "-year", "2025"}, wantErr: school.ErrNotFound},
		{
			name: "class summary",
			args: append(base, "-type", "class", "-shape", "summary"),
			extra: output{
				Type:    attendance.ReportClass,
				From:    "2025-05-01",
				To:      "2025-05-31",
				Summary: attendance.Summary{Present: 1, Absent: 1, Late: 1, Total: 3, Percentage: 33, Tiers: attendance.Tiers{Poor: 1}},
				Data: []attendance.EntitySummary{{
					ID: testutil.ClassSeven, Name: "Form 7", Present: 1, Absent: 1, Late: 1, Total: 3, Percentage: 33, Tier: attendance.TierPoor,
				}},
			},
		},
		{
			name: "empty week",
			args: append(base, "-type", "teacher", "-period", "week", "-week", "2"),
			extra: output{
				Type: attendance.ReportTeacher,
				From: "2025-05-08",
				To:   "2025-05-14",
			},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}

			var got output
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			assert.Equal(t, tt.extra, got)
		})
	}

	t.Run("student grid", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run(append([]string{"admin"}, append(base, "-type", "student", "-class", testutil.ClassSeven)...)))

		var got output
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, []string{"2025-05-01"}, got.Headers)
		require.Len(t, got.Rows, 3)
		assert.Equal(t, "Amani", got.Rows[0]["name"])
		assert.Equal(t, map[string]interface{}{"2025-05-01": "absent"}, got.Rows[1]["cells"])
		assert.Nil(t, got.Data)
	})
}

func Test_commandLine_report_email(t *testing.T) {
	cli, out := setup(t)
	mailer := cli.mailer.(*emailsvc.ConsoleService)
	args := []string{"admin", "report", "-school", testutil.SchoolID, "-type", "class", "-period", "month", "-month", "5", "-year", "2025"}

	t.Run("invalid address", func(t *testing.T) {
		err := cli.run(append(args, "-email", "lol"))
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "email", vErr.Fields[0].Field)
		assert.Empty(t, mailer.SentMessages())
	})

	t.Run("emailed", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run(append(args, "-email", "Head <head@school.test>, ops@school.test")))

		sent := mailer.SentMessages()
		require.Len(t, sent, 1)
		msg := sent[0]
		assert.Equal(t, "class attendance report of school-1 (2025-05-01 to 2025-05-31)", msg.Subject)
		assert.Equal(t, []string{"head@school.test", "ops@school.test"}, []string{msg.To[0].Address, msg.To[1].Address})
		assert.Contains(t, msg.TextContent, "Total: 0\n")
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "attendance-class-2025-05-01-2025-05-31.json", msg.Attachments[0].Filename)
		assert.Equal(t, base64.StdEncoding.EncodeToString(out.Bytes()), msg.Attachments[0].Content.String())
	})
}

func Test_commandLine_importRoster(t *testing.T) {
	cli, out := setup(t)

	writeFile := func(t *testing.T, content string) string {
		path := filepath.Join(t.TempDir(), "roster.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("missing file", func(t *testing.T) {
		err := cli.run([]string{"admin", "roster", "-file", filepath.Join(t.TempDir(), "lol.json")})
		assert.True(t, os.IsNotExist(errors.Cause(err)))
	})

	tests := []cliTest{
		{name: "invalid json", extra: `{"school_id": `, wantErrStr: "decoding roster file: unexpected end of JSON input"},
		{name: "no school", extra: `{"classes": []}`, wantErrStr: "school_id: this field is required"},
		{
			name:       "student without id",
			extra:      `{"school_id": "school-9", "students": [{"name": "Nobody"}]}`,
			wantErrStr: "students.id: this field is required",
		},
		{
			name:       "teacher of another school",
			extra:      `{"school_id": "school-9", "teachers": [{"id": "teacher-x", "school_id": "school-2", "name": "Xena"}]}`,
			wantErrStr: "teachers.school_id: teacher-x belongs to another school",
		},
		{
			name: "new school",
			extra: `{
				"school_id": "school-9",
				"classes": [{"id": "class-1", "name": "Form 1", "class_teacher_id": "teacher-9"}],
				"students": [{"id": "student-9", "name": "Tumaini", "class_id": "class-1"}],
				"teachers": [{"id": "teacher-9", "school_id": "school-9", "name": "Rehema"}]
			}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run([]string{"admin", "roster", "-file", writeFile(t, tt.extra.(string))})
			tt.check(t, err)
			if err != nil {
				return
			}
			assert.Equal(t, "roster of school-9 saved: 1 classes, 1 students, 1 teachers\n", out.String())

			roster, err := cli.schools.GetRoster(context.Background(), "school-9")
			require.NoError(t, err)
			assert.Equal(t, []school.Student{{ID: "student-9", SchoolID: "school-9", Name: "Tumaini", ClassID: "class-1"}}, roster.Students)
			assert.Equal(t, []school.Class{{ID: "class-1", SchoolID: "school-9", Name: "Form 1", ClassTeacherID: "teacher-9"}}, roster.Classes)
		})
	}
}
