package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	db         *sqlx.DB // nil unless the backend is relational
	schools    school.Repository
	svc        *attendance.Service
	validate   *validator.Validate
	translator ut.Translator
	mailer     core.EmailService
	out        io.Writer
}

// translate turns validator errors into a core.ValidationError holding translated messages.
func (cli *commandLine) translate(err error) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]core.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, core.FieldError{Field: fe.Field(), Error: fe.Translate(cli.translator)})
	}
	return core.NewValidationError(nil, flds...)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command against the embedded migrations")
	fmt.Fprintln(cli.out, "  token -id ID -school SCHOOL -role ROLE[,ROLE] [-name NAME] [-username USERNAME] - mint an API token")
	fmt.Fprintln(cli.out, "  report -school SCHOOL -type TYPE -period PERIOD -month M -year Y [-week W] [-class CLASS] [-shape SHAPE] [-email ADDRESS[,ADDRESS]] - print an attendance report, optionally emailing it")
	fmt.Fprintln(cli.out, "  roster -file FILE - import a school roster from a JSON file")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses args into fs; asking for help is reported as errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			fmt.Fprintln(cli.out, "Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, create NAME [go|sql], fix")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "token":
		tokenCmd := cli.newFlagSet("token")
		opts := tokenOptions{}
		tokenCmd.StringVar(&opts.id, "id", "", "The user's id (token subject).")
		tokenCmd.StringVar(&opts.name, "name", "", "The user's name.")
		tokenCmd.StringVar(&opts.username, "username", "", "The user's username.")
		tokenCmd.StringVar(&opts.schoolID, "school", "", "The id of the user's school.")
		tokenCmd.StringVar(&opts.roles, "role", "", "Comma separated roles, eg. admin:school,teacher:")
		if err := parse(tokenCmd, args[2:]); err != nil {
			return err
		}
		if opts.id == "" || opts.schoolID == "" || opts.roles == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(opts)

	case "report":
		reportCmd := cli.newFlagSet("report")
		var schoolID, typ, period, class, shape, email string
		var month, year, week int
		reportCmd.StringVar(&schoolID, "school", "", "The id of the school.")
		reportCmd.StringVar(&typ, "type", "", "The report type: student, teacher or class.")
		reportCmd.StringVar(&period, "period", "", "The time period: week, month, term or year.")
		reportCmd.IntVar(&month, "month", 0, "The month (1-12).")
		reportCmd.IntVar(&year, "year", 0, "The year.")
		reportCmd.IntVar(&week, "week", 0, "The week of the month (1-5), for weekly reports.")
		reportCmd.StringVar(&class, "class", "", "The class id; required for student reports.")
		reportCmd.StringVar(&shape, "shape", "", "The report shape: grid (default) or summary.")
		reportCmd.StringVar(&email, "email", "", "Comma separated addresses to email the report to.")
		if err := parse(reportCmd, args[2:]); err != nil {
			return err
		}
		if schoolID == "" {
			reportCmd.Usage()
			return errHelp
		}
		return cli.report(schoolID, email, attendance.ReportQuery{
			Type:    attendance.ReportType(typ),
			Period:  attendance.Period(period),
			Month:   month,
			Year:    year,
			Week:    week,
			ClassID: class,
			Shape:   attendance.Shape(shape),
		})

	case "roster":
		rosterCmd := cli.newFlagSet("roster")
		file := rosterCmd.String("file", "", "Path to the roster JSON file.")
		if err := parse(rosterCmd, args[2:]); err != nil {
			return err
		}
		if *file == "" {
			rosterCmd.Usage()
			return errHelp
		}
		return cli.importRoster(*file)

	default:
		cli.printUsage()
		return errHelp
	}
}
