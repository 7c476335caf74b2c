package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	"github.com/trezcool/mahudhurio/storage"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	os.Exit(run())
}

func run() int {
	conf, err := core.NewConfig()
	if err != nil {
		logger.Printf("error: loading config: %s\n", err)
		return 1
	}

	// set up storage
	stores, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Printf("error: setting up %s storage: %s\n", conf.Database.Backend, err)
		return 1
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Printf("error: closing storage: %s\n", err)
		}
	}()

	validate, translator := newValidator()

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         stores.SQL,
		schools:    stores.Schools,
		svc:        attendance.NewService(stores.Attendance, conf),
		validate:   validate,
		translator: translator,
		mailer:     emailsvc.New(conf, os.Stdout),
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}
