// Package emailsvc implements core.EmailService.
package emailsvc

import (
	"io"

	"github.com/trezcool/mahudhurio/core"
)

// New returns the email service of conf.Email.Backend. The console service writes to w.
func New(conf *core.Config, w io.Writer) core.EmailService {
	if conf.Email.Backend == core.EmailSendgrid {
		return NewSendgridService(conf)
	}
	return NewConsoleService(conf, w)
}

func subjectPrefix(conf *core.Config) string {
	return "[" + conf.AppName + "] "
}
