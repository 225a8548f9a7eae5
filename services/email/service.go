package emailsvc

import (
	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// New returns the email backend selected by conf.Email.Backend.
func New(conf *core.Config, logger core.Logger) core.EmailService {
	switch conf.Email.Backend {
	case "sendgrid":
		return NewSendgridService(conf, logger)
	case "smtp":
		return NewSMTPService(conf, logger)
	}
	return NewConsoleService(conf)
}
