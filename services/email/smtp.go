package emailsvc

import (
	"context"
	"crypto/tls"
	"fmt"
	netmail "net/mail"

	mail "github.com/go-mail/mail/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

type smtpService struct {
	dialer     *mail.Dialer
	from       string
	domain     string
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) *smtpService {
	c := conf.Email.SMTP
	d := mail.NewDialer(c.Host, c.Port, c.User, c.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: c.Host, InsecureSkipVerify: c.SkipTLSVerify}
	from := conf.DefaultFromEmail()

	return &smtpService{
		dialer:     d,
		from:       from.String(),
		domain:     c.Host,
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if _, err := svc.Send(context.Background(), msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}()
	}
}

func (svc smtpService) prepare(id string, msg core.EmailMessage) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("Message-Id", "<"+id+">")
	m.SetHeader("From", svc.from)
	m.SetHeader("Subject", svc.subjPrefix+msg.Subject)
	for field, addrs := range map[string][]string{
		"To":  formatAddresses(m, msg.To),
		"Cc":  formatAddresses(m, msg.Cc),
		"Bcc": formatAddresses(m, msg.Bcc),
	} {
		if len(addrs) > 0 {
			m.SetHeader(field, addrs...)
		}
	}

	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}
	return m
}

// Send delivers msg and returns the Message-Id it was sent with.
func (svc smtpService) Send(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := msg.Render(); err != nil {
		return "", errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString() + "@" + svc.domain
	if err := svc.dialer.DialAndSend(svc.prepare(id, *msg)); err != nil {
		return "", errors.Wrap(err, "sending via smtp")
	}
	return id, nil
}

func formatAddresses(m *mail.Message, addrs []netmail.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, m.FormatAddress(a.Address, a.Name))
	}
	return out
}
