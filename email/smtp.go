package email

import (
	"io"

	"github.com/apex/log"
	gomail "gopkg.in/gomail.v2"
)

// SMTPMailer delivers messages through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(host, port, username, password)}
}

func (m *SMTPMailer) TransportName() string {
	return "smtp"
}

func (m *SMTPMailer) Send(msg *Message) error {
	if err := m.dialer.DialAndSend(toGomail(msg)); err != nil {
		return err
	}
	log.Infof("Email %q sent to %d recipients via SMTP", msg.Subject, len(msg.To))
	return nil
}

// toGomail converts a message into gomail form. The outbox reuses this to
// serialize parked messages as .eml files.
func toGomail(msg *Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", msg.FromEmail, msg.FromName)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	for _, att := range msg.Attachments {
		content := att.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if att.MIMEType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.MIMEType},
			}))
		}
		if att.Inline {
			gm.Embed(att.Filename, settings...)
		} else {
			gm.Attach(att.Filename, settings...)
		}
	}
	return gm
}
