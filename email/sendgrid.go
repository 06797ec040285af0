package email

import (
	"encoding/base64"
	"fmt"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers messages through the SendGrid API.
type SendGridMailer struct {
	client *sendgrid.Client
}

func NewSendGridMailer(apiKey string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey)}
}

func (m *SendGridMailer) TransportName() string {
	return "sendgrid"
}

func (m *SendGridMailer) Send(msg *Message) error {
	from := mail.NewEmail(msg.FromName, msg.FromEmail)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, recipient := range msg.To {
		p.AddTos(mail.NewEmail(recipient, recipient))
	}
	message.AddPersonalizations(p)

	message.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	for _, att := range msg.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		attachment.SetType(att.MIMEType)
		attachment.SetFilename(att.Filename)
		if att.Inline {
			attachment.SetDisposition("inline")
			attachment.SetContentID(att.Filename)
		} else {
			attachment.SetDisposition("attachment")
		}
		message.AddAttachment(attachment)
	}

	response, err := m.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected the message: status %d", response.StatusCode)
	}

	log.Infof("Email %q sent to %d recipients via SendGrid, status %d", msg.Subject, len(msg.To), response.StatusCode)
	return nil
}
