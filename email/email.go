package email

import (
	"fmt"

	"github.com/apex/log"

	"github.com/Pranavsingh431/thermo-final/metrics"
	"github.com/Pranavsingh431/thermo-final/models"
)

// Attachment is a file carried by a message. Inline attachments are
// referenced from the HTML body by their filename as content id.
type Attachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Inline   bool   `json:"inline"`
	Content  []byte `json:"content"`
}

// Message is a fully built email, independent of the transport that will
// carry it.
type Message struct {
	FromName    string       `json:"from_name"`
	FromEmail   string       `json:"from_email"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Mailer delivers a built message over one transport.
type Mailer interface {
	Send(msg *Message) error
	TransportName() string
}

// Notifier builds and delivers operational emails. A delivery failure parks
// the message in the outbox instead of failing the analysis that produced it.
type Notifier struct {
	mailer     Mailer
	outbox     *Outbox
	fromName   string
	fromEmail  string
	recipients []string
}

// NewNotifier creates a notifier. mailer may be nil, in which case every
// message goes straight to the outbox.
func NewNotifier(mailer Mailer, outbox *Outbox, fromName, fromEmail string, recipients []string) *Notifier {
	return &Notifier{
		mailer:     mailer,
		outbox:     outbox,
		fromName:   fromName,
		fromEmail:  fromEmail,
		recipients: recipients,
	}
}

// CriticalAlert sends the immediate notification for one critical report.
func (n *Notifier) CriticalAlert(report *models.ThermalReport, annotatedImage, pdfReport []byte) error {
	if len(n.recipients) == 0 {
		log.Debug("no alert recipients configured, skipping critical alert")
		return nil
	}
	msg := BuildCriticalAlert(n.fromName, n.fromEmail, n.recipients, report, annotatedImage, pdfReport)
	return n.deliver(msg)
}

// BatchSummary sends the end-of-batch digest. It goes out for every batch,
// including those where all images failed.
func (n *Notifier) BatchSummary(batch *models.BatchRun, combinedPDF []byte) error {
	if len(n.recipients) == 0 {
		log.Debug("no alert recipients configured, skipping batch summary")
		return nil
	}
	msg := BuildBatchSummary(n.fromName, n.fromEmail, n.recipients, batch, combinedPDF)
	return n.deliver(msg)
}

func (n *Notifier) deliver(msg *Message) error {
	if n.mailer != nil {
		err := n.mailer.Send(msg)
		if err == nil {
			return nil
		}
		log.Warnf("email delivery via %s failed: %v", n.mailer.TransportName(), err)
	} else {
		log.Warn("no mail transport configured, parking message in outbox")
	}

	if n.outbox == nil {
		return fmt.Errorf("message %q could not be delivered and no outbox is configured", msg.Subject)
	}
	path, err := n.outbox.Deposit(msg)
	if err != nil {
		return fmt.Errorf("failed to park undeliverable email: %w", err)
	}
	metrics.EmailParkedTotal.Inc()
	log.Infof("parked undeliverable email at %s", path)
	return nil
}
