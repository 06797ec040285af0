package email

import (
	"bytes"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Pranavsingh431/thermo-final/models"
)

type fakeMailer struct {
	sent []*Message
	err  error
}

func (f *fakeMailer) Send(msg *Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) TransportName() string {
	return "fake"
}

func fptr(v float64) *float64 {
	return &v
}

func criticalReport() *models.ThermalReport {
	return &models.ThermalReport{
		ID:               7,
		Timestamp:        time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		OriginalFilename: "FLIR0042.jpg",
		AnalysisStatus:   models.StatusSuccess,
		ImageTemp:        fptr(44.7),
		AmbientTemp:      fptr(26.8),
		AmbientSource:    models.AmbientWeather,
		TowerName:        "Trombay T-01",
		CampName:         "Trombay",
		DistanceKM:       fptr(0.42),
		ThresholdUsed:    4.8,
		ThresholdSource:  models.ThresholdDynamic,
		FaultLevel:       models.FaultCritical,
		DeltaT:           fptr(17.9),
		Priority:         models.PriorityCritical,
		AISummary:        "Immediate action required.",
	}
}

func TestBuildCriticalAlert(t *testing.T) {
	msg := BuildCriticalAlert("Thermal Eye", "alerts@example.com", []string{"ops@example.com"},
		criticalReport(), []byte("png-bytes"), []byte("pdf-bytes"))

	if !strings.Contains(msg.Subject, "CRITICAL") || !strings.Contains(msg.Subject, "Trombay T-01") {
		t.Errorf("subject should name the fault and the tower, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Delta T: 17.9°C") {
		t.Errorf("text body should carry the delta, got:\n%s", msg.Text)
	}
	if !strings.Contains(msg.Text, "4.8°C limit") {
		t.Errorf("text body should carry the threshold, got:\n%s", msg.Text)
	}
	if !strings.Contains(msg.HTML, "cid:"+annotatedImageName) {
		t.Error("html body should reference the inline image")
	}

	if len(msg.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(msg.Attachments))
	}
	if !msg.Attachments[0].Inline || msg.Attachments[0].MIMEType != "image/png" {
		t.Errorf("first attachment should be the inline image, got %+v", msg.Attachments[0])
	}
	if msg.Attachments[1].Filename != "inspection_report_7.pdf" {
		t.Errorf("unexpected pdf attachment name %q", msg.Attachments[1].Filename)
	}
}

func TestBuildCriticalAlertWithoutArtifacts(t *testing.T) {
	msg := BuildCriticalAlert("Thermal Eye", "alerts@example.com", []string{"ops@example.com"},
		criticalReport(), nil, nil)

	if len(msg.Attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(msg.Attachments))
	}
	if strings.Contains(msg.HTML, "cid:") {
		t.Error("html body should not reference an image that is not attached")
	}
}

func TestBuildBatchSummary(t *testing.T) {
	failed := &models.ThermalReport{
		ID:               3,
		OriginalFilename: "DJI0003.jpg",
		AnalysisStatus:   models.StatusFailed,
		FaultLevel:       models.FaultUnclassified,
		ErrorNotes:       "no temperature reading found",
	}
	warning := criticalReport()
	warning.ID = 2
	warning.OriginalFilename = "FLIR0002.jpg"
	warning.FaultLevel = models.FaultWarning
	warning.DeltaT = fptr(7.2)

	batch := &models.BatchRun{
		BatchID:    "a1b2c3d4",
		Reports:    []models.ThermalReport{*criticalReport(), *warning, *failed},
		Total:      3,
		Critical:   1,
		Warning:    1,
		Failed:     1,
		DurationMS: 12400,
	}

	msg := BuildBatchSummary("Thermal Eye", "alerts@example.com", []string{"ops@example.com"},
		batch, []byte("pdf-bytes"))

	if !strings.Contains(msg.Subject, "1 critical, 1 warning of 3 images") {
		t.Errorf("subject should summarize the counts, got %q", msg.Subject)
	}
	for _, want := range []string{"FLIR0042.jpg", "FLIR0002.jpg", "DJI0003.jpg", "no temperature reading found"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "batch_report_a1b2c3d4.pdf" {
		t.Errorf("expected the combined pdf attachment, got %+v", msg.Attachments)
	}

	noPDF := BuildBatchSummary("Thermal Eye", "alerts@example.com", []string{"ops@example.com"}, batch, nil)
	if len(noPDF.Attachments) != 0 {
		t.Errorf("expected no attachments without a combined pdf, got %d", len(noPDF.Attachments))
	}
	if !strings.Contains(noPDF.Text, "No combined report") {
		t.Error("text body should say the combined report is missing")
	}
}

func TestNotifierDelivers(t *testing.T) {
	mailer := &fakeMailer{}
	notifier := NewNotifier(mailer, NewOutbox(t.TempDir()), "Thermal Eye", "alerts@example.com", []string{"ops@example.com"})

	if err := notifier.CriticalAlert(criticalReport(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(mailer.sent))
	}
	if got := mailer.sent[0].To; len(got) != 1 || got[0] != "ops@example.com" {
		t.Errorf("unexpected recipients %v", got)
	}
}

func TestNotifierSkipsWithoutRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	dir := t.TempDir()
	notifier := NewNotifier(mailer, NewOutbox(dir), "Thermal Eye", "alerts@example.com", nil)

	if err := notifier.CriticalAlert(criticalReport(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("nothing should be sent without recipients")
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Error("nothing should be parked without recipients")
	}
}

func TestNotifierParksUndeliverable(t *testing.T) {
	dir := t.TempDir()
	mailer := &fakeMailer{err: os.ErrDeadlineExceeded}
	notifier := NewNotifier(mailer, NewOutbox(dir), "Thermal Eye", "alerts@example.com", []string{"ops@example.com"})

	if err := notifier.CriticalAlert(criticalReport(), nil, []byte("pdf-bytes")); err != nil {
		t.Fatalf("a parked message should not surface an error, got %v", err)
	}

	var emls, sidecars []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case ".eml":
			emls = append(emls, entry.Name())
		case ".json":
			sidecars = append(sidecars, entry.Name())
		}
	}
	if len(emls) != 1 || len(sidecars) != 1 {
		t.Fatalf("expected one eml and one sidecar, got %v / %v", emls, sidecars)
	}

	raw, err := os.ReadFile(filepath.Join(dir, emls[0]))
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("eml artifact should be a valid rfc 5322 message: %v", err)
	}
	if subject := parsed.Header.Get("Subject"); !strings.Contains(subject, "CRITICAL") {
		t.Errorf("eml subject lost, got %q", subject)
	}
}

func TestOutboxSweepRedelivers(t *testing.T) {
	dir := t.TempDir()
	outbox := NewOutbox(dir)
	original := BuildCriticalAlert("Thermal Eye", "alerts@example.com", []string{"ops@example.com"},
		criticalReport(), []byte("png-bytes"), nil)
	if _, err := outbox.Deposit(original); err != nil {
		t.Fatal(err)
	}

	mailer := &fakeMailer{}
	outbox.Sweep(mailer)

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 redelivered message, got %d", len(mailer.sent))
	}
	redelivered := mailer.sent[0]
	if redelivered.Subject != original.Subject {
		t.Errorf("subject changed across the outbox round trip: %q vs %q", redelivered.Subject, original.Subject)
	}
	if len(redelivered.Attachments) != 1 || !bytes.Equal(redelivered.Attachments[0].Content, []byte("png-bytes")) {
		t.Error("attachment content lost across the outbox round trip")
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("delivered entries should be removed, %d files remain", len(entries))
	}
}

func TestOutboxSweepKeepsFailures(t *testing.T) {
	dir := t.TempDir()
	outbox := NewOutbox(dir)
	msg := BuildCriticalAlert("Thermal Eye", "alerts@example.com", []string{"ops@example.com"},
		criticalReport(), nil, nil)
	if _, err := outbox.Deposit(msg); err != nil {
		t.Fatal(err)
	}

	outbox.Sweep(&fakeMailer{err: os.ErrDeadlineExceeded})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("undeliverable entries must stay parked, got %d files", len(entries))
	}
}
