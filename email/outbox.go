package email

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Outbox parks messages that could not be delivered. Each message is stored
// twice: an .eml file an operator can open in any mail client, and a .json
// sidecar the sweeper can load for redelivery.
type Outbox struct {
	dir  string
	mu   sync.Mutex
	cron *cron.Cron
}

func NewOutbox(dir string) *Outbox {
	return &Outbox{dir: dir}
}

// Deposit writes the message to the outbox directory and returns the path of
// the .eml artifact.
func (o *Outbox) Deposit(msg *Message) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create outbox directory: %w", err)
	}

	stem := fmt.Sprintf("%d_%s", time.Now().UnixNano(), uuid.New().String()[:8])
	emlPath := filepath.Join(o.dir, stem+".eml")

	f, err := os.Create(emlPath)
	if err != nil {
		return "", fmt.Errorf("failed to create outbox file: %w", err)
	}
	if _, err := toGomail(msg).WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write eml artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return emlPath, fmt.Errorf("failed to encode outbox entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(o.dir, stem+".json"), raw, 0o644); err != nil {
		return emlPath, fmt.Errorf("failed to write outbox entry: %w", err)
	}
	return emlPath, nil
}

// Sweep retries every parked message once, removing entries that deliver.
func (o *Outbox) Sweep(mailer Mailer) {
	if mailer == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	entries, err := os.ReadDir(o.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("failed to read outbox directory: %v", err)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(o.dir, entry.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("failed to read outbox entry %s: %v", entry.Name(), err)
			continue
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warnf("corrupt outbox entry %s: %v", entry.Name(), err)
			continue
		}

		if err := mailer.Send(&msg); err != nil {
			log.Debugf("redelivery of %s failed, keeping it parked: %v", entry.Name(), err)
			continue
		}

		os.Remove(path)
		os.Remove(strings.TrimSuffix(path, ".json") + ".eml")
		log.Infof("redelivered parked email %s", entry.Name())
	}
}

// StartSweeper schedules Sweep on the given cron spec, e.g. "@every 10m".
func (o *Outbox) StartSweeper(schedule string, mailer Mailer) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { o.Sweep(mailer) }); err != nil {
		return fmt.Errorf("invalid outbox sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	o.cron = c
	return nil
}

// StopSweeper halts the redelivery schedule. Safe to call when no sweeper was
// started.
func (o *Outbox) StopSweeper() {
	if o.cron != nil {
		o.cron.Stop()
	}
}
