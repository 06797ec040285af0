package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/Pranavsingh431/thermo-final/metrics"
	"github.com/Pranavsingh431/thermo-final/models"
)

// BatchItem is one uploaded image queued for analysis.
type BatchItem struct {
	Path             string
	OriginalFilename string
}

// RunBatch analyzes every item on a bounded worker pool. One bad image never
// stops the others; its slot is filled with a failed placeholder so results
// stay in submission order.
func (s *Service) RunBatch(ctx context.Context, items []BatchItem) (*models.BatchRun, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("batch contains no images")
	}

	batchID := uuid.New().String()[:8]
	started := time.Now()

	workers := s.cfg.BatchWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	log.Infof("batch %s started: %d images on %d workers", batchID, len(items), workers)

	type job struct {
		index int
		item  BatchItem
	}
	jobs := make(chan job, workers)
	results := make([]models.ThermalReport, len(items))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				func() {
					metrics.BatchWorkerInFlight.Inc()
					defer metrics.BatchWorkerInFlight.Dec()
					defer func() {
						if r := recover(); r != nil {
							log.Errorf("batch %s worker panicked on %s: %v", batchID, j.item.OriginalFilename, r)
							results[j.index] = *s.failedPlaceholder(j.item, batchID, fmt.Sprintf("analysis panicked: %v", r))
						}
					}()

					report, err := s.ProcessImage(ctx, j.item.Path, j.item.OriginalFilename, batchID, "")
					if err != nil {
						log.Errorf("batch %s failed on %s: %v", batchID, j.item.OriginalFilename, err)
						results[j.index] = *s.failedPlaceholder(j.item, batchID, err.Error())
						return
					}
					results[j.index] = *report
				}()
			}
		}()
	}

	for i, item := range items {
		jobs <- job{index: i, item: item}
	}
	close(jobs)
	wg.Wait()

	batch := &models.BatchRun{
		BatchID:   batchID,
		Reports:   results,
		Total:     len(results),
		StartedAt: started,
	}
	for i := range results {
		switch results[i].FaultLevel {
		case models.FaultCritical:
			batch.Critical++
		case models.FaultWarning:
			batch.Warning++
		case models.FaultNormal:
			batch.Normal++
		}
		if results[i].AnalysisStatus == models.StatusFailed {
			batch.Failed++
		}
	}
	batch.DurationMS = time.Since(started).Milliseconds()
	metrics.BatchDurationSeconds.Observe(time.Since(started).Seconds())

	var combined []byte
	if batch.Failed < batch.Total {
		combined = s.attachCombinedPDF(batch)
	}

	s.sendBatchSummaryAsync(batch, combined)

	log.Infof("batch %s finished: %d critical, %d warning, %d normal, %d failed in %dms",
		batchID, batch.Critical, batch.Warning, batch.Normal, batch.Failed, batch.DurationMS)
	return batch, nil
}

// sendBatchSummaryAsync mails the batch outcome without holding up the
// response. Every batch gets a summary, even an all-failed one.
func (s *Service) sendBatchSummaryAsync(batch *models.BatchRun, combined []byte) {
	snapshot := *batch
	s.asyncWG.Add(1)
	go func() {
		defer s.asyncWG.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("batch summary panicked for %s: %v", snapshot.BatchID, r)
			}
		}()
		if err := s.notifier.BatchSummary(&snapshot, combined); err != nil {
			log.Errorf("failed to deliver summary for batch %s: %v", snapshot.BatchID, err)
		}
	}()
}

func (s *Service) attachCombinedPDF(batch *models.BatchRun) []byte {
	out, err := s.renderer.RenderCombined(batch.BatchID, batch.Reports)
	if err != nil {
		log.Errorf("failed to render combined pdf for batch %s: %v", batch.BatchID, err)
		return nil
	}
	path := filepath.Join(s.cfg.ReportDir, fmt.Sprintf("batch_%s.pdf", batch.BatchID))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		log.Errorf("failed to write combined pdf for batch %s: %v", batch.BatchID, err)
		return out
	}
	batch.CombinedPDFPath = path
	return out
}

// failedPlaceholder records a failed analysis so the stored row count always
// matches the submission count.
func (s *Service) failedPlaceholder(item BatchItem, batchID, reason string) *models.ThermalReport {
	report := &models.ThermalReport{
		Timestamp:        time.Now().UTC(),
		BatchID:          batchID,
		ImagePath:        item.Path,
		OriginalFilename: item.OriginalFilename,
		AnalysisStatus:   models.StatusFailed,
		FaultLevel:       models.FaultUnclassified,
		Priority:         models.PriorityMedium,
		ThresholdUsed:    s.thPolicy.Default,
		ThresholdSource:  models.ThresholdDefault,
		ErrorNotes:       reason,
	}
	if err := s.db.SaveReport(report); err != nil {
		log.Errorf("failed to persist placeholder for %s: %v", item.OriginalFilename, err)
	}
	return report
}
