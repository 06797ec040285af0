package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/Pranavsingh431/thermo-final/classifier"
	"github.com/Pranavsingh431/thermo-final/config"
	"github.com/Pranavsingh431/thermo-final/database"
	"github.com/Pranavsingh431/thermo-final/email"
	"github.com/Pranavsingh431/thermo-final/extraction"
	"github.com/Pranavsingh431/thermo-final/llm"
	"github.com/Pranavsingh431/thermo-final/metrics"
	"github.com/Pranavsingh431/thermo-final/models"
	"github.com/Pranavsingh431/thermo-final/narrative"
	"github.com/Pranavsingh431/thermo-final/openrouter"
	"github.com/Pranavsingh431/thermo-final/pdf"
	"github.com/Pranavsingh431/thermo-final/resolver"
	"github.com/Pranavsingh431/thermo-final/threshold"
	"github.com/Pranavsingh431/thermo-final/weather"
)

// Service runs the thermal inspection pipeline: extraction, asset matching,
// classification, persistence and the side effects that follow.
type Service struct {
	cfg        *config.Config
	db         *database.Database
	extractor  *extraction.Extractor
	weather    *weather.Client
	thresholds *threshold.Engine
	thPolicy   threshold.Policy
	classifier *classifier.Classifier
	clsPolicy  classifier.Policy
	narrator   *narrative.Generator
	renderer   *pdf.Renderer
	notifier   *email.Notifier
	outbox     *email.Outbox
	mailer     email.Mailer

	towersMu sync.RWMutex
	towers   []models.Tower

	asyncWG sync.WaitGroup
}

// NewService wires the pipeline from configuration. The OCR engine, LLM
// provider and mail transport are all selected here; everything downstream
// talks to interfaces.
func NewService(cfg *config.Config, db *database.Database) (*Service, error) {
	engine, err := selectEngine(cfg)
	if err != nil {
		return nil, err
	}

	thPolicy := threshold.DefaultPolicy()
	if cfg.DefaultThreshold > 0 {
		thPolicy.Default = cfg.DefaultThreshold
	}
	clsPolicy := classifier.DefaultPolicy()
	if cfg.CriticalMultiplier > 0 {
		clsPolicy.CriticalMultiplier = cfg.CriticalMultiplier
	}
	if cfg.NominalAmbient > 0 {
		clsPolicy.NominalAmbient = cfg.NominalAmbient
	}

	outbox := email.NewOutbox(cfg.OutboxDir)
	mailer := selectMailer(cfg)
	notifier := email.NewNotifier(mailer, outbox, cfg.FromName, cfg.FromEmail, cfg.AlertRecipients)

	return &Service{
		cfg:        cfg,
		db:         db,
		extractor:  extraction.NewExtractor(engine),
		weather:    weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherTimeout),
		thresholds: threshold.NewEngine(thPolicy),
		thPolicy:   thPolicy,
		classifier: classifier.New(clsPolicy),
		clsPolicy:  clsPolicy,
		narrator:   narrative.New(selectLLM(cfg)),
		renderer:   pdf.NewRenderer(),
		notifier:   notifier,
		outbox:     outbox,
		mailer:     mailer,
	}, nil
}

func selectEngine(cfg *config.Config) (extraction.Engine, error) {
	switch cfg.OCREngine {
	case "tesseract":
		return extraction.NewTesseractEngine(cfg.TesseractLangs), nil
	default:
		return nil, fmt.Errorf("unsupported ocr engine %q", cfg.OCREngine)
	}
}

func selectLLM(cfg *config.Config) llm.Client {
	switch cfg.LLMProvider {
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			log.Warn("OPENROUTER_API_KEY not set, narratives fall back to rule-based templates")
			return nil
		}
		return openrouter.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.LLMTimeout)
	case "none", "":
		return nil
	default:
		log.Warnf("unknown llm provider %q, narratives fall back to rule-based templates", cfg.LLMProvider)
		return nil
	}
}

func selectMailer(cfg *config.Config) email.Mailer {
	switch cfg.EmailProvider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			log.Warn("SENDGRID_API_KEY not set, emails go straight to the outbox")
			return nil
		}
		return email.NewSendGridMailer(cfg.SendGridAPIKey)
	case "smtp":
		if cfg.SMTPHost == "" {
			log.Warn("SMTP_HOST not set, emails go straight to the outbox")
			return nil
		}
		return email.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	case "none", "":
		return nil
	default:
		log.Warnf("unknown email provider %q, emails go straight to the outbox", cfg.EmailProvider)
		return nil
	}
}

// Start prepares storage and background jobs: schema, tower registry, artifact
// directories and the outbox sweeper.
func (s *Service) Start() error {
	metrics.Register()

	if err := s.db.CreateThermalReportsTable(); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	if err := s.db.MigrateThermalReportsTable(); err != nil {
		return fmt.Errorf("failed to migrate reports table: %w", err)
	}
	if err := s.db.CreateTowersTable(); err != nil {
		return fmt.Errorf("failed to create towers table: %w", err)
	}

	count, err := s.db.CountTowers()
	if err != nil {
		return fmt.Errorf("failed to count towers: %w", err)
	}
	if count == 0 {
		seed, err := s.registryTowers()
		if err != nil {
			return err
		}
		if err := s.db.SeedTowers(seed); err != nil {
			return fmt.Errorf("failed to seed tower registry: %w", err)
		}
		log.Infof("seeded the tower registry with %d towers", len(seed))
	}
	if err := s.ReloadTowers(); err != nil {
		return err
	}

	for _, dir := range []string{s.cfg.UploadDir, s.cfg.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if s.mailer != nil {
		if err := s.outbox.StartSweeper(s.cfg.OutboxSweep, s.mailer); err != nil {
			return err
		}
	}

	log.Infof("thermal inspection service ready, %d towers registered", len(s.Towers()))
	return nil
}

// registryTowers picks the seed registry: the configured GeoJSON file when
// one is set, the built-in Mumbai registry otherwise.
func (s *Service) registryTowers() ([]models.Tower, error) {
	if s.cfg.TowersFile == "" {
		return database.DefaultTowers(), nil
	}
	raw, err := os.ReadFile(s.cfg.TowersFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read towers file: %w", err)
	}
	towers, err := resolver.ParseTowers(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load towers from %s: %w", s.cfg.TowersFile, err)
	}
	return towers, nil
}

// Stop halts background jobs and waits for in-flight side effects.
func (s *Service) Stop() {
	s.outbox.StopSweeper()
	s.asyncWG.Wait()
}

// ProcessImage runs the whole pipeline for one image and persists the result.
// Extraction problems degrade the report instead of failing the call; an error
// comes back only when the report cannot be stored at all. An operator-supplied
// camp name labels the report when the resolver cannot.
func (s *Service) ProcessImage(ctx context.Context, imagePath, originalFilename, batchID, campName string) (*models.ThermalReport, error) {
	started := time.Now()
	var notes []string

	reading, err := s.extractor.Extract(ctx, imagePath)
	if err != nil {
		notes = append(notes, err.Error())
		log.Warnf("extraction incomplete for %s: %v", originalFilename, err)
	}

	// A missing GPS fix means no asset match, never a match against the
	// configured site.
	if reading.Latitude == nil || reading.Longitude == nil {
		notes = append(notes, "image carried no GPS fix")
	}

	// Ambient only matters once a spot temperature exists. The configured
	// site location stands in for the weather lookup when the image has no
	// fix of its own.
	if reading.ImageTemp != nil {
		wlat, wlon := reading.Latitude, reading.Longitude
		if wlat == nil || wlon == nil {
			wlat, wlon = &s.cfg.DefaultSiteLat, &s.cfg.DefaultSiteLon
		}
		wctx, cancel := context.WithTimeout(ctx, s.cfg.WeatherTimeout)
		ambient, err := s.weather.AmbientTemp(wctx, *wlat, *wlon)
		cancel()
		if err != nil {
			notes = append(notes, "weather service unavailable, classified against the nominal ambient")
			metrics.AmbientFallbackTotal.Inc()
			log.Warnf("ambient lookup failed for %s: %v", originalFilename, err)
		} else {
			reading.AmbientTemp = &ambient
			reading.AmbientSource = models.AmbientWeather
		}
	}

	match := resolver.Resolve(reading.Latitude, reading.Longitude, s.Towers())
	th := s.thresholds.Threshold(match)
	result := s.classifier.Classify(reading, match, th)

	report := s.buildReport(reading, match, th, result, imagePath, originalFilename, batchID, campName, notes)
	report.ProcessingMS = time.Since(started).Milliseconds()

	if err := s.db.SaveReport(report); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	s.attachNarrative(ctx, report)
	s.attachPDF(report)

	metrics.ImagesProcessedTotal.WithLabelValues(report.AnalysisStatus).Inc()
	metrics.FaultLevelTotal.WithLabelValues(report.FaultLevel).Inc()
	metrics.ProcessingDurationSeconds.WithLabelValues(report.AnalysisStatus).Observe(time.Since(started).Seconds())

	if report.Critical() {
		s.sendCriticalAlertAsync(report)
	}

	log.Infof("processed %s: %s (%s), tower %q", originalFilename, report.FaultLevel, report.AnalysisStatus, report.TowerName)
	return report, nil
}

func (s *Service) buildReport(reading *models.Reading, match *models.AssetMatch, th models.Threshold,
	result models.FaultResult, imagePath, originalFilename, batchID, campName string, notes []string) *models.ThermalReport {

	report := &models.ThermalReport{
		Timestamp:        reading.CaptureTime,
		BatchID:          batchID,
		ImagePath:        imagePath,
		OriginalFilename: originalFilename,
		AnalysisStatus:   result.AnalysisStatus,
		ImageTemp:        reading.ImageTemp,
		AmbientTemp:      reading.AmbientTemp,
		AmbientSource:    reading.AmbientSource,
		Latitude:         reading.Latitude,
		Longitude:        reading.Longitude,
		OCRConfidence:    reading.Confidence,
		OCRMethod:        reading.Method,
		ThresholdUsed:    th.Value,
		ThresholdSource:  th.Source,
		FaultLevel:       result.FaultLevel,
		DeltaT:           result.DeltaT,
		Priority:         result.Priority,
		ErrorNotes:       strings.Join(notes, "; "),
	}

	// The classifier substitutes the nominal ambient internally; the stored
	// report must say so as well.
	if reading.ImageTemp != nil && reading.AmbientTemp == nil {
		nominal := s.clsPolicy.NominalAmbient
		report.AmbientTemp = &nominal
		report.AmbientSource = models.AmbientNominal
	}

	if match != nil && match.Tower != nil {
		report.TowerName = match.Tower.Name
		report.CampName = match.Tower.Camp
		distance := match.DistanceKM
		report.DistanceKM = &distance
	}
	if report.CampName == "" {
		report.CampName = campName
	}
	return report
}

func (s *Service) attachNarrative(ctx context.Context, report *models.ThermalReport) {
	nctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	res := s.narrator.Detailed(nctx, report)
	if res.UsedFallback() {
		metrics.NarrativeFallbackTotal.WithLabelValues(string(narrative.ModeDetailed)).Inc()
	}
	report.AISummary = res.Text
	report.SummarySource = res.Source
	if err := s.db.UpdateReportSummary(report.ID, res.Text, res.Source); err != nil {
		log.Warnf("failed to store narrative for report %d: %v", report.ID, err)
	}
}

func (s *Service) attachPDF(report *models.ThermalReport) {
	out, err := s.renderer.RenderSingle(report)
	if err != nil {
		log.Errorf("failed to render pdf for report %d: %v", report.ID, err)
		return
	}
	path := filepath.Join(s.cfg.ReportDir, fmt.Sprintf("report_%d.pdf", report.ID))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		log.Errorf("failed to write pdf for report %d: %v", report.ID, err)
		return
	}
	report.PDFPath = path
	if err := s.db.UpdateReportPDF(report.ID, path); err != nil {
		log.Warnf("failed to store pdf path for report %d: %v", report.ID, err)
	}
}

// sendCriticalAlertAsync notifies operators without blocking the pipeline.
func (s *Service) sendCriticalAlertAsync(report *models.ThermalReport) {
	metrics.CriticalAlertsTotal.Inc()
	snapshot := *report
	s.asyncWG.Add(1)
	go func() {
		defer s.asyncWG.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("critical alert panicked for report %d: %v", snapshot.ID, r)
			}
		}()

		actx, cancel := context.WithTimeout(context.Background(), s.cfg.LLMTimeout)
		defer cancel()
		alert := s.narrator.Alert(actx, &snapshot)
		if alert.UsedFallback() {
			metrics.NarrativeFallbackTotal.WithLabelValues(string(narrative.ModeAlert)).Inc()
		}

		body := snapshot
		body.AISummary = alert.Text
		body.SummarySource = alert.Source

		var annotated []byte
		if img, err := email.Annotate(snapshot.ImagePath, &snapshot); err != nil {
			log.Warnf("failed to annotate image for report %d: %v", snapshot.ID, err)
		} else {
			annotated = img
		}

		var pdfBytes []byte
		if snapshot.PDFPath != "" {
			if raw, err := os.ReadFile(snapshot.PDFPath); err != nil {
				log.Warnf("failed to read pdf for report %d: %v", snapshot.ID, err)
			} else {
				pdfBytes = raw
			}
		}

		if err := s.notifier.CriticalAlert(&body, annotated, pdfBytes); err != nil {
			log.Errorf("failed to deliver critical alert for report %d: %v", snapshot.ID, err)
		}
	}()
}
