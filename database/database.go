package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"github.com/Pranavsingh431/thermo-final/config"
	"github.com/Pranavsingh431/thermo-final/models"
)

// Database wraps the MySQL connection used by the inspection pipeline.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the MySQL connection and blocks until the server is reachable.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	waitInterval := time.Second
	for {
		err = db.Ping()
		if err == nil {
			break
		}
		log.Warnf("couldn't connect to the db: %v, waiting %v before retry", err, waitInterval)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// New wraps an existing connection.
func New(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying database connection.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateThermalReportsTable creates the thermal_reports table if it doesn't exist.
func (d *Database) CreateThermalReportsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS thermal_reports (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		batch_id VARCHAR(64) NOT NULL DEFAULT '',
		image_path VARCHAR(512) NOT NULL,
		original_filename VARCHAR(255) NOT NULL DEFAULT '',
		analysis_status VARCHAR(16) NOT NULL,
		image_temp FLOAT NULL,
		ambient_temp FLOAT NULL,
		ambient_source VARCHAR(16) NOT NULL DEFAULT '',
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		ocr_confidence FLOAT NOT NULL DEFAULT 0,
		ocr_method VARCHAR(32) NOT NULL DEFAULT '',
		tower_name VARCHAR(128) NOT NULL DEFAULT '',
		camp_name VARCHAR(128) NOT NULL DEFAULT '',
		distance_km DOUBLE NULL,
		threshold_used FLOAT NOT NULL DEFAULT 0,
		threshold_source VARCHAR(16) NOT NULL DEFAULT 'default',
		fault_level VARCHAR(16) NOT NULL,
		delta_t FLOAT NULL,
		priority VARCHAR(16) NOT NULL DEFAULT 'MEDIUM',
		ai_summary TEXT,
		summary_source VARCHAR(16) NOT NULL DEFAULT '',
		pdf_path VARCHAR(512) NOT NULL DEFAULT '',
		error_notes TEXT,
		processing_ms BIGINT NOT NULL DEFAULT 0,
		INDEX idx_thermal_reports_ts (ts),
		INDEX idx_thermal_reports_fault (fault_level)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create thermal_reports table: %w", err)
	}

	log.Info("thermal_reports table created or already exists")
	return nil
}

// columnExists checks if a column exists in a table.
func (d *Database) columnExists(tableName, columnName string) (bool, error) {
	query := `
	SELECT COUNT(*)
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE()
	AND TABLE_NAME = ?
	AND COLUMN_NAME = ?`

	var count int
	err := d.db.QueryRow(query, tableName, columnName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if column exists: %w", err)
	}
	return count > 0, nil
}

// indexExists checks if an index exists on a table.
func (d *Database) indexExists(tableName, indexName string) (bool, error) {
	query := `
	SELECT COUNT(*)
	FROM INFORMATION_SCHEMA.STATISTICS
	WHERE TABLE_SCHEMA = DATABASE()
	AND TABLE_NAME = ?
	AND INDEX_NAME = ?`

	var count int
	err := d.db.QueryRow(query, tableName, indexName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if index exists: %w", err)
	}
	return count > 0, nil
}

// MigrateThermalReportsTable adds columns introduced after the first release.
func (d *Database) MigrateThermalReportsTable() error {
	summarySourceExists, err := d.columnExists("thermal_reports", "summary_source")
	if err != nil {
		return err
	}
	if !summarySourceExists {
		_, err = d.db.Exec(`ALTER TABLE thermal_reports ADD COLUMN summary_source VARCHAR(16) NOT NULL DEFAULT ''`)
		if err != nil {
			return fmt.Errorf("failed to add summary_source column: %w", err)
		}
		log.Info("added summary_source column to thermal_reports table")
	}

	errorNotesExists, err := d.columnExists("thermal_reports", "error_notes")
	if err != nil {
		return err
	}
	if !errorNotesExists {
		_, err = d.db.Exec(`ALTER TABLE thermal_reports ADD COLUMN error_notes TEXT`)
		if err != nil {
			return fmt.Errorf("failed to add error_notes column: %w", err)
		}
		log.Info("added error_notes column to thermal_reports table")
	}

	processingMSExists, err := d.columnExists("thermal_reports", "processing_ms")
	if err != nil {
		return err
	}
	if !processingMSExists {
		_, err = d.db.Exec(`ALTER TABLE thermal_reports ADD COLUMN processing_ms BIGINT NOT NULL DEFAULT 0`)
		if err != nil {
			return fmt.Errorf("failed to add processing_ms column: %w", err)
		}
		log.Info("added processing_ms column to thermal_reports table")
	}

	batchIndexExists, err := d.indexExists("thermal_reports", "idx_thermal_reports_batch")
	if err != nil {
		return err
	}
	if !batchIndexExists {
		_, err = d.db.Exec(`CREATE INDEX idx_thermal_reports_batch ON thermal_reports (batch_id)`)
		if err != nil {
			return fmt.Errorf("failed to create batch index: %w", err)
		}
		log.Info("created idx_thermal_reports_batch index")
	}

	return nil
}

const reportColumns = `id, ts, batch_id, image_path, original_filename, analysis_status,
	image_temp, ambient_temp, ambient_source, latitude, longitude,
	ocr_confidence, ocr_method, tower_name, camp_name, distance_km,
	threshold_used, threshold_source, fault_level, delta_t, priority,
	ai_summary, summary_source, pdf_path, error_notes, processing_ms`

// SaveReport persists a fully assembled report in a single INSERT and fills in
// the generated ID. Partial rows are never written; callers assemble the whole
// record first.
func (d *Database) SaveReport(report *models.ThermalReport) error {
	query := `
	INSERT INTO thermal_reports (
		ts, batch_id, image_path, original_filename, analysis_status,
		image_temp, ambient_temp, ambient_source, latitude, longitude,
		ocr_confidence, ocr_method, tower_name, camp_name, distance_km,
		threshold_used, threshold_source, fault_level, delta_t, priority,
		ai_summary, summary_source, pdf_path, error_notes, processing_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}

	result, err := d.db.Exec(query,
		report.Timestamp, report.BatchID, report.ImagePath, report.OriginalFilename, report.AnalysisStatus,
		report.ImageTemp, report.AmbientTemp, report.AmbientSource, report.Latitude, report.Longitude,
		report.OCRConfidence, report.OCRMethod, report.TowerName, report.CampName, report.DistanceKM,
		report.ThresholdUsed, report.ThresholdSource, report.FaultLevel, report.DeltaT, report.Priority,
		report.AISummary, report.SummarySource, report.PDFPath, report.ErrorNotes, report.ProcessingMS)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get report id: %w", err)
	}
	report.ID = id

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (*models.ThermalReport, error) {
	var r models.ThermalReport
	var imageTemp, ambientTemp, latitude, longitude, distanceKM, deltaT sql.NullFloat64
	var aiSummary, errorNotes sql.NullString

	err := s.Scan(
		&r.ID, &r.Timestamp, &r.BatchID, &r.ImagePath, &r.OriginalFilename, &r.AnalysisStatus,
		&imageTemp, &ambientTemp, &r.AmbientSource, &latitude, &longitude,
		&r.OCRConfidence, &r.OCRMethod, &r.TowerName, &r.CampName, &distanceKM,
		&r.ThresholdUsed, &r.ThresholdSource, &r.FaultLevel, &deltaT, &r.Priority,
		&aiSummary, &r.SummarySource, &r.PDFPath, &errorNotes, &r.ProcessingMS)
	if err != nil {
		return nil, err
	}

	r.ImageTemp = nullableFloat(imageTemp)
	r.AmbientTemp = nullableFloat(ambientTemp)
	r.Latitude = nullableFloat(latitude)
	r.Longitude = nullableFloat(longitude)
	r.DistanceKM = nullableFloat(distanceKM)
	r.DeltaT = nullableFloat(deltaT)
	r.AISummary = aiSummary.String
	r.ErrorNotes = errorNotes.String

	return &r, nil
}

func nullableFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// GetReports returns reports newest first with limit/offset paging.
func (d *Database) GetReports(limit, offset int) ([]models.ThermalReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM thermal_reports ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?`, reportColumns)

	rows, err := d.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.ThermalReport{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// GetReportByID returns a single report or sql.ErrNoRows when absent.
func (d *Database) GetReportByID(id int64) (*models.ThermalReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM thermal_reports WHERE id = ?`, reportColumns)

	report, err := scanReport(d.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get report %d: %w", id, err)
	}
	return report, nil
}

// GetReportsByBatch returns all reports for one batch in insertion order.
func (d *Database) GetReportsByBatch(batchID string) ([]models.ThermalReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM thermal_reports WHERE batch_id = ? ORDER BY id ASC`, reportColumns)

	rows, err := d.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch reports: %w", err)
	}
	defer rows.Close()

	reports := []models.ThermalReport{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batch reports: %w", err)
	}

	return reports, nil
}

// CountReports returns the total number of stored reports.
func (d *Database) CountReports() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM thermal_reports`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// UpdateReportSummary replaces the narrative fields after a regeneration.
// Other report fields are never mutated after the initial insert.
func (d *Database) UpdateReportSummary(id int64, summary, source string) error {
	result, err := d.db.Exec(`UPDATE thermal_reports SET ai_summary = ?, summary_source = ? WHERE id = ?`,
		summary, source, id)
	if err != nil {
		return fmt.Errorf("failed to update report summary: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check summary update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateReportPDF replaces the stored PDF path after a (re)render.
func (d *Database) UpdateReportPDF(id int64, pdfPath string) error {
	result, err := d.db.Exec(`UPDATE thermal_reports SET pdf_path = ? WHERE id = ?`, pdfPath, id)
	if err != nil {
		return fmt.Errorf("failed to update report pdf path: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check pdf update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteReport removes a single report. Returns sql.ErrNoRows when absent.
func (d *Database) DeleteReport(id int64) error {
	result, err := d.db.Exec(`DELETE FROM thermal_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAllReports removes every stored report and returns the removed count.
func (d *Database) DeleteAllReports() (int64, error) {
	result, err := d.db.Exec(`DELETE FROM thermal_reports`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected, nil
}
