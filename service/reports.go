package service

import (
	"context"
	"os"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"

	"github.com/Pranavsingh431/thermo-final/models"
	"github.com/Pranavsingh431/thermo-final/resolver"
)

// ListReports returns one page of reports, newest first, plus the total count.
func (s *Service) ListReports(limit, offset int) ([]models.ThermalReport, int, error) {
	reports, err := s.db.GetReports(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.db.CountReports()
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *Service) GetReport(id int64) (*models.ThermalReport, error) {
	return s.db.GetReportByID(id)
}

// DeleteReport removes the row and the artifacts it owns.
func (s *Service) DeleteReport(id int64) error {
	report, err := s.db.GetReportByID(id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteReport(id); err != nil {
		return err
	}
	removeArtifacts(report)
	return nil
}

// DeleteAllReports wipes the report table and every stored artifact.
func (s *Service) DeleteAllReports() (int64, error) {
	total, err := s.db.CountReports()
	if err != nil {
		return 0, err
	}
	var reports []models.ThermalReport
	if total > 0 {
		if reports, err = s.db.GetReports(total, 0); err != nil {
			return 0, err
		}
	}

	deleted, err := s.db.DeleteAllReports()
	if err != nil {
		return 0, err
	}
	for i := range reports {
		removeArtifacts(&reports[i])
	}
	return deleted, nil
}

// RegenerateNarrative rebuilds the narrative for a stored report and
// re-renders its PDF so both artifacts stay consistent.
func (s *Service) RegenerateNarrative(ctx context.Context, id int64) (*models.ThermalReport, error) {
	report, err := s.db.GetReportByID(id)
	if err != nil {
		return nil, err
	}
	s.attachNarrative(ctx, report)
	s.attachPDF(report)
	return report, nil
}

// Towers returns the in-memory registry snapshot.
func (s *Service) Towers() []models.Tower {
	s.towersMu.RLock()
	defer s.towersMu.RUnlock()
	return s.towers
}

// ReloadTowers refreshes the registry from the database, preserving
// registration order.
func (s *Service) ReloadTowers() error {
	towers, err := s.db.GetTowers()
	if err != nil {
		return err
	}
	s.towersMu.Lock()
	s.towers = towers
	s.towersMu.Unlock()
	return nil
}

func (s *Service) TowersGeoJSON() *geojson.FeatureCollection {
	return resolver.TowersToGeoJSON(s.Towers())
}

// Ping reports whether the database is reachable.
func (s *Service) Ping() error {
	return s.db.GetDB().Ping()
}

func removeArtifacts(report *models.ThermalReport) {
	for _, path := range []string{report.ImagePath, report.PDFPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("failed to remove %s: %v", path, err)
		}
	}
}
