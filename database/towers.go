package database

import (
	"fmt"

	"github.com/apex/log"

	"github.com/Pranavsingh431/thermo-final/models"
)

// CreateTowersTable creates the towers registry table if it doesn't exist.
func (d *Database) CreateTowersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS towers (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		camp VARCHAR(128) NOT NULL DEFAULT '',
		voltage_kv DOUBLE NOT NULL DEFAULT 0,
		capacity_amps DOUBLE NOT NULL DEFAULT 0,
		age_years DOUBLE NOT NULL DEFAULT 0,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		UNIQUE KEY uniq_towers_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create towers table: %w", err)
	}

	log.Info("towers table created or already exists")
	return nil
}

// CountTowers returns the number of registered towers.
func (d *Database) CountTowers() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM towers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count towers: %w", err)
	}
	return count, nil
}

// SeedTowers inserts the given towers in one transaction. Existing names are
// left untouched so re-seeding an initialized registry is a no-op.
func (d *Database) SeedTowers(towers []models.Tower) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}

	for _, tower := range towers {
		_, err := tx.Exec(`
			INSERT INTO towers (name, camp, voltage_kv, capacity_amps, age_years, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = name`,
			tower.Name, tower.Camp, tower.VoltageKV, tower.CapacityAmps, tower.AgeYears,
			tower.Latitude, tower.Longitude)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to seed tower %s: %w", tower.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	log.Infof("seeded %d towers", len(towers))
	return nil
}

// GetTowers returns the full registry in registration order.
func (d *Database) GetTowers() ([]models.Tower, error) {
	rows, err := d.db.Query(`
		SELECT id, name, camp, voltage_kv, capacity_amps, age_years, latitude, longitude
		FROM towers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query towers: %w", err)
	}
	defer rows.Close()

	towers := []models.Tower{}
	for rows.Next() {
		var t models.Tower
		err := rows.Scan(&t.ID, &t.Name, &t.Camp, &t.VoltageKV, &t.CapacityAmps, &t.AgeYears,
			&t.Latitude, &t.Longitude)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tower: %w", err)
		}
		towers = append(towers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate towers: %w", err)
	}

	return towers, nil
}

func coord(v float64) *float64 {
	return &v
}

// DefaultTowers is the bootstrap registry for the Mumbai transmission corridor,
// loaded when the towers table is empty.
func DefaultTowers() []models.Tower {
	return []models.Tower{
		{Name: "Trombay T-01", Camp: "Trombay", VoltageKV: 220, CapacityAmps: 1200, AgeYears: 22, Latitude: coord(19.0330), Longitude: coord(72.9010)},
		{Name: "Salsette T-04", Camp: "Salsette", VoltageKV: 220, CapacityAmps: 1100, AgeYears: 17, Latitude: coord(19.0761), Longitude: coord(72.8775)},
		{Name: "Kalwa T-11", Camp: "Kalwa", VoltageKV: 400, CapacityAmps: 1500, AgeYears: 12, Latitude: coord(19.1950), Longitude: coord(73.0120)},
		{Name: "Borivali T-07", Camp: "Borivali", VoltageKV: 220, CapacityAmps: 950, AgeYears: 28, Latitude: coord(19.2290), Longitude: coord(72.8570)},
		{Name: "Versova T-03", Camp: "Versova", VoltageKV: 110, CapacityAmps: 650, AgeYears: 31, Latitude: coord(19.1310), Longitude: coord(72.8150)},
		{Name: "Mahalaxmi T-05", Camp: "Mahalaxmi", VoltageKV: 110, CapacityAmps: 700, AgeYears: 34, Latitude: coord(18.9820), Longitude: coord(72.8230)},
		{Name: "Vikhroli T-08", Camp: "Vikhroli", VoltageKV: 220, CapacityAmps: 1050, AgeYears: 15, Latitude: coord(19.1090), Longitude: coord(72.9270)},
		{Name: "Airoli T-02", Camp: "Airoli", VoltageKV: 400, CapacityAmps: 1400, AgeYears: 9, Latitude: coord(19.1590), Longitude: coord(72.9990)},
		// Awaiting GPS survey after relocation.
		{Name: "Bhandup T-09", Camp: "Bhandup", VoltageKV: 110, CapacityAmps: 600, AgeYears: 26},
	}
}
