package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wso2/idcard-reissue-api/internal/models"
)

// DefaultSeed returns the two demo requests written on first start
func DefaultSeed() []models.RequestRecord {
	return []models.RequestRecord{
		{
			ID:     1,
			Type:   models.ReasonLost.Label(),
			Date:   mustDate("2023-10-15"),
			Status: models.StatusCompleted,
		},
		{
			ID:     2,
			Type:   models.ReasonDamaged.Label(),
			Date:   mustDate("2023-12-01"),
			Status: models.StatusPending,
		},
	}
}

func mustDate(raw string) models.RequestDate {
	d, err := models.ParseRequestDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// Seed writes records only if the list key has never been written. It
// reports whether anything was written.
func (s *RequestStore) Seed(ctx context.Context, records []models.RequestRecord) (bool, error) {
	_, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing requests: %w", err)
	}
	if ok {
		return false, nil
	}
	if err := s.SaveAll(ctx, records); err != nil {
		return false, err
	}
	s.logger.WithField("count", len(records)).Info("Seeded request list")
	return true, nil
}

type seedFile struct {
	Requests []seedRecord `yaml:"requests"`
}

type seedRecord struct {
	ID           int64           `yaml:"id"`
	Type         string          `yaml:"type"`
	Date         string          `yaml:"date"`
	Status       string          `yaml:"status"`
	EmployeeID   string          `yaml:"employeeId"`
	EmployeeName string          `yaml:"employeeName"`
	Address      *models.Address `yaml:"address"`
	DocumentName string          `yaml:"documentName"`
}

// LoadSeedFile reads seed records from a YAML file
func LoadSeedFile(path string) ([]models.RequestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data. IDs must be unique and positive.
func ParseSeed(data []byte) ([]models.RequestRecord, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[int64]bool, len(file.Requests))
	records := make([]models.RequestRecord, 0, len(file.Requests))
	for i, r := range file.Requests {
		if r.ID <= 0 {
			return nil, fmt.Errorf("seed request %d: id must be positive", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("seed request %d: duplicate id %d", i, r.ID)
		}
		seen[r.ID] = true

		if r.Status == "" {
			return nil, fmt.Errorf("seed request %d: status is required", i)
		}
		date, err := models.ParseRequestDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("seed request %d: %w", i, err)
		}

		records = append(records, models.RequestRecord{
			ID:           r.ID,
			Type:         r.Type,
			Date:         date,
			Status:       models.Status(r.Status),
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			Address:      r.Address,
			DocumentName: r.DocumentName,
		})
	}
	return records, nil
}
