package admin

import (
	"sort"

	"github.com/wso2/idcard-reissue-api/internal/models"
)

// Row is one line of the admin request table
type Row struct {
	RequestID    int64         `json:"requestId"`
	Date         string        `json:"date"`
	RawDate      string        `json:"rawDate"`
	EmployeeName string        `json:"employeeName"`
	Type         string        `json:"type"`
	Status       models.Status `json:"status"`
	StatusClass  string        `json:"statusClass"`
}

// Stats are the summary counts shown above the table
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Snapshot is the table and its counts taken from one read of the store
type Snapshot struct {
	Rows  []Row `json:"rows"`
	Stats Stats `json:"stats"`
}

// SortByDateDesc orders records newest first. Equal dates keep the higher
// id first so the order is deterministic.
func SortByDateDesc(records []models.RequestRecord) []models.RequestRecord {
	sorted := make([]models.RequestRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Date.Time, sorted[j].Date.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

// BuildRows renders one row per record, newest first
func BuildRows(records []models.RequestRecord, placeholderName string) []Row {
	sorted := SortByDateDesc(records)
	rows := make([]Row, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, Row{
			RequestID:    r.ID,
			Date:         r.Date.Display(),
			RawDate:      r.Date.String(),
			EmployeeName: displayName(r, placeholderName),
			Type:         r.Type,
			Status:       r.Status,
			StatusClass:  r.Status.DisplayClass(),
		})
	}
	return rows
}

// ComputeStats counts from scratch: pending is exactly Pending, completed
// is Approved or Printed
func ComputeStats(records []models.RequestRecord) Stats {
	stats := Stats{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Status.IsPending():
			stats.Pending++
		case r.Status.IsCompleted():
			stats.Completed++
		}
	}
	return stats
}

func displayName(r models.RequestRecord, placeholder string) string {
	if r.EmployeeName != "" {
		return r.EmployeeName
	}
	return placeholder
}
