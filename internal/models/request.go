package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date form written by the wizard
	DateLayout = "2006-01-02"
	// DisplayDateLayout is the admin table's date rendering
	DisplayDateLayout = "Jan 2, 2006, 03:04 PM"
)

// RequestDate is a creation date that is either a bare calendar date or a
// full timestamp. It keeps whichever form it was created or decoded with.
type RequestDate struct {
	time.Time
	DateOnly bool
}

// NewCalendarDate truncates t to its calendar date
func NewCalendarDate(t time.Time) RequestDate {
	y, m, d := t.Date()
	return RequestDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), DateOnly: true}
}

// ParseRequestDate accepts YYYY-MM-DD or RFC3339 (with optional fraction)
func ParseRequestDate(raw string) (RequestDate, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return RequestDate{Time: t, DateOnly: true}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return RequestDate{}, fmt.Errorf("invalid request date %q: %w", raw, err)
	}
	return RequestDate{Time: t}, nil
}

// String renders the stored form
func (d RequestDate) String() string {
	if d.DateOnly {
		return d.Time.Format(DateLayout)
	}
	return d.Time.Format(time.RFC3339)
}

// Display renders the admin table form
func (d RequestDate) Display() string {
	return d.Time.Format(DisplayDateLayout)
}

// MarshalJSON implements json.Marshaler
func (d RequestDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *RequestDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("request date must be a string: %w", err)
	}
	parsed, err := ParseRequestDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RequestRecord is one employee's ID-card reissuance case
type RequestRecord struct {
	ID           int64       `json:"id"`
	Type         string      `json:"type"`
	Date         RequestDate `json:"date"`
	Status       Status      `json:"status"`
	EmployeeID   string      `json:"employeeId,omitempty"`
	EmployeeName string      `json:"employeeName,omitempty"`
	Address      *Address    `json:"address,omitempty"`
	DocumentName string      `json:"documentName,omitempty"`
}

// requestRecordJSON is the persisted shape; statusClass is written for
// readers of the raw list and never trusted on the way back in.
type requestRecordJSON struct {
	ID           int64       `json:"id"`
	Type         string      `json:"type"`
	Date         RequestDate `json:"date"`
	Status       Status      `json:"status"`
	StatusClass  string      `json:"statusClass"`
	EmployeeID   string      `json:"employeeId,omitempty"`
	EmployeeName string      `json:"employeeName,omitempty"`
	Address      *Address    `json:"address,omitempty"`
	DocumentName string      `json:"documentName,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (r RequestRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(requestRecordJSON{
		ID:           r.ID,
		Type:         r.Type,
		Date:         r.Date,
		Status:       r.Status,
		StatusClass:  r.Status.DisplayClass(),
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Address:      r.Address,
		DocumentName: r.DocumentName,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RequestRecord) UnmarshalJSON(data []byte) error {
	var raw requestRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RequestRecord{
		ID:           raw.ID,
		Type:         raw.Type,
		Date:         raw.Date,
		Status:       raw.Status,
		EmployeeID:   raw.EmployeeID,
		EmployeeName: raw.EmployeeName,
		Address:      raw.Address,
		DocumentName: raw.DocumentName,
	}
	return nil
}

// StatusClass returns the derived styling tag
func (r *RequestRecord) StatusClass() string {
	return r.Status.DisplayClass()
}

// Address is a delivery address for the reissued card
type Address struct {
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Street     string `json:"street" yaml:"street" validate:"required,max=255"`
	City       string `json:"city" yaml:"city" validate:"required,max=128"`
	PostalCode string `json:"postalCode" yaml:"postalCode" validate:"required,max=16"`
}

// StatusAudit records one admin status change
type StatusAudit struct {
	AuditID        string `json:"auditId"`
	RequestID      int64  `json:"requestId"`
	PreviousStatus Status `json:"previousStatus"`
	CurrentStatus  Status `json:"currentStatus"`
	ActionTime     int64  `json:"actionTime"`
	ActionBy       string `json:"actionBy,omitempty"`
}
