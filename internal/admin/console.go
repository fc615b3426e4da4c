// Package admin implements the HR console: the request table with its
// summary counts and the detail modal used to change a request's status.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/metrics"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

var (
	ErrNoSelection     = errors.New("no request selected")
	ErrRequestNotFound = errors.New("request not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrConsoleNotFound = errors.New("console not found")
)

// Store is the part of the request store the console uses
type Store interface {
	LoadAll(ctx context.Context) ([]models.RequestRecord, error)
	SaveAll(ctx context.Context, records []models.RequestRecord) error
	AppendAudit(ctx context.Context, audit models.StatusAudit) error
	AuditFor(ctx context.Context, requestID int64) ([]models.StatusAudit, error)
}

// Options configure rendering and status rules
type Options struct {
	PlaceholderName     string
	PhotoPlaceholderURL string
	AllowedStatuses     []string
	// IdleTimeout expires consoles not used for that long; zero keeps them
	IdleTimeout time.Duration
}

// OptionsFromConfig maps the admin config section
func OptionsFromConfig(cfg *config.AdminConfig) Options {
	return Options{
		PlaceholderName:     cfg.PlaceholderName,
		PhotoPlaceholderURL: cfg.PhotoPlaceholderURL,
		AllowedStatuses:     cfg.AllowedStatuses,
		IdleTimeout:         cfg.ConsoleIdleTimeout,
	}
}

// Service holds the stateless console operations
type Service struct {
	store  Store
	opts   Options
	logger *logrus.Logger
}

// NewService creates a console service over store
func NewService(store Store, opts Options, logger *logrus.Logger) *Service {
	return &Service{store: store, opts: opts, logger: logger}
}

// RenderTable reads the store and renders every row newest first
func (s *Service) RenderTable(ctx context.Context) ([]Row, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Rows, nil
}

// Stats reads the store and recomputes the summary counts
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records), nil
}

// Snapshot renders the table and the counts from a single read
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Rows:  BuildRows(records, s.opts.PlaceholderName),
		Stats: ComputeStats(records),
	}, nil
}

// History returns the status audit trail of one request
func (s *Service) History(ctx context.Context, requestID int64) ([]models.StatusAudit, error) {
	return s.store.AuditFor(ctx, requestID)
}

// ValidateStatus checks a new status against the length limit and the
// optional allow-list
func (s *Service) ValidateStatus(status string) error {
	if err := utils.ValidateStatus(status); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	allowed := config.AdminConfig{AllowedStatuses: s.opts.AllowedStatuses}
	if !allowed.IsStatusAllowed(status) {
		return fmt.Errorf("%w: %q is not an allowed status", ErrInvalidStatus, status)
	}
	return nil
}

// StatusOption is one status button of the modal
type StatusOption struct {
	Status      models.Status `json:"status"`
	StatusClass string        `json:"statusClass"`
}

// StatusOptions lists the statuses an admin can pick: the configured
// allow-list, or the known labels when none is configured
func (s *Service) StatusOptions() []StatusOption {
	statuses := models.KnownStatuses()
	if len(s.opts.AllowedStatuses) > 0 {
		statuses = make([]models.Status, 0, len(s.opts.AllowedStatuses))
		for _, raw := range s.opts.AllowedStatuses {
			statuses = append(statuses, models.Status(raw))
		}
	}
	options := make([]StatusOption, 0, len(statuses))
	for _, st := range statuses {
		options = append(options, StatusOption{Status: st, StatusClass: st.DisplayClass()})
	}
	return options
}

// Detail is the content of the request modal
type Detail struct {
	RequestID    int64                `json:"requestId"`
	PhotoURL     string               `json:"photoUrl"`
	EmployeeID   string               `json:"employeeId,omitempty"`
	EmployeeName string               `json:"employeeName"`
	Reason       string               `json:"reason"`
	Date         string               `json:"date"`
	Status       models.Status        `json:"status"`
	StatusClass  string               `json:"statusClass"`
	Address      *models.Address      `json:"address,omitempty"`
	DocumentName string               `json:"documentName,omitempty"`
	History      []models.StatusAudit `json:"history"`
}

// Console is one admin's view with its modal selection. Methods are safe
// for concurrent use.
type Console struct {
	mu       sync.Mutex
	id       string
	service  *Service
	selected *int64

	// guarded separately so lookups never wait on a status update
	seenMu   sync.Mutex
	lastSeen time.Time
}

// NewConsole creates a console with no selection
func NewConsole(id string, service *Service) *Console {
	return &Console{id: id, service: service, lastSeen: time.Now()}
}

// ID returns the console id
func (c *Console) ID() string {
	return c.id
}

// Touch marks the console as used at t
func (c *Console) Touch(t time.Time) {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	c.lastSeen = t
}

// LastSeen returns when the console was last used
func (c *Console) LastSeen() time.Time {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	return c.lastSeen
}

// Selected returns the request shown in the modal, if any
func (c *Console) Selected() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return 0, false
	}
	return *c.selected, true
}

// OpenModal selects a request and returns its detail. An unknown id
// leaves the selection as it was.
func (c *Console) OpenModal(ctx context.Context, requestID int64) (*Detail, error) {
	records, err := c.service.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	var found *models.RequestRecord
	for i := range records {
		if records[i].ID == requestID {
			found = &records[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %d", ErrRequestNotFound, requestID)
	}

	history, err := c.service.store.AuditFor(ctx, requestID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	id := requestID
	c.selected = &id
	c.mu.Unlock()

	return &Detail{
		RequestID:    found.ID,
		PhotoURL:     c.service.opts.PhotoPlaceholderURL,
		EmployeeID:   found.EmployeeID,
		EmployeeName: displayName(*found, c.service.opts.PlaceholderName),
		Reason:       found.Type,
		Date:         found.Date.Display(),
		Status:       found.Status,
		StatusClass:  found.Status.DisplayClass(),
		Address:      found.Address,
		DocumentName: found.DocumentName,
		History:      history,
	}, nil
}

// CloseModal hides the modal and clears the selection
func (c *Console) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// UpdateStatus sets the status of the selected request, saves the whole
// list, records the change and closes the modal. Without a selection
// nothing is read or written. If the selected request is no longer stored
// nothing is written and the modal stays open.
func (c *Console) UpdateStatus(ctx context.Context, status, actionBy string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return Snapshot{}, ErrNoSelection
	}
	if err := c.service.ValidateStatus(status); err != nil {
		return Snapshot{}, err
	}
	requestID := *c.selected

	records, err := c.service.store.LoadAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	idx := -1
	for i := range records {
		if records[i].ID == requestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrRequestNotFound, requestID)
	}

	previous := records[idx].Status
	records[idx].Status = models.Status(status)
	if err := c.service.store.SaveAll(ctx, records); err != nil {
		return Snapshot{}, err
	}

	audit := models.StatusAudit{
		AuditID:        utils.GenerateAuditID(),
		RequestID:      requestID,
		PreviousStatus: previous,
		CurrentStatus:  models.Status(status),
		ActionTime:     utils.GetCurrentTimeMillis(),
		ActionBy:       actionBy,
	}
	if err := c.service.store.AppendAudit(ctx, audit); err != nil {
		c.service.logger.WithError(err).WithField("request_id", requestID).Error("Failed to record status audit")
	}

	metrics.StatusUpdated(status)
	c.service.logger.WithFields(logrus.Fields{
		"console_id":      c.id,
		"request_id":      requestID,
		"previous_status": previous,
		"current_status":  status,
		"action_by":       actionBy,
	}).Info("Request status updated")

	c.selected = nil
	return Snapshot{
		Rows:  BuildRows(records, c.service.opts.PlaceholderName),
		Stats: ComputeStats(records),
	}, nil
}
