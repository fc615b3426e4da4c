// Package store owns the persisted request list. It is the only code that
// reads or writes the list key; the wizard and the admin console receive a
// RequestStore and go through LoadAll and SaveAll.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/kv"
	"github.com/wso2/idcard-reissue-api/internal/metrics"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/notify"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

var (
	// ErrStorage wraps every backend, encode or decode failure
	ErrStorage = errors.New("request storage failed")
	// ErrDuplicateID is returned when appending a record whose id is taken
	ErrDuplicateID = errors.New("request id already exists")
)

// RequestStore reads and writes the request list as one JSON array. Writes
// replace the whole list with no version check, so the last writer wins.
type RequestStore struct {
	backend  kv.Backend
	notifier notify.Notifier
	key      string
	auditKey string
	logger   *logrus.Logger
	now      func() time.Time
}

// NewRequestStore creates a store over backend. key is the namespaced list
// key; the audit trail lives under key + ".audit".
func NewRequestStore(backend kv.Backend, notifier notify.Notifier, key string, logger *logrus.Logger) *RequestStore {
	return &RequestStore{
		backend:  backend,
		notifier: notifier,
		key:      key,
		auditKey: key + ".audit",
		logger:   logger,
		now:      time.Now,
	}
}

// Key returns the list key
func (s *RequestStore) Key() string {
	return s.key
}

// LoadAll returns the persisted list, or an empty list if nothing has been
// stored yet
func (s *RequestStore) LoadAll(ctx context.Context) ([]models.RequestRecord, error) {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read requests: %w", ErrStorage, err)
	}
	if !ok || len(data) == 0 {
		return []models.RequestRecord{}, nil
	}

	var records []models.RequestRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode requests: %w", ErrStorage, err)
	}
	if records == nil {
		records = []models.RequestRecord{}
	}
	return records, nil
}

// SaveAll overwrites the persisted list with records and then announces the
// change
func (s *RequestStore) SaveAll(ctx context.Context, records []models.RequestRecord) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreSave(s.key, started, err) }()

	if records == nil {
		records = []models.RequestRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: failed to encode requests: %w", ErrStorage, err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: failed to write requests: %w", ErrStorage, err)
	}

	s.logger.WithFields(logrus.Fields{
		"key":   s.key,
		"count": len(records),
		"bytes": len(data),
	}).Debug("Request list saved")

	s.announce(ctx)
	return nil
}

// Append adds record to the end of the list. A zero ID is replaced with a
// fresh one derived from the current time.
func (s *RequestStore) Append(ctx context.Context, record models.RequestRecord) (models.RequestRecord, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return models.RequestRecord{}, err
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if record.ID == 0 {
		record.ID = utils.NextRequestID(utils.TimeToMillis(s.now()), ids)
	} else {
		for _, id := range ids {
			if id == record.ID {
				return models.RequestRecord{}, fmt.Errorf("%w: %d", ErrDuplicateID, record.ID)
			}
		}
	}

	if err := s.SaveAll(ctx, append(records, record)); err != nil {
		return models.RequestRecord{}, err
	}
	return record, nil
}

// FindByID returns the index of the record with id in records
func FindByID(records []models.RequestRecord, id int64) (int, bool) {
	for i := range records {
		if records[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Changes subscribes to storage change signals
func (s *RequestStore) Changes() (<-chan struct{}, func()) {
	return s.notifier.Subscribe()
}

// Announce publishes a change signal without writing, used when another
// process changed the backend behind our back
func (s *RequestStore) Announce(ctx context.Context) {
	s.announce(ctx)
}

func (s *RequestStore) announce(ctx context.Context) {
	if err := s.notifier.Publish(ctx); err != nil {
		// the write stands even if the signal is lost
		s.logger.WithError(err).WithField("key", s.key).Warn("Failed to publish storage change")
	}
}
