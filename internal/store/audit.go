package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wso2/idcard-reissue-api/internal/models"
)

// AppendAudit adds one status change to the audit trail
func (s *RequestStore) AppendAudit(ctx context.Context, audit models.StatusAudit) error {
	audits, err := s.loadAudits(ctx)
	if err != nil {
		return err
	}
	audits = append(audits, audit)

	data, err := json.Marshal(audits)
	if err != nil {
		return fmt.Errorf("%w: failed to encode audit trail: %w", ErrStorage, err)
	}
	if err := s.backend.Set(ctx, s.auditKey, data); err != nil {
		return fmt.Errorf("%w: failed to write audit trail: %w", ErrStorage, err)
	}
	return nil
}

// AuditFor returns the status history of one request, newest first
func (s *RequestStore) AuditFor(ctx context.Context, requestID int64) ([]models.StatusAudit, error) {
	audits, err := s.loadAudits(ctx)
	if err != nil {
		return nil, err
	}

	history := make([]models.StatusAudit, 0)
	for _, a := range audits {
		if a.RequestID == requestID {
			history = append(history, a)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ActionTime > history[j].ActionTime
	})
	return history, nil
}

func (s *RequestStore) loadAudits(ctx context.Context) ([]models.StatusAudit, error) {
	data, ok, err := s.backend.Get(ctx, s.auditKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audit trail: %w", ErrStorage, err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var audits []models.StatusAudit
	if err := json.Unmarshal(data, &audits); err != nil {
		return nil, fmt.Errorf("%w: failed to decode audit trail: %w", ErrStorage, err)
	}
	return audits, nil
}
