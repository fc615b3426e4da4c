package wizard

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/metrics"
	"github.com/wso2/idcard-reissue-api/internal/models"
)

// Submit waits the configured delay, appends a new request waiting for HR
// approval and moves to the success step. The delay cannot be interrupted
// from the wizard; only closing the session stops it.
func (s *Session) Submit() (models.RequestRecord, error) {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return models.RequestRecord{}, err
	}
	if err := s.machine.Require(StateAddress); err != nil {
		s.mu.Unlock()
		return models.RequestRecord{}, err
	}
	s.submitting = true
	ctx := s.ctx
	delay := s.opts.SubmitDelay
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if s.closed || ctx.Err() != nil {
		return models.RequestRecord{}, ErrSessionClosed
	}

	record := models.RequestRecord{
		Type:         s.reason.Label(),
		Date:         models.NewCalendarDate(s.now().UTC()),
		Status:       models.StatusWaitingForHRApprove,
		EmployeeID:   s.employee.ID,
		EmployeeName: s.employee.Name,
		Address:      s.address,
	}
	if s.document != nil {
		record.DocumentName = s.document.Name
	}

	saved, err := s.store.Append(ctx, record)
	if err != nil {
		return models.RequestRecord{}, fmt.Errorf("failed to submit request: %w", err)
	}
	if err := s.machine.Transition(StateSuccess); err != nil {
		return models.RequestRecord{}, err
	}
	s.submitted = &saved

	metrics.RequestSubmitted(saved.Type)
	s.logger.WithFields(logrus.Fields{
		"session_id":  s.id,
		"request_id":  saved.ID,
		"type":        saved.Type,
		"employee_id": saved.EmployeeID,
	}).Info("Reissuance request submitted")
	return saved, nil
}
