package wizard

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type countdown struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// startCountdown must be called with mu held
func (s *Session) startCountdown() {
	s.generation++
	ctx, cancel := context.WithCancel(s.ctx)
	cd := &countdown{
		generation: s.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.countdown = cd
	s.remaining = s.opts.CountdownTicks

	go s.runCountdown(ctx, cd, s.opts.CountdownTicks, s.opts.CountdownInterval)
}

// stopCountdown must be called with mu held. The goroutine notices the
// cancelled context or the generation change and exits without capturing.
func (s *Session) stopCountdown() {
	if s.countdown == nil {
		return
	}
	s.countdown.cancel()
	s.countdown = nil
	s.remaining = 0
}

func (s *Session) runCountdown(ctx context.Context, cd *countdown, ticks int, interval time.Duration) {
	defer close(cd.done)

	if ticks > 0 {
		if interval <= 0 {
			interval = time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.events.Countdown(s.id, ticks)
		for remaining := ticks; remaining > 0; {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			remaining--
			if !s.setRemaining(cd.generation, remaining) {
				return
			}
			if remaining > 0 {
				s.events.Countdown(s.id, remaining)
			}
		}
	}

	if s.finishCapture(ctx, cd.generation) {
		// outside mu so a slow event client cannot stall the session
		s.events.Captured(s.id)
	}
}

func (s *Session) setRemaining(generation uint64, remaining int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown == nil || s.countdown.generation != generation {
		return false
	}
	s.remaining = remaining
	return true
}

// finishCapture takes the still frame, releases the device and opens the
// editor. A failed frame read is treated like a denied device. It reports
// whether a photo was taken.
func (s *Session) finishCapture(ctx context.Context, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.countdown == nil || s.countdown.generation != generation {
		return false
	}
	defer s.countdown.cancel()
	s.countdown = nil
	s.remaining = 0

	var frameErr error
	if s.device == nil {
		frameErr = ErrCameraUnavailable
	} else {
		frame, err := s.device.Frame(ctx)
		if err != nil {
			frameErr = err
		} else {
			s.photo = frame
			s.edits = DefaultEdits()
		}
	}
	s.releaseDevice()

	if frameErr != nil {
		s.logger.WithError(frameErr).WithField("session_id", s.id).Warn("Failed to capture frame")
		s.alert = CameraUnavailableMessage
		if err := s.machine.Transition(StateDashboard); err != nil {
			s.logger.WithError(err).Error("Failed to leave camera step")
		}
		return false
	}

	if err := s.machine.Transition(StateEditor); err != nil {
		s.logger.WithError(err).Error("Failed to enter editor step")
		return false
	}
	s.logger.WithFields(logrus.Fields{
		"session_id": s.id,
		"width":      s.photo.Bounds().Dx(),
		"height":     s.photo.Bounds().Dy(),
	}).Info("Photo captured")
	return true
}
