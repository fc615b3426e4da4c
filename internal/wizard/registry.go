package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/metrics"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

// ProviderFactory creates the capture device provider of a new session
type ProviderFactory func() camera.DeviceProvider

// Registry tracks open wizard sessions, one per employee browser tab
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ctx         context.Context
	store       RequestStore
	newProvider ProviderFactory
	events      EventSink
	opts        Options
	idleTimeout time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

// NewRegistry creates a registry. Sessions live at most as long as ctx.
func NewRegistry(ctx context.Context, store RequestStore, newProvider ProviderFactory, events EventSink,
	opts Options, idleTimeout time.Duration, logger *logrus.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		ctx:         ctx,
		store:       store,
		newProvider: newProvider,
		events:      events,
		opts:        opts,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Create opens a new session for employee
func (r *Registry) Create(employee Employee) *Session {
	id := utils.GenerateSessionID()
	s := NewSession(r.ctx, id, employee, r.store, r.newProvider(), r.events, r.opts, r.logger)
	s.now = r.now
	s.lastSeen = r.now()

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions("wizard", n)
	r.logger.WithFields(logrus.Fields{
		"session_id":  id,
		"employee_id": employee.ID,
	}).Info("Wizard session created")
	return s
}

// Get looks up a session and marks it used
func (r *Registry) Get(id string) (*Session, error) {
	if !utils.IsValidUUID(id) {
		return nil, ErrSessionNotFound
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Close ends and forgets a session
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	metrics.SetActiveSessions("wizard", n)
	r.logger.WithField("session_id", id).Info("Wizard session closed")
	return nil
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were closed
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if utils.IsIdleSince(s.LastSeen(), r.idleTimeout, now) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
		r.logger.WithField("session_id", s.ID()).Info("Wizard session expired")
	}
	if len(expired) > 0 {
		metrics.SetActiveSessions("wizard", n)
	}
	return len(expired)
}

// CloseAll ends every session
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.SetActiveSessions("wizard", 0)
}

// Run sweeps idle sessions until ctx is done, then closes the rest
func (r *Registry) Run(ctx context.Context) error {
	interval := r.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
