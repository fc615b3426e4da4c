package admin

import (
	"context"
	"sync"
	"time"

	"github.com/wso2/idcard-reissue-api/internal/metrics"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

// Registry tracks open consoles, one per admin browser tab
type Registry struct {
	mu       sync.RWMutex
	consoles map[string]*Console
	service  *Service
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(service *Service) *Registry {
	return &Registry{
		consoles: make(map[string]*Console),
		service:  service,
		now:      time.Now,
	}
}

// Service returns the shared console service
func (r *Registry) Service() *Service {
	return r.service
}

// Create opens a console
func (r *Registry) Create() *Console {
	c := NewConsole(utils.GenerateSessionID(), r.service)
	c.Touch(r.now())
	r.mu.Lock()
	r.consoles[c.ID()] = c
	n := len(r.consoles)
	r.mu.Unlock()
	metrics.SetActiveSessions("console", n)
	return c
}

// Get looks up a console and marks it used
func (r *Registry) Get(id string) (*Console, error) {
	if !utils.IsValidUUID(id) {
		return nil, ErrConsoleNotFound
	}
	r.mu.RLock()
	c, ok := r.consoles[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrConsoleNotFound
	}
	c.Touch(r.now())
	return c, nil
}

// Close forgets a console
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	_, ok := r.consoles[id]
	delete(r.consoles, id)
	n := len(r.consoles)
	r.mu.Unlock()
	if !ok {
		return ErrConsoleNotFound
	}
	metrics.SetActiveSessions("console", n)
	return nil
}

// Len returns the number of open consoles
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consoles)
}

// Sweep forgets consoles idle for longer than the idle timeout and returns
// how many were removed
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	expired := 0
	for id, c := range r.consoles {
		if utils.IsIdleSince(c.LastSeen(), r.service.opts.IdleTimeout, now) {
			delete(r.consoles, id)
			expired++
		}
	}
	n := len(r.consoles)
	r.mu.Unlock()

	if expired > 0 {
		metrics.SetActiveSessions("console", n)
		r.service.logger.WithField("expired", expired).Info("Idle admin consoles expired")
	}
	return expired
}

// Run sweeps idle consoles until ctx is done
func (r *Registry) Run(ctx context.Context) error {
	interval := r.service.opts.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
