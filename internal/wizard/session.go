package wizard

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/metrics"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

// RequestStore is the part of the request store the wizard uses
type RequestStore interface {
	LoadAll(ctx context.Context) ([]models.RequestRecord, error)
	Append(ctx context.Context, record models.RequestRecord) (models.RequestRecord, error)
}

// EventSink receives asynchronous wizard progress
type EventSink interface {
	Countdown(sessionID string, remaining int)
	Captured(sessionID string)
}

// FrameSink is implemented by providers that accept frames from the client
type FrameSink interface {
	Push(img image.Image) error
}

type noopSink struct{}

func (noopSink) Countdown(string, int) {}
func (noopSink) Captured(string)       {}

// Options tune wizard timings and limits
type Options struct {
	CountdownTicks    int
	CountdownInterval time.Duration
	SubmitDelay       time.Duration
	MaxDocumentBytes  int64
	Facing            camera.Facing
}

// OptionsFromConfig maps the wizard config section
func OptionsFromConfig(cfg *config.WizardConfig) Options {
	return Options{
		CountdownTicks:    cfg.CountdownTicks,
		CountdownInterval: cfg.CountdownInterval,
		SubmitDelay:       cfg.SubmitDelay,
		MaxDocumentBytes:  cfg.MaxDocumentBytes,
		Facing:            camera.FacingUser,
	}
}

// Employee identifies who is filling in the wizard
type Employee struct {
	ID             string           `json:"employeeId"`
	Name           string           `json:"employeeName"`
	SavedAddresses []models.Address `json:"savedAddresses,omitempty"`
}

// Session is one employee's pass through the wizard. All methods are safe
// for concurrent use.
type Session struct {
	mu sync.Mutex

	id       string
	employee Employee
	machine  *Machine
	store    RequestStore
	devices  camera.DeviceProvider
	events   EventSink
	opts     Options
	logger   *logrus.Logger
	now      func() time.Time

	// lifetime of the session; cancelled on Close
	ctx    context.Context
	cancel context.CancelFunc

	reason     models.Reason
	document   *Document
	device     camera.Device
	countdown  *countdown
	generation uint64
	remaining  int
	photo      image.Image
	edits      Edits
	address    *models.Address
	submitting bool
	submitted  *models.RequestRecord
	alert      string
	lastSeen   time.Time
	closed     bool
}

// NewSession creates a session at the dashboard
func NewSession(parent context.Context, id string, employee Employee, store RequestStore,
	devices camera.DeviceProvider, events EventSink, opts Options, logger *logrus.Logger) *Session {
	if events == nil {
		events = noopSink{}
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:       id,
		employee: employee,
		store:    store,
		devices:  devices,
		events:   events,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		edits:    DefaultEdits(),
	}
	s.machine = NewMachine(s.onTransition)
	s.lastSeen = s.now()
	return s
}

func (s *Session) onTransition(from, to State) {
	metrics.WizardTransition(string(from), string(to))
	s.logger.WithFields(logrus.Fields{
		"session_id": s.id,
		"from":       from,
		"to":         to,
	}).Debug("Wizard transition")
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Employee returns who owns the session
func (s *Session) Employee() Employee {
	return s.employee
}

// State returns the current step
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Touch marks the session as used
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// guard fails for closed sessions and while a submission is pending
func (s *Session) guard() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.submitting {
		return ErrSubmitting
	}
	return nil
}

// Start leaves the dashboard for the reason step and clears any previous
// pass through the wizard
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Transition(StateReason); err != nil {
		return err
	}
	s.reason = ""
	s.document = nil
	s.photo = nil
	s.edits = DefaultEdits()
	s.address = nil
	s.alert = ""
	return nil
}

// SelectReason records the reason selection
func (s *Session) SelectReason(reason models.Reason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateReason); err != nil {
		return err
	}
	s.reason = reason
	return nil
}

// AttachDocument checks and records the supporting document. Only the
// metadata is kept.
func (s *Session) AttachDocument(name string, data []byte) (*Document, error) {
	doc, err := inspectDocument(name, data, s.opts.MaxDocumentBytes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	if err := s.machine.Require(StateReason); err != nil {
		return nil, err
	}
	s.document = doc
	return doc, nil
}

// Next advances from the reason step to the guidelines. A lost card needs
// a supporting document first.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateReason); err != nil {
		return err
	}
	if s.reason == "" {
		return ErrReasonRequired
	}
	if s.reason.RequiresDocument() && s.document == nil {
		return ErrDocumentRequired
	}
	return s.machine.Transition(StateGuidelines)
}

// OpenCamera acquires the capture device and enters the camera step. If
// the device cannot be acquired the session is sent back to the dashboard.
func (s *Session) OpenCamera(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if !CanTransition(s.machine.State(), StateCamera) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.machine.State(), StateCamera)
	}

	device, err := s.devices.Acquire(ctx, camera.Constraints{Facing: s.opts.Facing})
	if err != nil {
		metrics.CameraDenied()
		s.logger.WithError(err).WithField("session_id", s.id).Warn("Capture device unavailable")
		s.alert = CameraUnavailableMessage
		if tErr := s.machine.Transition(StateDashboard); tErr != nil {
			return tErr
		}
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	s.device = device
	s.alert = ""
	return s.machine.Transition(StateCamera)
}

// PushFrame hands a live frame to the held device
func (s *Session) PushFrame(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateCamera); err != nil {
		return err
	}
	sink, ok := s.devices.(FrameSink)
	if !ok {
		return fmt.Errorf("capture device does not accept frames")
	}
	return sink.Push(img)
}

// Capture starts the countdown. The frame is taken when it reaches zero.
func (s *Session) Capture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateCamera); err != nil {
		return err
	}
	if s.countdown != nil {
		return ErrCountdownActive
	}
	s.startCountdown()
	return nil
}

// CaptureDone returns a channel closed when the running countdown ends,
// or an already closed channel when none is running
func (s *Session) CaptureDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.countdown.done
}

// CancelCamera stops any countdown, releases the device and returns to
// the dashboard
func (s *Session) CancelCamera() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateCamera); err != nil {
		return err
	}
	s.leaveCamera()
	return s.machine.Transition(StateDashboard)
}

// leaveCamera must be called with mu held on every exit from the camera step
func (s *Session) leaveCamera() {
	s.stopCountdown()
	s.releaseDevice()
}

func (s *Session) releaseDevice() {
	if s.device == nil {
		return
	}
	if err := s.device.Release(); err != nil {
		s.logger.WithError(err).WithField("session_id", s.id).Warn("Failed to release capture device")
	}
	s.device = nil
}

// UpdateEdits changes the editor adjustments
func (s *Session) UpdateEdits(update EditsUpdate) (Edits, error) {
	if err := utils.ValidateStruct(update); err != nil {
		return Edits{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return Edits{}, err
	}
	if err := s.machine.Require(StateEditor); err != nil {
		return Edits{}, err
	}
	s.edits = update.Apply(s.edits)
	return s.edits, nil
}

// Photo renders the captured frame with the current edits as PNG
func (s *Session) Photo() ([]byte, error) {
	s.mu.Lock()
	photo, edits := s.photo, s.edits
	s.mu.Unlock()

	if photo == nil {
		return nil, ErrNoPhoto
	}
	return EncodePNG(photo, edits)
}

// Confirm accepts the edited photo and moves to the address step
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateEditor); err != nil {
		return err
	}
	if s.photo == nil {
		return ErrNoPhoto
	}
	if err := s.machine.Transition(StateAddress); err != nil {
		return err
	}
	if s.address == nil && len(s.employee.SavedAddresses) > 0 {
		addr := s.employee.SavedAddresses[0]
		s.address = &addr
	}
	return nil
}

// SelectSavedAddress picks one of the employee's saved addresses
func (s *Session) SelectSavedAddress(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateAddress); err != nil {
		return err
	}
	if index < 0 || index >= len(s.employee.SavedAddresses) {
		return fmt.Errorf("%w: index %d", ErrAddressNotFound, index)
	}
	addr := s.employee.SavedAddresses[index]
	s.address = &addr
	return nil
}

// SetAddress records a new delivery address
func (s *Session) SetAddress(addr models.Address) error {
	if err := utils.ValidateStruct(addr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateAddress); err != nil {
		return err
	}
	s.address = &addr
	return nil
}

// BackToEditor returns from the address step to the editor
func (s *Session) BackToEditor() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.machine.Require(StateAddress); err != nil {
		return err
	}
	return s.machine.Transition(StateEditor)
}

// Back returns to the dashboard from any other step. While the capture
// countdown runs only CancelCamera leaves the camera step.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.countdown != nil {
		return ErrCountdownActive
	}
	if s.machine.State() == StateCamera {
		s.leaveCamera()
	}
	return s.machine.Transition(StateDashboard)
}

// Dashboard lists the stored requests newest first
func (s *Session) Dashboard(ctx context.Context) ([]models.RequestRecord, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	reversed := make([]models.RequestRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	return reversed, nil
}

// Close ends the session and releases anything it holds
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.leaveCamera()
	s.cancel()
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// View is a snapshot of the session for rendering
type View struct {
	SessionID       string                `json:"sessionId"`
	State           State                 `json:"state"`
	Employee        Employee              `json:"employee"`
	Reason          models.Reason         `json:"reason,omitempty"`
	ReasonLabel     string                `json:"reasonLabel,omitempty"`
	Document        *Document             `json:"document,omitempty"`
	CameraActive    bool                  `json:"cameraActive"`
	CountdownActive bool                  `json:"countdownActive"`
	Countdown       int                   `json:"countdown,omitempty"`
	HasPhoto        bool                  `json:"hasPhoto"`
	Edits           Edits                 `json:"edits"`
	Address         *models.Address       `json:"address,omitempty"`
	Submitting      bool                  `json:"submitting"`
	LastRequest     *models.RequestRecord `json:"lastRequest,omitempty"`
	Alert           string                `json:"alert,omitempty"`
}

// View returns the current snapshot
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:       s.id,
		State:           s.machine.State(),
		Employee:        s.employee,
		Reason:          s.reason,
		Document:        s.document,
		CameraActive:    s.device != nil,
		CountdownActive: s.countdown != nil,
		HasPhoto:        s.photo != nil,
		Edits:           s.edits,
		Address:         s.address,
		Submitting:      s.submitting,
		LastRequest:     s.submitted,
		Alert:           s.alert,
	}
	if s.reason != "" {
		v.ReasonLabel = s.reason.Label()
	}
	if s.countdown != nil {
		v.Countdown = s.remaining
	}
	return v
}
