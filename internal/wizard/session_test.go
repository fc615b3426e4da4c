package wizard

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/wizard/mocks"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

func TestNext_LostCardRequiresDocument(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	require.NoError(t, s.Start())
	require.NoError(t, s.SelectReason(models.ReasonLost))

	err := s.Next()

	assert.True(t, errors.Is(err, ErrDocumentRequired))
	assert.Equal(t, DocumentRequiredMessage, err.Error())
	assert.Equal(t, StateReason, s.State())
}

func TestNext_LostCardWithDocumentAdvances(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	require.NoError(t, s.Start())
	require.NoError(t, s.SelectReason(models.ReasonLost))

	doc, err := s.AttachDocument("police-report.pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)

	require.NoError(t, s.Next())
	assert.Equal(t, StateGuidelines, s.State())
}

func TestNext_OtherReasonsAdvanceWithoutDocument(t *testing.T) {
	for _, reason := range []models.Reason{models.ReasonDamaged, models.ReasonNameChange} {
		t.Run(string(reason), func(t *testing.T) {
			s, _, _ := newTestSession(t, testOptions())
			require.NoError(t, s.Start())
			require.NoError(t, s.SelectReason(reason))

			require.NoError(t, s.Next())
			assert.Equal(t, StateGuidelines, s.State())
		})
	}
}

func TestNext_RequiresReason(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	require.NoError(t, s.Start())

	err := s.Next()

	assert.True(t, errors.Is(err, ErrReasonRequired))
	assert.Equal(t, StateReason, s.State())
}

func TestAttachDocument_RejectsUnsupportedTypes(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	require.NoError(t, s.Start())

	_, err := s.AttachDocument("notes.txt", []byte("just some text"))
	assert.True(t, errors.Is(err, ErrUnsupportedDocument))

	opts := testOptions()
	opts.MaxDocumentBytes = 10
	small, _, _ := newTestSession(t, opts)
	require.NoError(t, small.Start())
	_, err = small.AttachDocument("report.pdf", pdfBytes)
	assert.True(t, errors.Is(err, ErrDocumentTooLarge))
}

func TestOpenCamera_DeniedReturnsToDashboard(t *testing.T) {
	provider := &mocks.MockDeviceProvider{}
	provider.On("Acquire", mock.Anything, camera.Constraints{Facing: camera.FacingUser}).
		Return(nil, camera.ErrUnavailable)

	s := NewSession(context.Background(), "denied", testEmployee(), &mocks.MockRequestStore{}, provider, nil, testOptions(), testLogger())
	defer s.Close()
	driveToGuidelines(t, s)

	err := s.OpenCamera(context.Background())

	assert.True(t, errors.Is(err, ErrCameraUnavailable))
	assert.Equal(t, StateDashboard, s.State())
	assert.Equal(t, CameraUnavailableMessage, s.View().Alert)
	assert.False(t, s.View().CameraActive)
	provider.AssertExpectations(t)
}

func TestCapture_MovesToEditorAndReleasesDevice(t *testing.T) {
	events := &mocks.MockEventSink{}
	events.On("Countdown", "session-1", mock.AnythingOfType("int")).Return()
	events.On("Captured", "session-1").Return()

	fb := camera.NewFrameBuffer(true, nil)
	s := NewSession(context.Background(), "session-1", testEmployee(), &mocks.MockRequestStore{}, fb, events, testOptions(), testLogger())
	defer s.Close()

	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))
	require.NoError(t, s.PushFrame(solidImage(6, 6, color.RGBA{G: 200, A: 255})))
	require.NoError(t, s.Capture())
	assert.True(t, errors.Is(s.Capture(), ErrCountdownActive))

	waitDone(t, s.CaptureDone())

	assert.Equal(t, StateEditor, s.State())
	assert.False(t, fb.Held())
	view := s.View()
	assert.True(t, view.HasPhoto)
	assert.Equal(t, DefaultEdits(), view.Edits)

	events.AssertCalled(t, "Countdown", "session-1", 3)
	events.AssertCalled(t, "Countdown", "session-1", 2)
	events.AssertCalled(t, "Countdown", "session-1", 1)
	events.AssertNumberOfCalls(t, "Countdown", 3)
	events.AssertNumberOfCalls(t, "Captured", 1)
}

// blockingSink holds the Captured call until released
type blockingSink struct {
	captured chan struct{}
	release  chan struct{}
}

func (b *blockingSink) Countdown(string, int) {}

func (b *blockingSink) Captured(string) {
	close(b.captured)
	<-b.release
}

func TestCapture_SlowEventSinkDoesNotHoldSession(t *testing.T) {
	sink := &blockingSink{captured: make(chan struct{}), release: make(chan struct{})}
	fb := camera.NewFrameBuffer(true, solidImage(4, 4, color.RGBA{A: 255}))
	s := NewSession(context.Background(), "slow-sink", testEmployee(), &mocks.MockRequestStore{}, fb, sink, testOptions(), testLogger())
	defer s.Close()

	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))
	require.NoError(t, s.Capture())
	done := s.CaptureDone()

	select {
	case <-sink.captured:
	case <-time.After(2 * time.Second):
		t.Fatal("capture was not reported")
	}

	views := make(chan View, 1)
	go func() { views <- s.View() }()
	select {
	case v := <-views:
		assert.Equal(t, StateEditor, v.State)
	case <-time.After(time.Second):
		t.Fatal("session blocked while the event sink was busy")
	}

	close(sink.release)
	waitDone(t, done)
}

func TestCapture_FrameFailureReturnsToDashboard(t *testing.T) {
	device := &mocks.MockDevice{}
	device.On("Frame", mock.Anything).Return(nil, errors.New("stream ended"))
	device.On("Release").Return(nil).Once()

	provider := &mocks.MockDeviceProvider{}
	provider.On("Acquire", mock.Anything, mock.Anything).Return(device, nil)

	s := NewSession(context.Background(), "broken", testEmployee(), &mocks.MockRequestStore{}, provider, nil, testOptions(), testLogger())
	defer s.Close()

	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))
	require.NoError(t, s.Capture())
	waitDone(t, s.CaptureDone())

	assert.Equal(t, StateDashboard, s.State())
	assert.Equal(t, CameraUnavailableMessage, s.View().Alert)
	device.AssertExpectations(t)
}

func TestCancelCamera_AlwaysReleasesAndReturnsToDashboard(t *testing.T) {
	tests := []struct {
		name         string
		startCapture bool
	}{
		{"before countdown", false},
		{"during countdown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.CountdownInterval = time.Hour
			s, fb, _ := newTestSession(t, opts)

			driveToGuidelines(t, s)
			require.NoError(t, s.OpenCamera(context.Background()))
			if tt.startCapture {
				require.NoError(t, s.Capture())
				assert.True(t, s.View().CountdownActive)
			}
			done := s.CaptureDone()

			require.NoError(t, s.CancelCamera())
			waitDone(t, done)

			assert.Equal(t, StateDashboard, s.State())
			assert.False(t, fb.Held())
			acquired, released := fb.Counts()
			assert.Equal(t, acquired, released)
			assert.False(t, s.View().HasPhoto)
		})
	}
}

func TestBack_FromCameraReleasesDevice(t *testing.T) {
	device := &mocks.MockDevice{}
	device.On("Release").Return(nil).Once()
	provider := &mocks.MockDeviceProvider{}
	provider.On("Acquire", mock.Anything, mock.Anything).Return(device, nil)

	s := NewSession(context.Background(), "back", testEmployee(), &mocks.MockRequestStore{}, provider, nil, testOptions(), testLogger())
	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))

	require.NoError(t, s.Back())
	s.Close()

	assert.Equal(t, StateDashboard, s.State())
	device.AssertExpectations(t)
}

func TestBack_RefusedDuringCountdown(t *testing.T) {
	opts := testOptions()
	opts.CountdownInterval = time.Hour
	s, fb, _ := newTestSession(t, opts)

	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))
	require.NoError(t, s.Capture())

	assert.True(t, errors.Is(s.Back(), ErrCountdownActive))
	assert.Equal(t, StateCamera, s.State())
	assert.True(t, fb.Held())
	assert.True(t, s.View().CountdownActive)

	done := s.CaptureDone()
	require.NoError(t, s.CancelCamera())
	waitDone(t, done)
	assert.Equal(t, StateDashboard, s.State())
	assert.False(t, fb.Held())
}

func TestClose_ReleasesDevice(t *testing.T) {
	s, fb, _ := newTestSession(t, testOptions())
	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))

	s.Close()
	s.Close()

	assert.False(t, fb.Held())
	assert.True(t, errors.Is(s.Start(), ErrSessionClosed))
}

func TestRetakeFromEditor(t *testing.T) {
	s, fb, _ := newTestSession(t, testOptions())
	driveToEditor(t, s)

	require.NoError(t, s.OpenCamera(context.Background()))
	assert.Equal(t, StateCamera, s.State())
	assert.True(t, fb.Held())
}

func TestUpdateEdits(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	driveToEditor(t, s)

	zoom, brightness := 1.5, 120.0
	edits, err := s.UpdateEdits(EditsUpdate{Zoom: &zoom, Brightness: &brightness})
	require.NoError(t, err)
	assert.Equal(t, Edits{Zoom: 1.5, Brightness: 120}, edits)

	tooFar := 3.5
	_, err = s.UpdateEdits(EditsUpdate{Zoom: &tooFar})
	assert.True(t, errors.Is(err, utils.ErrValidation))
	assert.Equal(t, 1.5, s.View().Edits.Zoom)

	photo, err := s.Photo()
	require.NoError(t, err)
	assert.NotEmpty(t, photo)
}

func TestConfirm_DefaultsToFirstSavedAddress(t *testing.T) {
	fb := camera.NewFrameBuffer(true, solidImage(4, 4, color.RGBA{A: 255}))
	employee := testEmployee()
	employee.SavedAddresses = []models.Address{
		{Label: "Home", Street: "12 Main St", City: "Colombo", PostalCode: "00300"},
		{Label: "Office", Street: "1 Park Rd", City: "Kandy", PostalCode: "20000"},
	}
	s := NewSession(context.Background(), "addr", employee, &mocks.MockRequestStore{}, fb, nil, testOptions(), testLogger())
	defer s.Close()

	driveToEditor(t, s)
	require.NoError(t, s.Confirm())
	assert.Equal(t, "Home", s.View().Address.Label)

	require.NoError(t, s.SelectSavedAddress(1))
	assert.Equal(t, "Office", s.View().Address.Label)
	assert.True(t, errors.Is(s.SelectSavedAddress(2), ErrAddressNotFound))

	err := s.SetAddress(models.Address{Street: "5 Lake Dr"})
	assert.True(t, errors.Is(err, utils.ErrValidation))

	require.NoError(t, s.BackToEditor())
	assert.Equal(t, StateEditor, s.State())
}

func TestConfirm_RequiresPhoto(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	driveToGuidelines(t, s)

	assert.True(t, errors.Is(s.Confirm(), ErrInvalidTransition))
	_, err := s.Photo()
	assert.True(t, errors.Is(err, ErrNoPhoto))
}

func TestSubmit_AppendsOneWaitingRecord(t *testing.T) {
	s, _, store := newTestSession(t, testOptions())
	fixed := time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	store.On("Append", mock.Anything, mock.MatchedBy(func(r models.RequestRecord) bool {
		return r.ID == 0 &&
			r.Type == "Card Damaged / Expired" &&
			r.Status == models.StatusWaitingForHRApprove &&
			r.Date.String() == "2024-05-06" &&
			r.EmployeeID == "E-1001"
	})).Return(models.RequestRecord{ID: 1714950000000, Type: "Card Damaged / Expired", Status: models.StatusWaitingForHRApprove}, nil).Once()

	driveToEditor(t, s)
	require.NoError(t, s.Confirm())
	require.NoError(t, s.SetAddress(models.Address{Street: "12 Main St", City: "Colombo", PostalCode: "00300"}))

	started := time.Now()
	record, err := s.Submit()

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), testOptions().SubmitDelay)
	assert.Equal(t, int64(1714950000000), record.ID)
	assert.Equal(t, StateSuccess, s.State())
	assert.Equal(t, &record, s.View().LastRequest)
	store.AssertNumberOfCalls(t, "Append", 1)
	store.AssertExpectations(t)

	require.NoError(t, s.Back())
	assert.Equal(t, StateDashboard, s.State())
}

func TestSubmit_StorageFailureStaysOnAddress(t *testing.T) {
	s, _, store := newTestSession(t, testOptions())
	store.On("Append", mock.Anything, mock.Anything).Return(models.RequestRecord{}, errors.New("quota exceeded"))

	driveToEditor(t, s)
	require.NoError(t, s.Confirm())

	_, err := s.Submit()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, StateAddress, s.State())
	assert.False(t, s.View().Submitting)
}

func TestSubmit_OnlyFromAddress(t *testing.T) {
	s, _, store := newTestSession(t, testOptions())

	_, err := s.Submit()

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestDashboard_NewestFirst(t *testing.T) {
	s, _, store := newTestSession(t, testOptions())
	store.On("LoadAll", mock.Anything).Return([]models.RequestRecord{
		{ID: 1, Status: models.StatusCompleted},
		{ID: 2, Status: models.StatusPending},
		{ID: 3, Status: models.StatusWaitingForHRApprove},
	}, nil)

	records, err := s.Dashboard(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{records[0].ID, records[1].ID, records[2].ID})
}

func TestStart_ClearsPreviousPass(t *testing.T) {
	s, _, _ := newTestSession(t, testOptions())
	driveToEditor(t, s)
	require.NoError(t, s.Back())

	require.NoError(t, s.Start())

	view := s.View()
	assert.Equal(t, StateReason, view.State)
	assert.Empty(t, view.Reason)
	assert.False(t, view.HasPhoto)
	assert.Nil(t, view.Document)
}
