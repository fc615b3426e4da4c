package wizard

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/wizard/mocks"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func testOptions() Options {
	return Options{
		CountdownTicks:    3,
		CountdownInterval: 5 * time.Millisecond,
		SubmitDelay:       10 * time.Millisecond,
		MaxDocumentBytes:  1024 * 1024,
		Facing:            camera.FacingUser,
	}
}

func testEmployee() Employee {
	return Employee{ID: "E-1001", Name: "Ada Perera"}
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// newTestSession wires a session to a frame buffer camera and a mock store
func newTestSession(t *testing.T, opts Options) (*Session, *camera.FrameBuffer, *mocks.MockRequestStore) {
	t.Helper()
	fb := camera.NewFrameBuffer(true, solidImage(8, 8, color.RGBA{R: 100, G: 100, B: 100, A: 255}))
	store := &mocks.MockRequestStore{}
	s := NewSession(context.Background(), "session-1", testEmployee(), store, fb, nil, opts, testLogger())
	t.Cleanup(s.Close)
	return s, fb, store
}

// driveToGuidelines moves a fresh session to the guidelines step with a
// damaged-card reason
func driveToGuidelines(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Start())
	require.NoError(t, s.SelectReason("Damaged"))
	require.NoError(t, s.Next())
}

// driveToEditor captures a photo and waits for the editor step
func driveToEditor(t *testing.T, s *Session) {
	t.Helper()
	driveToGuidelines(t, s)
	require.NoError(t, s.OpenCamera(context.Background()))
	require.NoError(t, s.Capture())
	waitDone(t, s.CaptureDone())
	require.Equal(t, StateEditor, s.State())
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown")
	}
}
