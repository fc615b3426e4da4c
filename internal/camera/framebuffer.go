package camera

import (
	"context"
	"image"
	"sync"
)

// FrameBuffer is a provider fed with frames pushed from the client. Only
// one device can be held at a time.
type FrameBuffer struct {
	mu       sync.Mutex
	enabled  bool
	held     bool
	latest   image.Image
	fallback image.Image
	acquired int
	released int
}

// NewFrameBuffer creates a provider. When fallback is non-nil it is
// returned until the first frame is pushed.
func NewFrameBuffer(enabled bool, fallback image.Image) *FrameBuffer {
	return &FrameBuffer{enabled: enabled, fallback: fallback}
}

// Acquire takes the device
func (f *FrameBuffer) Acquire(ctx context.Context, _ Constraints) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.enabled {
		return nil, ErrUnavailable
	}
	if f.held {
		return nil, ErrBusy
	}
	f.held = true
	f.latest = nil
	f.acquired++
	return &frameBufferDevice{owner: f}, nil
}

// Push replaces the current frame. Frames pushed while the device is not
// held are dropped.
func (f *FrameBuffer) Push(img image.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.held {
		return ErrReleased
	}
	f.latest = img
	return nil
}

// Held reports whether a device is currently acquired
func (f *FrameBuffer) Held() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held
}

// Counts returns how many times the device was acquired and released
func (f *FrameBuffer) Counts() (acquired, released int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired, f.released
}

func (f *FrameBuffer) frame() (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest != nil {
		return f.latest, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return nil, ErrNoFrame
}

func (f *FrameBuffer) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
	f.latest = nil
	f.released++
}

type frameBufferDevice struct {
	owner *FrameBuffer
	once  sync.Once
	mu    sync.Mutex
	done  bool
}

func (d *frameBufferDevice) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done {
		return nil, ErrReleased
	}
	return d.owner.frame()
}

func (d *frameBufferDevice) Release() error {
	d.once.Do(func() {
		d.mu.Lock()
		d.done = true
		d.mu.Unlock()
		d.owner.release()
	})
	return nil
}
