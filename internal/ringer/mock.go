package ringer

import (
	"sync"
	"time"
)

// MockDevice records ringtone plays for test assertions.
type MockDevice struct {
	mu      sync.Mutex
	playing bool
	uris    []string
	err     error
}

// NewMockDevice creates a MockDevice.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// Fail makes subsequent Play calls return err.
func (d *MockDevice) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *MockDevice) Play(uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.playing = true
	d.uris = append(d.uris, uri)
	return nil
}

func (d *MockDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
}

// Playing reports whether the device is currently playing.
func (d *MockDevice) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// URIs returns every URI passed to Play, in order.
func (d *MockDevice) URIs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.uris))
	copy(out, d.uris)
	return out
}

// MockVibrator records vibration requests.
type MockVibrator struct {
	mu        sync.Mutex
	vibrates  int
	cancelled bool
}

// NewMockVibrator creates a MockVibrator.
func NewMockVibrator() *MockVibrator {
	return &MockVibrator{}
}

func (v *MockVibrator) Vibrate(time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vibrates++
	return nil
}

func (v *MockVibrator) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancelled = true
}

// Vibrates returns how many vibration pulses were requested.
func (v *MockVibrator) Vibrates() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vibrates
}

// Cancelled reports whether Cancel was called.
func (v *MockVibrator) Cancelled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancelled
}
