// Package ringer drives the incoming-call ringtone and vibration pattern.
package ringer

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/audio"
)

// vibration cadence for incoming calls.
const (
	vibrateOn  = 1 * time.Second
	vibrateOff = 1 * time.Second
)

// Device is the platform ringtone output. Play loops the ringtone at the
// given URI until Stop; both are idempotent.
type Device interface {
	Play(uri string) error
	Stop()
}

// Vibrator is the platform vibrator.
type Vibrator interface {
	Vibrate(d time.Duration) error
	Cancel()
}

// Ringer coordinates ringtone and vibration for the ringing call. All
// methods are safe for concurrent use; Ring while already ringing is a
// no-op so ring-repeat events can call it blindly.
type Ringer struct {
	device     Device
	vibrator   Vibrator
	router     audio.Router
	defaultURI string
	log        *logrus.Entry

	mu        sync.Mutex
	ringing   bool
	customURI string
	cancelVib chan struct{}
}

// New creates a Ringer using defaultURI when no custom ringtone is set.
func New(device Device, vibrator Vibrator, router audio.Router, defaultURI string, log *logrus.Entry) *Ringer {
	return &Ringer{
		device:     device,
		vibrator:   vibrator,
		router:     router,
		defaultURI: defaultURI,
		log:        log,
	}
}

// SetCustomRingtoneURI sets the ringtone for the next Ring. An empty URI
// falls back to the default. Cleared by Stop.
func (r *Ringer) SetCustomRingtoneURI(uri string) {
	r.mu.Lock()
	r.customURI = uri
	r.mu.Unlock()
}

// IsRinging reports whether the ringer is active (audible or vibrating).
func (r *Ringer) IsRinging() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ringing
}

// Ring starts the ringtone and vibration pattern according to the device
// ringer mode. No-op while already ringing.
func (r *Ringer) Ring() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ringing {
		return
	}

	mode := r.router.RingerMode()
	uri := r.customURI
	if uri == "" {
		uri = r.defaultURI
	}

	if mode == audio.RingerModeNormal {
		if err := r.device.Play(uri); err != nil {
			// fail silent: a broken ringtone must not take down the
			// event loop, vibration may still get through
			r.log.WithError(err).Warn("ringtone playback failed")
		}
	}
	if mode == audio.RingerModeNormal || mode == audio.RingerModeVibrate {
		r.cancelVib = make(chan struct{})
		go r.vibrateLoop(r.cancelVib)
	}
	r.ringing = true
	r.log.WithField("ringer_mode", mode.String()).Debug("ringer started")
}

// Stop silences the ringer and cancels vibration. Idempotent. The custom
// ringtone is per call and cleared here.
func (r *Ringer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ringing {
		return
	}
	r.device.Stop()
	if r.cancelVib != nil {
		close(r.cancelVib)
		r.cancelVib = nil
	}
	r.vibrator.Cancel()
	r.ringing = false
	r.customURI = ""
	r.log.Debug("ringer stopped")
}

// Silence stops the audible ringtone and vibration but keeps the ringer
// logically active, so IsRinging still reports true while the call keeps
// ringing on the network.
func (r *Ringer) Silence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ringing {
		return
	}
	r.device.Stop()
	if r.cancelVib != nil {
		close(r.cancelVib)
		r.cancelVib = nil
	}
	r.vibrator.Cancel()
	r.log.Debug("ringer silenced")
}

// Restart resumes ringing after Silence while the call is still ringing.
func (r *Ringer) Restart() {
	r.mu.Lock()
	if !r.ringing {
		r.mu.Unlock()
		return
	}
	r.ringing = false
	r.mu.Unlock()
	r.Ring()
}

func (r *Ringer) vibrateLoop(cancel <-chan struct{}) {
	for {
		if err := r.vibrator.Vibrate(vibrateOn); err != nil {
			r.log.WithError(err).Debug("vibrate failed")
			return
		}
		select {
		case <-cancel:
			return
		case <-time.After(vibrateOn + vibrateOff):
		}
	}
}
