package notifier

import (
	"time"

	"github.com/telephonyd/callnotifier/internal/audio"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

// emergency vibration cadence.
const emergencyVibrate = 1 * time.Second

func (n *Notifier) onPhoneStateChanged() {
	snap := n.phone.Snapshot()
	n.prevCdmaState.Store(int32(snap.PrevCdmaCallState))

	switch snap.State {
	case telephony.PhoneOffhook:
		// silence before answer: the ringer must be dead before audio
		// routes into the call
		n.ringer.Stop()
		n.tones.StopLane(tone.LaneCallWaiting)
		n.audio.SetMode(audio.ModeInCall)
	case telephony.PhoneIdle:
		n.fgWasDialing = false
	}

	n.updateEmergencyAlert(snap)

	fg := snap.Foreground
	if fg == nil {
		return
	}
	switch fg.State {
	case telephony.StateDialing, telephony.StateAlerting:
		n.fgWasDialing = true
	case telephony.StateActive:
		if n.fgWasDialing && snap.Type == telephony.PhoneTypeCDMA && n.isCdmaRedial.Load() {
			// the redial attempt connected
			n.tones.Play(tone.KindRedial)
		}
		n.fgWasDialing = false
	}
}

// updateEmergencyAlert keeps the emergency dial alert (tone XOR vibrate)
// in sync with the foreground call. Start and stop are idempotent: the
// current state is checked before any transition.
func (n *Notifier) updateEmergencyAlert(snap telephony.Snapshot) {
	if n.cfg.EmergencyTone == EmergencyToneOff {
		return
	}

	fg := snap.Foreground
	dialing := fg != nil && telephony.IsEmergencyNumber(fg.Address) &&
		(fg.State == telephony.StateDialing || fg.State == telephony.StateAlerting)

	if dialing {
		n.startEmergencyAlert()
		return
	}
	n.stopEmergencyAlert()
}

func (n *Notifier) startEmergencyAlert() {
	if n.emergencyActive != EmergencyToneOff {
		return
	}
	n.emergencyActive = n.cfg.EmergencyTone
	switch n.cfg.EmergencyTone {
	case EmergencyToneAlert:
		n.emergencyHandle = n.tones.Play(tone.KindEmergencyAlert)
	case EmergencyToneVibrate:
		n.emergencyCancel = make(chan struct{})
		go n.emergencyVibrateLoop(n.emergencyCancel)
	}
	n.log.WithField("mode", int(n.emergencyActive)).Info("emergency alert started")
}

func (n *Notifier) stopEmergencyAlert() {
	if n.emergencyActive == EmergencyToneOff {
		return
	}
	if n.emergencyHandle != nil {
		n.emergencyHandle.Stop()
		n.emergencyHandle = nil
	}
	if n.emergencyCancel != nil {
		close(n.emergencyCancel)
		n.emergencyCancel = nil
		n.vibrator.Cancel()
	}
	n.emergencyActive = EmergencyToneOff
	n.log.Info("emergency alert stopped")
}

func (n *Notifier) emergencyVibrateLoop(cancel <-chan struct{}) {
	for {
		if err := n.vibrator.Vibrate(emergencyVibrate); err != nil {
			n.log.WithError(err).Debug("emergency vibrate failed")
			return
		}
		select {
		case <-cancel:
			return
		case <-time.After(2 * emergencyVibrate):
		}
	}
}
