package notifier

import (
	"context"
	"time"

	"github.com/telephonyd/callnotifier/internal/calllog"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

func (n *Notifier) onCdmaCallWaiting(info telephony.CdmaWaitingInfo) {
	n.log.WithField("address", info.Address).Info("CDMA call waiting")

	// a fresh alert supersedes any pending call-waiting timers
	n.cancelCallWaitingTimers()
	n.cwInfo = &info
	n.cwTimedOut = false
	n.cwAddCallDisabled.Store(true)

	n.tones.Play(tone.KindCallWaiting)

	n.cwDisplayTimer = time.AfterFunc(n.cfg.CallWaitingDisplayTimeout, func() {
		n.Post(cdmaCallWaitingDisplayTimeout{})
	})
	n.cwAddCallTimer = time.AfterFunc(n.cfg.CallWaitingAddCallTimeout, func() {
		n.Post(cdmaCallWaitingAddCallTimeout{})
	})
}

// onCdmaCallWaitingDisplayTimeout fires when the user ignored the
// call-waiting alert for the full display window. The call now counts as
// missed and the reject path runs as if the user rejected it.
func (n *Notifier) onCdmaCallWaitingDisplayTimeout() {
	if n.cwInfo == nil {
		return
	}
	n.log.Info("CDMA call waiting timed out without user action")
	n.cwTimedOut = true
	n.onCdmaCallWaitingReject()
}

func (n *Notifier) onCdmaCallWaitingReject() {
	if n.cwInfo == nil {
		// reject with nothing pending is a stale UI action
		n.log.Debug("call waiting reject with no pending alert")
		return
	}
	info := *n.cwInfo
	timedOut := n.cwTimedOut

	n.tones.StopLane(tone.LaneCallWaiting)
	if err := n.phone.RejectCdmaCallWaiting(); err != nil {
		n.log.WithError(err).Warn("rejecting CDMA call waiting failed")
	}

	n.cancelCallWaitingTimers()
	n.cwInfo = nil
	n.cwTimedOut = false
	n.cwAddCallDisabled.Store(false)

	if n.store != nil {
		typ := calllog.TypeRejected
		if timedOut {
			typ = calllog.TypeMissed
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.logStoreErr(n.store.Log(ctx, calllog.Record{
			Number:       info.Address,
			Presentation: info.Presentation,
			Type:         typ,
			Start:        time.Now(),
			Cause:        telephony.CauseIncomingRejected,
		}))
	}

	if timedOut {
		n.raiseMissedCall(telephony.Connection{
			Address:      info.Address,
			Presentation: info.Presentation,
			Incoming:     true,
			Cause:        telephony.CauseIncomingMissed,
			CreateTime:   time.Now(),
		})
	}
}

func (n *Notifier) onDisplayInfo(info telephony.DisplayInfo) {
	if info.Text == "" {
		return
	}
	n.logNotifyErr(n.notify.ShowDisplayInfo(context.Background(), info.Text))
	if n.displayInfoTimer != nil {
		n.displayInfoTimer.Stop()
	}
	n.displayInfoTimer = time.AfterFunc(n.cfg.DisplayInfoTimeout, func() {
		n.Post(displayInfoDismiss{})
	})
}

func (n *Notifier) onSignalInfo(info telephony.SignalInfo) {
	if _, ringing := n.phone.Snapshot().RingingConn(); ringing {
		// never layer a signal tone over an incoming ring
		n.log.Debug("suppressing signal info tone while ringing")
		return
	}
	kind := signalToneFor(info)
	if kind == tone.KindNone {
		return
	}
	// stop-before-start on the shared signal-info generator lane
	n.tones.StopLane(tone.LaneSignalInfo)
	n.tones.Play(kind)
}

func (n *Notifier) onVoicePrivacy(on bool) {
	if n.voicePrivacy.Load() == on {
		return
	}
	n.voicePrivacy.Store(on)
	n.tones.Play(tone.KindVoicePrivacy)
	n.log.WithField("on", on).Info("enhanced voice privacy changed")
}

func (n *Notifier) onRingbackTone(on bool) {
	if on {
		if !n.tones.Playing(tone.LaneRingBack) {
			n.tones.Play(tone.KindRingBack)
		}
		return
	}
	n.tones.StopLane(tone.LaneRingBack)
}

func (n *Notifier) onResendMute() {
	muted := n.audio.Muted()
	if err := n.phone.ResendMute(); err != nil {
		n.log.WithError(err).Warn("resending mute state failed")
		return
	}
	n.logNotifyErr(n.notify.UpdateMute(context.Background(), muted))
}
