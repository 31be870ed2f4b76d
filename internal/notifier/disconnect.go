package notifier

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/callerinfo"
	"github.com/telephonyd/callnotifier/internal/calllog"
	"github.com/telephonyd/callnotifier/internal/notification"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

func (n *Notifier) onDisconnect(conn telephony.Connection) {
	log := n.log.WithField("conn", conn.ID).WithField("cause", conn.Cause.String())
	log.Info("connection disconnected")

	// an in-progress call-waiting tone never outlives the disconnect
	n.tones.StopLane(tone.LaneCallWaiting)

	snap := n.phone.Snapshot()

	// CDMA call collision: an outgoing-call disconnect that races a
	// simultaneous incoming ring must not stop the ringer
	collision := snap.Type == telephony.PhoneTypeCDMA && !conn.Incoming && snap.Ringing != nil &&
		snap.Ringing.State.IsRinging()
	if collision {
		log.Debug("CDMA call collision, leaving ringer running")
	} else {
		n.ringer.Stop()
	}

	n.abandonRingQuery(conn.ID)

	waitingTimedOut := n.clearCallWaitingFor(&conn)

	n.updateEmergencyAlert(snap)

	redialed := n.maybeAutoRedial(conn, snap, log)

	// audio reset defers to the tone completion; a tone that never starts
	// (none selected, ringer-mode suppression, generator failure) must
	// reset now or routing stays in-call forever
	kind := disconnectTone(conn, snap.State == telephony.PhoneIdle)
	played := kind != tone.KindNone && n.tones.Play(kind) != nil
	if !played && snap.State == telephony.PhoneIdle {
		n.resetAudioAfterDisconnect()
	}

	n.logCall(conn, waitingTimedOut)

	if !redialed && (conn.Cause == telephony.CauseIncomingMissed || waitingTimedOut) {
		n.raiseMissedCall(conn)
	}
}

// disconnectTone selects at most one post-disconnect tone by fixed
// priority.
func disconnectTone(conn telephony.Connection, idle bool) tone.Kind {
	switch {
	case conn.Cause == telephony.CauseBusy:
		return tone.KindBusy
	case conn.Cause == telephony.CauseCongestion:
		return tone.KindCongestion
	case conn.IsOTA:
		return tone.KindOtaCallEnded
	case conn.Cause == telephony.CauseCdmaReorder:
		return tone.KindReorder
	case conn.Cause == telephony.CauseCdmaIntercept:
		return tone.KindIntercept
	case conn.Cause == telephony.CauseCdmaDrop:
		return tone.KindCdmaDrop
	case conn.Cause == telephony.CauseOutOfService:
		return tone.KindOutOfService
	case conn.Cause == telephony.CauseUnobtainableNumber:
		return tone.KindUnobtainableNumber
	case conn.Cause == telephony.CauseErrorUnspecified:
		return tone.KindCallEnded
	case idle && (conn.Cause == telephony.CauseNormal || conn.Cause == telephony.CauseLocal):
		return tone.KindCallEnded
	}
	return tone.KindNone
}

// abandonRingQuery clears the pending caller-info query when the
// connection it was started for disconnects while still unresolved.
func (n *Notifier) abandonRingQuery(connID string) {
	n.queryMu.Lock()
	abandoned := n.queryState == queryQuerying && n.queryConnID == connID
	if abandoned {
		n.queryState = queryReady
		n.queryConnID = ""
		n.queryToken = ""
	}
	n.queryMu.Unlock()
	if abandoned {
		if n.ringtoneTimer != nil {
			n.ringtoneTimer.Stop()
			n.ringtoneTimer = nil
		}
		n.log.Debug("caller info query abandoned, connection disconnected")
	}
}

// clearCallWaitingFor tears down CDMA call-waiting bookkeeping when the
// waiting call itself ended. Reports whether that alert had timed out,
// which reclassifies the log entry as missed.
func (n *Notifier) clearCallWaitingFor(conn *telephony.Connection) bool {
	if n.cwInfo == nil || n.cwInfo.Address != conn.Address {
		return false
	}
	timedOut := n.cwTimedOut
	n.cancelCallWaitingTimers()
	n.cwInfo = nil
	n.cwTimedOut = false
	n.cwAddCallDisabled.Store(false)
	return timedOut
}

// maybeAutoRedial issues at most one automatic redial after a dropped
// outgoing CDMA call. Reports whether a redial was placed.
func (n *Notifier) maybeAutoRedial(conn telephony.Connection, snap telephony.Snapshot, log *logrus.Entry) bool {
	if snap.Type != telephony.PhoneTypeCDMA || conn.Incoming {
		return false
	}
	if !n.fgWasDialing {
		// the call got past dialing; a redial mark never outlives it
		n.isCdmaRedial.Store(false)
		return false
	}
	n.fgWasDialing = false

	switch conn.Cause {
	case telephony.CauseNormal, telephony.CauseLocal, telephony.CauseIncomingMissed:
		n.isCdmaRedial.Store(false)
		return false
	}
	if telephony.IsEmergencyNumber(conn.Address) {
		n.isCdmaRedial.Store(false)
		return false
	}
	if !n.cfg.AutoRetry || n.isCdmaRedial.Load() {
		// either retry is off, or this drop already was the one redial
		n.isCdmaRedial.Store(false)
		return false
	}

	log.Info("auto-retry: redialing dropped call")
	if err := n.phone.Dial(conn.Address); err != nil {
		log.WithError(err).Warn("auto-redial failed")
		n.isCdmaRedial.Store(false)
		return false
	}
	n.isCdmaRedial.Store(true)
	return true
}

func (n *Notifier) logCall(conn telephony.Connection, waitingTimedOut bool) {
	if n.store == nil {
		return
	}
	rec := calllog.Record{
		Number:       conn.Address,
		Presentation: conn.Presentation,
		Type:         calllog.Classify(&conn, waitingTimedOut),
		Start:        conn.CreateTime,
		Duration:     conn.Duration,
		Cause:        conn.Cause,
	}
	if cached, ok := n.info.Cached(conn.Address); ok {
		rec.Name = cached.Name
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n.logStoreErr(n.store.Log(ctx, rec))
}

// raiseMissedCall resolves caller info for the missed call (cookie is the
// call timestamp, independent of the ringing-query gate) and notifies.
// The contact photo loads asynchronously; the notification is re-issued,
// keyed by timestamp, once it arrives.
func (n *Notifier) raiseMissedCall(conn telephony.Connection) {
	ts := conn.CreateTime
	if ts.IsZero() {
		ts = time.Now()
	}
	mc := notification.MissedCall{
		Number:       conn.Address,
		Presentation: conn.Presentation,
		Time:         ts,
	}

	token := n.info.Lookup(conn.Address, func(_ callerinfo.Token, rec *callerinfo.Record) {
		n.Post(missedCallInfoComplete{mc: mc, rec: rec})
	})
	if token.Final {
		n.onMissedCallInfoComplete(missedCallInfoComplete{mc: mc, rec: token.Record})
	}
}

func (n *Notifier) onMissedCallInfoComplete(e missedCallInfoComplete) {
	mc := e.mc
	if e.rec != nil {
		mc.Name = e.rec.Name
	}
	n.logNotifyErr(n.notify.NotifyMissedCall(context.Background(), mc))

	if e.rec == nil || e.rec.PhotoRef == "" {
		return
	}
	n.info.LoadPhoto(e.rec, func(photo []byte) {
		if photo == nil {
			return
		}
		withPhoto := mc
		withPhoto.Photo = photo
		n.Post(missedCallPhotoLoaded{mc: withPhoto})
	})
}
