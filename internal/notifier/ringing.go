package notifier

import (
	"time"

	"github.com/telephonyd/callnotifier/internal/audio"
	"github.com/telephonyd/callnotifier/internal/callerinfo"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

func (n *Notifier) onNewRingingConnection(conn telephony.Connection) {
	log := n.log.WithField("conn", conn.ID)
	log.Info("new ringing connection")

	snap := n.phone.Snapshot()
	if !n.ringAllowed(snap) {
		log.Info("incoming calls suppressed, rejecting connection")
		if err := n.phone.HangupRinging(conn.ID); err != nil {
			log.WithError(err).Warn("rejecting suppressed call failed")
		}
		return
	}

	live, ok := snap.RingingConn()
	if !ok || live.ID != conn.ID {
		// the network won the race: the connection stopped ringing
		// between event posting and processing
		log.Debug("connection no longer ringing, ignoring")
		return
	}

	n.tones.StopLane(tone.LaneSignalInfo)
	n.audio.SetMode(audio.ModeRinging)

	n.queryMu.Lock()
	if n.queryState != queryReady {
		n.queryMu.Unlock()
		// second concurrent ringing event while a query is in flight:
		// anomaly, ring immediately rather than queue a second query
		log.Warn("caller info query already in flight, ringing without query")
		n.ringer.Ring()
		return
	}
	n.queryState = queryQuerying
	n.queryConnID = conn.ID
	n.queryMu.Unlock()

	token := n.info.Lookup(conn.Address, n.ringingQueryListener(conn.ID))
	if token.Final {
		n.queryMu.Lock()
		n.queryState = queryReady
		n.queryConnID = ""
		n.queryMu.Unlock()
		n.resolveRing(conn.ID, token.Record, "cache")
		return
	}

	n.queryMu.Lock()
	n.queryToken = token.ID
	n.queryMu.Unlock()

	connID := conn.ID
	n.ringtoneTimer = time.AfterFunc(n.cfg.RingtoneQueryTimeout, func() {
		n.Post(CustomRingtoneQueryTimeout{ConnID: connID})
	})
}

// ringingQueryListener rendezvous the off-queue query completion back
// into the serialized event stream.
func (n *Notifier) ringingQueryListener(connID string) callerinfo.Listener {
	return func(token callerinfo.Token, rec *callerinfo.Record) {
		n.Post(callerInfoComplete{token: token.ID, connID: connID, rec: rec})
	}
}

func (n *Notifier) onCallerInfoComplete(e callerInfoComplete) {
	n.queryMu.Lock()
	inFlight := n.queryState == queryQuerying && n.queryToken == e.token
	if inFlight {
		n.queryState = queryReady
		n.queryConnID = ""
		n.queryToken = ""
	}
	n.queryMu.Unlock()

	if !inFlight {
		// the ring-now timeout already handled this connection; the
		// result still warmed the cache
		n.log.Debug("late caller info result ignored")
		return
	}
	if n.ringtoneTimer != nil {
		n.ringtoneTimer.Stop()
		n.ringtoneTimer = nil
	}
	n.resolveRing(e.connID, e.rec, "query")
}

func (n *Notifier) onRingtoneQueryTimeout(connID string) {
	n.queryMu.Lock()
	pending := n.queryState == queryQuerying && n.queryConnID == connID
	if pending {
		n.queryState = queryReady
		n.queryConnID = ""
		n.queryToken = ""
	}
	n.queryMu.Unlock()

	if !pending {
		return
	}
	n.log.Warnf("caller info query timed out after %s, ringing with fallback", n.cfg.RingtoneQueryTimeout)

	// fallback cache may hold a previously-seen custom ringtone or
	// send-to-voicemail decision; stale data beats not ringing
	var rec *callerinfo.Record
	if live, ok := n.phone.Snapshot().RingingConn(); ok && live.ID == connID {
		rec, _ = n.info.Cached(live.Address)
	}
	n.resolveRing(connID, rec, "timeout")
}

// resolveRing is the single ring continuation: every path (cache hit,
// query completion, timeout fallback) funnels through here exactly once
// per ringing connection.
func (n *Notifier) resolveRing(connID string, rec *callerinfo.Record, source string) {
	log := n.log.WithField("conn", connID).WithField("source", source)

	// re-validate at decision time; never act on a stale token
	live, ok := n.phone.Snapshot().RingingConn()
	if !ok || live.ID != connID {
		log.Debug("connection no longer ringing at ring decision")
		return
	}

	if rec != nil && rec.SendToVoicemail {
		log.Info("caller flagged send-to-voicemail, hanging up without ringing")
		if err := n.phone.HangupRinging(connID); err != nil {
			log.WithError(err).Warn("send-to-voicemail hangup failed")
		}
		return
	}

	if rec != nil && rec.CustomRingtoneURI != "" {
		n.ringer.SetCustomRingtoneURI(rec.CustomRingtoneURI)
	}
	n.ringer.Ring()
}

func (n *Notifier) onIncomingRingRepeat() {
	if _, ok := n.phone.Snapshot().RingingConn(); !ok {
		return
	}
	// repeat events re-invoke Ring; a ringer that is already ringing
	// treats this as a no-op
	if n.ringer.IsRinging() {
		n.ringer.Ring()
	}
}

// ringAllowed applies the global incoming-call suppression policy.
// Emergency-callback mode always allows ringing.
func (n *Notifier) ringAllowed(snap telephony.Snapshot) bool {
	if snap.InEmergencyCallback {
		return true
	}
	if !snap.VoiceCapable {
		n.log.Debug("device not voice capable")
		return false
	}
	if !snap.Provisioned {
		n.log.Debug("device not provisioned")
		return false
	}
	if snap.OtaCallActive {
		n.log.Debug("OTA provisioning call active")
		return false
	}
	return true
}
