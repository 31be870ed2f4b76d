package notifier

import (
	"github.com/telephonyd/callnotifier/internal/callerinfo"
	"github.com/telephonyd/callnotifier/internal/notification"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

// Event is the closed set of inputs the notifier consumes. All events,
// external and internal, go through the same serialized queue; processing
// order is arrival order.
type Event interface {
	event()
}

// resultCarrier is implemented by events whose radio-layer delivery can
// carry an exception. A failed result is logged and its success path
// skipped, never propagated.
type resultCarrier interface {
	resultErr() error
}

// NewRingingConnection reports a fresh incoming connection.
type NewRingingConnection struct {
	Conn telephony.Connection
	Err  error
}

// IncomingRingRepeat asks to repeat the ring pattern for the connection
// that is already ringing.
type IncomingRingRepeat struct{}

// PhoneStateChanged reports an aggregate call-state transition.
type PhoneStateChanged struct{}

// Disconnect reports that a connection ended.
type Disconnect struct {
	Conn telephony.Connection
}

// UnknownConnectionAppeared reports a connection the notifier never saw
// ring or dial.
type UnknownConnectionAppeared struct {
	Conn telephony.Connection
}

// CustomRingtoneQueryTimeout is the internal 500 ms ring-now timer.
type CustomRingtoneQueryTimeout struct {
	ConnID string
}

// MessageWaitingChanged reports the network MWI indicator.
type MessageWaitingChanged struct {
	On bool
}

// CallForwardingChanged reports the network CFI indicator.
type CallForwardingChanged struct {
	On bool
}

// CdmaCallWaiting reports an incoming CDMA call-waiting alert.
type CdmaCallWaiting struct {
	Info telephony.CdmaWaitingInfo
	Err  error
}

// CdmaCallWaitingReject is posted by the UI (or the display timeout) to
// drop the waiting call.
type CdmaCallWaitingReject struct{}

// DisplayInfoRec carries a CDMA network display record.
type DisplayInfoRec struct {
	Info telephony.DisplayInfo
	Err  error
}

// SignalInfoRec carries a CDMA network signal-information record.
type SignalInfoRec struct {
	Info telephony.SignalInfo
	Err  error
}

// EnhancedVoicePrivacy reports the voice-privacy state toggling.
type EnhancedVoicePrivacy struct {
	On  bool
	Err error
}

// RingbackTone asks to start or stop the locally generated ring-back tone.
type RingbackTone struct {
	On bool
}

// ResendMute asks to re-apply the current mute state to the audio path.
type ResendMute struct{}

// RadioTechnologyChanged is posted after the phone object switched radio
// technology; per-technology bookkeeping is reset.
type RadioTechnologyChanged struct{}

// internal timer and rendezvous events

type cdmaCallWaitingDisplayTimeout struct{}

type cdmaCallWaitingAddCallTimeout struct{}

type displayInfoDismiss struct{}

type toneFinished struct {
	kind      tone.Kind
	completed bool
}

type callerInfoComplete struct {
	token  string
	connID string
	rec    *callerinfo.Record
}

type missedCallInfoComplete struct {
	mc  notification.MissedCall
	rec *callerinfo.Record
}

type missedCallPhotoLoaded struct {
	mc notification.MissedCall
}

func (NewRingingConnection) event()        {}
func (IncomingRingRepeat) event()          {}
func (PhoneStateChanged) event()           {}
func (Disconnect) event()                  {}
func (UnknownConnectionAppeared) event()   {}
func (CustomRingtoneQueryTimeout) event()  {}
func (MessageWaitingChanged) event()       {}
func (CallForwardingChanged) event()       {}
func (CdmaCallWaiting) event()             {}
func (CdmaCallWaitingReject) event()       {}
func (DisplayInfoRec) event()              {}
func (SignalInfoRec) event()               {}
func (EnhancedVoicePrivacy) event()        {}
func (RingbackTone) event()                {}
func (ResendMute) event()                  {}
func (RadioTechnologyChanged) event()      {}
func (cdmaCallWaitingDisplayTimeout) event() {}
func (cdmaCallWaitingAddCallTimeout) event() {}
func (displayInfoDismiss) event()          {}
func (toneFinished) event()                {}
func (callerInfoComplete) event()          {}
func (missedCallInfoComplete) event()      {}
func (missedCallPhotoLoaded) event()       {}

func (e NewRingingConnection) resultErr() error  { return e.Err }
func (e CdmaCallWaiting) resultErr() error       { return e.Err }
func (e DisplayInfoRec) resultErr() error        { return e.Err }
func (e SignalInfoRec) resultErr() error         { return e.Err }
func (e EnhancedVoicePrivacy) resultErr() error  { return e.Err }
