// Package notifier is the call event notification state machine: it
// consumes a totally ordered stream of call-lifecycle events and drives
// the ringer, tone player, audio routing, notifications and the call log.
package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/audio"
	"github.com/telephonyd/callnotifier/internal/callerinfo"
	"github.com/telephonyd/callnotifier/internal/calllog"
	"github.com/telephonyd/callnotifier/internal/notification"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

// Ringer is the slice of the ringer the notifier drives.
type Ringer interface {
	Ring()
	Stop()
	Silence()
	Restart()
	IsRinging() bool
	SetCustomRingtoneURI(uri string)
}

// TonePlayer is the slice of the tone player the notifier drives.
// Implemented by *tone.Player.
type TonePlayer interface {
	Play(kind tone.Kind) *tone.Handle
	StopLane(lane tone.Lane) bool
	Playing(lane tone.Lane) bool
	OnFinished(f tone.CompletionFunc)
}

// CallerInfo is the lookup coordinator surface. Implemented by
// *callerinfo.Service.
type CallerInfo interface {
	Lookup(number string, listener callerinfo.Listener) callerinfo.Token
	Cached(number string) (*callerinfo.Record, bool)
	LoadPhoto(rec *callerinfo.Record, done func(photo []byte))
}

// Vibrator drives the emergency-call vibration. Shares the interface with
// the ringer's vibrator device.
type Vibrator interface {
	Vibrate(d time.Duration) error
	Cancel()
}

// EmergencyToneMode is the device setting for emergency-call alerting:
// tone or vibration, never both.
type EmergencyToneMode int

const (
	EmergencyToneOff EmergencyToneMode = iota
	EmergencyToneAlert
	EmergencyToneVibrate
)

// Config sets the notifier's policy knobs and timer windows.
type Config struct {
	// AutoRetry enables the CDMA one-shot auto-redial after a dropped
	// outgoing call.
	AutoRetry bool
	// EmergencyTone selects the emergency dial alert.
	EmergencyTone EmergencyToneMode

	// RingtoneQueryTimeout bounds the caller-info query before the
	// ring-now fallback fires. Default 500ms.
	RingtoneQueryTimeout time.Duration
	// CallWaitingDisplayTimeout is the CDMA call-waiting caller-info
	// display window. Default 20s.
	CallWaitingDisplayTimeout time.Duration
	// CallWaitingAddCallTimeout re-enables the add-call menu. Default 30s.
	CallWaitingAddCallTimeout time.Duration
	// DisplayInfoTimeout dismisses a network display record. Default 2s.
	DisplayInfoTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.RingtoneQueryTimeout == 0 {
		c.RingtoneQueryTimeout = 500 * time.Millisecond
	}
	if c.CallWaitingDisplayTimeout == 0 {
		c.CallWaitingDisplayTimeout = 20 * time.Second
	}
	if c.CallWaitingAddCallTimeout == 0 {
		c.CallWaitingAddCallTimeout = 30 * time.Second
	}
	if c.DisplayInfoTimeout == 0 {
		c.DisplayInfoTimeout = 2 * time.Second
	}
}

type queryState int

const (
	queryReady queryState = iota
	queryQuerying
)

// Notifier serializes all call-related events into one consumer goroutine.
// Construct with New, run with Run; Post feeds events from any goroutine.
type Notifier struct {
	phone    telephony.Phone
	ringer   Ringer
	tones    TonePlayer
	info     CallerInfo
	audio    audio.Router
	vibrator Vibrator
	notify   notification.Manager
	store    calllog.Store
	cfg      Config
	log      *logrus.Entry

	events  chan Event
	stopped chan struct{}

	// caller-info query gate; the only state shared with another
	// execution context (the query completes off-queue and rendezvous
	// back in through callerInfoComplete)
	queryMu     sync.Mutex
	queryState  queryState
	queryConnID string
	queryToken  string

	// run-loop-only state
	ringtoneTimer    *time.Timer
	cwDisplayTimer   *time.Timer
	cwAddCallTimer   *time.Timer
	displayInfoTimer *time.Timer
	cwInfo           *telephony.CdmaWaitingInfo
	cwTimedOut       bool
	fgWasDialing     bool
	emergencyActive  EmergencyToneMode
	emergencyHandle  *tone.Handle
	emergencyCancel  chan struct{}

	// readable from other goroutines through the exposed accessors
	voicePrivacy      atomic.Bool
	isCdmaRedial      atomic.Bool
	cwAddCallDisabled atomic.Bool
	prevCdmaState     atomic.Int32
}

// New wires a Notifier. All collaborators are required except store,
// which may be nil when call logging is disabled.
func New(phone telephony.Phone, r Ringer, tones TonePlayer, info CallerInfo,
	router audio.Router, vib Vibrator, notify notification.Manager,
	store calllog.Store, cfg Config, log *logrus.Entry) *Notifier {

	cfg.applyDefaults()
	n := &Notifier{
		phone:    phone,
		ringer:   r,
		tones:    tones,
		info:     info,
		audio:    router,
		vibrator: vib,
		notify:   notify,
		store:    store,
		cfg:      cfg,
		log:      log,
		events:   make(chan Event, 64),
		stopped:  make(chan struct{}),
	}
	tones.OnFinished(func(kind tone.Kind, completed bool) {
		n.Post(toneFinished{kind: kind, completed: completed})
	})
	return n
}

// Post enqueues an event. Safe from any goroutine; events posted after
// Run returned are dropped.
func (n *Notifier) Post(ev Event) {
	select {
	case n.events <- ev:
	case <-n.stopped:
		n.log.Debugf("notifier stopped, dropping %T", ev)
	}
}

// Run consumes events until ctx is cancelled. Must be called exactly once.
func (n *Notifier) Run(ctx context.Context) error {
	defer close(n.stopped)
	defer n.cancelTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-n.events:
			n.dispatch(ev)
		}
	}
}

func (n *Notifier) dispatch(ev Event) {
	if rc, ok := ev.(resultCarrier); ok {
		if err := rc.resultErr(); err != nil {
			n.log.WithError(err).Warnf("%T carried a failed result, skipping", ev)
			return
		}
	}

	switch e := ev.(type) {
	case NewRingingConnection:
		n.onNewRingingConnection(e.Conn)
	case IncomingRingRepeat:
		n.onIncomingRingRepeat()
	case PhoneStateChanged:
		n.onPhoneStateChanged()
	case Disconnect:
		n.onDisconnect(e.Conn)
	case UnknownConnectionAppeared:
		n.log.WithField("conn", e.Conn.ID).Info("unknown connection appeared")
	case CustomRingtoneQueryTimeout:
		n.onRingtoneQueryTimeout(e.ConnID)
	case callerInfoComplete:
		n.onCallerInfoComplete(e)
	case MessageWaitingChanged:
		n.logNotifyErr(n.notify.UpdateMessageWaiting(context.Background(), e.On))
	case CallForwardingChanged:
		n.logNotifyErr(n.notify.UpdateCallForwarding(context.Background(), e.On))
	case CdmaCallWaiting:
		n.onCdmaCallWaiting(e.Info)
	case CdmaCallWaitingReject:
		n.onCdmaCallWaitingReject()
	case cdmaCallWaitingDisplayTimeout:
		n.onCdmaCallWaitingDisplayTimeout()
	case cdmaCallWaitingAddCallTimeout:
		n.cwAddCallDisabled.Store(false)
		n.log.Debug("add-call menu re-enabled")
	case DisplayInfoRec:
		n.onDisplayInfo(e.Info)
	case displayInfoDismiss:
		n.logNotifyErr(n.notify.ClearDisplayInfo(context.Background()))
	case SignalInfoRec:
		n.onSignalInfo(e.Info)
	case EnhancedVoicePrivacy:
		n.onVoicePrivacy(e.On)
	case RingbackTone:
		n.onRingbackTone(e.On)
	case ResendMute:
		n.onResendMute()
	case RadioTechnologyChanged:
		n.onRadioTechnologyChanged()
	case toneFinished:
		n.onToneFinished(e)
	case missedCallInfoComplete:
		n.onMissedCallInfoComplete(e)
	case missedCallPhotoLoaded:
		n.logNotifyErr(n.notify.NotifyMissedCall(context.Background(), e.mc))
	default:
		n.log.Warnf("unhandled event %T", ev)
	}
}

// --- exposed synchronous API (UI / call-control layer) ---

// IsRinging reports whether the ringer is active.
func (n *Notifier) IsRinging() bool {
	return n.ringer.IsRinging()
}

// SilenceRinger mutes the current ring without rejecting the call.
func (n *Notifier) SilenceRinger() {
	n.ringer.Silence()
}

// RestartRinger resumes ringing after SilenceRinger.
func (n *Notifier) RestartRinger() {
	n.ringer.Restart()
}

// StopSignalInfoTone stops the in-progress signal-info tone, if any.
func (n *Notifier) StopSignalInfoTone() {
	n.tones.StopLane(tone.LaneSignalInfo)
}

// SendCdmaCallWaitingReject asks the notifier to drop the pending CDMA
// waiting call, same path the display timeout takes.
func (n *Notifier) SendCdmaCallWaitingReject() {
	n.Post(CdmaCallWaitingReject{})
}

// PreviousCdmaCallState returns the CDMA call state before the last
// transition.
func (n *Notifier) PreviousCdmaCallState() telephony.CdmaCallState {
	return telephony.CdmaCallState(n.prevCdmaState.Load())
}

// VoicePrivacyState reports whether enhanced voice privacy is on.
func (n *Notifier) VoicePrivacyState() bool {
	return n.voicePrivacy.Load()
}

// IsCdmaRedialCall reports whether the current outgoing call is an
// automatic redial attempt.
func (n *Notifier) IsCdmaRedialCall() bool {
	return n.isCdmaRedial.Load()
}

// CanAddCall reports whether the add-call action is currently available.
// It is held off for a fixed window after a CDMA call-waiting alert.
func (n *Notifier) CanAddCall() bool {
	return !n.cwAddCallDisabled.Load()
}

// UpdateRegistrationsAfterRadioTechnologyChange resets per-technology
// bookkeeping after the phone object switched radio technology.
func (n *Notifier) UpdateRegistrationsAfterRadioTechnologyChange() {
	n.Post(RadioTechnologyChanged{})
}

// --- shared helpers ---

func (n *Notifier) logNotifyErr(err error) {
	if err != nil {
		n.log.WithError(err).Warn("notification update failed")
	}
}

func (n *Notifier) logStoreErr(err error) {
	if err != nil {
		n.log.WithError(err).Warn("call log write failed")
	}
}

// resetAudioAfterDisconnect tears audio routing back to normal once no
// call remains and no disconnect tone is pending.
func (n *Notifier) resetAudioAfterDisconnect() {
	n.audio.SetBluetoothSco(false)
	n.audio.SetSpeaker(false)
	n.audio.SetMode(audio.ModeNormal)
	n.logNotifyErr(n.notify.UpdateSpeaker(context.Background(), false))
	n.log.Debug("audio routing reset after disconnect")
}

func (n *Notifier) onToneFinished(e toneFinished) {
	spec, ok := tone.Specs[e.kind]
	if !ok || spec.Lane != tone.LaneDisconnect {
		return
	}
	if n.phone.Snapshot().State == telephony.PhoneIdle {
		n.resetAudioAfterDisconnect()
	}
}

func (n *Notifier) onRadioTechnologyChanged() {
	n.log.Info("radio technology changed, resetting registrations")
	n.cancelCallWaitingTimers()
	n.cwInfo = nil
	n.cwTimedOut = false
	n.cwAddCallDisabled.Store(false)
	n.isCdmaRedial.Store(false)
	n.fgWasDialing = false
	n.queryMu.Lock()
	n.queryState = queryReady
	n.queryConnID = ""
	n.queryToken = ""
	n.queryMu.Unlock()
}

func (n *Notifier) cancelTimers() {
	if n.ringtoneTimer != nil {
		n.ringtoneTimer.Stop()
	}
	if n.displayInfoTimer != nil {
		n.displayInfoTimer.Stop()
	}
	n.cancelCallWaitingTimers()
	n.stopEmergencyAlert()
}

func (n *Notifier) cancelCallWaitingTimers() {
	if n.cwDisplayTimer != nil {
		n.cwDisplayTimer.Stop()
		n.cwDisplayTimer = nil
	}
	if n.cwAddCallTimer != nil {
		n.cwAddCallTimer.Stop()
		n.cwAddCallTimer = nil
	}
}
