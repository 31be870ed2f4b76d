package telephony

import (
	"strings"
	"time"
)

// Presentation is the network policy for showing the caller's number.
type Presentation int

const (
	PresentationAllowed Presentation = iota
	PresentationRestricted
	PresentationUnknown
	PresentationPayphone
)

func (p Presentation) String() string {
	switch p {
	case PresentationAllowed:
		return "allowed"
	case PresentationRestricted:
		return "restricted"
	case PresentationUnknown:
		return "unknown"
	}
	return "payphone"
}

// Connection is one leg of a call, observed from the radio layer.
// Connections are delivered as immutable snapshots; the live state is
// re-read through Phone.Snapshot when a decision must not act on stale data.
type Connection struct {
	ID           string
	Address      string
	Presentation Presentation
	Incoming     bool
	State        CallState
	Cause        DisconnectCause
	// IsOTA marks the CDMA over-the-air provisioning call.
	IsOTA        bool
	CreateTime   time.Time
	ConnectTime  time.Time
	Duration     time.Duration
}

// Snapshot is the aggregate phone state delivered alongside events and
// queryable on demand. It is a value; holding one never blocks the radio.
type Snapshot struct {
	State             PhoneState
	Type              PhoneType
	Ringing           *Connection
	Foreground        *Connection
	CdmaCallState     CdmaCallState
	PrevCdmaCallState CdmaCallState
	InEmergencyCallback bool
	OtaCallActive       bool
	Provisioned         bool
	VoiceCapable        bool
	MessageWaiting      bool
	CallForwarding      bool
}

// RingingConn returns the ringing connection if one exists and is still
// in a ringing state.
func (s Snapshot) RingingConn() (*Connection, bool) {
	if s.Ringing != nil && s.Ringing.State.IsRinging() {
		return s.Ringing, true
	}
	return nil, false
}

// Phone is the command surface back into the telephony runtime. It is
// implemented by the RIL bridge client; all methods are safe to call from
// the notifier goroutine.
type Phone interface {
	// Snapshot returns the current aggregate state.
	Snapshot() Snapshot
	// HangupRinging rejects or hangs up the ringing connection with the
	// given ID. Returns an error if the connection is gone.
	HangupRinging(connID string) error
	// RejectCdmaCallWaiting tells the runtime to drop the waiting call.
	RejectCdmaCallWaiting() error
	// Dial places an outgoing call; used only by the auto-redial path.
	Dial(address string) error
	// ResendMute re-applies the current mute state to the audio path.
	ResendMute() error
}

// emergency numbers recognized locally; the platform list is consulted
// through the RIL on real devices, this covers the universal set.
var emergencyNumbers = map[string]bool{
	"911": true,
	"112": true,
	"999": true,
	"000": true,
	"110": true,
	"118": true,
	"119": true,
	"08":  true,
}

// IsEmergencyNumber reports whether address dials out to an emergency
// service, ignoring any dialing prefix separators.
func IsEmergencyNumber(address string) bool {
	n := strings.TrimSpace(address)
	if i := strings.IndexAny(n, ",;"); i >= 0 {
		n = n[:i]
	}
	return emergencyNumbers[n]
}
