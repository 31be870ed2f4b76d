package telephony

// CallState is the lifecycle state of a call as reported by the radio layer.
type CallState int

const (
	StateIdle CallState = iota
	StateIncoming
	StateWaiting
	StateDialing
	StateAlerting
	StateActive
	StateHolding
	StateDisconnected
)

var callStateNames = map[CallState]string{
	StateIdle:         "idle",
	StateIncoming:     "incoming",
	StateWaiting:      "waiting",
	StateDialing:      "dialing",
	StateAlerting:     "alerting",
	StateActive:       "active",
	StateHolding:      "holding",
	StateDisconnected: "disconnected",
}

func (s CallState) String() string {
	if n, ok := callStateNames[s]; ok {
		return n
	}
	return "unknown"
}

// IsRinging reports whether the state is an incoming-ring state.
func (s CallState) IsRinging() bool {
	return s == StateIncoming || s == StateWaiting
}

// IsAlive reports whether the call is still in progress in any form.
func (s CallState) IsAlive() bool {
	switch s {
	case StateIdle, StateDisconnected:
		return false
	}
	return true
}

// PhoneState is the aggregate state across all calls on the device.
type PhoneState int

const (
	PhoneIdle PhoneState = iota
	PhoneRinging
	PhoneOffhook
)

func (s PhoneState) String() string {
	switch s {
	case PhoneIdle:
		return "idle"
	case PhoneRinging:
		return "ringing"
	case PhoneOffhook:
		return "offhook"
	}
	return "unknown"
}

// PhoneType identifies the radio technology behind the active phone object.
type PhoneType int

const (
	PhoneTypeNone PhoneType = iota
	PhoneTypeGSM
	PhoneTypeCDMA
	PhoneTypeSIP
)

func (t PhoneType) String() string {
	switch t {
	case PhoneTypeGSM:
		return "gsm"
	case PhoneTypeCDMA:
		return "cdma"
	case PhoneTypeSIP:
		return "sip"
	}
	return "none"
}

// CdmaCallState mirrors the call-control layer's CDMA phone call state.
// The notifier reads it to drive tone decisions; its transitions are owned
// by the call-control layer.
type CdmaCallState int

const (
	CdmaIdle CdmaCallState = iota
	CdmaSingleActive
	CdmaThrwayActive
	CdmaConfCall
)

func (s CdmaCallState) String() string {
	switch s {
	case CdmaSingleActive:
		return "single_active"
	case CdmaThrwayActive:
		return "thrway_active"
	case CdmaConfCall:
		return "conf_call"
	}
	return "idle"
}
