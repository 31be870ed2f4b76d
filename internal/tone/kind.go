// Package tone drives the platform tone generator: a fixed table of tone
// kinds and the player state machine that holds at most one generator per
// lane.
package tone

import (
	"time"

	"github.com/telephonyd/callnotifier/internal/audio"
)

// Kind names a tone the notifier can request.
type Kind int

const (
	KindNone Kind = iota
	KindRingBack
	KindBusy
	KindCongestion
	KindCallEnded
	KindOtaCallEnded
	KindCallWaiting
	KindReorder
	KindIntercept
	KindCdmaDrop
	KindOutOfService
	KindUnobtainableNumber
	KindRedial
	KindVoicePrivacy
	KindEmergencyAlert

	// CDMA network signal-info tones (selected by SignalInfo records).
	KindSignalNetworkBusy
	KindSignalAbbrReorder
	KindSignalAbbrIntercept
	KindSignalCallGuard
	KindSignalAbbrAlert
	KindSignalPitchLow
	KindSignalPitchMed
	KindSignalPitchHigh
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	KindRingBack:            "ring_back",
	KindBusy:                "busy",
	KindCongestion:          "congestion",
	KindCallEnded:           "call_ended",
	KindOtaCallEnded:        "ota_call_ended",
	KindCallWaiting:         "call_waiting",
	KindReorder:             "reorder",
	KindIntercept:           "intercept",
	KindCdmaDrop:            "cdma_drop",
	KindOutOfService:        "out_of_service",
	KindUnobtainableNumber:  "unobtainable_number",
	KindRedial:              "redial",
	KindVoicePrivacy:        "voice_privacy",
	KindEmergencyAlert:      "emergency_alert",
	KindSignalNetworkBusy:   "signal_network_busy",
	KindSignalAbbrReorder:   "signal_abbr_reorder",
	KindSignalAbbrIntercept: "signal_abbr_intercept",
	KindSignalCallGuard:     "signal_call_guard",
	KindSignalAbbrAlert:     "signal_abbr_alert",
	KindSignalPitchLow:      "signal_pitch_low",
	KindSignalPitchMed:      "signal_pitch_med",
	KindSignalPitchHigh:     "signal_pitch_high",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Lane is a logical exclusive-use channel for one category of tone.
// At most one generator is held per lane; starting a tone on a lane stops
// whatever was playing there first.
type Lane int

const (
	LaneDisconnect Lane = iota
	LaneCallWaiting
	LaneRingBack
	LaneSignalInfo
	LaneInCall
	LaneEmergency
)

func (l Lane) String() string {
	switch l {
	case LaneDisconnect:
		return "disconnect"
	case LaneCallWaiting:
		return "call_waiting"
	case LaneRingBack:
		return "ring_back"
	case LaneSignalInfo:
		return "signal_info"
	case LaneInCall:
		return "in_call"
	}
	return "emergency"
}

// Relative volume classes. Fixed per kind, never per call.
const (
	VolumeEmergency = 100
	VolumeHigh      = 80
	VolumeLow       = 50
)

// Policy gates a tone on the device ringer mode. Only applied in CDMA
// mode; the table is asymmetric on purpose and preserved as found.
type Policy int

const (
	// PolicyAlways plays regardless of ringer mode.
	PolicyAlways Policy = iota
	// PolicyNotSilent plays unless the ringer mode is silent.
	PolicyNotSilent
	// PolicyNotSilentNotVibrate plays only in normal ringer mode.
	PolicyNotSilentNotVibrate
)

// Allows reports whether the policy permits playing under mode.
func (p Policy) Allows(mode audio.RingerMode) bool {
	switch p {
	case PolicyNotSilent:
		return mode != audio.RingerModeSilent
	case PolicyNotSilentNotVibrate:
		return mode == audio.RingerModeNormal
	}
	return true
}

// Spec describes how a kind plays: volume class, duration (0 means until
// explicitly stopped), lane, and the CDMA ringer-mode policy.
type Spec struct {
	Volume   int
	Duration time.Duration
	Lane     Lane
	Policy   Policy
}

// Specs is the fixed per-kind table.
var Specs = map[Kind]Spec{
	KindRingBack:            {Volume: VolumeHigh, Duration: 0, Lane: LaneRingBack},
	KindBusy:                {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneDisconnect},
	KindCongestion:          {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneDisconnect},
	KindCallEnded:           {Volume: VolumeLow, Duration: 200 * time.Millisecond, Lane: LaneDisconnect},
	KindOtaCallEnded:        {Volume: VolumeLow, Duration: 200 * time.Millisecond, Lane: LaneDisconnect},
	KindCallWaiting:         {Volume: VolumeLow, Duration: 0, Lane: LaneCallWaiting},
	KindReorder:             {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneDisconnect, Policy: PolicyNotSilent},
	KindIntercept:           {Volume: VolumeLow, Duration: 500 * time.Millisecond, Lane: LaneDisconnect, Policy: PolicyNotSilent},
	KindCdmaDrop:            {Volume: VolumeLow, Duration: 2 * time.Second, Lane: LaneDisconnect, Policy: PolicyNotSilent},
	KindOutOfService:        {Volume: VolumeLow, Duration: 2 * time.Second, Lane: LaneDisconnect, Policy: PolicyNotSilent},
	KindUnobtainableNumber:  {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneDisconnect},
	KindRedial:              {Volume: VolumeLow, Duration: 5 * time.Second, Lane: LaneInCall},
	KindVoicePrivacy:        {Volume: VolumeHigh, Duration: 5 * time.Second, Lane: LaneInCall},
	KindEmergencyAlert:      {Volume: VolumeEmergency, Duration: 0, Lane: LaneEmergency},
	KindSignalNetworkBusy:   {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilent},
	KindSignalAbbrReorder:   {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilent},
	KindSignalAbbrIntercept: {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilent},
	KindSignalCallGuard:     {Volume: VolumeLow, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilentNotVibrate},
	KindSignalAbbrAlert:     {Volume: VolumeHigh, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilentNotVibrate},
	KindSignalPitchLow:      {Volume: VolumeHigh, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilentNotVibrate},
	KindSignalPitchMed:      {Volume: VolumeHigh, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilentNotVibrate},
	KindSignalPitchHigh:     {Volume: VolumeHigh, Duration: 4 * time.Second, Lane: LaneSignalInfo, Policy: PolicyNotSilentNotVibrate},
}
