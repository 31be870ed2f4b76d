package ril

import (
	"time"

	"github.com/telephonyd/callnotifier/internal/telephony"
)

var callStates = map[string]telephony.CallState{
	"idle":         telephony.StateIdle,
	"incoming":     telephony.StateIncoming,
	"waiting":      telephony.StateWaiting,
	"dialing":      telephony.StateDialing,
	"alerting":     telephony.StateAlerting,
	"active":       telephony.StateActive,
	"holding":      telephony.StateHolding,
	"disconnected": telephony.StateDisconnected,
}

var phoneStates = map[string]telephony.PhoneState{
	"idle":    telephony.PhoneIdle,
	"ringing": telephony.PhoneRinging,
	"offhook": telephony.PhoneOffhook,
}

var phoneTypes = map[string]telephony.PhoneType{
	"gsm":  telephony.PhoneTypeGSM,
	"cdma": telephony.PhoneTypeCDMA,
	"sip":  telephony.PhoneTypeSIP,
}

var cdmaStates = map[string]telephony.CdmaCallState{
	"idle":          telephony.CdmaIdle,
	"single_active": telephony.CdmaSingleActive,
	"thrway_active": telephony.CdmaThrwayActive,
	"conf_call":     telephony.CdmaConfCall,
}

var presentations = map[string]telephony.Presentation{
	"allowed":    telephony.PresentationAllowed,
	"restricted": telephony.PresentationRestricted,
	"unknown":    telephony.PresentationUnknown,
	"payphone":   telephony.PresentationPayphone,
}

// connFromEvent builds the connection the event is about from the flat
// Conn* headers.
func connFromEvent(evt Event) telephony.Connection {
	return telephony.Connection{
		ID:           evt.Get("ConnID"),
		Address:      evt.Get("Address"),
		Presentation: presentations[evt.Get("Presentation")],
		Incoming:     evt.GetBool("Incoming"),
		State:        callStates[evt.Get("State")],
		Cause:        telephony.ParseCause(evt.Get("Cause")),
		IsOTA:        evt.GetBool("OTA"),
		CreateTime:   evt.GetTime("CreateTime"),
		Duration:     time.Duration(evt.GetInt("DurationMs")) * time.Millisecond,
	}
}

// SnapshotFromEvent extracts the aggregate phone snapshot the bridge
// piggybacks on every event. Returns false when the event carries none.
func SnapshotFromEvent(evt Event) (telephony.Snapshot, bool) {
	if !evt.Has("PhoneState") {
		return telephony.Snapshot{}, false
	}
	snap := telephony.Snapshot{
		State:               phoneStates[evt.Get("PhoneState")],
		Type:                phoneTypes[evt.Get("PhoneType")],
		CdmaCallState:       cdmaStates[evt.Get("CdmaState")],
		PrevCdmaCallState:   cdmaStates[evt.Get("PrevCdmaState")],
		InEmergencyCallback: evt.GetBool("Ecm"),
		OtaCallActive:       evt.GetBool("OtaActive"),
		Provisioned:         evt.GetBool("Provisioned"),
		VoiceCapable:        evt.GetBool("VoiceCapable"),
		MessageWaiting:      evt.GetBool("MessageWaiting"),
		CallForwarding:      evt.GetBool("CallForwarding"),
	}
	if sub := evt.Sub("Ringing"); sub.Has("ID") {
		snap.Ringing = &telephony.Connection{
			ID:           sub.Get("ID"),
			Address:      sub.Get("Address"),
			Presentation: presentations[sub.Get("Presentation")],
			Incoming:     true,
			State:        callStates[sub.Get("State")],
		}
	}
	if sub := evt.Sub("Fg"); sub.Has("ID") {
		snap.Foreground = &telephony.Connection{
			ID:      sub.Get("ID"),
			Address: sub.Get("Address"),
			State:   callStates[sub.Get("State")],
			IsOTA:   sub.GetBool("OTA"),
		}
	}
	return snap, true
}
