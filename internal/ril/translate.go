package ril

import (
	"errors"

	"github.com/telephonyd/callnotifier/internal/notifier"
	"github.com/telephonyd/callnotifier/internal/telephony"
)

// resultError extracts the async-result exception the bridge attaches to
// failed radio notifications.
func resultError(evt Event) error {
	if msg := evt.Get("Error"); msg != "" {
		return errors.New(msg)
	}
	return nil
}

// Translate maps a wire event to its notifier event. Returns false for
// responses and event types the notifier does not consume.
func Translate(evt Event) (notifier.Event, bool) {
	if evt.IsResponse() {
		return nil, false
	}

	switch evt.Type() {
	case "NewRingingConnection":
		return notifier.NewRingingConnection{Conn: connFromEvent(evt), Err: resultError(evt)}, true
	case "IncomingRingRepeat":
		return notifier.IncomingRingRepeat{}, true
	case "PhoneStateChanged":
		return notifier.PhoneStateChanged{}, true
	case "Disconnect":
		return notifier.Disconnect{Conn: connFromEvent(evt)}, true
	case "UnknownConnection":
		return notifier.UnknownConnectionAppeared{Conn: connFromEvent(evt)}, true
	case "MessageWaiting":
		return notifier.MessageWaitingChanged{On: evt.GetBool("On")}, true
	case "CallForwarding":
		return notifier.CallForwardingChanged{On: evt.GetBool("On")}, true
	case "CdmaCallWaiting":
		return notifier.CdmaCallWaiting{
			Info: telephony.CdmaWaitingInfo{
				Address:      evt.Get("Address"),
				Presentation: presentations[evt.Get("Presentation")],
			},
			Err: resultError(evt),
		}, true
	case "DisplayInfo":
		return notifier.DisplayInfoRec{
			Info: telephony.DisplayInfo{Text: evt.Get("Text")},
			Err:  resultError(evt),
		}, true
	case "SignalInfo":
		return notifier.SignalInfoRec{
			Info: telephony.SignalInfo{
				SignalType: evt.GetInt("SignalType"),
				AlertPitch: evt.GetInt("AlertPitch"),
				Signal:     evt.GetInt("Signal"),
				IsPresent:  evt.GetBool("Present"),
			},
			Err: resultError(evt),
		}, true
	case "VoicePrivacy":
		return notifier.EnhancedVoicePrivacy{On: evt.GetBool("On"), Err: resultError(evt)}, true
	case "RingbackTone":
		return notifier.RingbackTone{On: evt.GetBool("On")}, true
	case "ResendMute":
		return notifier.ResendMute{}, true
	case "RadioTechnologyChanged":
		return notifier.RadioTechnologyChanged{}, true
	}
	return nil, false
}
