// Package notification renders the notifier's decisions as status
// notifications. The daemon publishes them as JSON over MQTT; the UI layer
// that draws them is out of scope.
package notification

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/telephony"
)

// MissedCall carries everything the missed-call notification shows.
type MissedCall struct {
	Name         string
	Number       string
	Presentation telephony.Presentation
	Label        string
	Photo        []byte
	Time         time.Time
}

// Manager is the notification surface the notifier drives.
type Manager interface {
	// NotifyMissedCall raises (or re-issues, keyed by MissedCall.Time)
	// the missed-call notification.
	NotifyMissedCall(ctx context.Context, mc MissedCall) error
	// UpdateMessageWaiting reflects the voicemail MWI indicator.
	UpdateMessageWaiting(ctx context.Context, on bool) error
	// UpdateCallForwarding reflects the CFI indicator.
	UpdateCallForwarding(ctx context.Context, on bool) error
	// UpdateSpeaker reflects the speakerphone icon.
	UpdateSpeaker(ctx context.Context, on bool) error
	// UpdateMute reflects the mute icon.
	UpdateMute(ctx context.Context, on bool) error
	// ShowDisplayInfo surfaces a CDMA network display record; cleared by
	// ClearDisplayInfo after the dismiss timer.
	ShowDisplayInfo(ctx context.Context, text string) error
	ClearDisplayInfo(ctx context.Context) error
}

// DisplayName resolves the name a notification shows for a caller,
// degrading to generic text when caller info could not be resolved.
func DisplayName(name, number string, presentation telephony.Presentation) string {
	if name != "" {
		return name
	}
	switch presentation {
	case telephony.PresentationRestricted:
		return "Private number"
	case telephony.PresentationPayphone:
		return "Payphone"
	}
	if number != "" {
		return number
	}
	return "Unknown"
}

// MQTTManager publishes notifications to an MQTT broker.
type MQTTManager struct {
	pub    Publisher
	prefix string
	log    *logrus.Entry
}

// NewMQTTManager creates a manager publishing under the given topic prefix.
func NewMQTTManager(pub Publisher, prefix string, log *logrus.Entry) *MQTTManager {
	return &MQTTManager{pub: pub, prefix: prefix, log: log}
}

type missedCallPayload struct {
	Name         string `json:"name"`
	Number       string `json:"number,omitempty"`
	Presentation string `json:"presentation"`
	Label        string `json:"label,omitempty"`
	Photo        string `json:"photo,omitempty"`
	Timestamp    string `json:"timestamp"`
}

type indicatorPayload struct {
	On        bool   `json:"on"`
	Timestamp string `json:"timestamp"`
}

type displayInfoPayload struct {
	Text      string `json:"text,omitempty"`
	Visible   bool   `json:"visible"`
	Timestamp string `json:"timestamp"`
}

func (m *MQTTManager) NotifyMissedCall(ctx context.Context, mc MissedCall) error {
	payload := missedCallPayload{
		Name:         DisplayName(mc.Name, mc.Number, mc.Presentation),
		Presentation: mc.Presentation.String(),
		Label:        mc.Label,
		Timestamp:    mc.Time.UTC().Format(time.RFC3339),
	}
	if mc.Presentation == telephony.PresentationAllowed {
		payload.Number = mc.Number
	}
	if len(mc.Photo) > 0 {
		payload.Photo = base64.StdEncoding.EncodeToString(mc.Photo)
	}

	// topic keyed by the call timestamp so a photo re-issue replaces the
	// earlier retained message instead of duplicating it
	topic := fmt.Sprintf("%s/notify/missed/%d", m.prefix, mc.Time.Unix())
	return m.publish(ctx, topic, payload, true)
}

func (m *MQTTManager) UpdateMessageWaiting(ctx context.Context, on bool) error {
	return m.indicator(ctx, "mwi", on)
}

func (m *MQTTManager) UpdateCallForwarding(ctx context.Context, on bool) error {
	return m.indicator(ctx, "cfi", on)
}

func (m *MQTTManager) UpdateSpeaker(ctx context.Context, on bool) error {
	return m.indicator(ctx, "speaker", on)
}

func (m *MQTTManager) UpdateMute(ctx context.Context, on bool) error {
	return m.indicator(ctx, "mute", on)
}

func (m *MQTTManager) ShowDisplayInfo(ctx context.Context, text string) error {
	topic := m.prefix + "/notify/display_info"
	return m.publish(ctx, topic, displayInfoPayload{
		Text:      text,
		Visible:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, true)
}

func (m *MQTTManager) ClearDisplayInfo(ctx context.Context) error {
	topic := m.prefix + "/notify/display_info"
	return m.publish(ctx, topic, displayInfoPayload{
		Visible:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, true)
}

func (m *MQTTManager) indicator(ctx context.Context, name string, on bool) error {
	topic := fmt.Sprintf("%s/notify/%s", m.prefix, name)
	return m.publish(ctx, topic, indicatorPayload{
		On:        on,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, true)
}

func (m *MQTTManager) publish(ctx context.Context, topic string, payload any, retained bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	m.log.Debugf("publishing %s", topic)
	return m.pub.Publish(ctx, topic, data, retained)
}
