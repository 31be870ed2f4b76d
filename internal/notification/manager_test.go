package notification_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/notification"
	"github.com/telephonyd/callnotifier/internal/telephony"
)

func testLog(t *testing.T) *logrus.Entry {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func newTestManager(t *testing.T) (*notification.MQTTManager, *notification.MockPublisher) {
	t.Helper()
	pub := notification.NewMockPublisher()
	return notification.NewMQTTManager(pub, "phone", testLog(t)), pub
}

func lastMessage(t *testing.T, pub *notification.MockPublisher) notification.Message {
	t.Helper()
	msgs := pub.Messages()
	if len(msgs) == 0 {
		t.Fatal("expected a published message")
	}
	return msgs[len(msgs)-1]
}

func decodePayload(t *testing.T, msg notification.Message) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshaling payload: %v", err)
	}
	return payload
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name         string
		number       string
		presentation telephony.Presentation
		want         string
	}{
		{"Martin", "15550001234", telephony.PresentationAllowed, "Martin"},
		{"", "15550001234", telephony.PresentationAllowed, "15550001234"},
		{"", "", telephony.PresentationRestricted, "Private number"},
		{"", "15550001234", telephony.PresentationRestricted, "Private number"},
		{"", "", telephony.PresentationPayphone, "Payphone"},
		{"", "", telephony.PresentationUnknown, "Unknown"},
		{"", "", telephony.PresentationAllowed, "Unknown"},
	}
	for _, tt := range tests {
		got := notification.DisplayName(tt.name, tt.number, tt.presentation)
		if got != tt.want {
			t.Errorf("DisplayName(%q, %q, %v) = %q, want %q",
				tt.name, tt.number, tt.presentation, got, tt.want)
		}
	}
}

func TestNotifyMissedCall(t *testing.T) {
	mgr, pub := newTestManager(t)

	when := time.Date(2026, 2, 11, 11, 2, 17, 0, time.UTC)
	err := mgr.NotifyMissedCall(context.Background(), notification.MissedCall{
		Name:         "Martin",
		Number:       "15550001234",
		Presentation: telephony.PresentationAllowed,
		Label:        "Mobile",
		Time:         when,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := lastMessage(t, pub)
	want := "phone/notify/missed/1770807737"
	if msg.Topic != want {
		t.Errorf("expected topic %s, got %s", want, msg.Topic)
	}
	if !msg.Retained {
		t.Error("expected the missed-call message retained")
	}

	payload := decodePayload(t, msg)
	if payload["name"] != "Martin" {
		t.Errorf("expected name=Martin, got %v", payload["name"])
	}
	if payload["number"] != "15550001234" {
		t.Errorf("expected number present, got %v", payload["number"])
	}
	if payload["label"] != "Mobile" {
		t.Errorf("expected label=Mobile, got %v", payload["label"])
	}
	if payload["timestamp"] != "2026-02-11T11:02:17Z" {
		t.Errorf("unexpected timestamp %v", payload["timestamp"])
	}
}

func TestNotifyMissedCallRestrictedHidesNumber(t *testing.T) {
	mgr, pub := newTestManager(t)

	err := mgr.NotifyMissedCall(context.Background(), notification.MissedCall{
		Number:       "15550001234",
		Presentation: telephony.PresentationRestricted,
		Time:         time.Unix(1770807737, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := decodePayload(t, lastMessage(t, pub))
	if payload["name"] != "Private number" {
		t.Errorf("expected degraded name, got %v", payload["name"])
	}
	if _, ok := payload["number"]; ok {
		t.Error("expected the number withheld for a restricted caller")
	}
}

func TestNotifyMissedCallPhotoReissue(t *testing.T) {
	mgr, pub := newTestManager(t)

	when := time.Unix(1770807737, 0)
	mc := notification.MissedCall{
		Name:         "Martin",
		Number:       "15550001234",
		Presentation: telephony.PresentationAllowed,
		Time:         when,
	}
	if err := mgr.NotifyMissedCall(context.Background(), mc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mc.Photo = []byte("jpeg bytes")
	if err := mgr.NotifyMissedCall(context.Background(), mc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := pub.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Same retained topic: the re-issue replaces, never duplicates.
	if msgs[0].Topic != msgs[1].Topic {
		t.Errorf("expected the same topic, got %s and %s", msgs[0].Topic, msgs[1].Topic)
	}

	payload := decodePayload(t, msgs[1])
	photo, err := base64.StdEncoding.DecodeString(payload["photo"].(string))
	if err != nil || string(photo) != "jpeg bytes" {
		t.Errorf("unexpected photo payload %v", payload["photo"])
	}
}

func TestIndicators(t *testing.T) {
	mgr, pub := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		call  func() error
		topic string
		on    bool
	}{
		{func() error { return mgr.UpdateMessageWaiting(ctx, true) }, "phone/notify/mwi", true},
		{func() error { return mgr.UpdateCallForwarding(ctx, false) }, "phone/notify/cfi", false},
		{func() error { return mgr.UpdateSpeaker(ctx, true) }, "phone/notify/speaker", true},
		{func() error { return mgr.UpdateMute(ctx, false) }, "phone/notify/mute", false},
	}
	for _, tt := range tests {
		if err := tt.call(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		msg := lastMessage(t, pub)
		if msg.Topic != tt.topic {
			t.Errorf("expected topic %s, got %s", tt.topic, msg.Topic)
		}
		if !msg.Retained {
			t.Errorf("expected %s retained", tt.topic)
		}
		payload := decodePayload(t, msg)
		if payload["on"] != tt.on {
			t.Errorf("expected on=%v on %s, got %v", tt.on, tt.topic, payload["on"])
		}
	}
}

func TestDisplayInfoShowAndClear(t *testing.T) {
	mgr, pub := newTestManager(t)
	ctx := context.Background()

	if err := mgr.ShowDisplayInfo(ctx, "FREE CALL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := lastMessage(t, pub)
	if msg.Topic != "phone/notify/display_info" {
		t.Errorf("unexpected topic %s", msg.Topic)
	}
	payload := decodePayload(t, msg)
	if payload["text"] != "FREE CALL" || payload["visible"] != true {
		t.Errorf("unexpected payload %v", payload)
	}

	if err := mgr.ClearDisplayInfo(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload = decodePayload(t, lastMessage(t, pub))
	if payload["visible"] != false {
		t.Errorf("expected visible=false, got %v", payload["visible"])
	}
	if _, ok := payload["text"]; ok {
		t.Error("expected no text on clear")
	}
}

func TestPublishErrorPropagates(t *testing.T) {
	mgr, pub := newTestManager(t)
	pub.SetError(errors.New("broker gone"))

	if err := mgr.UpdateMute(context.Background(), true); err == nil {
		t.Error("expected the publish error to propagate")
	}
}
