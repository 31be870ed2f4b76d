package ril_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/notifier"
	"github.com/telephonyd/callnotifier/internal/ril"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

func testLog(t *testing.T) *logrus.Entry {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

// fakeBridge is a one-connection TCP server speaking the bridge framing.
type fakeBridge struct {
	ln      net.Listener
	conns   chan net.Conn
	actions chan ril.Event
}

func newFakeBridge(t *testing.T, stream []byte) *fakeBridge {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	b := &fakeBridge{ln: ln, conns: make(chan net.Conn, 1), actions: make(chan ril.Event, 16)}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		b.conns <- conn

		conn.Write([]byte("RIL Bridge/1.2\n"))
		conn.Write(stream)

		// Collect action blocks sent by the client (the attach comes
		// first).
		parser := ril.NewParser(bufio.NewReader(conn))
		for {
			evt, ok := parser.Next()
			if !ok {
				return
			}
			b.actions <- evt
		}
	}()
	return b
}

func (b *fakeBridge) closeConn(t *testing.T) {
	t.Helper()
	select {
	case conn := <-b.conns:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("no bridge connection to close")
	}
}

func (b *fakeBridge) nextAction(t *testing.T) ril.Event {
	t.Helper()
	select {
	case evt := <-b.actions:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an action block")
		return ril.Event{}
	}
}

func TestClientSessionStreamsEvents(t *testing.T) {
	bridge := newFakeBridge(t, loadFixture(t, "cdma-callwaiting.raw"))
	client := ril.NewClient(bridge.ln.Addr().String(), "s3cret", testLog(t))

	events := make(chan notifier.Event, 32)
	done := make(chan error, 1)
	go func() {
		done <- client.RunSession(context.Background(), func(ev notifier.Event) {
			events <- ev
		})
	}()

	var got []notifier.Event
	deadline := time.After(2 * time.Second)
	for len(got) < 9 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out, received %d events", len(got))
		}
	}

	if _, ok := got[0].(notifier.PhoneStateChanged); !ok {
		t.Errorf("expected PhoneStateChanged first, got %T", got[0])
	}
	if _, ok := got[8].(notifier.PhoneStateChanged); !ok {
		t.Errorf("expected PhoneStateChanged last, got %T", got[8])
	}

	// The attach block reaches the bridge before any commands.
	attach := bridge.nextAction(t)
	if attach.Get("Action") != "Attach" {
		t.Errorf("expected Attach action, got %q", attach.Get("Action"))
	}
	if attach.Get("Secret") != "s3cret" {
		t.Errorf("expected attach secret, got %q", attach.Get("Secret"))
	}

	// Snapshot reflects the last event of the stream.
	snap := client.Snapshot()
	if snap.Type != telephony.PhoneTypeCDMA {
		t.Errorf("expected cached CDMA snapshot, got %v", snap.Type)
	}
	if snap.State != telephony.PhoneIdle {
		t.Errorf("expected cached idle state, got %v", snap.State)
	}

	bridge.closeConn(t)

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected a session error after the bridge closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after the bridge closed")
	}
}

func TestClientSendsActions(t *testing.T) {
	bridge := newFakeBridge(t, loadFixture(t, "incoming-answered.raw"))
	client := ril.NewClient(bridge.ln.Addr().String(), "s3cret", testLog(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan notifier.Event, 32)
	go client.RunSession(ctx, func(ev notifier.Event) { events <- ev })

	// Wait for the first event so the session is established.
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no events from session")
	}

	attach := bridge.nextAction(t)
	if attach.Get("Action") != "Attach" {
		t.Fatalf("expected Attach first, got %q", attach.Get("Action"))
	}

	if err := client.HangupRinging("c101"); err != nil {
		t.Fatalf("hangup: %v", err)
	}
	hangup := bridge.nextAction(t)
	if hangup.Get("Action") != "Hangup" {
		t.Errorf("expected Hangup action, got %q", hangup.Get("Action"))
	}
	if hangup.Get("ConnID") != "c101" {
		t.Errorf("expected ConnID=c101, got %q", hangup.Get("ConnID"))
	}

	if err := client.Dial("15550001234"); err != nil {
		t.Fatalf("dial: %v", err)
	}
	dial := bridge.nextAction(t)
	if dial.Get("Action") != "Dial" {
		t.Errorf("expected Dial action, got %q", dial.Get("Action"))
	}
	if dial.Get("Address") != "15550001234" {
		t.Errorf("expected Address=15550001234, got %q", dial.Get("Address"))
	}

	gen, err := client.ToneGeneratorFactory()()
	if err != nil {
		t.Fatalf("tone generator: %v", err)
	}
	if err := gen.Start(tone.KindBusy, 80); err != nil {
		t.Fatalf("start tone: %v", err)
	}
	start := bridge.nextAction(t)
	if start.Get("Action") != "StartTone" {
		t.Errorf("expected StartTone action, got %q", start.Get("Action"))
	}
	if start.GetInt("Volume") != 80 {
		t.Errorf("expected Volume=80, got %d", start.GetInt("Volume"))
	}
}

func TestClientCommandsFailWhenDisconnected(t *testing.T) {
	client := ril.NewClient("127.0.0.1:1", "s3cret", testLog(t))

	if err := client.Dial("123"); err == nil {
		t.Error("expected dial to fail without a session")
	}
	if err := client.HangupRinging("c1"); err == nil {
		t.Error("expected hangup to fail without a session")
	}
	if _, err := client.ToneGeneratorFactory()(); err == nil {
		t.Error("expected generator construction to fail without a session")
	}
	if !strings.Contains(testClientSendErr(client), "not connected") {
		t.Errorf("expected not-connected error, got %q", testClientSendErr(client))
	}
}

func testClientSendErr(c *ril.Client) string {
	if err := c.ResendMute(); err != nil {
		return err.Error()
	}
	return ""
}
