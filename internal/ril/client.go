package ril

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/audio"
	"github.com/telephonyd/callnotifier/internal/notifier"
	"github.com/telephonyd/callnotifier/internal/ringer"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

var (
	_ telephony.Phone = (*Client)(nil)
	_ audio.Router    = (*Client)(nil)
)

var ringerModes = map[string]audio.RingerMode{
	"normal":  audio.RingerModeNormal,
	"vibrate": audio.RingerModeVibrate,
	"silent":  audio.RingerModeSilent,
}

// Client is the bridge connection. It caches the latest phone snapshot,
// forwards events to a sink, and implements the command surfaces the
// notifier drives: telephony.Phone, audio.Router, the ringer devices and
// the tone generator factory.
type Client struct {
	addr   string
	secret string
	log    *logrus.Entry

	mu         sync.Mutex
	conn       net.Conn
	snap       telephony.Snapshot
	ringerMode audio.RingerMode
	mode       audio.Mode
	muted      bool
}

// NewClient creates a Client for the bridge at addr.
func NewClient(addr, secret string, log *logrus.Entry) *Client {
	return &Client{addr: addr, secret: secret, log: log}
}

// RunSession connects, authenticates and streams events into sink until
// the connection drops or ctx is cancelled. The caller owns reconnection.
func (c *Client) RunSession(ctx context.Context, sink func(notifier.Event)) error {
	conn, err := net.DialTimeout("tcp", c.addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial RIL bridge: %w", err)
	}
	defer conn.Close()

	// Close connection when context is cancelled
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	reader := bufio.NewReader(conn)

	banner, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading bridge banner: %w", err)
	}
	c.log.Infof("bridge banner: %s", strings.TrimSpace(banner))

	login := fmt.Sprintf("Action: Attach\r\nSecret: %s\r\n\r\n", c.secret)
	if _, err := conn.Write([]byte(login)); err != nil {
		return fmt.Errorf("sending attach: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	c.log.Info("bridge attached, processing events")

	parser := NewParser(reader)
	for {
		evt, ok := parser.Next()
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge connection closed")
		}
		c.absorb(evt)
		if nev, ok := Translate(evt); ok {
			sink(nev)
		}
	}
}

// absorb updates the cached snapshot and ringer mode from an event.
func (c *Client) absorb(evt Event) {
	snap, ok := SnapshotFromEvent(evt)
	if !ok {
		return
	}
	c.mu.Lock()
	c.snap = snap
	if m, ok := ringerModes[evt.Get("RingerMode")]; ok {
		c.ringerMode = m
	}
	c.mu.Unlock()
}

func (c *Client) send(action string, kvs ...string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("bridge not connected")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Action: %s\r\n", action)
	for i := 0; i+1 < len(kvs); i += 2 {
		fmt.Fprintf(&b, "%s: %s\r\n", kvs[i], kvs[i+1])
	}
	b.WriteString("\r\n")
	if _, err := conn.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("sending %s: %w", action, err)
	}
	return nil
}

// --- telephony.Phone ---

func (c *Client) Snapshot() telephony.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Client) HangupRinging(connID string) error {
	return c.send("Hangup", "ConnID", connID)
}

func (c *Client) RejectCdmaCallWaiting() error {
	return c.send("RejectCallWaiting")
}

func (c *Client) Dial(address string) error {
	return c.send("Dial", "Address", address)
}

func (c *Client) ResendMute() error {
	c.mu.Lock()
	muted := c.muted
	c.mu.Unlock()
	return c.send("SetMute", "On", boolStr(muted))
}

// --- audio.Router ---

func (c *Client) SetMode(m audio.Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
	c.logSendErr(c.send("SetAudioMode", "Mode", m.String()))
}

func (c *Client) Mode() audio.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Client) RingerMode() audio.RingerMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ringerMode
}

func (c *Client) SetSpeaker(on bool) {
	c.logSendErr(c.send("SetSpeaker", "On", boolStr(on)))
}

func (c *Client) SetBluetoothSco(on bool) {
	c.logSendErr(c.send("SetBluetoothSco", "On", boolStr(on)))
}

func (c *Client) SetMuted(on bool) {
	c.mu.Lock()
	c.muted = on
	c.mu.Unlock()
	c.logSendErr(c.send("SetMute", "On", boolStr(on)))
}

func (c *Client) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// --- ringer devices ---

type ringtoneDevice struct{ c *Client }

func (d ringtoneDevice) Play(uri string) error {
	return d.c.send("PlayRingtone", "URI", uri)
}

func (d ringtoneDevice) Stop() {
	d.c.logSendErr(d.c.send("StopRingtone"))
}

// RingtoneDevice returns the bridge-backed ringtone output.
func (c *Client) RingtoneDevice() ringer.Device {
	return ringtoneDevice{c}
}

type vibratorDevice struct{ c *Client }

func (v vibratorDevice) Vibrate(d time.Duration) error {
	return v.c.send("Vibrate", "DurationMs", fmt.Sprintf("%d", d.Milliseconds()))
}

func (v vibratorDevice) Cancel() {
	v.c.logSendErr(v.c.send("CancelVibrate"))
}

// Vibrator returns the bridge-backed vibrator.
func (c *Client) Vibrator() ringer.Vibrator {
	return vibratorDevice{c}
}

// --- tone generator ---

type toneGenerator struct{ c *Client }

func (g toneGenerator) Start(kind tone.Kind, volume int) error {
	return g.c.send("StartTone", "Tone", kind.String(), "Volume", fmt.Sprintf("%d", volume))
}

func (g toneGenerator) Stop() {
	g.c.logSendErr(g.c.send("StopTone"))
}

func (g toneGenerator) Release() {}

// ToneGeneratorFactory returns the factory handing out bridge-backed tone
// generators. Construction fails while the bridge is down, which the
// player degrades to silence.
func (c *Client) ToneGeneratorFactory() tone.GeneratorFactory {
	return func() (tone.Generator, error) {
		c.mu.Lock()
		connected := c.conn != nil
		c.mu.Unlock()
		if !connected {
			return nil, fmt.Errorf("bridge not connected")
		}
		return toneGenerator{c}, nil
	}
}

func (c *Client) logSendErr(err error) {
	if err != nil {
		c.log.WithError(err).Debug("bridge command failed")
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
