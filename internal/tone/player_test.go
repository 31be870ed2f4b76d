package tone_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/audio"
	"github.com/telephonyd/callnotifier/internal/tone"
)

func testLog(t *testing.T) *logrus.Entry {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

// fakeGenerator records lifecycle events into a shared journal so tests
// can assert cross-generator ordering.
type fakeGenerator struct {
	journal  *journal
	id       int
	startErr error
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

func (g *fakeGenerator) Start(kind tone.Kind, volume int) error {
	if g.startErr != nil {
		return g.startErr
	}
	g.journal.add("start")
	return nil
}

func (g *fakeGenerator) Stop()    { g.journal.add("stop") }
func (g *fakeGenerator) Release() { g.journal.add("release") }

type fakeFactory struct {
	journal *journal
	err     error

	mu      sync.Mutex
	created int
}

func (f *fakeFactory) new() (tone.Generator, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.created++
	id := f.created
	f.mu.Unlock()
	return &fakeGenerator{journal: f.journal, id: id}, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

func newTestPlayer(t *testing.T, opts ...tone.Option) (*tone.Player, *fakeFactory, *audio.MockRouter) {
	t.Helper()
	f := &fakeFactory{journal: &journal{}}
	router := audio.NewMockRouter()
	p := tone.NewPlayer(f.new, router, testLog(t), opts...)
	return p, f, router
}

func waitDone(t *testing.T, h *tone.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("tone play did not end")
	}
}

func TestFiniteToneSelfTerminates(t *testing.T) {
	specs := map[tone.Kind]tone.Spec{
		tone.KindBusy: {Volume: tone.VolumeLow, Duration: 10 * time.Millisecond, Lane: tone.LaneDisconnect},
	}
	p, f, _ := newTestPlayer(t, tone.WithSpecs(specs))

	finished := make(chan bool, 1)
	p.OnFinished(func(kind tone.Kind, completed bool) {
		if kind != tone.KindBusy {
			t.Errorf("expected completion for busy, got %s", kind)
		}
		finished <- completed
	})

	h := p.Play(tone.KindBusy)
	if h == nil {
		t.Fatal("expected a handle")
	}
	waitDone(t, h)

	select {
	case completed := <-finished:
		if !completed {
			t.Error("expected the tone to run to completion")
		}
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}

	if p.Playing(tone.LaneDisconnect) {
		t.Error("expected the lane to be free after completion")
	}
	if got := f.journal.all(); len(got) != 3 || got[0] != "start" || got[1] != "stop" || got[2] != "release" {
		t.Errorf("unexpected generator journal %v", got)
	}
}

func TestStopWakesUnboundedTone(t *testing.T) {
	p, _, _ := newTestPlayer(t)

	done := make(chan bool, 1)
	p.OnFinished(func(_ tone.Kind, completed bool) { done <- completed })

	h := p.Play(tone.KindCallWaiting) // unbounded: plays until stopped
	if h == nil {
		t.Fatal("expected a handle")
	}

	h.Stop()
	h.Stop() // idempotent
	waitDone(t, h)

	if h.State() != tone.StateStopped {
		t.Errorf("expected stopped state, got %s", h.State())
	}
	select {
	case completed := <-done:
		if completed {
			t.Error("a stopped tone must not report completion")
		}
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestLaneStopsPreviousBeforeStarting(t *testing.T) {
	p, f, _ := newTestPlayer(t)

	first := p.Play(tone.KindRingBack) // unbounded, LaneRingBack
	if first == nil {
		t.Fatal("expected a handle")
	}

	// Second play on the same lane must fully release the first
	// generator before its own starts.
	second := p.Play(tone.KindRingBack)
	if second == nil {
		t.Fatal("expected a second handle")
	}
	waitDone(t, first)

	entries := f.journal.all()
	if len(entries) < 4 {
		t.Fatalf("expected at least 4 journal entries, got %v", entries)
	}
	if entries[0] != "start" || entries[1] != "stop" || entries[2] != "release" {
		t.Errorf("expected the first generator torn down before the second start, got %v", entries)
	}
	if entries[3] != "start" {
		t.Errorf("expected the second start after teardown, got %v", entries)
	}

	second.Stop()
	waitDone(t, second)
}

func TestStopLane(t *testing.T) {
	p, _, _ := newTestPlayer(t)

	if p.StopLane(tone.LaneRingBack) {
		t.Error("expected StopLane on an empty lane to report false")
	}

	h := p.Play(tone.KindRingBack)
	if !p.Playing(tone.LaneRingBack) {
		t.Error("expected the lane to be occupied")
	}
	if !p.StopLane(tone.LaneRingBack) {
		t.Error("expected StopLane to report a stopped play")
	}
	waitDone(t, h)
	if p.Playing(tone.LaneRingBack) {
		t.Error("expected the lane to be free after stop")
	}
}

func TestRingerModePolicyAppliesOnlyInCdma(t *testing.T) {
	// Silent device, not CDMA: the failure tone still plays.
	p, _, router := newTestPlayer(t)
	router.SetRingerMode(audio.RingerModeSilent)
	h := p.Play(tone.KindReorder)
	if h == nil {
		t.Fatal("expected the policy table to be ignored outside CDMA")
	}
	h.Stop()
	waitDone(t, h)

	// Silent CDMA device: NotSilent tones suppressed, always-play tones
	// unaffected.
	p, f, router := newTestPlayer(t, tone.WithCdmaCheck(func() bool { return true }))
	router.SetRingerMode(audio.RingerModeSilent)
	if h := p.Play(tone.KindReorder); h != nil {
		t.Error("expected suppression in silent mode")
	}
	if f.count() != 0 {
		t.Error("expected no generator for a suppressed tone")
	}
	if h := p.Play(tone.KindCallWaiting); h == nil {
		t.Error("expected an always-play tone to ignore silent mode")
	} else {
		h.Stop()
		waitDone(t, h)
	}

	// Vibrate-only CDMA device: NotSilent tones play, call guard does not.
	router.SetRingerMode(audio.RingerModeVibrate)
	if h := p.Play(tone.KindReorder); h == nil {
		t.Error("expected a reorder tone to play in vibrate mode")
	} else {
		h.Stop()
		waitDone(t, h)
	}
	if h := p.Play(tone.KindSignalCallGuard); h != nil {
		t.Error("expected call guard suppressed in vibrate mode")
	}
}

func TestGeneratorFactoryFailureDegradesToSilence(t *testing.T) {
	f := &fakeFactory{journal: &journal{}, err: errors.New("bridge down")}
	p := tone.NewPlayer(f.new, audio.NewMockRouter(), testLog(t))

	if h := p.Play(tone.KindBusy); h != nil {
		t.Error("expected nil handle when the generator cannot be created")
	}
	if p.Playing(tone.LaneDisconnect) {
		t.Error("expected the lane to stay free")
	}
}

func TestGeneratorStartFailure(t *testing.T) {
	j := &journal{}
	factory := func() (tone.Generator, error) {
		return &fakeGenerator{journal: j, startErr: errors.New("no audio")}, nil
	}
	p := tone.NewPlayer(factory, audio.NewMockRouter(), testLog(t))

	done := make(chan bool, 1)
	p.OnFinished(func(_ tone.Kind, completed bool) { done <- completed })

	h := p.Play(tone.KindBusy)
	if h == nil {
		t.Fatal("expected a handle even when start fails")
	}
	waitDone(t, h)

	select {
	case completed := <-done:
		if completed {
			t.Error("a failed start must not report completion")
		}
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestUnknownKindSkipped(t *testing.T) {
	p, f, _ := newTestPlayer(t, tone.WithSpecs(map[tone.Kind]tone.Spec{}))
	if h := p.Play(tone.KindBusy); h != nil {
		t.Error("expected nil handle for a kind without a spec")
	}
	if f.count() != 0 {
		t.Error("expected no generator")
	}
}

func TestCompletionCallbackDoesNotBlockLaneTurnover(t *testing.T) {
	p, _, _ := newTestPlayer(t)

	// A completion callback that blocks (posting into a full queue) must
	// not delay Done or hold the lane.
	release := make(chan struct{})
	defer close(release)
	p.OnFinished(func(tone.Kind, bool) { <-release })

	h := p.Play(tone.KindCallWaiting)
	if h == nil {
		t.Fatal("expected a handle")
	}
	h.Stop()
	waitDone(t, h)

	if p.Playing(tone.LaneCallWaiting) {
		t.Error("expected the lane free while the callback is still blocked")
	}

	// the lane can be reused immediately
	h2 := p.Play(tone.KindCallWaiting)
	if h2 == nil {
		t.Fatal("expected a second handle")
	}
	h2.Stop()
	waitDone(t, h2)
}

func TestStopAll(t *testing.T) {
	p, _, _ := newTestPlayer(t)

	h1 := p.Play(tone.KindRingBack)
	h2 := p.Play(tone.KindCallWaiting)
	if h1 == nil || h2 == nil {
		t.Fatal("expected both plays to start")
	}

	p.StopAll()

	if p.Playing(tone.LaneRingBack) || p.Playing(tone.LaneCallWaiting) {
		t.Error("expected all lanes free after StopAll")
	}
}
