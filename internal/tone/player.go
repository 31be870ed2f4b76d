package tone

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/audio"
)

// extra wait beyond the nominal tone duration before a finite tone
// self-terminates.
const stopBuffer = 20 * time.Millisecond

// State of one tone play.
type State int

const (
	StateOff State = iota
	StateOn
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateOn:
		return "on"
	case StateStopped:
		return "stopped"
	}
	return "off"
}

// CompletionFunc is invoked when a play ends. completed is true when the
// tone ran out its full duration rather than being stopped.
type CompletionFunc func(kind Kind, completed bool)

// Handle identifies one play in progress.
type Handle struct {
	kind Kind
	lane Lane

	mu      sync.Mutex
	state   State
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
}

// Kind returns the tone kind of this play.
func (h *Handle) Kind() Kind { return h.kind }

// State returns the current play state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Done is closed when the play goroutine has fully ended and the
// generator is released.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop requests the play end now. Idempotent; a blocked play wakes
// immediately instead of waiting out its duration.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	close(h.stopCh)
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Player runs tone plays on their own goroutines while holding at most
// one generator per lane. Starting a tone on an occupied lane stops the
// previous play first.
type Player struct {
	newGenerator GeneratorFactory
	router       audio.Router
	log          *logrus.Entry

	specs      map[Kind]Spec
	cdmaCheck  func() bool
	onFinished CompletionFunc

	mu    sync.Mutex
	lanes map[Lane]*Handle
}

// Option configures a Player.
type Option func(*Player)

// WithSpecs overrides the per-kind tone table.
func WithSpecs(specs map[Kind]Spec) Option {
	return func(p *Player) { p.specs = specs }
}

// WithCdmaCheck sets the predicate deciding whether the ringer-mode
// policy table applies; it applies only in CDMA mode.
func WithCdmaCheck(f func() bool) Option {
	return func(p *Player) { p.cdmaCheck = f }
}

// NewPlayer creates a Player.
func NewPlayer(factory GeneratorFactory, router audio.Router, log *logrus.Entry, opts ...Option) *Player {
	p := &Player{
		newGenerator: factory,
		router:       router,
		log:          log,
		specs:        Specs,
		cdmaCheck:    func() bool { return false },
		lanes:        make(map[Lane]*Handle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnFinished sets the callback invoked when a play ends. Must be set
// before the first Play; the notifier uses it for the deferred
// audio-routing reset.
func (p *Player) OnFinished(f CompletionFunc) {
	p.onFinished = f
}

// Play starts kind on its lane and returns a handle, or nil when the tone
// was suppressed (ringer-mode policy) or the generator could not be
// created. A nil return is a silent degradation, never an error.
func (p *Player) Play(kind Kind) *Handle {
	spec, ok := p.specs[kind]
	if !ok {
		p.log.Warnf("no tone spec for %s, skipping", kind)
		return nil
	}

	if p.cdmaCheck() && !spec.Policy.Allows(p.router.RingerMode()) {
		p.log.Debugf("tone %s suppressed by ringer mode %s", kind, p.router.RingerMode())
		return nil
	}

	// stop-before-start: the previous holder of the lane must have fully
	// released its generator before a new one starts
	p.mu.Lock()
	prev := p.lanes[spec.Lane]
	p.mu.Unlock()
	if prev != nil {
		prev.Stop()
		<-prev.Done()
	}

	gen, err := p.newGenerator()
	if err != nil {
		p.log.WithError(err).Warnf("tone generator unavailable, %s not played", kind)
		return nil
	}
	h := &Handle{
		kind:   kind,
		lane:   spec.Lane,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.mu.Lock()
	p.lanes[spec.Lane] = h
	p.mu.Unlock()

	go p.run(h, gen, spec)
	return h
}

// StopLane stops whatever is playing on lane. Reports whether a play was
// actually stopped.
func (p *Player) StopLane(lane Lane) bool {
	p.mu.Lock()
	h := p.lanes[lane]
	p.mu.Unlock()
	if h == nil {
		return false
	}
	h.Stop()
	return true
}

// Playing reports whether lane currently holds a play.
func (p *Player) Playing(lane Lane) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lanes[lane] != nil
}

// StopAll stops every lane. Used at shutdown.
func (p *Player) StopAll() {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.lanes))
	for _, h := range p.lanes {
		handles = append(handles, h)
	}
	p.mu.Unlock()
	for _, h := range handles {
		h.Stop()
		<-h.Done()
	}
}

func (p *Player) run(h *Handle, gen Generator, spec Spec) {
	completed := false
	if err := gen.Start(h.kind, spec.Volume); err != nil {
		p.log.WithError(err).Warnf("starting tone %s failed", h.kind)
	} else {
		h.setState(StateOn)
		if spec.Duration > 0 {
			timer := time.NewTimer(spec.Duration + stopBuffer)
			select {
			case <-timer.C:
				completed = true
			case <-h.stopCh:
				timer.Stop()
			}
		} else {
			<-h.stopCh
		}
		gen.Stop()
	}

	if completed {
		h.setState(StateOff)
	} else {
		h.setState(StateStopped)
	}

	p.mu.Lock()
	if p.lanes[h.lane] == h {
		delete(p.lanes, h.lane)
	}
	p.mu.Unlock()

	gen.Release()
	close(h.done)

	// the callback may block on a bounded queue; it must never hold up
	// Done, which Play waits on for lane turnover
	if p.onFinished != nil {
		p.onFinished(h.kind, completed)
	}
}
