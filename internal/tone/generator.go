package tone

// Generator is the platform tone generator. One instance backs one play;
// the factory is invoked per request so a construction failure degrades to
// silence instead of crashing the event loop.
type Generator interface {
	// Start begins playing kind at the given relative volume.
	Start(kind Kind, volume int) error
	// Stop ends playback. Safe to call after Start failed.
	Stop()
	// Release frees the underlying resource. The generator is unusable
	// afterwards.
	Release()
}

// GeneratorFactory constructs a Generator for a single play.
type GeneratorFactory func() (Generator, error)
