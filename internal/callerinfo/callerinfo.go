// Package callerinfo resolves caller records (name, custom ringtone,
// send-to-voicemail) from an external contacts source, with a fallback
// cache for the query-timeout path.
package callerinfo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/telephonyd/callnotifier/internal/telephony"
)

// hard deadline for a single contacts query; the notifier's ring-now gate
// is much shorter and does not cancel the query, so a late result can
// still land in the cache.
const sourceQueryTimeout = 10 * time.Second

// Record is a resolved caller-info entry.
type Record struct {
	Name              string
	Number            string
	Presentation      telephony.Presentation
	CustomRingtoneURI string
	SendToVoicemail   bool
	PhotoRef          string
}

// Source is the external contacts provider.
type Source interface {
	Query(ctx context.Context, number string) (*Record, error)
}

// PhotoLoader loads a contact photo by reference.
type PhotoLoader interface {
	LoadPhoto(ctx context.Context, ref string) ([]byte, error)
}

// Token identifies one lookup. A final token carries the record and means
// the lookup completed synchronously from cache; otherwise the listener
// will be invoked later.
type Token struct {
	ID     string
	Final  bool
	Record *Record
}

// Listener receives the result of a pending lookup. A nil record means
// resolution failed; callers proceed with defaults.
type Listener func(token Token, record *Record)

// Service coordinates lookups against the source and keeps every
// completed result in an address-keyed cache.
type Service struct {
	source Source
	photos PhotoLoader
	log    *logrus.Entry

	mu    sync.Mutex
	cache map[string]*Record
}

// New creates a Service. photos may be nil when no photo source exists.
func New(source Source, photos PhotoLoader, log *logrus.Entry) *Service {
	return &Service{
		source: source,
		photos: photos,
		log:    log,
		cache:  make(map[string]*Record),
	}
}

// Lookup resolves the caller record for number. On a cache hit the
// returned token is final and the listener is never invoked; otherwise the
// query runs on its own goroutine and the listener fires exactly once with
// the result.
func (s *Service) Lookup(number string, listener Listener) Token {
	s.mu.Lock()
	rec, hit := s.cache[number]
	s.mu.Unlock()

	id := uuid.NewString()
	if hit {
		return Token{ID: id, Final: true, Record: rec}
	}

	token := Token{ID: id}
	go s.query(number, token, listener)
	return token
}

// Cached returns a previously resolved record for number, if any. This is
// the timeout fallback path: stale data beats blocking the ring.
func (s *Service) Cached(number string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cache[number]
	return rec, ok
}

// LoadPhoto asynchronously loads the photo behind rec and invokes done
// with the bytes, or nil when no photo could be loaded.
func (s *Service) LoadPhoto(rec *Record, done func(photo []byte)) {
	if s.photos == nil || rec == nil || rec.PhotoRef == "" {
		done(nil)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sourceQueryTimeout)
		defer cancel()
		photo, err := s.photos.LoadPhoto(ctx, rec.PhotoRef)
		if err != nil {
			s.log.WithError(err).Debugf("photo load failed for %s", rec.PhotoRef)
			done(nil)
			return
		}
		done(photo)
	}()
}

func (s *Service) query(number string, token Token, listener Listener) {
	ctx, cancel := context.WithTimeout(context.Background(), sourceQueryTimeout)
	defer cancel()

	rec, err := s.source.Query(ctx, number)
	if err != nil {
		s.log.WithError(err).Debugf("caller info query failed for token %s", token.ID)
		listener(token, nil)
		return
	}
	if rec != nil {
		s.mu.Lock()
		s.cache[number] = rec
		s.mu.Unlock()
	}
	listener(token, rec)
}
