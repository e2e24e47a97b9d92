package watch

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/treescope/errors"
	"github.com/grovetools/treescope/internal/broadcast"
	"github.com/grovetools/treescope/pkg/tree"
)

const (
	// DefaultDebounce is the quiet period after the most recent raw
	// event before a snapshot is taken.
	DefaultDebounce = 1000 * time.Millisecond

	// DefaultRetryBackoff is the delay before re-arming a failed
	// watch handle.
	DefaultRetryBackoff = 1000 * time.Millisecond
)

// Config holds the watch service settings.
type Config struct {
	// Root is the watched directory.
	Root string

	// Debounce is the quiet period. Zero selects DefaultDebounce.
	Debounce time.Duration

	// RetryBackoff is the watch-failure retry delay. Zero selects
	// DefaultRetryBackoff.
	RetryBackoff time.Duration

	// Scan controls snapshot contents (hidden entries, ignores).
	Scan tree.ScanOptions
}

// Service is the watch-debounce aggregator. It owns the process-wide
// watch handle, arms it when the first subscriber connects, tears it
// down when the last one leaves, and turns coalesced event bursts into
// at most one broadcast per structural change.
//
// It is an explicitly constructed object injected into the server, so
// tests can run independent instances side by side.
type Service struct {
	cfg      Config
	registry *broadcast.Registry
	logger   *logrus.Entry

	mu      sync.Mutex
	running bool
	watcher *Watcher
	lastKey tree.Key
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a watch service publishing into registry. The
// watch handle is not armed until the first subscriber arrives.
func NewService(cfg Config, registry *broadcast.Registry, logger *logrus.Entry) *Service {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	s := &Service{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}
	// Teardown must also fire when the registry prunes its last
	// saturated subscriber, which happens outside Unsubscribe.
	registry.SetLifecycleHooks(nil, func() { go s.stop() })
	return s
}

// Registry returns the broadcast registry the service publishes to.
func (s *Service) Registry() *broadcast.Registry {
	return s.registry
}

// Snapshot returns the current tree. The registry's latest snapshot is
// only maintained while the watch is armed; once disarmed it goes
// stale, so a fresh scan is taken instead. Used by the one-shot fetch
// endpoint.
func (s *Service) Snapshot() (*tree.Node, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if running {
		if snap := s.registry.Latest(); snap != nil {
			return snap, nil
		}
	}
	return tree.Scan(s.cfg.Root, s.cfg.Scan)
}

// Subscribe arms the watch if needed and registers a subscriber. The
// subscriber immediately receives the current snapshot.
func (s *Service) Subscribe() (*broadcast.Subscriber, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	return s.registry.Register(), nil
}

// Unsubscribe removes a subscriber; the last removal disarms the
// watch so no OS watch resources are held with zero audience.
func (s *Service) Unsubscribe(sub *broadcast.Subscriber) {
	s.registry.Unregister(sub)
	if s.registry.Count() == 0 {
		s.stop()
	}
}

// Close disarms the watch regardless of subscriber count.
func (s *Service) Close() {
	s.stop()
}

// ensureStarted arms the watch handle and seeds the registry with an
// initial snapshot. Re-registration bursts while running are free: the
// armed state is reused and no extra scan happens.
func (s *Service) ensureStarted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	w, err := NewWatcher(s.cfg.Root, s.cfg.Scan.IncludeHidden)
	if err != nil {
		return errors.WatchFailure(s.cfg.Root, err)
	}

	snap, err := tree.Scan(s.cfg.Root, s.cfg.Scan)
	if err != nil {
		w.Close()
		return err
	}
	s.lastKey = tree.StructuralKey(snap)
	s.registry.SetLatest(snap)

	s.watcher = w
	s.stopCh = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.loop(w, s.stopCh)

	s.logger.WithField("root", s.cfg.Root).Info("Watch armed")
	return nil
}

func (s *Service) stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	w.Close()
	s.wg.Wait()
	s.logger.Info("Watch disarmed")
}

// loop is the debounce state machine: Idle until a raw event arrives,
// Pending while the quiet-period timer is live, back to Idle after the
// rescan. A continuous burst keeps restarting the timer, deferring the
// scan until the burst ends.
func (s *Service) loop(w *Watcher, stopCh chan struct{}) {
	defer s.wg.Done()

	debounce := time.NewTimer(s.cfg.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-stopCh:
			return

		case _, ok := <-w.Events():
			if !ok {
				return
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(s.cfg.Debounce)

		case <-debounce.C:
			s.rescan()

		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			s.handleWatchFailure(w, err)
			return
		}
	}
}

// rescan re-snapshots the root and broadcasts iff the structural key
// changed. Runs in the aggregator goroutine, never on the
// event-accepting path.
func (s *Service) rescan() {
	snap, err := tree.Scan(s.cfg.Root, s.cfg.Scan)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot failed")
		s.registry.BroadcastError(err.Error())
		return
	}

	key := tree.StructuralKey(snap)

	s.mu.Lock()
	if key == s.lastKey {
		s.mu.Unlock()
		s.logger.Debug("No structural change, discarding snapshot")
		return
	}
	s.lastKey = key
	s.mu.Unlock()

	s.logger.Debug("Broadcasting structural change")
	s.registry.Broadcast(snap)
}

// handleWatchFailure tears down the dead handle, tells subscribers,
// and schedules one retry after the backoff if anyone is still
// listening. With no subscribers left the watch re-arms lazily on the
// next Subscribe instead.
func (s *Service) handleWatchFailure(w *Watcher, err error) {
	s.logger.WithError(err).Error("Watch handle failed")
	s.registry.BroadcastError(errors.WatchFailure(s.cfg.Root, err).Message)

	s.mu.Lock()
	s.running = false
	s.watcher = nil
	s.mu.Unlock()
	w.Close()

	time.AfterFunc(s.cfg.RetryBackoff, func() {
		if s.registry.Count() == 0 {
			s.logger.Debug("No subscribers remain, skipping watch retry")
			return
		}
		if err := s.ensureStarted(); err != nil {
			s.logger.WithError(err).Error("Watch retry failed")
			s.registry.BroadcastError(err.Error())
		}
	})
}
