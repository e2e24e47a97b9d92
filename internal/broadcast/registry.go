// Package broadcast fans snapshots out to the daemon's live
// subscribers. It is thread-safe and prunes subscribers that stop
// accepting messages.
package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/treescope/pkg/models"
	"github.com/grovetools/treescope/pkg/tree"
)

// subscriberBuffer bounds each subscriber's queue. Snapshots supersede
// each other wholesale, so a deep queue only adds latency; a subscriber
// that falls this far behind is dropped instead.
const subscriberBuffer = 8

// Subscriber is one live output handle. It is owned by the registry
// for its connection's lifetime.
type Subscriber struct {
	ch chan models.StreamMessage
}

// Messages returns the subscriber's receive channel. It is closed when
// the subscriber is unregistered.
func (s *Subscriber) Messages() <-chan models.StreamMessage {
	return s.ch
}

// Registry is the set of currently-connected subscribers plus the most
// recent snapshot. Register, fan-out and the latest-snapshot update
// share one mutex, so a subscriber registering mid-broadcast observes
// either the pre- or post-broadcast snapshot, never a torn view.
type Registry struct {
	mu      sync.Mutex
	subs    map[*Subscriber]struct{}
	latest  *tree.Node
	logger  *logrus.Entry
	onFirst func()
	onLast  func()
}

// New creates an empty registry.
func New(logger *logrus.Entry) *Registry {
	return &Registry{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

// SetLifecycleHooks installs callbacks fired after the first subscriber
// registers and after the last one is removed. The watch service uses
// them to arm and tear down the OS watch handle. Hooks run outside the
// registry lock.
func (r *Registry) SetLifecycleHooks(onFirst, onLast func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFirst = onFirst
	r.onLast = onLast
}

// Register adds a subscriber and immediately delivers the most recent
// snapshot when one exists, so a connecting client does not wait a
// full watch cycle for its first render.
func (r *Registry) Register() *Subscriber {
	r.mu.Lock()
	sub := &Subscriber{ch: make(chan models.StreamMessage, subscriberBuffer)}
	r.subs[sub] = struct{}{}
	first := len(r.subs) == 1
	onFirst := r.onFirst
	if r.latest != nil {
		sub.ch <- models.StreamMessage{Type: models.MessageUpdate, Tree: r.latest}
	}
	r.mu.Unlock()

	r.logger.Debug("Subscriber registered")
	if first && onFirst != nil {
		onFirst()
	}
	return sub
}

// Unregister removes a subscriber and closes its channel. It is
// idempotent.
func (r *Registry) Unregister(sub *Subscriber) {
	r.mu.Lock()
	_, ok := r.subs[sub]
	if ok {
		delete(r.subs, sub)
		close(sub.ch)
	}
	last := ok && len(r.subs) == 0
	onLast := r.onLast
	r.mu.Unlock()

	if ok {
		r.logger.Debug("Subscriber unregistered")
	}
	if last && onLast != nil {
		onLast()
	}
}

// Broadcast records snap as the latest snapshot and delivers an update
// message to every subscriber. A subscriber whose buffer cannot accept
// the message is pruned; delivery to the others is unaffected.
func (r *Registry) Broadcast(snap *tree.Node) {
	r.fanOut(models.StreamMessage{Type: models.MessageUpdate, Tree: snap}, snap)
}

// BroadcastError delivers a non-fatal error message to every
// subscriber. The latest snapshot is left in place so late joiners
// still get the last good tree.
func (r *Registry) BroadcastError(message string) {
	r.fanOut(models.StreamMessage{Type: models.MessageError, Message: message}, nil)
}

func (r *Registry) fanOut(msg models.StreamMessage, latest *tree.Node) {
	r.mu.Lock()
	if latest != nil {
		r.latest = latest
	}
	var dropped []*Subscriber
	for sub := range r.subs {
		select {
		case sub.ch <- msg:
		default:
			// Saturated transport: drop, never wait.
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		delete(r.subs, sub)
		close(sub.ch)
	}
	last := len(dropped) > 0 && len(r.subs) == 0
	onLast := r.onLast
	r.mu.Unlock()

	if len(dropped) > 0 {
		r.logger.WithField("count", len(dropped)).Warn("Pruned saturated subscribers")
	}
	if last && onLast != nil {
		onLast()
	}
}

// Latest returns the most recently broadcast snapshot, or nil before
// the first broadcast.
func (r *Registry) Latest() *tree.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// SetLatest seeds the latest snapshot without notifying subscribers.
// The watch service uses it for the initial scan, which predates any
// broadcastable change.
func (r *Registry) SetLatest(snap *tree.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = snap
}

// Count returns the number of live subscribers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
