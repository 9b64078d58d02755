package docstore

import (
	"log/slog"
	"sync"
)

// hub maintains the set of live subscriptions and wakes the ones a change
// touches.
type hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
	log  *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		subs: make(map[*Subscription]struct{}),
		log:  logger,
	}
}

func (h *hub) Register(s *Subscription) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) Unregister(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Notify marks every subscription related to path as dirty.
func (h *hub) Notify(path string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	woken := 0
	for s := range h.subs {
		if !related(s.path, path) {
			continue
		}
		select {
		case s.dirty <- struct{}{}:
		default:
			// Already pending; the next read will see this change too.
		}
		woken++
	}
	h.log.Debug("change notified", "path", path, "subscriptions", woken)
}

// CloseAll cancels every registered subscription.
func (h *hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		s.cancel()
	}
}

// Count returns the number of live subscriptions.
func (h *hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
