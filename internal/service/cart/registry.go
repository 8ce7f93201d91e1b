package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	slotrepo "storefront/internal/repository/slot"

	"github.com/rs/zerolog"
)

var ErrNoSession = errors.New("session id required")

type session struct {
	store    *Store
	lastUsed time.Time
}

// Registry owns the Store of every buyer session seen by this process.
// Each store persists under its own "<session>:" key namespace, so an
// evicted store is rebuilt from the slot on its next use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	slot           slotrepo.Repository
	remote         RemoteCarts
	checkoutDomain string
	logger         zerolog.Logger
	now            func() time.Time
}

func NewRegistry(slot slotrepo.Repository, remote RemoteCarts, checkoutDomain string, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions:       make(map[string]*session),
		slot:           slot,
		remote:         remote,
		checkoutDomain: checkoutDomain,
		logger:         logger,
		now:            time.Now,
	}
}

// Store returns the session's store, rehydrating it on first use.
func (r *Registry) Store(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNoSession
	}

	r.mu.Lock()
	if sess, ok := r.sessions[sessionID]; ok {
		sess.lastUsed = r.now()
		r.mu.Unlock()
		return sess.store, nil
	}
	r.mu.Unlock()

	// The slot read runs unlocked; a concurrent first request for the same
	// session keeps whichever store was registered first.
	logger := r.logger.With().Str("session", sessionID).Logger()
	s := New(ctx, slotrepo.Prefixed(r.slot, sessionID), r.remote, r.checkoutDomain, logger)

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[sessionID]; ok {
		sess.lastUsed = r.now()
		return sess.store, nil
	}
	r.sessions[sessionID] = &session{store: s, lastUsed: r.now()}
	return s, nil
}

// Evict drops stores unused for longer than idle and returns how many were
// dropped. Stores with a checkout in flight are kept.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, sess := range r.sessions {
		if sess.lastUsed.After(cutoff) || sess.store.checkoutPending() {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

// Run evicts idle stores every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				r.logger.Debug().Int("evicted", n).Int("remaining", r.Len()).Msg("idle carts evicted")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
