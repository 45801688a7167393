package chat

import (
	"sync"

	"golang.org/x/time/rate"
)

// messagesPerSecond and burstSize bound how often one nickname may send
// a chat message before getting throttled; see the SUPPLEMENTED
// FEATURES note on flood control.
const (
	messagesPerSecond = 4 // one message per 250ms
	burstSize         = 5
)

// writer is how the registry and broadcast fan-out reach a connected
// client. Its methods must be safe to call from the owning session's own
// goroutine and from every other session's broadcast goroutines at once.
type writer interface {
	writeText(msg string) error
}

// entry is one registered client: its writer handle plus its own flood
// control bucket.
type entry struct {
	w       writer
	limiter *rate.Limiter
}

// Registry maps nickname to connected client. A single Registry is
// shared by every session the server spawns.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*entry
}

// NewRegistry returns an empty, ready-to-use registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*entry)}
}

// Register inserts nick with w as its writer handle. It does not check
// for a pre-existing nickname; callers only call it once a session has
// confirmed it has no nickname yet.
func (r *Registry) Register(nick string, w writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[nick] = &entry{
		w:       w,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burstSize),
	}
}

// Unregister removes nick, if present.
func (r *Registry) Unregister(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, nick)
}

// Lookup returns the writer registered under nick, if any.
func (r *Registry) Lookup(nick string) (writer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.clients[nick]
	if !ok {
		return nil, false
	}
	return e.w, true
}

// Allow reports whether nick's flood-control bucket permits sending
// another message right now.
func (r *Registry) Allow(nick string) bool {
	r.mu.Lock()
	e, ok := r.clients[nick]
	r.mu.Unlock()
	if !ok {
		return true
	}
	return e.limiter.Allow()
}

// Broadcast sends msg to every registered client whose nickname is not
// sender. Each delivery is spawned as its own goroutine and Broadcast
// returns without waiting for any of them, so a slow consumer never
// blocks fan-out to the others or the caller. A failed delivery is
// reported through onErr rather than returned.
func (r *Registry) Broadcast(sender, msg string, onErr func(nick string, err error)) {
	r.mu.Lock()
	targets := make(map[string]writer, len(r.clients))
	for nick, e := range r.clients {
		if nick == sender {
			continue
		}
		targets[nick] = e.w
	}
	r.mu.Unlock()

	for nick, w := range targets {
		go func(nick string, w writer) {
			if err := w.writeText(msg); err != nil && onErr != nil {
				onErr(nick, err)
			}
		}(nick, w)
	}
}
