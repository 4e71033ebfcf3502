package session

import "sync"

// Store holds the current access token in memory. It is never persisted:
// a process restart always starts empty and relies on the cookie-based
// refresh bootstrap to re-establish a session. Do not add disk persistence.
//
// Reads are synchronous and always reflect the latest SetToken call.
type Store struct {
	mu      sync.RWMutex
	token   string
	nextID  int
	onToken map[int]func(token string)
	onClear map[int]func(suppressBroadcast bool)
}

func NewStore() *Store {
	return &Store{
		onToken: make(map[int]func(string)),
		onClear: make(map[int]func(bool)),
	}
}

// Token returns the current access token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores a new access token and notifies token subscribers.
// Subscribers run synchronously after the write, so a Token() read inside a
// subscriber always observes the new value. Setting "" is equivalent to
// Clear(false).
func (s *Store) SetToken(token string) {
	if token == "" {
		s.Clear(false)
		return
	}
	s.mu.Lock()
	s.token = token
	listeners := make([]func(string), 0, len(s.onToken))
	for _, fn := range s.onToken {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(token)
	}
}

// Clear drops the token and notifies clear subscribers. It never triggers a
// profile fetch. suppressBroadcast is true when the clear originates from a
// received logout broadcast, so the listener must not rebroadcast.
// Clearing an already-empty store is a no-op on state but still notifies,
// keeping the operation idempotent for callers.
func (s *Store) Clear(suppressBroadcast bool) {
	s.mu.Lock()
	s.token = ""
	listeners := make([]func(bool), 0, len(s.onClear))
	for _, fn := range s.onClear {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(suppressBroadcast)
	}
}

// OnToken registers fn to run after every non-empty SetToken. The returned
// cancel func removes the subscription.
func (s *Store) OnToken(fn func(token string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.onToken[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onToken, id)
	}
}

// OnClear registers fn to run after every Clear.
func (s *Store) OnClear(fn func(suppressBroadcast bool)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.onClear[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onClear, id)
	}
}
