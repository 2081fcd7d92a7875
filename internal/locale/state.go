package locale

import (
	"context"
	"sync"
)

// Store persists the user's preferred locale between sessions.
type Store interface {
	Load(ctx context.Context) (Locale, error)
	Save(ctx context.Context, loc Locale) error
}

// State holds the active locale for one app session. It starts at the
// configured default and changes only through Set, which notifies
// subscribers in registration order. Normalization never reads State
// directly: callers take Current() and pass it down explicitly.
type State struct {
	mu          sync.RWMutex
	current     Locale
	supported   []Locale
	subscribers []func(Locale)
}

// NewState creates a State initialized to def. An empty supported list
// accepts any locale.
func NewState(def Locale, supported []Locale) *State {
	if def == "" {
		def = Default
	}
	return &State{current: def, supported: supported}
}

// Current returns the active locale.
func (s *State) Current() Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Supported returns the locales the app offers.
func (s *State) Supported() []Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Locale, len(s.supported))
	copy(out, s.supported)
	return out
}

// Set switches the active locale. It reports false, and changes nothing,
// when loc is not supported or already active.
func (s *State) Set(loc Locale) bool {
	s.mu.Lock()
	if loc == "" || loc == s.current || !s.isSupported(loc) {
		s.mu.Unlock()
		return false
	}
	s.current = loc
	subs := make([]func(Locale), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(loc)
	}
	return true
}

// Subscribe registers fn to be called after every locale change.
func (s *State) Subscribe(fn func(Locale)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Restore loads the persisted preference into the state. A missing or
// unsupported preference leaves the default in place.
func (s *State) Restore(ctx context.Context, store Store) error {
	loc, err := store.Load(ctx)
	if err != nil {
		return err
	}
	s.Set(loc)
	return nil
}

func (s *State) isSupported(loc Locale) bool {
	if len(s.supported) == 0 {
		return true
	}
	for _, l := range s.supported {
		if l == loc {
			return true
		}
	}
	return false
}
