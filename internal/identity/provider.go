// Package identity supplies the signed-in principal to the wishlist views.
//
// Views depend only on Provider. Local is an in-process provider; Session
// signs in against the wishlists auth service and keeps its token on disk.
package identity

import (
	"slices"
	"sync"
)

// Principal is the signed-in user as the views see it.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
}

// Provider reports the current principal and announces changes.
type Provider interface {
	// Current returns the signed-in principal, or false when nobody is signed in.
	Current() (Principal, bool)

	// Subscribe registers fn to run after every identity change. fn runs
	// synchronously on the goroutine that changed identity, after the change
	// is visible through Current. The returned func removes the subscription.
	Subscribe(fn func(Principal, bool)) (unsubscribe func())
}

// subscribers is the callback list shared by the providers.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Principal, bool)
}

func (s *subscribers) add(fn func(Principal, bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func(Principal, bool))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// notify calls every subscriber in registration order, without holding the lock.
func (s *subscribers) notify(p Principal, ok bool) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]func(Principal, bool), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p, ok)
	}
}

// Local is an in-process Provider. The zero value is signed out.
type Local struct {
	mu        sync.RWMutex
	principal Principal
	signedIn  bool
	subs      subscribers
}

var _ Provider = (*Local)(nil)

// NewLocal returns a signed-out Local provider.
func NewLocal() *Local {
	return &Local{}
}

// Current implements Provider.
func (l *Local) Current() (Principal, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.principal, l.signedIn
}

// Subscribe implements Provider.
func (l *Local) Subscribe(fn func(Principal, bool)) func() {
	return l.subs.add(fn)
}

// SignIn makes p the current principal and notifies subscribers.
func (l *Local) SignIn(p Principal) {
	l.mu.Lock()
	l.principal = p
	l.signedIn = true
	l.mu.Unlock()

	l.subs.notify(p, true)
}

// SignOut clears the principal and notifies subscribers.
func (l *Local) SignOut() {
	l.mu.Lock()
	l.principal = Principal{}
	l.signedIn = false
	l.mu.Unlock()

	l.subs.notify(Principal{}, false)
}
