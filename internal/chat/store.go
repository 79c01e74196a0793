package chat

import "sync"

// Store holds a session's roster and notifies subscribers after every
// update. It replaces ad-hoc global state with an explicit container:
// all updates run to completion under one lock, so an observer never
// sees a half-applied roster.
type Store struct {
	mu     sync.Mutex
	roster Roster
	subs   map[int]func(Roster)
	next   int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(Roster))}
}

// Load replaces the roster wholesale, e.g. after a roster fetch.
func (s *Store) Load(r Roster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append(Roster(nil), r...)
	s.notifyLocked()
}

// ApplyActivity merges one activity event into the roster and reports
// whether anything changed.
func (s *Store) ApplyActivity(contactID uint, sum Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := Apply(s.roster, contactID, sum)
	if len(updated) == len(s.roster) && sameOrder(updated, s.roster) {
		return false
	}
	s.roster = updated
	s.notifyLocked()
	return true
}

// Snapshot returns a copy of the current roster.
func (s *Store) Snapshot() Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Roster(nil), s.roster...)
}

// Subscribe registers fn to be called with a fresh roster copy after
// each update. Callbacks run synchronously on the updating goroutine
// and must not call back into the store. The returned func cancels the
// subscription.
func (s *Store) Subscribe(fn func(Roster)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notifyLocked() {
	for _, fn := range s.subs {
		fn(append(Roster(nil), s.roster...))
	}
}

func sameOrder(a, b Roster) bool {
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Summary != b[i].Summary {
			return false
		}
	}
	return true
}
