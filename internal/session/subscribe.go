package session

import "sync"

// Subscription delivers a snapshot after every session change. Only the
// latest undelivered snapshot is kept, so a slow reader never blocks writers.
type Subscription struct {
	C <-chan Snapshot

	ch   chan Snapshot
	m    *Manager
	once sync.Once
}

// Subscribe registers for change notifications.
func (m *Manager) Subscribe() *Subscription {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, ch: ch, m: m}
	m.subMu.Lock()
	m.subs[sub] = struct{}{}
	m.subMu.Unlock()
	return sub
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.m.subMu.Lock()
		delete(s.m.subs, s)
		close(s.ch)
		s.m.subMu.Unlock()
	})
}

func (m *Manager) publish(snap Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for sub := range m.subs {
		select {
		case sub.ch <- snap:
			continue
		default:
		}
		// Replace the stale pending snapshot.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}
