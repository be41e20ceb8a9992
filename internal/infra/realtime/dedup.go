package realtime

import (
	"fmt"
	"sync"
	"time"
)

const DedupWindow = 5 * time.Second

// Deduplicator suppresses repeats of the same (room, subject, event,
// status) inside a time window. Both the pub/sub path and the direct path
// deliver every event, so each room sees the second copy here.
type Deduplicator struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Admit reports whether the event should be delivered to room and records
// it when it is.
func (d *Deduplicator) Admit(room string, ev Event) bool {
	key := fmt.Sprintf("%s|%d|%s|%s", room, ev.SubjectID, ev.Name, ev.Status)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return false
	}
	d.seen[key] = now

	if len(d.seen) > 1024 {
		for k, at := range d.seen {
			if now.Sub(at) >= d.window {
				delete(d.seen, k)
			}
		}
	}
	return true
}
