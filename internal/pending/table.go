package pending

import (
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("pending submission not found")

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// Submission is the half of an event log captured by the slash command,
// waiting for the modal that carries the other half.
type Submission struct {
	ProofURL  string
	EventType string
	CreatedAt time.Time
}

// Table maps a user id to at most one pending submission.
type Table struct {
	mu      sync.Mutex
	clock   Clock
	ttl     time.Duration
	entries map[string]Submission
	sweeper Timer
	// gen identifies the current sweeper chain; callbacks from an older
	// chain must not reschedule.
	gen uint64
}

// New returns a table. ttl <= 0 keeps entries until they are taken.
func New(ttl time.Duration) *Table {
	return &Table{
		clock:   realClock{},
		ttl:     ttl,
		entries: make(map[string]Submission),
	}
}

func (t *Table) WithClock(clock Clock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clock = clock
}

// Put overwrites whatever the user had pending.
func (t *Table) Put(userID, proofURL, eventType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[userID] = Submission{ProofURL: proofURL, EventType: eventType, CreatedAt: t.clock.Now()}
}

// TakeAndClear removes the user's entry and returns it. The entry is gone
// afterwards whether or not the caller manages to use it.
func (t *Table) TakeAndClear(userID string) (Submission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.entries[userID]
	delete(t.entries, userID)
	if !ok || t.expired(sub, t.clock.Now()) {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

func (t *Table) Has(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub, ok := t.entries[userID]
	return ok && !t.expired(sub, t.clock.Now())
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep drops expired entries and reports how many were removed.
func (t *Table) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	removed := 0
	for userID, sub := range t.entries {
		if t.expired(sub, now) {
			delete(t.entries, userID)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until Stop. No-op without a ttl.
func (t *Table) StartSweeper(interval time.Duration, onSweep func(removed int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ttl <= 0 || interval <= 0 || t.sweeper != nil {
		return
	}
	t.gen++
	t.scheduleLocked(t.gen, interval, onSweep)
}

func (t *Table) scheduleLocked(gen uint64, interval time.Duration, onSweep func(removed int)) {
	t.sweeper = t.clock.AfterFunc(interval, func() {
		t.mu.Lock()
		current := t.gen == gen
		t.mu.Unlock()
		if !current {
			return
		}

		removed := t.Sweep()
		if onSweep != nil && removed > 0 {
			onSweep(removed)
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen != gen {
			return
		}
		t.scheduleLocked(gen, interval, onSweep)
	})
}

// Stop halts the sweeper. A callback already running finishes its sweep but
// does not reschedule.
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.sweeper != nil {
		t.sweeper.Stop()
		t.sweeper = nil
	}
}

func (t *Table) expired(sub Submission, now time.Time) bool {
	if t.ttl <= 0 {
		return false
	}
	return now.Sub(sub.CreatedAt) >= t.ttl
}
