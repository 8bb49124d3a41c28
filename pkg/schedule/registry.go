// Package schedule owns the in-memory map of pending reminder timers.
package schedule

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
)

// Key identifies one scheduled notification: a job, one of its rounds, and
// the interval label the reminder fires at.
type Key struct {
	JobID    string
	Round    int
	Interval string
}

// String renders the composite key as jobID-round-interval.
func (k Key) String() string {
	return fmt.Sprintf("%s-%d-%s", k.JobID, k.Round, k.Interval)
}

// Entry is the observable snapshot of a pending notification. It never
// exposes the underlying timer or callback.
type Entry struct {
	Key    Key
	FireAt time.Time
}

type task struct {
	fireAt time.Time
	timer  *time.Timer
}

// Registry maps composite keys to cancellable deferred tasks. It holds at
// most one active entry per key: registering over an existing key cancels
// the prior timer first. Construct one Registry per process and hand it to
// the orchestrator; there is no package-level instance.
type Registry struct {
	mu     sync.Mutex
	tasks  map[Key]*task
	logger logger.Logger
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tasks:  make(map[Key]*task),
		logger: &logger.Nop{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register schedules fn to run at fireAt and stores the pending task under
// key, replacing (after canceling) any prior entry with the same key. The
// task removes itself from the registry when it fires; fn runs on the
// timer's goroutine. fireAt in the past fires near-immediately.
func (r *Registry) Register(key Key, fireAt time.Time, fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.tasks[key]; ok {
		prior.timer.Stop()
		delete(r.tasks, key)
		r.logger.Debug("schedule: replaced pending entry", logger.Field{Key: "key", Value: key.String()})
	}

	t := &task{fireAt: fireAt}
	t.timer = time.AfterFunc(fireAt.Sub(r.now()), func() {
		r.complete(key, t)
		fn()
	})
	r.tasks[key] = t
	r.logger.Debug("schedule: registered entry",
		logger.Field{Key: "key", Value: key.String()},
		logger.Field{Key: "fire_at", Value: fireAt})
}

// complete removes a fired task, unless it was already replaced by a newer
// registration under the same key.
func (r *Registry) complete(key Key, t *task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.tasks[key]; ok && current == t {
		delete(r.tasks, key)
	}
}

// CancelJob cancels and removes every entry belonging to jobID. Returns the
// number of entries canceled; zero matches is not an error.
func (r *Registry) CancelJob(jobID string) int {
	return r.cancelMatching(func(k Key) bool { return k.JobID == jobID })
}

// CancelRound cancels and removes every entry for one round of jobID.
func (r *Registry) CancelRound(jobID string, round int) int {
	return r.cancelMatching(func(k Key) bool { return k.JobID == jobID && k.Round == round })
}

// Stop cancels everything. Used at shutdown.
func (r *Registry) Stop() int {
	return r.cancelMatching(func(Key) bool { return true })
}

func (r *Registry) cancelMatching(match func(Key) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	canceled := 0
	for key, t := range r.tasks {
		if !match(key) {
			continue
		}
		// Stop on a fired or stopped timer is a no-op; either way the
		// entry leaves the map and the callback will not run again.
		t.timer.Stop()
		delete(r.tasks, key)
		canceled++
	}
	return canceled
}

// List returns a snapshot of pending entries ordered by fire time.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.tasks))
	for key, t := range r.tasks {
		out = append(out, Entry{Key: key, FireAt: t.fireAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].Key.String() < out[j].Key.String()
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

// Len reports the number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
