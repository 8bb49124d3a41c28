package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func key(job string, round int, interval string) Key {
	return Key{JobID: job, Round: round, Interval: interval}
}

func TestRegisterFires(t *testing.T) {
	r := New()
	fired := make(chan struct{})

	r.Register(key("job-1", 0, "exact"), time.Now().Add(10*time.Millisecond), func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}

	// Fired tasks remove themselves.
	deadline := time.Now().Add(time.Second)
	for r.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("fired entry still in registry: %v", r.List())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRegisterReplacesSameKey(t *testing.T) {
	r := New()
	var first, second atomic.Int32
	k := key("job-1", 0, "1hr")

	r.Register(k, time.Now().Add(50*time.Millisecond), func() { first.Add(1) })
	r.Register(k, time.Now().Add(20*time.Millisecond), func() { second.Add(1) })

	if got := r.Len(); got != 1 {
		t.Fatalf("expected 1 entry after re-register, got %d", got)
	}

	time.Sleep(150 * time.Millisecond)
	if first.Load() != 0 {
		t.Fatal("replaced task fired")
	}
	if second.Load() != 1 {
		t.Fatalf("replacement fired %d times, want 1", second.Load())
	}
}

func TestCancelJobIdempotent(t *testing.T) {
	r := New()
	far := time.Now().Add(time.Hour)

	r.Register(key("job-1", 0, "1day"), far, func() { t.Error("canceled task fired") })
	r.Register(key("job-1", 0, "exact"), far, func() { t.Error("canceled task fired") })
	r.Register(key("job-1", 1, "1hr"), far, func() { t.Error("canceled task fired") })
	r.Register(key("job-2", 0, "1hr"), far, func() {})

	if got := r.CancelJob("job-1"); got != 3 {
		t.Fatalf("first cancel = %d, want 3", got)
	}
	if got := r.CancelJob("job-1"); got != 0 {
		t.Fatalf("second cancel = %d, want 0", got)
	}
	if got := r.CancelJob("never-scheduled"); got != 0 {
		t.Fatalf("cancel of unknown job = %d, want 0", got)
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("expected job-2 entry to survive, len = %d", got)
	}
}

func TestCancelRoundScoped(t *testing.T) {
	r := New()
	far := time.Now().Add(time.Hour)

	r.Register(key("job-1", 0, "1hr"), far, func() {})
	r.Register(key("job-1", 1, "1hr"), far, func() {})
	r.Register(key("job-1", 1, "exact"), far, func() {})

	if got := r.CancelRound("job-1", 1); got != 2 {
		t.Fatalf("cancel round = %d, want 2", got)
	}
	entries := r.List()
	if len(entries) != 1 || entries[0].Key.Round != 0 {
		t.Fatalf("unexpected survivors: %v", entries)
	}
}

func TestListSnapshotSorted(t *testing.T) {
	r := New()
	base := time.Now().Add(time.Hour)

	r.Register(key("job-1", 0, "exact"), base.Add(2*time.Hour), func() {})
	r.Register(key("job-1", 0, "1hr"), base.Add(time.Hour), func() {})
	r.Register(key("job-1", 0, "6hrs"), base, func() {})

	entries := r.List()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].FireAt.Before(entries[i-1].FireAt) {
			t.Fatalf("entries not sorted by fire time: %v", entries)
		}
	}
	if entries[0].Key.Interval != "6hrs" {
		t.Fatalf("expected 6hrs first, got %s", entries[0].Key.Interval)
	}
}

func TestStopCancelsEverything(t *testing.T) {
	r := New()
	far := time.Now().Add(time.Hour)
	r.Register(key("job-1", 0, "1hr"), far, func() {})
	r.Register(key("job-2", 0, "1hr"), far, func() {})

	if got := r.Stop(); got != 2 {
		t.Fatalf("stop = %d, want 2", got)
	}
	if got := r.Len(); got != 0 {
		t.Fatalf("registry not empty after stop: %d", got)
	}
}

func TestKeyString(t *testing.T) {
	k := key("65f2ab", 2, "6hrs")
	if got := k.String(); got != "65f2ab-2-6hrs" {
		t.Fatalf("key string = %q", got)
	}
}
