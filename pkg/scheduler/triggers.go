package scheduler

import (
	"slices"
	"sync"
)

type trigger struct {
	timer Timer
	seq   uint64
}

// triggerTable holds the armed one-shot triggers keyed by id.
// At most one trigger per id exists.
// Once closed no trigger is armed anymore.
type triggerTable struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]trigger
	closed  bool
	running sync.WaitGroup
}

func newTriggerTable() *triggerTable {
	return &triggerTable{entries: make(map[string]trigger)}
}

// Upsert registers the timer created by arm as trigger id. An existing trigger
// with the same id is stopped and replaced. On a closed table arm is not called
// and false is returned.
// The timer callback must call claim before doing any work. claim removes the
// trigger from the table and returns false if it was replaced or removed meanwhile.
// A successful claim must be followed by a call to Done once the work is finished.
func (t *triggerTable) Upsert(id string, arm func(claim func() bool) Timer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if old, ok := t.entries[id]; ok {
		old.timer.Stop()
	}
	t.seq++
	seq := t.seq
	claim := func() bool {
		t.mu.Lock()
		defer t.mu.Unlock()
		cur, ok := t.entries[id]
		if !ok || cur.seq != seq {
			return false
		}
		delete(t.entries, id)
		t.running.Add(1)
		return true
	}
	t.entries[id] = trigger{timer: arm(claim), seq: seq}
	return true
}

// Done marks the work of a claimed trigger as finished
func (t *triggerTable) Done() {
	t.running.Done()
}

// Remove stops and removes trigger id. It reports whether the trigger existed.
func (t *triggerTable) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.entries[id]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(t.entries, id)
	return true
}

// RemoveAll stops all triggers and returns how many were removed
func (t *triggerTable) RemoveAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.entries)
	for _, cur := range t.entries {
		cur.timer.Stop()
	}
	clear(t.entries)
	return n
}

// Close removes all triggers like RemoveAll and rejects further Upserts.
// Claimed triggers may still be running, use Wait to wait for them.
func (t *triggerTable) Close() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	n := len(t.entries)
	for _, cur := range t.entries {
		cur.timer.Stop()
	}
	clear(t.entries)
	return n
}

// Wait blocks until all claimed triggers called Done
func (t *triggerTable) Wait() {
	t.running.Wait()
}

// IDs returns the sorted ids of the armed triggers
func (t *triggerTable) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ret := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ret = append(ret, id)
	}
	slices.Sort(ret)
	return ret
}
