package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func (t *triggerTable) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func TestTriggerTable_UpsertReplaces(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC))
	table := newTriggerTable()
	fired := []string{}

	add := func(id, tag string, d time.Duration) {
		table.Upsert(id, func(claim func() bool) Timer {
			return clock.AfterFunc(d, func() {
				if claim() {
					fired = append(fired, tag)
					table.Done()
				}
			})
		})
	}
	add("run_a", "first", time.Minute)
	add("run_a", "second", 2*time.Minute)
	add("run_b", "other", 3*time.Minute)
	assert.Equal(t, []string{"run_a", "run_b"}, table.IDs())

	clock.Advance(5 * time.Minute)
	assert.Equal(t, []string{"second", "other"}, fired)
	assert.Empty(t, table.IDs())
}

func TestTriggerTable_ClaimAfterReplace(t *testing.T) {
	table := newTriggerTable()
	var stale func() bool
	table.Upsert("lock_a", func(claim func() bool) Timer {
		stale = claim
		return time.NewTimer(time.Hour)
	})
	table.Upsert("lock_a", func(claim func() bool) Timer {
		return time.NewTimer(time.Hour)
	})
	assert.False(t, stale())
	assert.Equal(t, []string{"lock_a"}, table.IDs())
	assert.Equal(t, 1, table.RemoveAll())
}

func TestTriggerTable_Remove(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC))
	table := newTriggerTable()
	fired := 0
	for _, id := range []string{"run_c", "run_a", "lock_b"} {
		table.Upsert(id, func(claim func() bool) Timer {
			return clock.AfterFunc(time.Minute, func() {
				if claim() {
					fired++
					table.Done()
				}
			})
		})
	}
	assert.Equal(t, []string{"lock_b", "run_a", "run_c"}, table.IDs())
	assert.True(t, table.Remove("run_a"))
	assert.False(t, table.Remove("run_a"))
	assert.Equal(t, 2, table.RemoveAll())

	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
}

func TestTriggerTable_Close(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC))
	table := newTriggerTable()
	release := make(chan struct{})
	started := make(chan struct{})
	table.Upsert("run_a", func(claim func() bool) Timer {
		return clock.AfterFunc(time.Minute, func() {
			if claim() {
				defer table.Done()
				close(started)
				<-release
			}
		})
	})
	table.Upsert("run_b", func(claim func() bool) Timer {
		return clock.AfterFunc(time.Hour, func() {})
	})
	go clock.Advance(time.Minute)
	<-started

	assert.Equal(t, 1, table.Close())
	armed := table.Upsert("run_c", func(claim func() bool) Timer {
		t.Fatal("arm called on closed table")
		return nil
	})
	assert.False(t, armed)
	assert.Empty(t, table.IDs())

	waited := make(chan struct{})
	go func() {
		table.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatal("Wait returned while a claimed trigger is running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-waited
}
