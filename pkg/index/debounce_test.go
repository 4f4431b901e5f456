package index_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/tagdex/pkg/index"
)

type fireRecorder struct {
	mu    sync.Mutex
	keys  []index.DocumentKey
	fired chan index.DocumentKey
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{fired: make(chan index.DocumentKey, 16)}
}

func (r *fireRecorder) fire(key index.DocumentKey) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
	r.fired <- key
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func waitFired(t *testing.T, r *fireRecorder) index.DocumentKey {
	t.Helper()
	select {
	case key := <-r.fired:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
		return ""
	}
}

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	rec := newFireRecorder()
	d := index.NewDebouncer(30*time.Millisecond, rec.fire)
	defer d.Stop()

	// a burst of edits collapses into one rescan
	for i := 0; i < 10; i++ {
		d.Trigger("doc", 10)
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, index.DocumentKey("doc"), waitFired(t, rec))

	// give a stray second fire time to show up; there must be none
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestDebouncerIsPerDocument(t *testing.T) {
	rec := newFireRecorder()
	d := index.NewDebouncer(20*time.Millisecond, rec.fire)
	defer d.Stop()

	d.Trigger("a", 10)
	d.Trigger("b", 10)
	require.Equal(t, 2, d.Pending())

	got := map[index.DocumentKey]bool{}
	got[waitFired(t, rec)] = true
	got[waitFired(t, rec)] = true

	assert.True(t, got["a"])
	assert.True(t, got["b"])
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	rec := newFireRecorder()
	d := index.NewDebouncer(30*time.Millisecond, rec.fire)
	defer d.Stop()

	d.Trigger("doc", 10)
	d.Cancel("doc")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerStopDropsEverything(t *testing.T) {
	rec := newFireRecorder()
	d := index.NewDebouncer(30*time.Millisecond, rec.fire)

	d.Trigger("a", 10)
	d.Trigger("b", 10)
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestDebouncerScalesDelayWithChangeSize(t *testing.T) {
	rec := newFireRecorder()
	d := index.NewDebouncer(40*time.Millisecond, rec.fire)
	defer d.Stop()

	// a large edit quadruples the quiet period, so nothing fires within the
	// base delay
	d.Trigger("doc", 50_000)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	assert.Equal(t, index.DocumentKey("doc"), waitFired(t, rec))
}
