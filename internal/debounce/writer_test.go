package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) record(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

func TestRapidSetsCoalesceToLastValue(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(30*time.Millisecond, rec.record)

	for i := 1; i <= 10; i++ {
		w.Set(i)
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{10}, rec.snapshot())
}

func TestSeparatedSetsBothFlush(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(10*time.Millisecond, rec.record)

	w.Set(1)
	time.Sleep(40 * time.Millisecond)
	w.Set(2)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{1, 2}, rec.snapshot())
}

func TestFlushWritesPendingImmediately(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(time.Hour, rec.record)

	w.Set(7)
	w.Flush()

	assert.Equal(t, []int{7}, rec.snapshot())

	w.Flush()
	assert.Equal(t, []int{7}, rec.snapshot(), "flush with nothing pending is a no-op")
}

func TestCloseFlushesAndRejectsFurtherSets(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(time.Hour, rec.record)

	w.Set(1)
	w.Close()
	w.Set(2)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []int{1}, rec.snapshot())
}

func TestDiscardDropsPendingWithoutFlushing(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(10*time.Millisecond, rec.record)

	w.Set(1)
	w.Discard()
	w.Set(2)

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
