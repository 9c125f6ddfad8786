package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestShouldProcess_SuppressesWithinWindow(t *testing.T) {
	d := New(2 * time.Second)

	assert.True(t, d.ShouldProcess("code", t0))
	assert.False(t, d.ShouldProcess("code", t0.Add(500*time.Millisecond)))
	assert.False(t, d.ShouldProcess("code", t0.Add(1999*time.Millisecond)))
	assert.True(t, d.ShouldProcess("code", t0.Add(2*time.Second)))
}

func TestShouldProcess_SuppressedReadsDoNotExtendWindow(t *testing.T) {
	d := New(2 * time.Second)

	assert.True(t, d.ShouldProcess("code", t0))
	assert.False(t, d.ShouldProcess("code", t0.Add(1500*time.Millisecond)))
	// measured from the accepted read at t0, not the suppressed one
	assert.True(t, d.ShouldProcess("code", t0.Add(2100*time.Millisecond)))
}

func TestShouldProcess_DistinctTextsAreIndependent(t *testing.T) {
	d := New(time.Second)

	assert.True(t, d.ShouldProcess("a", t0))
	assert.True(t, d.ShouldProcess("b", t0))
	assert.False(t, d.ShouldProcess("a", t0.Add(10*time.Millisecond)))
}

func TestNew_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, New(0).Window())
	assert.Equal(t, DefaultWindow, New(-time.Second).Window())
}

func TestSweep_EvictsExpired(t *testing.T) {
	d := New(time.Second)
	d.ShouldProcess("a", t0)
	d.ShouldProcess("b", t0.Add(800*time.Millisecond))

	d.Sweep(t0.Add(1200 * time.Millisecond))
	assert.Equal(t, 1, d.Len())

	d.Sweep(t0.Add(2 * time.Second))
	assert.Equal(t, 0, d.Len())
}

func TestShouldProcess_SweepsPassively(t *testing.T) {
	d := New(time.Second)
	for i, code := range []string{"a", "b", "c"} {
		d.ShouldProcess(code, t0.Add(time.Duration(i)*time.Millisecond))
	}
	d.ShouldProcess("d", t0.Add(5*time.Second))
	assert.Equal(t, 1, d.Len())
}

func TestReset(t *testing.T) {
	d := New(time.Minute)
	d.ShouldProcess("a", t0)
	d.Reset()
	assert.Equal(t, 0, d.Len())
	assert.True(t, d.ShouldProcess("a", t0.Add(time.Second)))
}

func TestShouldProcess_ConcurrentSameTextAcceptsOnce(t *testing.T) {
	d := New(time.Minute)
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.ShouldProcess("code", t0) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
}
