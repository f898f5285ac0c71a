package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	fake := NewFake(epoch)
	var order []string
	var seen []time.Duration

	fake.AfterFunc(30*time.Millisecond, func() {
		order = append(order, "c")
		seen = append(seen, fake.Now().Sub(epoch))
	})
	fake.AfterFunc(10*time.Millisecond, func() {
		order = append(order, "a")
		seen = append(seen, fake.Now().Sub(epoch))
	})
	fake.AfterFunc(10*time.Millisecond, func() {
		order = append(order, "b")
		seen = append(seen, fake.Now().Sub(epoch))
	})

	fake.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, fake.Pending())

	fake.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond}, seen)
	assert.Equal(t, 40*time.Millisecond, fake.Now().Sub(epoch))
}

func TestFakeStop(t *testing.T) {
	fake := NewFake(epoch)
	fired := false
	timer := fake.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	fake.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Zero(t, fake.Pending())
}

func TestFakeRearmDuringAdvance(t *testing.T) {
	fake := NewFake(epoch)
	count := 0
	var step func()
	step = func() {
		count++
		fake.AfterFunc(16*time.Millisecond, step)
	}
	fake.AfterFunc(16*time.Millisecond, step)

	fake.Advance(160 * time.Millisecond)
	assert.Equal(t, 10, count)
	assert.Equal(t, 1, fake.Pending())
}
