package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
)

func newWheel() *Wheel {
	return New(&critical.Guard{}, heap.New(&critical.Guard{}, 4096))
}

func TestStartTimerFiresAfterElapsed(t *testing.T) {
	w := newWheel()
	w.StartTimer(0, 0x0002, 5)

	var fired []uint16
	w.Update(4, func(taskID uint8, event uint16) { fired = append(fired, event) })
	assert.Empty(t, fired)
	assert.EqualValues(t, 1, w.GetTimeout(0, 0x0002))

	w.Update(1, func(taskID uint8, event uint16) { fired = append(fired, event) })
	assert.Equal(t, []uint16{0x0002}, fired)
	assert.EqualValues(t, 0, w.NumActive())
}

func TestReloadTimerResetsAndCoalesces(t *testing.T) {
	w := newWheel()
	w.StartReloadTimer(0, 0x0004, 10)

	var fired []uint16
	w.Update(25, func(taskID uint8, event uint16) { fired = append(fired, event) })

	// The event fires exactly once even though 25ms covers more than one
	// 10ms period: this matches the source's coalescing behavior, not a
	// per-cycle replay.
	assert.Equal(t, []uint16{0x0004}, fired)
	assert.EqualValues(t, 10, w.GetTimeout(0, 0x0004))
	assert.EqualValues(t, 1, w.NumActive())
}

func TestStartTimerIsIdempotentPerTaskEvent(t *testing.T) {
	w := newWheel()
	w.StartTimer(1, 0x0001, 100)
	w.StartTimer(1, 0x0001, 50)

	assert.EqualValues(t, 1, w.NumActive())
	assert.EqualValues(t, 50, w.GetTimeout(1, 0x0001))
}

func TestStopTimerIsNonDestructive(t *testing.T) {
	w := newWheel()
	w.StartTimer(2, 0x0008, 5)
	assert.True(t, w.StopTimer(2, 0x0008))

	var fired []uint16
	w.Update(5, func(taskID uint8, event uint16) { fired = append(fired, event) })

	// The sweep observes the cleared event flag and drops the record
	// without firing.
	assert.Empty(t, fired)
	assert.EqualValues(t, 0, w.NumActive())
}

func TestStopUnknownTimerReturnsFalse(t *testing.T) {
	w := newWheel()
	assert.False(t, w.StopTimer(9, 0x0001))
}

func TestNextTimeoutIsMinimumAcrossList(t *testing.T) {
	w := newWheel()
	w.StartTimer(0, 0x0001, 50)
	w.StartTimer(0, 0x0002, 10)
	w.StartTimer(1, 0x0001, 30)

	assert.EqualValues(t, 10, w.NextTimeout())
}

func TestNextTimeoutEmptyList(t *testing.T) {
	w := newWheel()
	assert.EqualValues(t, 0, w.NextTimeout())
}

func TestUpdateOrderProcessesEarlierRecordsFirst(t *testing.T) {
	w := newWheel()
	w.StartTimer(0, 0x0001, 5)
	w.StartTimer(1, 0x0002, 5)

	var order []uint8
	w.Update(5, func(taskID uint8, event uint16) { order = append(order, taskID) })

	assert.Equal(t, []uint8{0, 1}, order)
}

func TestSaturatingDecrementNeverGoesNegative(t *testing.T) {
	w := newWheel()
	w.StartTimer(0, 0x0001, 5)

	var fired int
	w.Update(1000, func(taskID uint8, event uint16) { fired++ })
	assert.Equal(t, 1, fired)
}

func TestStartTimerReturnsFalseWhenArenaExhausted(t *testing.T) {
	w := New(&critical.Guard{}, heap.New(&critical.Guard{}, recordSize))
	assert.True(t, w.StartTimer(0, 0x0001, 10))
	assert.False(t, w.StartTimer(1, 0x0002, 10))
}

func TestStartTimerReusesRecordAfterArenaFreesIt(t *testing.T) {
	w := New(&critical.Guard{}, heap.New(&critical.Guard{}, recordSize))
	require.True(t, w.StartTimer(0, 0x0001, 5))

	var fired []uint8
	w.Update(5, func(taskID uint8, event uint16) { fired = append(fired, taskID) })
	assert.Equal(t, []uint8{0}, fired)

	assert.True(t, w.StartTimer(1, 0x0002, 10))
}
