// Package tasktable implements the task descriptor array and per-task
// event bitfield, grounded in OSAL.h's osal_set_event/osal_clear_event
// pair. Event bits are stored as atomics rather than guarded by the
// shared critical-section primitive: set_event must be callable from
// interrupt context without taking the same lock user tasks hold, and a
// per-task atomic word gives that for free.
package tasktable

import (
	"sync/atomic"

	"github.com/songwenshuai/go-osal/internal/constants"
)

// Table is a fixed-size array of per-task event bitfields.
type Table struct {
	events  []atomic.Uint32
	current atomic.Int32 // task id of the handler currently executing, -1 if none
}

// New creates a table sized for numTasks tasks.
func New(numTasks int) *Table {
	t := &Table{events: make([]atomic.Uint32, numTasks)}
	t.current.Store(-1)
	return t
}

func (t *Table) valid(taskID uint8) bool {
	return int(taskID) < len(t.events)
}

// SetEvent ORs eventFlag into taskID's bitfield. Safe to call from
// interrupt context.
func (t *Table) SetEvent(taskID uint8, eventFlag uint16) bool {
	if !t.valid(taskID) {
		return false
	}
	for {
		old := t.events[taskID].Load()
		next := old | uint32(eventFlag)
		if t.events[taskID].CompareAndSwap(old, next) {
			return true
		}
	}
}

// ClearEvent ANDs the complement of eventFlag out of taskID's
// bitfield. Safe to call from interrupt context.
func (t *Table) ClearEvent(taskID uint8, eventFlag uint16) bool {
	if !t.valid(taskID) {
		return false
	}
	for {
		old := t.events[taskID].Load()
		next := old &^ uint32(eventFlag)
		if t.events[taskID].CompareAndSwap(old, next) {
			return true
		}
	}
}

// Peek returns taskID's current event bits without clearing them.
func (t *Table) Peek(taskID uint8) uint16 {
	if !t.valid(taskID) {
		return 0
	}
	return uint16(t.events[taskID].Load())
}

// NextReady scans tasks in increasing task_id order for the first with
// a non-zero event bitfield.
func (t *Table) NextReady() (taskID uint8, ok bool) {
	for i := range t.events {
		if t.events[i].Load() != 0 {
			return uint8(i), true
		}
	}
	return 0, false
}

// SnapshotAndClear atomically reads and zeroes taskID's event bits, the
// one step that must be atomic within an otherwise unsynchronized
// dispatch pass.
func (t *Table) SnapshotAndClear(taskID uint8) uint16 {
	if !t.valid(taskID) {
		return 0
	}
	return uint16(t.events[taskID].Swap(0))
}

// SetCurrent records which task's handler is executing, or clears it
// with constants.Unassigned when no handler is running.
func (t *Table) SetCurrent(taskID uint8) {
	if taskID == constants.Unassigned {
		t.current.Store(-1)
		return
	}
	t.current.Store(int32(taskID))
}

// Current returns the task id of the handler presently executing. The
// second return is false outside of dispatch.
func (t *Table) Current() (uint8, bool) {
	v := t.current.Load()
	if v < 0 {
		return 0, false
	}
	return uint8(v), true
}

// NumTasks reports the table's fixed size.
func (t *Table) NumTasks() int {
	return len(t.events)
}
