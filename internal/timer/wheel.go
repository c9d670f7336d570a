// Package timer implements a software timer wheel, adapted
// from OSAL_Timers.c's osalAddTimer / osalFindTimer / osalDeleteTimer /
// osalTimerUpdate. The C source's 8/16/32-bit decrement fast path is a
// micro-optimization around a single uint32 subtract; this package keeps
// only the uint32 semantics it exists to optimize.
package timer

import (
	"unsafe"

	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
)

// Record is one scheduled future event-set, optionally periodic. Fields
// mirror the C osalTimerRec_t exactly.
type Record struct {
	next      *Record
	TaskID    uint8
	EventFlag uint16 // 0 marks a tombstoned record, reaped on the next Update
	TimeoutMS uint32 // remaining milliseconds
	ReloadMS  uint32 // 0 = one-shot
}

var recordSize = int(unsafe.Sizeof(Record{}))

// SetEventFunc is called by Update when a record expires (or completes a
// reload cycle), delivering the event to the task table.
type SetEventFunc func(taskID uint8, eventFlag uint16)

// Wheel is the active timer list plus the guard it shares with the
// clock and lease registry.
type Wheel struct {
	guard *critical.Guard
	arena *heap.Arena
	head  *Record
}

// New creates an empty wheel sharing the given guard and drawing
// record storage from arena.
func New(guard *critical.Guard, arena *heap.Arena) *Wheel {
	return &Wheel{guard: guard, arena: arena}
}

// find locates an existing record for (taskID, eventFlag). Caller must
// hold the guard.
func (w *Wheel) find(taskID uint8, eventFlag uint16) *Record {
	for r := w.head; r != nil; r = r.next {
		if r.TaskID == taskID && r.EventFlag == eventFlag {
			return r
		}
	}
	return nil
}

// newRecord reserves a Record from the arena, nil on exhaustion
// (NO_TIMER_AVAIL). Called with the guard released, since arena
// allocation must not nest inside the guard that protects this list.
func (w *Wheel) newRecord(taskID uint8, eventFlag uint16, timeoutMS uint32) *Record {
	raw := w.arena.Alloc(recordSize)
	if raw == nil {
		return nil
	}
	rec := (*Record)(unsafe.Pointer(&raw[0]))
	*rec = Record{TaskID: taskID, EventFlag: eventFlag, TimeoutMS: timeoutMS}
	return rec
}

// link appends rec to the tail of the list, mirroring osalAddTimer's
// tail-append when the list already exists. Caller must hold the guard.
func (w *Wheel) link(rec *Record) {
	if w.head == nil {
		w.head = rec
		return
	}
	tail := w.head
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = rec
}

// StartTimer starts (or restarts) a one-shot timer. Returns false if no
// existing record matches and the arena has no block free for a new
// one.
func (w *Wheel) StartTimer(taskID uint8, eventFlag uint16, timeoutMS uint32) bool {
	w.guard.Enter()
	if existing := w.find(taskID, eventFlag); existing != nil {
		existing.TimeoutMS = timeoutMS
		w.guard.Exit()
		return true
	}
	w.guard.Exit()

	rec := w.newRecord(taskID, eventFlag, timeoutMS)
	if rec == nil {
		return false
	}

	w.guard.Enter()
	if existing := w.find(taskID, eventFlag); existing != nil {
		existing.TimeoutMS = timeoutMS
		w.guard.Exit()
		w.arena.Free(unsafe.Slice((*byte)(unsafe.Pointer(rec)), recordSize))
		return true
	}
	w.link(rec)
	w.guard.Exit()
	return true
}

// StartReloadTimer starts (or restarts) a periodic timer. Returns false
// if no existing record matches and the arena has no block free for a
// new one.
func (w *Wheel) StartReloadTimer(taskID uint8, eventFlag uint16, timeoutMS uint32) bool {
	w.guard.Enter()
	if existing := w.find(taskID, eventFlag); existing != nil {
		existing.TimeoutMS = timeoutMS
		existing.ReloadMS = timeoutMS
		w.guard.Exit()
		return true
	}
	w.guard.Exit()

	rec := w.newRecord(taskID, eventFlag, timeoutMS)
	if rec == nil {
		return false
	}
	rec.ReloadMS = timeoutMS

	w.guard.Enter()
	if existing := w.find(taskID, eventFlag); existing != nil {
		existing.TimeoutMS = timeoutMS
		existing.ReloadMS = timeoutMS
		w.guard.Exit()
		w.arena.Free(unsafe.Slice((*byte)(unsafe.Pointer(rec)), recordSize))
		return true
	}
	w.link(rec)
	w.guard.Exit()
	return true
}

// StopTimer tombstones the matching record; the sweep in Update removes
// it on the next tick.
func (w *Wheel) StopTimer(taskID uint8, eventFlag uint16) bool {
	w.guard.Enter()
	defer w.guard.Exit()
	rec := w.find(taskID, eventFlag)
	if rec == nil {
		return false
	}
	rec.EventFlag = 0
	return true
}

// GetTimeout returns the record's remaining milliseconds, 0 if absent.
func (w *Wheel) GetTimeout(taskID uint8, eventFlag uint16) uint32 {
	w.guard.Enter()
	defer w.guard.Exit()
	rec := w.find(taskID, eventFlag)
	if rec == nil {
		return 0
	}
	return rec.TimeoutMS
}

// NumActive counts the list length.
func (w *Wheel) NumActive() int {
	w.guard.Enter()
	defer w.guard.Exit()
	n := 0
	for r := w.head; r != nil; r = r.next {
		n++
	}
	return n
}

// NextTimeout returns the smallest remaining ms across the list, or 0
// when empty.
func (w *Wheel) NextTimeout() uint32 {
	w.guard.Enter()
	defer w.guard.Exit()
	if w.head == nil {
		return 0
	}
	min := w.head.TimeoutMS
	for r := w.head.next; r != nil; r = r.next {
		if r.TimeoutMS < min {
			min = r.TimeoutMS
		}
	}
	return min
}

// Update is the core sweep invoked by the clock each tick. Earlier
// records in the list are processed first. setEvent is called with the
// guard released so it may itself take the shared guard without risk of
// self-deadlock.
func (w *Wheel) Update(elapsedMS uint32, setEvent SetEventFunc) {
	type firing struct {
		taskID    uint8
		eventFlag uint16
	}
	var fired []firing
	var freed [][]byte

	w.guard.Enter()
	var prev *Record
	r := w.head
	for r != nil {
		next := r.next

		if r.TimeoutMS > elapsedMS {
			r.TimeoutMS -= elapsedMS
		} else {
			r.TimeoutMS = 0
		}

		expired := r.TimeoutMS == 0
		tombstoned := r.EventFlag == 0

		if expired && !tombstoned {
			fired = append(fired, firing{r.TaskID, r.EventFlag})
		}

		if tombstoned || expired {
			if r.ReloadMS > 0 && !tombstoned {
				r.TimeoutMS = r.ReloadMS
				prev = r
				r = next
				continue
			}
			// Unlink; the backing record is freed once the guard is
			// released, since arena.Free must not nest inside this guard.
			if prev == nil {
				w.head = next
			} else {
				prev.next = next
			}
			freed = append(freed, unsafe.Slice((*byte)(unsafe.Pointer(r)), recordSize))
			r = next
			continue
		}

		prev = r
		r = next
	}
	w.guard.Exit()

	for _, raw := range freed {
		w.arena.Free(raw)
	}
	for _, f := range fired {
		setEvent(f.taskID, f.eventFlag)
	}
}
