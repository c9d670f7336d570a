// Package bufmgr implements a buffer manager keyed by pointer identity,
// ported from OSAL_Bufmgr.c's
// osal_bm_alloc/osal_bm_free/osal_bm_adjust_header/osal_bm_adjust_tail.
// The C source places a descriptor header immediately before the
// caller-visible payload and recovers it by address-range containment;
// this package keeps that layout using unsafe.Pointer arithmetic rather
// than switching to a handle-indirection scheme.
package bufmgr

import (
	"unsafe"

	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
)

type descriptor struct {
	next       *descriptor
	payloadLen uint16
}

var headerSize = int(unsafe.Sizeof(descriptor{}))

// Manager is the active buffer descriptor list plus the guard it shares
// with the rest of the kernel's critical-section-protected state.
type Manager struct {
	guard *critical.Guard
	arena *heap.Arena
	head  *descriptor
}

// New creates an empty manager sharing the given guard and drawing
// buffer storage from arena.
func New(guard *critical.Guard, arena *heap.Arena) *Manager {
	return &Manager{guard: guard, arena: arena}
}

func startPtr(d *descriptor) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(d), headerSize)
}

func endPtr(d *descriptor) unsafe.Pointer {
	return unsafe.Add(startPtr(d), d.payloadLen)
}

// contains reports whether p lies between the start of d's header and
// one byte past the end of its payload, inclusive on both ends.
func contains(d *descriptor, p unsafe.Pointer) bool {
	addr := uintptr(p)
	return addr >= uintptr(unsafe.Pointer(d)) && addr <= uintptr(endPtr(d))
}

// Alloc reserves sizeof(descriptor)+size bytes from the arena,
// head-inserts the new descriptor into the list, and returns the
// payload region. Returns nil if the arena has no block large enough.
func (m *Manager) Alloc(size uint16) []byte {
	raw := m.arena.Alloc(headerSize + int(size))
	if raw == nil {
		return nil
	}
	d := (*descriptor)(unsafe.Pointer(&raw[0]))
	d.payloadLen = size

	m.guard.Enter()
	d.next = m.head
	m.head = d
	m.guard.Exit()

	if size == 0 {
		return raw[headerSize:headerSize]
	}
	return unsafe.Slice((*byte)(startPtr(d)), size)
}

// Free locates the descriptor whose payload range contains the pointer,
// unlinks it, and releases its backing bytes to the arena. A payload
// not owned by this manager is a no-op.
func (m *Manager) Free(payload []byte) {
	ptr, ok := payloadPtr(payload)
	if !ok {
		return
	}

	m.guard.Enter()
	var prev, target *descriptor
	for d := m.head; d != nil; d = d.next {
		if contains(d, ptr) {
			if prev == nil {
				m.head = d.next
			} else {
				prev.next = d.next
			}
			target = d
			break
		}
		prev = d
	}
	m.guard.Exit()

	if target != nil {
		m.arena.Free(unsafe.Slice((*byte)(unsafe.Pointer(target)), headerSize+int(target.payloadLen)))
	}
}

// AdjustHeader returns payload-delta if that address stays within the
// owning descriptor's range, else payload unchanged. A positive delta grows the buffer backward into
// header space; a negative delta shrinks it.
func (m *Manager) AdjustHeader(payload []byte, delta int16) []byte {
	ptr, ok := payloadPtr(payload)
	if !ok {
		return payload
	}

	m.guard.Enter()
	d := m.find(ptr)
	m.guard.Exit()
	if d == nil {
		return payload
	}

	newPtr := unsafe.Add(ptr, -int(delta))
	if !contains(d, newPtr) {
		return payload
	}
	newLen := len(payload) + int(delta)
	if newLen < 0 {
		return payload
	}
	return unsafe.Slice((*byte)(newPtr), newLen)
}

// AdjustTail returns payload_end-delta if that address stays within the
// owning descriptor's range, else payload unchanged.
func (m *Manager) AdjustTail(payload []byte, delta int16) []byte {
	ptr, ok := payloadPtr(payload)
	if !ok {
		return payload
	}

	m.guard.Enter()
	d := m.find(ptr)
	m.guard.Exit()
	if d == nil {
		return payload
	}

	newPtr := unsafe.Add(endPtr(d), -int(delta))
	if !contains(d, newPtr) {
		return payload
	}
	newLen := int(uintptr(newPtr) - uintptr(ptr))
	if newLen < 0 {
		return payload
	}
	return unsafe.Slice((*byte)(ptr), newLen)
}

// find locates the descriptor owning ptr. Caller must hold the guard.
func (m *Manager) find(ptr unsafe.Pointer) *descriptor {
	for d := m.head; d != nil; d = d.next {
		if contains(d, ptr) {
			return d
		}
	}
	return nil
}

// NumActive counts the live descriptor list, useful for leak-detection
// in tests.
func (m *Manager) NumActive() int {
	m.guard.Enter()
	defer m.guard.Exit()
	n := 0
	for d := m.head; d != nil; d = d.next {
		n++
	}
	return n
}

func payloadPtr(payload []byte) (unsafe.Pointer, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	return unsafe.Pointer(&payload[0]), true
}
