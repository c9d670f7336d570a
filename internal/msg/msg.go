// Package msg implements a message pool grounded in OSAL.h's
// osal_msg_allocate/deallocate/send/push_front/receive/find/count
// family and the generic osal_msg_enqueue/dequeue/push/extract queue
// primitives it's built from. Like internal/bufmgr, a header sits
// immediately before the caller-visible payload and is recovered by
// unsafe.Add pointer arithmetic rather than via a handle table.
package msg

import (
	"unsafe"

	"github.com/songwenshuai/go-osal/internal/constants"
	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
)

type header struct {
	next   *header
	len    uint16
	destID uint8
}

var headerSize = int(unsafe.Sizeof(header{}))

func headerFromPayload(payload []byte) *header {
	if len(payload) == 0 {
		return nil
	}
	return (*header)(unsafe.Add(unsafe.Pointer(&payload[0]), -headerSize))
}

func payloadFromHeader(h *header) []byte {
	if h == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(h), headerSize)), h.len)
}

// Queue is a singly-linked FIFO of messages, the generic primitive
// osal_msg_enqueue/dequeue/push/extract operate on independent of any
// task ID.
type Queue struct {
	head *header
}

// Enqueue appends to the tail (FIFO order).
func (q *Queue) Enqueue(payload []byte) {
	h := headerFromPayload(payload)
	h.next = nil
	if q.head == nil {
		q.head = h
		return
	}
	tail := q.head
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = h
}

// EnqueueMax appends to the tail unless the queue already holds max
// messages, in which case it reports failure and leaves the queue
// unchanged.
func (q *Queue) EnqueueMax(payload []byte, max uint8) bool {
	if max == 0 {
		return false
	}
	n := uint8(0)
	for h := q.head; h != nil; h = h.next {
		n++
		if n >= max {
			return false
		}
	}
	q.Enqueue(payload)
	return true
}

// Push prepends to the head (LIFO relative to the existing head).
func (q *Queue) Push(payload []byte) {
	h := headerFromPayload(payload)
	h.next = q.head
	q.head = h
}

// Dequeue pops and returns the head message, nil if the queue is
// empty.
func (q *Queue) Dequeue() []byte {
	if q.head == nil {
		return nil
	}
	h := q.head
	q.head = h.next
	h.next = nil
	return payloadFromHeader(h)
}

// Extract removes an arbitrary message from the queue given the
// message immediately preceding it (nil if target is the head),
// mirroring osal_msg_extract's explicit prev_ptr argument.
func (q *Queue) Extract(payload []byte, prev []byte) {
	target := headerFromPayload(payload)
	if prev == nil {
		if q.head == target {
			q.head = target.next
		}
		return
	}
	prevHdr := headerFromPayload(prev)
	if prevHdr.next == target {
		prevHdr.next = target.next
	}
}

// Pool is the message allocator plus the set of per-task FIFO queues it
// feeds.
type Pool struct {
	guard  *critical.Guard
	arena  *heap.Arena
	queues map[uint8]*Queue
}

// New creates an empty pool sharing the given guard and drawing message
// storage from arena.
func New(guard *critical.Guard, arena *heap.Arena) *Pool {
	return &Pool{guard: guard, arena: arena, queues: make(map[uint8]*Queue)}
}

// Allocate reserves a message of the given payload length from the
// arena, recording the length in its header and setting destID to
// constants.Unassigned (0xFF). Returns nil if the
// arena has no block large enough (MSG_BUFFER_NOT_AVAIL).
func (p *Pool) Allocate(length uint16) []byte {
	raw := p.arena.Alloc(headerSize + int(length))
	if raw == nil {
		return nil
	}
	h := (*header)(unsafe.Pointer(&raw[0]))
	h.len = length
	h.destID = constants.Unassigned
	if length == 0 {
		return raw[headerSize:headerSize]
	}
	return payloadFromHeader(h)
}

// Deallocate releases a message's storage back to the arena; the
// receiver calls it once it is done with a received message. A
// nil/empty payload is a no-op.
func (p *Pool) Deallocate(payload []byte) {
	h := headerFromPayload(payload)
	if h == nil {
		return
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(h)), headerSize+int(h.len))
	p.arena.Free(raw)
}

func (p *Pool) queueFor(taskID uint8) *Queue {
	q, ok := p.queues[taskID]
	if !ok {
		q = &Queue{}
		p.queues[taskID] = q
	}
	return q
}

// Send delivers payload to destTaskID's queue, FIFO.
func (p *Pool) Send(destTaskID uint8, payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	h := headerFromPayload(payload)
	h.destID = destTaskID

	p.guard.Enter()
	defer p.guard.Exit()
	p.queueFor(destTaskID).Enqueue(payload)
	return true
}

// PushFront delivers payload to the front of destTaskID's queue, strict
// LIFO relative to the existing head.
func (p *Pool) PushFront(destTaskID uint8, payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	h := headerFromPayload(payload)
	h.destID = destTaskID

	p.guard.Enter()
	defer p.guard.Exit()
	p.queueFor(destTaskID).Push(payload)
	return true
}

// Receive pops the next message for taskID, nil if none pending.
func (p *Pool) Receive(taskID uint8) []byte {
	p.guard.Enter()
	defer p.guard.Exit()
	return p.queueFor(taskID).Dequeue()
}

// Find scans taskID's queue in place for a message whose first payload
// byte equals event, without removing it.
func (p *Pool) Find(taskID uint8, event uint8) []byte {
	p.guard.Enter()
	defer p.guard.Exit()
	q := p.queueFor(taskID)
	for h := q.head; h != nil; h = h.next {
		payload := payloadFromHeader(h)
		if len(payload) > 0 && payload[0] == event {
			return payload
		}
	}
	return nil
}

// Count returns how many queued messages for taskID match event.
func (p *Pool) Count(taskID uint8, event uint8) uint8 {
	p.guard.Enter()
	defer p.guard.Exit()
	q := p.queueFor(taskID)
	var n uint8
	for h := q.head; h != nil; h = h.next {
		payload := payloadFromHeader(h)
		if len(payload) > 0 && payload[0] == event {
			n++
		}
	}
	return n
}

// Take finds the first queued message for taskID matching event and
// removes it, returning nil if none match. Built on Find plus the
// generic Extract primitive, the way a caller would pair
// osal_msg_find with osal_msg_extract to consume a located message.
func (p *Pool) Take(taskID uint8, event uint8) []byte {
	p.guard.Enter()
	defer p.guard.Exit()

	q := p.queueFor(taskID)
	var prev *header
	for h := q.head; h != nil; h = h.next {
		payload := payloadFromHeader(h)
		if len(payload) > 0 && payload[0] == event {
			var prevPayload []byte
			if prev != nil {
				prevPayload = payloadFromHeader(prev)
			}
			q.Extract(payload, prevPayload)
			return payload
		}
		prev = h
	}
	return nil
}

// QueueLen reports how many messages are queued for taskID.
func (p *Pool) QueueLen(taskID uint8) int {
	p.guard.Enter()
	defer p.guard.Exit()
	n := 0
	for h := p.queueFor(taskID).head; h != nil; h = h.next {
		n++
	}
	return n
}
