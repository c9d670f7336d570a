package msg

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
)

func newPool() *Pool {
	return New(&critical.Guard{}, heap.New(&critical.Guard{}, 4096))
}

// TestSendReceiveRoundTrip matches scenario S3: a task allocates an
// 8-byte payload, sends it, and the receiving task dequeues the exact
// bytes.
func TestSendReceiveRoundTrip(t *testing.T) {
	p := newPool()
	payload := p.Allocate(8)
	for i := range payload {
		payload[i] = byte(i + 1)
	}

	assert.True(t, p.Send(1, payload))

	received := p.Receive(1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, received)
	assert.Nil(t, p.Receive(1))
}

func TestSendIsFIFO(t *testing.T) {
	p := newPool()
	first := p.Allocate(1)
	first[0] = 'a'
	second := p.Allocate(1)
	second[0] = 'b'

	p.Send(2, first)
	p.Send(2, second)

	assert.Equal(t, byte('a'), p.Receive(2)[0])
	assert.Equal(t, byte('b'), p.Receive(2)[0])
}

func TestPushFrontIsStrictLIFORelativeToHead(t *testing.T) {
	p := newPool()
	a := p.Allocate(1)
	a[0] = 'a'
	b := p.Allocate(1)
	b[0] = 'b'
	c := p.Allocate(1)
	c[0] = 'c'

	p.Send(3, a)
	p.PushFront(3, b)
	p.PushFront(3, c)

	assert.Equal(t, byte('c'), p.Receive(3)[0])
	assert.Equal(t, byte('b'), p.Receive(3)[0])
	assert.Equal(t, byte('a'), p.Receive(3)[0])
}

func TestFindDoesNotRemove(t *testing.T) {
	p := newPool()
	msg := p.Allocate(1)
	msg[0] = 0x05
	p.Send(4, msg)

	found := p.Find(4, 0x05)
	assert.NotNil(t, found)
	assert.EqualValues(t, 1, p.QueueLen(4))
}

func TestCountMatchesMultipleMessages(t *testing.T) {
	p := newPool()
	for _, event := range []byte{0x01, 0x02, 0x01} {
		m := p.Allocate(1)
		m[0] = event
		p.Send(5, m)
	}

	assert.EqualValues(t, 2, p.Count(5, 0x01))
	assert.EqualValues(t, 1, p.Count(5, 0x02))
}

func TestTakeFindsAndRemoves(t *testing.T) {
	p := newPool()
	a := p.Allocate(1)
	a[0] = 0x01
	b := p.Allocate(1)
	b[0] = 0x02
	p.Send(6, a)
	p.Send(6, b)

	taken := p.Take(6, 0x02)
	assert.Equal(t, byte(0x02), taken[0])
	assert.EqualValues(t, 1, p.QueueLen(6))
	assert.Equal(t, byte(0x01), p.Receive(6)[0])
}

func TestEnqueueMaxRejectsOverCapacity(t *testing.T) {
	q := &Queue{}
	first := make([]byte, headerSize+1)
	h1 := (*header)(unsafe.Pointer(&first[0]))
	h1.len = 1
	assert.True(t, q.EnqueueMax(payloadFromHeader(h1), 1))

	second := make([]byte, headerSize+1)
	h2 := (*header)(unsafe.Pointer(&second[0]))
	h2.len = 1
	assert.False(t, q.EnqueueMax(payloadFromHeader(h2), 1))
}

func TestReceiveOnEmptyQueueReturnsNil(t *testing.T) {
	p := newPool()
	assert.Nil(t, p.Receive(42))
}

func TestAllocateReturnsNilWhenArenaExhausted(t *testing.T) {
	p := New(&critical.Guard{}, heap.New(&critical.Guard{}, headerSize))
	first := p.Allocate(0)
	require.NotNil(t, first)
	assert.Nil(t, p.Allocate(8))
}
