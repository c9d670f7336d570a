package bufmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
)

func newManager() *Manager {
	return New(&critical.Guard{}, heap.New(&critical.Guard{}, 4096))
}

func TestAllocReturnsPayloadOfRequestedSize(t *testing.T) {
	m := newManager()
	p := m.Alloc(16)
	assert.Len(t, p, 16)
	assert.EqualValues(t, 1, m.NumActive())
}

func TestAllocRoundTripPreservesBytes(t *testing.T) {
	m := newManager()
	p := m.Alloc(8)
	for i := range p {
		p[i] = byte(i + 1)
	}
	for i := range p {
		assert.EqualValues(t, i+1, p[i])
	}
}

func TestFreeUnlinksDescriptor(t *testing.T) {
	m := newManager()
	p := m.Alloc(16)
	m.Free(p)
	assert.EqualValues(t, 0, m.NumActive())
}

func TestFreeUnknownPointerIsNoop(t *testing.T) {
	m := newManager()
	m.Alloc(16)
	other := make([]byte, 4)
	m.Free(other)
	assert.EqualValues(t, 1, m.NumActive())
}

// TestAdjustHeaderRoundTrip matches scenario S6: adjust_header moves the
// payload pointer backward by delta into header space, and the inverse
// adjustment restores the original pointer.
func TestAdjustHeaderRoundTrip(t *testing.T) {
	m := newManager()
	p := m.Alloc(16)

	p2 := m.AdjustHeader(p, 4)
	assert.Len(t, p2, 20)
	assert.Equal(t, &p[0], &p2[4])

	back := m.AdjustHeader(p2, -4)
	assert.Equal(t, &p[0], &back[0])
	assert.Len(t, back, 16)
}

func TestAdjustHeaderOutOfRangeReturnsUnchanged(t *testing.T) {
	m := newManager()
	p := m.Alloc(16)

	adjusted := m.AdjustHeader(p, 100)
	assert.Equal(t, &p[0], &adjusted[0])
	assert.Len(t, adjusted, 16)
}

func TestAdjustTailShrinksWithinRange(t *testing.T) {
	m := newManager()
	p := m.Alloc(16)

	shrunk := m.AdjustTail(p, 4)
	assert.Len(t, shrunk, 12)
	assert.Equal(t, &p[0], &shrunk[0])
}

func TestAdjustTailOutOfRangeReturnsUnchanged(t *testing.T) {
	m := newManager()
	p := m.Alloc(16)

	adjusted := m.AdjustTail(p, 100)
	assert.Equal(t, &p[0], &adjusted[0])
	assert.Len(t, adjusted, 16)
}

func TestAdjustOnUnknownPointerReturnsUnchanged(t *testing.T) {
	m := newManager()
	other := make([]byte, 4)
	adjusted := m.AdjustHeader(other, 1)
	assert.Equal(t, &other[0], &adjusted[0])
}

func TestAllocReturnsNilWhenArenaExhausted(t *testing.T) {
	m := New(&critical.Guard{}, heap.New(&critical.Guard{}, headerSize))
	first := m.Alloc(0)
	require.NotNil(t, first)
	assert.Nil(t, m.Alloc(16))
}
