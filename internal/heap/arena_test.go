package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/songwenshuai/go-osal/internal/critical"
)

func newArena(size int) *Arena {
	return New(&critical.Guard{}, size)
}

func TestAllocReturnsRequestedLength(t *testing.T) {
	a := newArena(1024)
	buf := a.Alloc(100)
	assert.Len(t, buf, 100)
}

func TestAllocExhaustionReturnsNil(t *testing.T) {
	a := newArena(64)
	first := a.Alloc(64)
	assert.NotNil(t, first)

	second := a.Alloc(1)
	assert.Nil(t, second)
}

func TestFreeThenReallocReusesSpace(t *testing.T) {
	a := newArena(64)
	buf := a.Alloc(64)
	assert.NotNil(t, buf)

	a.Free(buf)
	again := a.Alloc(64)
	assert.NotNil(t, again)

	// The arena has no more room behind it, so the reallocation above
	// only succeeds if Free actually returned the space to the
	// allocator, and nothing is left for a third request.
	third := a.Alloc(64)
	assert.Nil(t, third)
}

func TestAllocZeroOrNegativeReturnsNil(t *testing.T) {
	a := newArena(128)
	assert.Nil(t, a.Alloc(0))
	assert.Nil(t, a.Alloc(-1))
}

func TestFreeNilIsNoop(t *testing.T) {
	a := newArena(128)
	assert.NotPanics(t, func() { a.Free(nil) })
}

func TestCoalesceMergesAdjacentFreedBlocks(t *testing.T) {
	a := newArena(256)
	first := a.Alloc(64)
	second := a.Alloc(64)
	assert.NotNil(t, first)
	assert.NotNil(t, second)

	a.Free(first)
	a.Free(second)

	// Coalesced, a single allocation spanning both original blocks plus
	// the untouched remainder should now fit.
	big := a.Alloc(200)
	assert.NotNil(t, big)
}

func TestClassPoolRecyclesExactSizedFrees(t *testing.T) {
	a := newArena(4096)
	buf := a.Alloc(class64)
	assert.NotNil(t, buf)
	a.Free(buf)

	// A second request of the identical class size should be served by
	// the recycled buffer rather than a fresh arena carve.
	again := a.Alloc(class64)
	assert.Len(t, again, class64)
}
