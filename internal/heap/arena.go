// Package heap implements a fixed-arena allocator: a first-fit
// free-list allocator over a single pre-sized arena, aligned
// to the platform word, interrupt-safe, and never aborting — exhaustion
// returns nil. There is no realloc.
package heap

import "github.com/songwenshuai/go-osal/internal/critical"

const wordSize = 8 // platform-word alignment target (64-bit hosted build)

type block struct {
	offset int
	size   int
	free   bool
}

// Arena is a fixed-size byte pool carved into first-fit blocks.
type Arena struct {
	guard  *critical.Guard
	buf    []byte
	blocks []*block
	pool   *classPool
}

// New creates an arena of the given size backed by classPool for
// common small sizes (see classpool.go), sharing guard with the rest of
// the kernel's critical-section-protected state.
func New(guard *critical.Guard, size int) *Arena {
	if size <= 0 {
		size = 1
	}
	a := &Arena{
		guard: guard,
		buf:   make([]byte, size),
		pool:  newClassPool(),
	}
	a.blocks = []*block{{offset: 0, size: size, free: true}}
	return a
}

func align(n int) int {
	if r := n % wordSize; r != 0 {
		n += wordSize - r
	}
	return n
}

// Alloc returns n bytes, or nil on exhaustion. Never panics.
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	if buf := a.pool.get(n); buf != nil {
		return buf
	}

	aligned := align(n)

	a.guard.Enter()
	defer a.guard.Exit()

	for _, b := range a.blocks {
		if !b.free || b.size < aligned {
			continue
		}
		if b.size > aligned+wordSize {
			// Split: carve the tail off as a new free block.
			remainder := &block{offset: b.offset + aligned, size: b.size - aligned, free: true}
			b.size = aligned
			a.insertAfter(b, remainder)
		}
		b.free = false
		return a.buf[b.offset : b.offset+n : b.offset+aligned]
	}
	return nil
}

// Free releases a block previously returned by Alloc. Freeing a pointer
// this arena did not allocate, or an already-free block, is a no-op.
func (a *Arena) Free(p []byte) {
	if p == nil {
		return
	}
	if a.pool.put(p) {
		return
	}

	a.guard.Enter()
	defer a.guard.Exit()

	for i, b := range a.blocks {
		if b.free || !a.owns(b, p) {
			continue
		}
		b.free = true
		a.coalesce(i)
		return
	}
}

func (a *Arena) owns(b *block, p []byte) bool {
	if len(p) == 0 || cap(p) == 0 {
		return false
	}
	return &a.buf[b.offset] == &p[:1][0]
}

func (a *Arena) insertAfter(b *block, n *block) {
	for i, cur := range a.blocks {
		if cur == b {
			a.blocks = append(a.blocks, nil)
			copy(a.blocks[i+2:], a.blocks[i+1:])
			a.blocks[i+1] = n
			return
		}
	}
}

// coalesce merges adjacent free blocks around index i to fight
// fragmentation, mirroring a segregated free-list allocator's merge
// step.
func (a *Arena) coalesce(i int) {
	if i+1 < len(a.blocks) && a.blocks[i+1].free {
		a.blocks[i].size += a.blocks[i+1].size
		a.blocks = append(a.blocks[:i+1], a.blocks[i+2:]...)
	}
	if i > 0 && a.blocks[i-1].free {
		a.blocks[i-1].size += a.blocks[i].size
		a.blocks = append(a.blocks[:i], a.blocks[i+1:]...)
	}
}
