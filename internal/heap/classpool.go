package heap

import "sync"

// classPool is the Arena's fast path for common small allocation sizes,
// a size-bucketed sync.Pool ladder in the spirit of a pooled I/O buffer
// allocator: buckets sit in front of the arena's first-fit walk and
// absorb the common case, falling through to the arena for anything
// outside the bucket ladder or once a bucket's
// free list runs dry and its New func would have to grow the arena
// itself (which classPool never does — it hands back nil instead so
// Arena.Alloc falls through to the first-fit path).
const (
	class32  = 32
	class64  = 64
	class128 = 128
	class256 = 256
	class512 = 512
)

type classPool struct {
	p32, p64, p128, p256, p512 sync.Pool
}

func newClassPool() *classPool {
	c := &classPool{}
	c.p32.New = func() any { return nil }
	c.p64.New = func() any { return nil }
	c.p128.New = func() any { return nil }
	c.p256.New = func() any { return nil }
	c.p512.New = func() any { return nil }
	return c
}

func (c *classPool) bucket(size int) (*sync.Pool, int) {
	switch {
	case size <= class32:
		return &c.p32, class32
	case size <= class64:
		return &c.p64, class64
	case size <= class128:
		return &c.p128, class128
	case size <= class256:
		return &c.p256, class256
	case size <= class512:
		return &c.p512, class512
	default:
		return nil, 0
	}
}

// get returns a pooled buffer of the requested size, or nil if no
// bucket fits or the bucket is empty — the caller must then fall back
// to the arena's first-fit allocation.
func (c *classPool) get(size int) []byte {
	pool, capacity := c.bucket(size)
	if pool == nil {
		return nil
	}
	v := pool.Get()
	if v == nil {
		return nil
	}
	buf := v.(*[]byte)
	return (*buf)[:size:capacity]
}

// put returns a buffer to its class bucket if its capacity matches one
// of the ladder sizes exactly, reporting whether it did. A false return
// means the caller (the arena) owns the pointer and must reclaim it
// through the free list instead.
func (c *classPool) put(p []byte) bool {
	capacity := cap(p)
	var pool *sync.Pool
	switch capacity {
	case class32:
		pool = &c.p32
	case class64:
		pool = &c.p64
	case class128:
		pool = &c.p128
	case class256:
		pool = &c.p256
	case class512:
		pool = &c.p512
	default:
		return false
	}
	full := p[:capacity]
	pool.Put(&full)
	return true
}
