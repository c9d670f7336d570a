// Package critical provides the single guard that protects every shared
// linked structure in the kernel (message queues, the timer list, the
// lease list, the buffer-descriptor list, and the heap arena). Per-task
// event bitfields are not under this guard; internal/tasktable keeps
// them in atomics.
//
// On the target hardware this primitive disables and restores interrupts.
// Hosted builds have no interrupts to disable, so the guard degrades to a
// process-wide mutex. Unlike the interrupt mask it replaces, the hosted
// guard is not reentrant: callers must not call Enter twice from the
// same call stack without an intervening Exit.
package critical

import "sync"

// Guard is a scoped critical section. The zero value is ready to use.
type Guard struct {
	mu sync.Mutex
}

// Enter acquires the guard, disabling interrupts on the real target or
// blocking other task-context callers on a hosted build.
func (g *Guard) Enter() {
	g.mu.Lock()
}

// Exit releases the guard.
func (g *Guard) Exit() {
	g.mu.Unlock()
}

// Do runs fn with the guard held and releases it on return, including on
// panic.
func (g *Guard) Do(fn func()) {
	g.Enter()
	defer g.Exit()
	fn()
}
