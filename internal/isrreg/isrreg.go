// Package isrreg implements an ISR registration shim, grounded in
// OSAL.h's osal_isr_register/osal_int_enable/osal_int_disable. The core
// never fires these handlers itself; they exist so board-support code
// has a place to register interrupt callbacks and later deliver an
// interrupt to them through Dispatch.
package isrreg

import "github.com/songwenshuai/go-osal/internal/critical"

// Handler receives the interrupt's single status byte argument,
// matching OSAL.h's `void (*isr_ptr)(uint8_t*)` signature (a pointer
// in C, a plain byte here since the target is a single status value
// in every original_source call site).
type Handler func(status uint8)

// Registry is the interrupt id to handler table plus the enabled-bit
// set a HAL layer consults before delivering an interrupt.
type Registry struct {
	guard    *critical.Guard
	handlers map[uint8]Handler
	enabled  map[uint8]bool
}

// New creates an empty registry sharing the given guard.
func New(guard *critical.Guard) *Registry {
	return &Registry{
		guard:    guard,
		handlers: make(map[uint8]Handler),
		enabled:  make(map[uint8]bool),
	}
}

// Register associates a handler with an interrupt id, overwriting any
// previous registration.
func (r *Registry) Register(interruptID uint8, h Handler) {
	r.guard.Enter()
	defer r.guard.Exit()
	r.handlers[interruptID] = h
}

// Enable marks an interrupt id deliverable. Enabling an id with no
// registered handler is allowed; Dispatch simply drops the event.
func (r *Registry) Enable(interruptID uint8) {
	r.guard.Enter()
	defer r.guard.Exit()
	r.enabled[interruptID] = true
}

// Disable marks an interrupt id non-deliverable.
func (r *Registry) Disable(interruptID uint8) {
	r.guard.Enter()
	defer r.guard.Exit()
	r.enabled[interruptID] = false
}

// Dispatch invokes the handler registered for interruptID with status,
// if one is registered and the id is enabled. Returns false if either
// condition fails.
func (r *Registry) Dispatch(interruptID uint8, status uint8) bool {
	r.guard.Enter()
	h, hasHandler := r.handlers[interruptID]
	en := r.enabled[interruptID]
	r.guard.Exit()

	if !hasHandler || !en {
		return false
	}
	h(status)
	return true
}
