// Package lease implements a self-expiring lease: its value ticks down
// once taken and becomes available again at zero whether or not the
// holder released it. The type is named away from "mutex" to make that
// non-blocking behavior explicit at the API boundary. Grounded on
// OSAL.h's osalMutexCreate/Take/Release/Check/Update family.
package lease

import "github.com/songwenshuai/go-osal/internal/critical"

// Handle identifies one lease record. The zero Handle is never valid.
type Handle uint32

type record struct {
	id        Handle
	remainMS  uint32
	allocated bool
}

// Registry is the active lease list plus the guard it shares with the
// clock and timer wheel.
type Registry struct {
	guard   *critical.Guard
	records map[Handle]*record
	nextID  Handle
}

// New creates an empty registry sharing the given guard.
func New(guard *critical.Guard) *Registry {
	return &Registry{guard: guard, records: make(map[Handle]*record)}
}

// Create allocates a new, immediately-available lease.
func (r *Registry) Create() Handle {
	r.guard.Enter()
	defer r.guard.Exit()
	r.nextID++
	h := r.nextID
	r.records[h] = &record{id: h, allocated: true}
	return h
}

// Delete releases a lease's storage. Deleting an
// unknown handle is a no-op.
func (r *Registry) Delete(h Handle) {
	r.guard.Enter()
	defer r.guard.Exit()
	delete(r.records, h)
}

// Take acquires the lease if free, setting its wait budget to
// timeoutMS; a held lease is left untouched. Returns false if
// the handle is unknown or already held.
func (r *Registry) Take(h Handle, timeoutMS uint32) bool {
	r.guard.Enter()
	defer r.guard.Exit()
	rec, ok := r.records[h]
	if !ok || rec.remainMS != 0 {
		return false
	}
	rec.remainMS = timeoutMS
	return true
}

// Release immediately frees a held lease.
func (r *Registry) Release(h Handle) {
	r.guard.Enter()
	defer r.guard.Exit()
	if rec, ok := r.records[h]; ok {
		rec.remainMS = 0
	}
}

// Check returns the lease's remaining wait-ms, 0 if free or unknown.
func (r *Registry) Check(h Handle) uint32 {
	r.guard.Enter()
	defer r.guard.Exit()
	rec, ok := r.records[h]
	if !ok {
		return 0
	}
	return rec.remainMS
}

// Update ages every held lease by elapsedMS, saturating at zero. Called from the same critical section as the clock and
// timer wheel so a task observing the clock sees leases already aged by
// the same delta.
func (r *Registry) Update(elapsedMS uint32) {
	r.guard.Enter()
	defer r.guard.Exit()
	for _, rec := range r.records {
		if rec.remainMS == 0 {
			continue
		}
		if rec.remainMS > elapsedMS {
			rec.remainMS -= elapsedMS
		} else {
			rec.remainMS = 0
		}
	}
}
