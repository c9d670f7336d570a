// Package osal provides a cooperative, single-core real-time kernel
// abstraction layer for microcontroller-style applications, hosted on a
// regular Go runtime.
package osal

import (
	"context"
	"fmt"
	"time"

	"github.com/songwenshuai/go-osal/internal/bufmgr"
	"github.com/songwenshuai/go-osal/internal/clock"
	"github.com/songwenshuai/go-osal/internal/constants"
	"github.com/songwenshuai/go-osal/internal/critical"
	"github.com/songwenshuai/go-osal/internal/heap"
	"github.com/songwenshuai/go-osal/internal/isrreg"
	"github.com/songwenshuai/go-osal/internal/lease"
	"github.com/songwenshuai/go-osal/internal/logging"
	"github.com/songwenshuai/go-osal/internal/msg"
	"github.com/songwenshuai/go-osal/internal/tasktable"
	"github.com/songwenshuai/go-osal/internal/tick"
	"github.com/songwenshuai/go-osal/internal/timer"
)

// EventFunc is a task's handler, invoked by the dispatch loop with the
// snapshot of event bits that fired this pass. Bits returned but not
// cleared are re-delivered on the next pass that observes them.
type EventFunc func(taskID uint8, events uint16) uint16

// Config holds the kernel's build-time (here, construction-time)
// options, adapted from a device-params struct with layered defaults.
type Config struct {
	// NumTasks sizes the task table. Tasks are registered 0..NumTasks-1.
	NumTasks int

	// ArenaSize sizes the fixed memory arena backing Allocate.
	ArenaSize int

	// UseSystickIRQ selects a pushed 1ms tick instead of deriving ticks
	// from the polled 320us precision counter.
	UseSystickIRQ bool

	// PowerSaving enables the idle wait when no task is ready.
	PowerSaving bool

	// ClockSeconds seeds the wall clock (seconds since 2000-01-01 UTC).
	ClockSeconds uint32

	Logger   *logging.Logger
	Observer Observer
}

// DefaultConfig returns the kernel's default construction parameters.
func DefaultConfig() Config {
	return Config{
		NumTasks:      constants.DefaultNumTasks,
		ArenaSize:     constants.DefaultArenaSize,
		UseSystickIRQ: false,
		PowerSaving:   true,
	}
}

// State reports whether the kernel has been started.
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Kernel bundles the dispatch loop with every subsystem: the
// critical-section guard, memory arena, message pool, task table, timer
// wheel, wall clock, lease registry, buffer manager, ISR registry and
// idle waiter.
type Kernel struct {
	cfg Config

	guard      *critical.Guard
	Heap       *heap.Arena
	Messages   *msg.Pool
	Tasks      *tasktable.Table
	Timers     *timer.Wheel
	Clock      *clock.Clock
	Leases     *lease.Registry
	Buffers    *bufmgr.Manager
	Interrupts *isrreg.Registry

	waiter tick.Waiter

	handlers map[uint8]EventFunc

	metrics  *Metrics
	observer Observer
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	state  State
}

// New constructs a kernel with the given configuration, applying
// DefaultConfig for any field left at its zero value.
func New(cfg Config) *Kernel {
	if cfg.NumTasks == 0 {
		cfg.NumTasks = constants.DefaultNumTasks
	}
	if cfg.ArenaSize == 0 {
		cfg.ArenaSize = constants.DefaultArenaSize
	}

	guard := &critical.Guard{}
	metrics := NewMetrics()
	observer := cfg.Observer
	if observer == nil {
		observer = NewMetricsObserver(metrics)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	heapArena := heap.New(guard, cfg.ArenaSize)

	k := &Kernel{
		cfg:        cfg,
		guard:      guard,
		Heap:       heapArena,
		Messages:   msg.New(guard, heapArena),
		Tasks:      tasktable.New(cfg.NumTasks),
		Timers:     timer.New(guard, heapArena),
		Clock:      clock.New(guard),
		Leases:     lease.New(guard),
		Buffers:    bufmgr.New(guard, heapArena),
		Interrupts: isrreg.New(guard),
		waiter:     tick.NewStubWaiter(),
		handlers:   make(map[uint8]EventFunc),
		metrics:    metrics,
		observer:   observer,
		logger:     logger,
		state:      StateCreated,
	}
	k.Clock.SetClock(cfg.ClockSeconds)
	return k
}

// RegisterTask associates taskID with the handler invoked whenever any
// of its event bits are set.
func (k *Kernel) RegisterTask(taskID uint8, fn EventFunc) error {
	if int(taskID) >= k.cfg.NumTasks {
		return NewTaskError("RegisterTask", taskID, CodeInvalidTask, "task id exceeds NumTasks")
	}
	k.handlers[taskID] = fn
	return nil
}

// Metrics returns the kernel's built-in metrics collector.
func (k *Kernel) Metrics() *Metrics {
	return k.metrics
}

// Self returns the task id whose handler is currently executing. The
// second return is false outside of dispatch.
func (k *Kernel) Self() (uint8, bool) {
	return k.Tasks.Current()
}

// State reports whether Run has been called and the kernel has not
// since been stopped or had its context cancelled.
func (k *Kernel) State() State {
	if k.state == StateCreated {
		return StateCreated
	}
	if k.state == StateStopped {
		return StateStopped
	}
	if k.ctx != nil {
		select {
		case <-k.ctx.Done():
			return StateStopped
		default:
		}
	}
	return StateRunning
}

// Stop cancels the kernel's run context and marks metrics stopped.
func (k *Kernel) Stop() {
	if k.cancel != nil {
		k.cancel()
	}
	k.metrics.Stop()
	k.state = StateStopped
}

// AdvanceClock feeds elapsedMS into the wall clock, timer wheel and
// lease registry in turn, each under its own separately-acquired
// critical section rather than one held across all three. On the
// cooperative single-thread host that still leaves a task observing
// the clock mid-call unable to see timers or leases aged by this same
// delta yet, a gap that does not arise on the target hardware, where
// the whole sequence runs with interrupts masked.
func (k *Kernel) AdvanceClock(elapsedMS uint32) {
	k.Clock.Update(elapsedMS)
	k.Leases.Update(elapsedMS)
	k.Timers.Update(elapsedMS, func(taskID uint8, eventFlag uint16) {
		k.observer.ObserveTimerFired()
		k.SetEvent(taskID, eventFlag)
	})
}

// SetEvent ORs eventFlag into taskID's bitfield, safe to call from
// interrupt context.
func (k *Kernel) SetEvent(taskID uint8, eventFlag uint16) error {
	ok := k.Tasks.SetEvent(taskID, eventFlag)
	k.observer.ObserveEventSet(ok)
	if !ok {
		return NewTaskError("SetEvent", taskID, CodeInvalidTask, "")
	}
	return nil
}

// ClearEvent ANDs the complement of eventFlag out of taskID's
// bitfield.
func (k *Kernel) ClearEvent(taskID uint8, eventFlag uint16) error {
	if !k.Tasks.ClearEvent(taskID, eventFlag) {
		return NewTaskError("ClearEvent", taskID, CodeInvalidTask, "")
	}
	return nil
}

// Send validates destTaskID against NumTasks, enqueues payload on its
// queue (FIFO), and sets SysEventMsg so the dispatch loop picks up the
// delivery on the next pass. Returns CodeInvalidTask for an
// out-of-range destination.
func (k *Kernel) Send(destTaskID uint8, payload []byte) error {
	if int(destTaskID) >= k.cfg.NumTasks {
		return NewTaskError("Send", destTaskID, CodeInvalidTask, "destination task id exceeds NumTasks")
	}
	if !k.Messages.Send(destTaskID, payload) {
		return NewTaskError("Send", destTaskID, CodeInvalidMsgPointer, "empty payload")
	}
	return k.SetEvent(destTaskID, SysEventMsg)
}

// PushFront validates destTaskID against NumTasks, enqueues payload at
// the front of its queue ahead of whatever is already pending, and
// sets SysEventMsg. Returns CodeInvalidTask for an out-of-range
// destination.
func (k *Kernel) PushFront(destTaskID uint8, payload []byte) error {
	if int(destTaskID) >= k.cfg.NumTasks {
		return NewTaskError("PushFront", destTaskID, CodeInvalidTask, "destination task id exceeds NumTasks")
	}
	if !k.Messages.PushFront(destTaskID, payload) {
		return NewTaskError("PushFront", destTaskID, CodeInvalidMsgPointer, "empty payload")
	}
	return k.SetEvent(destTaskID, SysEventMsg)
}

// RunOnce executes a single dispatch pass:
// it selects the lowest task_id with pending events, snapshots and
// clears its bits, invokes its handler, and ORs any returned bits back
// in. Returns false if no task had events pending.
func (k *Kernel) RunOnce() bool {
	taskID, ok := k.Tasks.NextReady()
	if !ok {
		return false
	}

	events := k.Tasks.SnapshotAndClear(taskID)
	handler, ok := k.handlers[taskID]
	if !ok {
		return true
	}

	k.Tasks.SetCurrent(taskID)
	start := time.Now()
	remaining := handler(taskID, events)
	elapsed := uint64(time.Since(start).Nanoseconds())
	k.Tasks.SetCurrent(constants.Unassigned)

	if remaining != 0 {
		k.Tasks.SetEvent(taskID, remaining)
	}
	k.observer.ObserveDispatch(elapsed)
	return true
}

// Run executes the dispatch loop forever, advancing the clock from the polled precision
// counter when UseSystickIRQ is false, and idling via the configured
// Waiter when PowerSaving is enabled and no task is ready.
func (k *Kernel) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	k.ctx, k.cancel = context.WithCancel(ctx)
	k.state = StateRunning

	counter, err := tick.NewPrecisionCounter()
	if err != nil {
		return fmt.Errorf("create precision counter: %w", err)
	}
	var lastTicks uint32

	for {
		select {
		case <-k.ctx.Done():
			return nil
		default:
		}

		if !k.cfg.UseSystickIRQ {
			ticks := counter.Count()
			if ticks > lastTicks {
				elapsedTicks := ticks - lastTicks
				lastTicks = ticks
				elapsedMS := uint32(uint64(elapsedTicks) * uint64(constants.PrecisionTickPeriod) / uint64(constants.SystickPeriod))
				if elapsedMS > 0 {
					k.AdvanceClock(elapsedMS)
				}
			}
		}

		if k.RunOnce() {
			continue
		}

		if !k.cfg.PowerSaving {
			continue
		}

		k.observer.ObserveIdleWait()
		next := k.Timers.NextTimeout()
		if next == 0 {
			next = uint32(constants.SystickPeriod.Milliseconds())
		}
		k.waiter.Wait(next)
	}
}
