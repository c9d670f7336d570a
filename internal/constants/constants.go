// Package constants holds the numeric values that must stay stable
// across ports, plus the sizing defaults used when a Config field is
// left at its zero value.
package constants

import "time"

// Status codes. Values are part of the wire-stable contract
// and must never change.
const (
	Success            = 0x00
	InvalidTask        = 0x02
	MsgBufferNotAvail  = 0x03
	InvalidMsgPointer  = 0x04
	InvalidEventID     = 0x05
	InvalidInterruptID = 0x06
	NoTimerAvail       = 0x0A
	NVItemUninit       = 0x0B
	NVOperFailed       = 0x0C
	InvalidMemSize     = 0x0D
	NVBadItemLen       = 0x0E
)

// SysEventMsg is the reserved event bit set by send/push_front on the
// destination task.
const SysEventMsg uint16 = 0x8000

// ApplicationEventMask covers the bits available to application code
// (0x0001..0x4000).
const ApplicationEventMask uint16 = 0x7FFF

// Unassigned marks a message header's dest_id before it has been sent.
const Unassigned uint8 = 0xFF

// Defaults applied by Config when the caller leaves a field at zero.
const (
	// DefaultNumTasks bounds the static task table when a Config doesn't
	// specify one; small, matching the microcontroller-class target.
	DefaultNumTasks = 16

	// DefaultArenaSize is the size in bytes of the fixed allocator arena
	// handed to internal/heap when a Config doesn't specify one.
	DefaultArenaSize = 64 * 1024

	// DefaultMaxQueueLen is a cap callers may pass to
	// msg.Queue.EnqueueMax; EnqueueMax always takes an explicit cap and
	// does not apply this value on its own.
	DefaultMaxQueueLen = 255
)

// SystickPeriod is the simulated SysTick interrupt period used by the
// USE_SYSTICK_IRQ tick source.
const SystickPeriod = 1 * time.Millisecond

// PrecisionTickPeriod is the simulated MAC precision-counter tick period
// used by the polled tick source: 320 microseconds.
const PrecisionTickPeriod = 320 * time.Microsecond
