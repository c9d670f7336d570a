package osal

import "github.com/songwenshuai/go-osal/internal/constants"

// Re-exported tunables and event bits for the public API.
const (
	SysEventMsg          = constants.SysEventMsg
	ApplicationEventMask = constants.ApplicationEventMask
	UnassignedTask       = constants.Unassigned

	DefaultNumTasks    = constants.DefaultNumTasks
	DefaultArenaSize   = constants.DefaultArenaSize
	DefaultMaxQueueLen = constants.DefaultMaxQueueLen
)

// SysTickPeriod and PrecisionTickPeriod mirror the tick source's two
// granularities (internal/tick): a coarse 1ms scheduler tick and the
// finer polled interval it is built from.
const (
	SysTickPeriod       = constants.SystickPeriod
	PrecisionTickPeriod = constants.PrecisionTickPeriod
)
