// Package tick implements the tick source and power-saving idle wait: a
// polled 320us precision counter feeding the 1ms scheduler tick, and a
// low-power wait primitive the dispatch loop enters when POWER_SAVING
// is set and no task is ready. Grounded in golang.org/x/sys/unix for the
// monotonic clock read, with a real/stub split for the optional
// io_uring-backed wait (NewRealWaiter/stub, gated by -tags giouring).
package tick

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/songwenshuai/go-osal/internal/constants"
)

// PrecisionCounter polls CLOCK_MONOTONIC at a 320us granularity for the
// polled tick option, instead of relying on a hardware free-running
// counter.
type PrecisionCounter struct {
	epoch unix.Timespec
}

// NewPrecisionCounter creates a counter zeroed at the current monotonic
// time.
func NewPrecisionCounter() (*PrecisionCounter, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return nil, err
	}
	return &PrecisionCounter{epoch: ts}, nil
}

// Count returns elapsed 320us ticks since the counter was created,
// matching the HAL contract's precision_count().
func (c *PrecisionCounter) Count() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	elapsedNs := (ts.Sec-c.epoch.Sec)*1e9 + (ts.Nsec - c.epoch.Nsec)
	return uint32(elapsedNs / int64(constants.PrecisionTickPeriod))
}

// Waiter is the power-saving idle primitive: block until timeoutMS
// elapses. Neither implementation in this package wakes early when an
// external event arrives. Implementations must return promptly when
// timeoutMS is 0 (poll, don't block).
type Waiter interface {
	Wait(timeoutMS uint32)
	Close() error
}

// stubWaiter is the default Waiter, built on unix.Nanosleep. It has no
// way to be woken early by an external event; the giouring-backed
// Waiter (NewRealWaiter, built with -tags giouring) waits on an io_uring
// timeout instead and likewise returns only when that timeout completes.
type stubWaiter struct{}

// NewStubWaiter creates the default, dependency-free Waiter.
func NewStubWaiter() Waiter {
	return stubWaiter{}
}

func (stubWaiter) Wait(timeoutMS uint32) {
	if timeoutMS == 0 {
		return
	}
	dur := time.Duration(timeoutMS) * time.Millisecond
	ts := unix.NsecToTimespec(dur.Nanoseconds())
	for {
		rem := &unix.Timespec{}
		if err := unix.Nanosleep(&ts, rem); err != nil {
			ts = *rem
			continue
		}
		return
	}
}

func (stubWaiter) Close() error { return nil }
