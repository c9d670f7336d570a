// Package clock implements a monotonic wall clock, adapted line-for-line
// from OSAL_Clock.c's osal_ConvertUTCTime / osal_ConvertUTCSecs
// algorithm.
package clock

import "github.com/songwenshuai/go-osal/internal/critical"

// UTCStruct is the broken-down calendar representation of a UTC
// timestamp, seconds since 2000-01-01T00:00:00 UTC. Month and Day are
// zero-origin, matching the C source's UTCTimeStruct.
type UTCStruct struct {
	Year   uint16 // full year, e.g. 2026
	Month  uint8  // 0-11
	Day    uint8  // 0-origin day within month
	Hour   uint8
	Minute uint8
	Second uint8
}

// monthLength mirrors OSAL_Clock.c's static monthLength(lpyr, mon).
var monthLengths = [12]uint8{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(year uint16) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func yearLength(year uint16) uint16 {
	if isLeapYear(year) {
		return 366
	}
	return 365
}

func monthLength(leap bool, month uint8) uint8 {
	if month == 1 && leap { // February
		return 29
	}
	return monthLengths[month]
}

// Clock is the kernel's monotonic wall clock. Shares the critical.Guard
// that protects every list the timer wheel and lease registry mutate,
// since a single tick advance ages the clock, the timers, and the
// leases together.
type Clock struct {
	guard *critical.Guard

	timeMS      uint32 // fractional-second accumulator, 0..999
	timeSeconds uint32 // seconds since 2000-01-01T00:00:00 UTC
	systemMS    uint64 // total milliseconds since boot
}

// New creates a clock sharing the given guard.
func New(guard *critical.Guard) *Clock {
	return &Clock{guard: guard}
}

// Update advances the clock by elapsedMS milliseconds, taking the guard
// itself. Callers that already hold the guard use UpdateLocked instead,
// since the guard is not reentrant.
func (c *Clock) Update(elapsedMS uint32) {
	c.guard.Enter()
	defer c.guard.Exit()
	c.updateLocked(elapsedMS)
}

func (c *Clock) updateLocked(elapsedMS uint32) {
	c.systemMS += uint64(elapsedMS)
	c.timeMS += elapsedMS
	if c.timeMS >= 1000 {
		c.timeSeconds += c.timeMS / 1000
		c.timeMS = c.timeMS % 1000
	}
}

// UpdateLocked is the same as Update but assumes the caller already
// holds the guard.
func (c *Clock) UpdateLocked(elapsedMS uint32) {
	c.updateLocked(elapsedMS)
}

// SetClock sets time_seconds directly.
func (c *Clock) SetClock(secs uint32) {
	c.guard.Enter()
	defer c.guard.Exit()
	c.timeSeconds = secs
}

// GetClock returns time_seconds.
func (c *Clock) GetClock() uint32 {
	c.guard.Enter()
	defer c.guard.Exit()
	return c.timeSeconds
}

// SystemMS returns total milliseconds elapsed since the clock was
// created (OSAL's osal_systemClock / osal_GetSystemClock).
func (c *Clock) SystemMS() uint64 {
	c.guard.Enter()
	defer c.guard.Exit()
	return c.systemMS
}

// ConvertUTCToStruct walks years from 2000 then months within the final
// year, subtracting whole lengths, exactly as osal_ConvertUTCTime does.
func ConvertUTCToStruct(secs uint32) UTCStruct {
	var tm UTCStruct

	day := secs / 86400
	secsOfDay := secs % 86400

	tm.Hour = uint8(secsOfDay / 3600)
	secsOfDay %= 3600
	tm.Minute = uint8(secsOfDay / 60)
	tm.Second = uint8(secsOfDay % 60)

	tm.Year = 2000
	for uint32(day) >= uint32(yearLength(tm.Year)) {
		day -= uint32(yearLength(tm.Year))
		tm.Year++
	}

	leap := isLeapYear(tm.Year)
	tm.Month = 0
	for uint32(day) >= uint32(monthLength(leap, tm.Month)) {
		day -= uint32(monthLength(leap, tm.Month))
		tm.Month++
	}
	tm.Day = uint8(day)

	return tm
}

// ConvertStructToUTC is the inverse of ConvertUTCToStruct, mirroring
// osal_ConvertUTCSecs.
func ConvertStructToUTC(tm UTCStruct) uint32 {
	var days uint32

	for year := uint16(2000); year < tm.Year; year++ {
		days += uint32(yearLength(year))
	}

	leap := isLeapYear(tm.Year)
	for month := uint8(0); month < tm.Month; month++ {
		days += uint32(monthLength(leap, month))
	}
	days += uint32(tm.Day)

	secs := days * 86400
	secs += uint32(tm.Hour) * 3600
	secs += uint32(tm.Minute) * 60
	secs += uint32(tm.Second)
	return secs
}
