package osal

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the dispatch-latency histogram buckets in
// nanoseconds: how long a single task handler ran once dispatched.
// Buckets cover from 1us to 10s with logarithmic spacing, matching the
// granularity a cooperative scheduler cares about (a handler running
// past the 10ms bucket is already starving its siblings).
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks dispatch-loop and subsystem statistics for a running
// kernel instance.
type Metrics struct {
	// Dispatch loop
	DispatchIterations atomic.Uint64 // times the main loop picked a task
	EventsSet          atomic.Uint64 // osal_set_event calls
	EventsDelivered    atomic.Uint64 // set-event calls the task table accepted
	IdleWaits          atomic.Uint64 // times the loop found nothing ready and slept

	// Messaging
	MessagesSent     atomic.Uint64
	MessagesReceived atomic.Uint64
	MsgBufferFailed  atomic.Uint64 // allocate calls that returned nil

	// Timers
	TimersStarted atomic.Uint64
	TimersFired   atomic.Uint64
	TimersStopped atomic.Uint64

	// Leases
	LeaseTakes       atomic.Uint64
	LeaseContentions atomic.Uint64 // Take calls that found the lease held
	LeaseTimeouts    atomic.Uint64 // leases observed to self-expire at Check

	// Memory
	AllocCalls      atomic.Uint64
	AllocFailures   atomic.Uint64
	BytesAllocated  atomic.Uint64

	// Handler latency
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with its start time set now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordDispatch records one dispatch-loop iteration that ran a task
// handler for latencyNs.
func (m *Metrics) RecordDispatch(latencyNs uint64) {
	m.DispatchIterations.Add(1)
	m.recordLatency(latencyNs)
}

// RecordEventSet records a set-event call and whether it reached a live
// task (false means the task table rejected an unknown task ID).
func (m *Metrics) RecordEventSet(delivered bool) {
	m.EventsSet.Add(1)
	if delivered {
		m.EventsDelivered.Add(1)
	}
}

// RecordIdleWait records the dispatch loop finding no ready task.
func (m *Metrics) RecordIdleWait() {
	m.IdleWaits.Add(1)
}

// RecordMessage records a send or receive against the message pool.
func (m *Metrics) RecordMessage(sent bool, bufferAvailable bool) {
	if sent {
		m.MessagesSent.Add(1)
	} else {
		m.MessagesReceived.Add(1)
	}
	if !bufferAvailable {
		m.MsgBufferFailed.Add(1)
	}
}

// RecordTimerStart records a start_timer/start_reload_timer call.
func (m *Metrics) RecordTimerStart() {
	m.TimersStarted.Add(1)
}

// RecordTimerFired records a timer reaching zero and delivering its
// event.
func (m *Metrics) RecordTimerFired() {
	m.TimersFired.Add(1)
}

// RecordTimerStop records a successful stop_timer call.
func (m *Metrics) RecordTimerStop() {
	m.TimersStopped.Add(1)
}

// RecordLeaseTake records a Take call outcome.
func (m *Metrics) RecordLeaseTake(acquired bool) {
	m.LeaseTakes.Add(1)
	if !acquired {
		m.LeaseContentions.Add(1)
	}
}

// RecordLeaseTimeout records a lease observed to have self-expired.
func (m *Metrics) RecordLeaseTimeout() {
	m.LeaseTimeouts.Add(1)
}

// RecordAlloc records an allocator call and its outcome.
func (m *Metrics) RecordAlloc(size uint32, ok bool) {
	m.AllocCalls.Add(1)
	if !ok {
		m.AllocFailures.Add(1)
		return
	}
	m.BytesAllocated.Add(uint64(size))
}

// recordLatency records handler latency and updates the histogram.
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the kernel as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived rates
// computed.
type MetricsSnapshot struct {
	DispatchIterations uint64
	EventsSet          uint64
	EventsDelivered    uint64
	IdleWaits          uint64

	MessagesSent     uint64
	MessagesReceived uint64
	MsgBufferFailed  uint64

	TimersStarted uint64
	TimersFired   uint64
	TimersStopped uint64

	LeaseTakes       uint64
	LeaseContentions uint64
	LeaseTimeouts    uint64

	AllocCalls     uint64
	AllocFailures  uint64
	BytesAllocated uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	DispatchRate float64 // iterations per second
	AllocErrRate float64 // percentage of alloc calls that failed
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		DispatchIterations: m.DispatchIterations.Load(),
		EventsSet:          m.EventsSet.Load(),
		EventsDelivered:    m.EventsDelivered.Load(),
		IdleWaits:          m.IdleWaits.Load(),
		MessagesSent:       m.MessagesSent.Load(),
		MessagesReceived:   m.MessagesReceived.Load(),
		MsgBufferFailed:    m.MsgBufferFailed.Load(),
		TimersStarted:      m.TimersStarted.Load(),
		TimersFired:        m.TimersFired.Load(),
		TimersStopped:      m.TimersStopped.Load(),
		LeaseTakes:         m.LeaseTakes.Load(),
		LeaseContentions:   m.LeaseContentions.Load(),
		LeaseTimeouts:      m.LeaseTimeouts.Load(),
		AllocCalls:         m.AllocCalls.Load(),
		AllocFailures:      m.AllocFailures.Load(),
		BytesAllocated:     m.BytesAllocated.Load(),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.DispatchRate = float64(snap.DispatchIterations) / uptimeSeconds
	}

	if snap.AllocCalls > 0 {
		snap.AllocErrRate = float64(snap.AllocFailures) / float64(snap.AllocCalls) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters. Useful for testing.
func (m *Metrics) Reset() {
	m.DispatchIterations.Store(0)
	m.EventsSet.Store(0)
	m.EventsDelivered.Store(0)
	m.IdleWaits.Store(0)
	m.MessagesSent.Store(0)
	m.MessagesReceived.Store(0)
	m.MsgBufferFailed.Store(0)
	m.TimersStarted.Store(0)
	m.TimersFired.Store(0)
	m.TimersStopped.Store(0)
	m.LeaseTakes.Store(0)
	m.LeaseContentions.Store(0)
	m.LeaseTimeouts.Store(0)
	m.AllocCalls.Store(0)
	m.AllocFailures.Store(0)
	m.BytesAllocated.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection by the kernel's dispatch
// loop and subsystems, independent of the built-in Metrics type.
type Observer interface {
	ObserveDispatch(latencyNs uint64)
	ObserveIdleWait()
	ObserveEventSet(delivered bool)
	ObserveMessage(sent bool, bufferAvailable bool)
	ObserveTimerFired()
	ObserveLeaseTake(acquired bool)
	ObserveAlloc(size uint32, ok bool)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveDispatch(uint64)    {}
func (NoOpObserver) ObserveIdleWait()          {}
func (NoOpObserver) ObserveEventSet(bool)      {}
func (NoOpObserver) ObserveMessage(bool, bool) {}
func (NoOpObserver) ObserveTimerFired()        {}
func (NoOpObserver) ObserveLeaseTake(bool)     {}
func (NoOpObserver) ObserveAlloc(uint32, bool) {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given
// metrics instance.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveDispatch(latencyNs uint64) {
	o.metrics.RecordDispatch(latencyNs)
}

func (o *MetricsObserver) ObserveIdleWait() {
	o.metrics.RecordIdleWait()
}

func (o *MetricsObserver) ObserveEventSet(delivered bool) {
	o.metrics.RecordEventSet(delivered)
}

func (o *MetricsObserver) ObserveMessage(sent bool, bufferAvailable bool) {
	o.metrics.RecordMessage(sent, bufferAvailable)
}

func (o *MetricsObserver) ObserveTimerFired() {
	o.metrics.RecordTimerFired()
}

func (o *MetricsObserver) ObserveLeaseTake(acquired bool) {
	o.metrics.RecordLeaseTake(acquired)
}

func (o *MetricsObserver) ObserveAlloc(size uint32, ok bool) {
	o.metrics.RecordAlloc(size, ok)
}

var _ Observer = (*MetricsObserver)(nil)
