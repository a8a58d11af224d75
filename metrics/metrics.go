package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// TimerStats summarises recorded durations for one operation.
type TimerStats struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateStats tracks the error percentage of one operation.
type ErrorRateStats struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type timer struct {
	count       int64
	totalTimeMs int64
	maxTimeMs   int64
}

type errorRate struct {
	total  int64
	errors int64
}

// Metrics is an in-process metrics collector exposed over the metrics
// endpoint. All record paths are safe for concurrent use.
type Metrics struct {
	mu         sync.RWMutex
	counters   map[string]*int64
	gauges     map[string]*int64
	timers     map[string]*timer
	errorRates map[string]*errorRate
	health     map[string]*int64
	startTime  time.Time
}

// New creates an empty metrics collector.
func New() *Metrics {
	return &Metrics{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		timers:     make(map[string]*timer),
		errorRates: make(map[string]*errorRate),
		health:     make(map[string]*int64),
		startTime:  time.Now(),
	}
}

// IncrementCounter increments a counter by 1.
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the given value.
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	atomic.AddInt64(m.counter(name), value)
}

// SetGauge sets a gauge to a point-in-time value.
func (m *Metrics) SetGauge(name string, value int64) {
	atomic.StoreInt64(m.gauge(name), value)
}

// RecordTimer records one duration measurement.
func (m *Metrics) RecordTimer(name string, duration time.Duration) {
	t := m.timer(name)
	durationMs := duration.Milliseconds()

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTimeMs, durationMs)

	for {
		currentMax := atomic.LoadInt64(&t.maxTimeMs)
		if durationMs <= currentMax {
			break
		}
		if atomic.CompareAndSwapInt64(&t.maxTimeMs, currentMax, durationMs) {
			break
		}
	}
}

// RecordSuccess records a successful operation for error rate tracking.
func (m *Metrics) RecordSuccess(name string) {
	m.recordOutcome(name, false)
}

// RecordError records a failed operation for error rate tracking.
func (m *Metrics) RecordError(name string) {
	m.recordOutcome(name, true)
}

func (m *Metrics) recordOutcome(name string, isError bool) {
	er := m.errorRate(name)
	atomic.AddInt64(&er.total, 1)
	if isError {
		atomic.AddInt64(&er.errors, 1)
	}
}

// SetHealth marks a component healthy or unhealthy.
func (m *Metrics) SetHealth(component string, isHealthy bool) {
	var value int64
	if isHealthy {
		value = 1
	}
	atomic.StoreInt64(m.healthCheck(component), value)
}

// GetCounters returns a snapshot of all counters.
func (m *Metrics) GetCounters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		out[name] = atomic.LoadInt64(c)
	}
	return out
}

// GetGauges returns a snapshot of all gauges.
func (m *Metrics) GetGauges() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int64, len(m.gauges))
	for name, g := range m.gauges {
		out[name] = atomic.LoadInt64(g)
	}
	return out
}

// GetTimers returns a snapshot of all timer stats.
func (m *Metrics) GetTimers() map[string]TimerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]TimerStats, len(m.timers))
	for name, t := range m.timers {
		count := atomic.LoadInt64(&t.count)
		totalTime := atomic.LoadInt64(&t.totalTimeMs)

		var average float64
		if count > 0 {
			average = float64(totalTime) / float64(count)
		}

		out[name] = TimerStats{
			Count:         count,
			TotalTimeMs:   totalTime,
			AverageTimeMs: average,
			MaxTimeMs:     atomic.LoadInt64(&t.maxTimeMs),
		}
	}
	return out
}

// GetErrorRates returns a snapshot of all error rates.
func (m *Metrics) GetErrorRates() map[string]ErrorRateStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ErrorRateStats, len(m.errorRates))
	for name, er := range m.errorRates {
		total := atomic.LoadInt64(&er.total)
		errors := atomic.LoadInt64(&er.errors)

		var rate float64
		if total > 0 {
			rate = float64(errors) / float64(total) * 100.0
		}

		out[name] = ErrorRateStats{
			Total:     total,
			Errors:    errors,
			ErrorRate: rate,
		}
	}
	return out
}

// GetHealthChecks returns the health status of every tracked component.
func (m *Metrics) GetHealthChecks() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.health))
	for name, h := range m.health {
		out[name] = atomic.LoadInt64(h) > 0
	}
	return out
}

// GetUptimeSeconds returns the collector uptime in seconds.
func (m *Metrics) GetUptimeSeconds() int64 {
	return int64(time.Since(m.startTime).Seconds())
}

// GetAllMetrics returns everything in one structure for the metrics
// endpoint.
func (m *Metrics) GetAllMetrics() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": m.GetUptimeSeconds(),
		"counters":       m.GetCounters(),
		"gauges":         m.GetGauges(),
		"timers":         m.GetTimers(),
		"error_rates":    m.GetErrorRates(),
		"health_checks":  m.GetHealthChecks(),
	}
}

func (m *Metrics) counter(name string) *int64 {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[name]; !ok {
		c = new(int64)
		m.counters[name] = c
	}
	return c
}

func (m *Metrics) gauge(name string) *int64 {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if ok {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok = m.gauges[name]; !ok {
		g = new(int64)
		m.gauges[name] = g
	}
	return g
}

func (m *Metrics) timer(name string) *timer {
	m.mu.RLock()
	t, ok := m.timers[name]
	m.mu.RUnlock()
	if ok {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok = m.timers[name]; !ok {
		t = &timer{}
		m.timers[name] = t
	}
	return t
}

func (m *Metrics) errorRate(name string) *errorRate {
	m.mu.RLock()
	er, ok := m.errorRates[name]
	m.mu.RUnlock()
	if ok {
		return er
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if er, ok = m.errorRates[name]; !ok {
		er = &errorRate{}
		m.errorRates[name] = er
	}
	return er
}

func (m *Metrics) healthCheck(name string) *int64 {
	m.mu.RLock()
	h, ok := m.health[name]
	m.mu.RUnlock()
	if ok {
		return h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok = m.health[name]; !ok {
		h = new(int64)
		m.health[name] = h
	}
	return h
}
