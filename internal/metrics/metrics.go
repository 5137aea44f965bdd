package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TimerMetric summarises a timed operation
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateMetric summarises outcomes of an operation
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type timer struct {
	count   int64
	totalMs int64
	minMs   int64
	maxMs   int64
}

type outcome struct {
	total  int64
	errors int64
}

// Collector is an in-process metrics registry. Values are updated with atomics;
// the mutex only guards registration of new names.
type Collector struct {
	mu         sync.RWMutex
	counters   map[string]*int64
	gauges     map[string]*int64
	timers     map[string]*timer
	errorRates map[string]*outcome
	startTime  time.Time
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		timers:     make(map[string]*timer),
		errorRates: make(map[string]*outcome),
		startTime:  time.Now(),
	}
}

// lookup returns the entry for name, creating it with create on first use
func lookup[T any](mu *sync.RWMutex, entries map[string]*T, name string, create func() *T) *T {
	mu.RLock()
	entry, ok := entries[name]
	mu.RUnlock()
	if ok {
		return entry
	}

	mu.Lock()
	defer mu.Unlock()
	if entry, ok = entries[name]; !ok {
		entry = create()
		entries[name] = entry
	}
	return entry
}

func newInt64() *int64 { return new(int64) }

// IncrementCounter increments a counter by 1
func (c *Collector) IncrementCounter(name string) {
	c.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by value
func (c *Collector) IncrementCounterBy(name string, value int64) {
	atomic.AddInt64(lookup(&c.mu, c.counters, name, newInt64), value)
}

// SetGauge sets a gauge to value
func (c *Collector) SetGauge(name string, value int64) {
	atomic.StoreInt64(lookup(&c.mu, c.gauges, name, newInt64), value)
}

// RecordTimer records one duration for name
func (c *Collector) RecordTimer(name string, d time.Duration) {
	t := lookup(&c.mu, c.timers, name, func() *timer {
		return &timer{minMs: math.MaxInt64}
	})

	ms := d.Milliseconds()
	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalMs, ms)

	for {
		cur := atomic.LoadInt64(&t.minMs)
		if ms >= cur || atomic.CompareAndSwapInt64(&t.minMs, cur, ms) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&t.maxMs)
		if ms <= cur || atomic.CompareAndSwapInt64(&t.maxMs, cur, ms) {
			break
		}
	}
}

// RecordSuccess records a successful outcome for name
func (c *Collector) RecordSuccess(name string) {
	c.recordOutcome(name, false)
}

// RecordError records a failed outcome for name
func (c *Collector) RecordError(name string) {
	c.recordOutcome(name, true)
}

func (c *Collector) recordOutcome(name string, failed bool) {
	o := lookup(&c.mu, c.errorRates, name, func() *outcome { return &outcome{} })
	atomic.AddInt64(&o.total, 1)
	if failed {
		atomic.AddInt64(&o.errors, 1)
	}
}

// Counters returns a snapshot of all counters
func (c *Collector) Counters() map[string]int64 {
	return snapshot(&c.mu, c.counters)
}

// Gauges returns a snapshot of all gauges
func (c *Collector) Gauges() map[string]int64 {
	return snapshot(&c.mu, c.gauges)
}

func snapshot(mu *sync.RWMutex, values map[string]*int64) map[string]int64 {
	mu.RLock()
	defer mu.RUnlock()

	out := make(map[string]int64, len(values))
	for name, v := range values {
		out[name] = atomic.LoadInt64(v)
	}
	return out
}

// Timers returns a summary of every timer
func (c *Collector) Timers() map[string]TimerMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]TimerMetric, len(c.timers))
	for name, t := range c.timers {
		count := atomic.LoadInt64(&t.count)
		total := atomic.LoadInt64(&t.totalMs)

		var avg float64
		if count > 0 {
			avg = float64(total) / float64(count)
		}

		out[name] = TimerMetric{
			Count:         count,
			TotalTimeMs:   total,
			AverageTimeMs: avg,
			MinTimeMs:     atomic.LoadInt64(&t.minMs),
			MaxTimeMs:     atomic.LoadInt64(&t.maxMs),
		}
	}
	return out
}

// ErrorRates returns the error percentage of every tracked operation
func (c *Collector) ErrorRates() map[string]ErrorRateMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]ErrorRateMetric, len(c.errorRates))
	for name, o := range c.errorRates {
		total := atomic.LoadInt64(&o.total)
		errs := atomic.LoadInt64(&o.errors)

		var rate float64
		if total > 0 {
			rate = float64(errs) / float64(total) * 100.0
		}

		out[name] = ErrorRateMetric{Total: total, Errors: errs, ErrorRate: rate}
	}
	return out
}

// Uptime returns the time since the collector was created
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// GetAllMetrics returns every metric in a JSON friendly shape
func (c *Collector) GetAllMetrics() map[string]any {
	return map[string]any{
		"uptime_seconds": int64(c.Uptime().Seconds()),
		"counters":       c.Counters(),
		"gauges":         c.Gauges(),
		"timers":         c.Timers(),
		"error_rates":    c.ErrorRates(),
	}
}
