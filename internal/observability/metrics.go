package observability

import (
	"sync"
	"time"
)

// RequestKey buckets request counters by route outcome.
type RequestKey struct {
	Path   string
	Method string
	Status int
}

// ErrorKey buckets error counters by taxonomy code.
type ErrorKey struct {
	Path   string
	Method string
	Code   string
}

// Metrics keeps in-process request and error counters together with
// cumulative latency per bucket.
type Metrics struct {
	mu       sync.Mutex
	requests map[RequestKey]int64
	latency  map[RequestKey]time.Duration
	errors   map[ErrorKey]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[RequestKey]int64),
		latency:  make(map[RequestKey]time.Duration),
		errors:   make(map[ErrorKey]int64),
	}
}

// RecordRequest counts a completed request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := RequestKey{Path: path, Method: method, Status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.latency[key] += duration
}

// RecordError counts a request resolved with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := ErrorKey{Path: path, Method: method, Code: code}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// RequestCount reports the counter for one route outcome.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[RequestKey{Path: path, Method: method, Status: status}]
}

// ErrorCount reports the counter for one error code on a route.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[ErrorKey{Path: path, Method: method, Code: code}]
}

// TotalLatency reports the accumulated latency for one route outcome.
func (m *Metrics) TotalLatency(path, method string, status int) time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latency[RequestKey{Path: path, Method: method, Status: status}]
}
