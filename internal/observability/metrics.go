package observability

import (
	"strconv"
	"sync"
	"time"
)

// Enrollment outcomes tracked by the engine.
const (
	OutcomeEnrolled     = "enrolled"
	OutcomeDeregistered = "deregistered"
	OutcomeRemoved      = "removed"
	OutcomeRejected     = "rejected"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu               sync.Mutex
	requestCount     map[string]int64
	requestDuration  map[string]time.Duration
	errorCount       map[string]int64
	enrollmentCounts map[string]int64
	startedAt        time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds     int64            `json:"uptime_seconds"`
	Requests          map[string]int64 `json:"requests"`
	AvgLatencyMillis  map[string]int64 `json:"avg_latency_ms"`
	Errors            map[string]int64 `json:"errors"`
	EnrollmentOutcome map[string]int64 `json:"enrollment_outcomes"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:     make(map[string]int64),
		requestDuration:  make(map[string]time.Duration),
		errorCount:       make(map[string]int64),
		enrollmentCounts: make(map[string]int64),
		startedAt:        time.Now(),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEnrollment counts an enrollment outcome. Rejections are keyed by error code.
func (m *Metrics) RecordEnrollment(outcome, code string) {
	if m == nil {
		return
	}
	key := outcome
	if code != "" {
		key = outcome + "|" + code
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollmentCounts[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds:     int64(time.Since(m.startedAt).Seconds()),
		Requests:          make(map[string]int64, len(m.requestCount)),
		AvgLatencyMillis:  make(map[string]int64, len(m.requestCount)),
		Errors:            make(map[string]int64, len(m.errorCount)),
		EnrollmentOutcome: make(map[string]int64, len(m.enrollmentCounts)),
	}
	for k, v := range m.requestCount {
		snap.Requests[k] = v
		if v > 0 {
			snap.AvgLatencyMillis[k] = (m.requestDuration[k] / time.Duration(v)).Milliseconds()
		}
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.enrollmentCounts {
		snap.EnrollmentOutcome[k] = v
	}
	return snap
}

func pathKey(path, method, suffix string) string {
	return path + "|" + method + "|" + suffix
}
