package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/courses", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/courses", "GET", 200, 30*time.Millisecond)
	m.RecordError("/enrollments", "POST", "COURSE_FULL")
	m.RecordEnrollment(OutcomeEnrolled, "")
	m.RecordEnrollment(OutcomeRejected, "COURSE_FULL")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/courses|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMillis["/courses|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/enrollments|POST|COURSE_FULL"])
	assert.Equal(t, int64(1), snap.EnrollmentOutcome["enrolled"])
	assert.Equal(t, int64(1), snap.EnrollmentOutcome["rejected|COURSE_FULL"])

	m.RecordEnrollment(OutcomeEnrolled, "")
	assert.Equal(t, int64(1), snap.EnrollmentOutcome["enrolled"], "snapshot is a copy")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordEnrollment(OutcomeEnrolled, "")
		_ = m.Snapshot()
	})
}
