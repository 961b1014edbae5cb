package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCourseChanged     EventType = "course.changed"
	EventEnrollmentCreated EventType = "enrollment.created"
	EventEnrollmentRemoved EventType = "enrollment.removed"
	EventUserStatusChanged EventType = "user.status_changed"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CourseID  int64       `json:"course_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CourseChangedPayload payload.
type CourseChangedPayload struct {
	Code     string `json:"code"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
	Created  bool   `json:"created"`
}

// EnrollmentPayload is shared by enrollment.created and enrollment.removed.
type EnrollmentPayload struct {
	EnrollmentID   int64  `json:"enrollment_id"`
	UserID         int64  `json:"user_id"`
	AvailableSlots int    `json:"available_slots"`
	RemovedBy      string `json:"removed_by,omitempty"`
}

// UserStatusPayload payload.
type UserStatusPayload struct {
	UserID   int64 `json:"user_id"`
	IsActive bool  `json:"is_active"`
}
