package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Field bounds for course attributes.
const (
	CourseTitleMinLen = 3
	CourseTitleMaxLen = 200
	CourseCodeMinLen  = 2
	CourseCodeMaxLen  = 50
	CourseCapacityMax = math.MaxInt32
)

var (
	ErrEmptyTitle = errors.New("title cannot be empty or whitespace")
	ErrEmptyCode  = errors.New("code cannot be empty or whitespace")
)

// Course is an offering students can enroll in. EnrolledCount is derived from the
// enrollment set at read time and never persisted.
type Course struct {
	ID            int64
	Title         string
	Code          string
	Capacity      int
	IsActive      bool
	EnrolledCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailableSlots returns the number of seats still open.
func (c *Course) AvailableSlots() int {
	return c.Capacity - c.EnrolledCount
}

// IsFull reports whether no seat is left.
func (c *Course) IsFull() bool {
	return c.EnrolledCount >= c.Capacity
}

// NormalizeCode trims and uppercases a course code.
func NormalizeCode(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", ErrEmptyCode
	}
	return strings.ToUpper(trimmed), nil
}

// NormalizeTitle trims a course title.
func NormalizeTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}
