package domain

import "time"

// UserSummary is the minimal user view attached to enrollment listings.
type UserSummary struct {
	ID    int64
	Name  string
	Email string
}

// CourseSummary is the minimal course view attached to enrollment listings.
type CourseSummary struct {
	ID    int64
	Title string
	Code  string
}

// Enrollment records that a student holds a seat in a course.
type Enrollment struct {
	ID        int64
	UserID    int64
	CourseID  int64
	CreatedAt time.Time

	User   *UserSummary
	Course *CourseSummary
}
