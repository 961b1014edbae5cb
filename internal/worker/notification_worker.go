package worker

import (
	"github.com/mouhsinou/course-enrollment-platform/internal/cache"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/service"
)

// Subscribers lists the event consumers wired at startup.
type Subscribers struct {
	Notifications *service.NotificationService
	CourseCache   cache.CourseCache
}

// StartSubscribers registers every event consumer on dispatcher.
func StartSubscribers(dispatcher events.Dispatcher, subs Subscribers) {
	if dispatcher == nil {
		return
	}
	if subs.Notifications != nil {
		subs.Notifications.RegisterHandlers()
	}
	if subs.CourseCache != nil {
		cache.RegisterInvalidation(dispatcher, subs.CourseCache)
	}
}
