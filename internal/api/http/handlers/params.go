package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mouhsinou/course-enrollment-platform/internal/auth"
	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid path parameter",
			map[string]any{name: "value is not a valid integer"})
	}
	return id, nil
}

// queryBool reads a required boolean query parameter.
func queryBool(c *fiber.Ctx, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, apperrors.NewValidationError("missing query parameter",
			map[string]any{name: "field required"})
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError("invalid query parameter",
			map[string]any{name: "value could not be parsed to a boolean"})
	}
	return v, nil
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok || user == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return user, nil
}
