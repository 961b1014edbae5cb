package auth

import (
	"fmt"

	"github.com/mouhsinou/course-enrollment-platform/internal/domain"
	apperrors "github.com/mouhsinou/course-enrollment-platform/pkg/util/errorutil"
)

// Guard inspects an authenticated user and either passes (nil) or halts the
// request with a typed authorization failure.
type Guard func(user *domain.User) error

// ActiveUser rejects deactivated accounts.
func ActiveUser() Guard {
	return func(user *domain.User) error {
		if !user.IsActive {
			return apperrors.NewForbidden("inactive user")
		}
		return nil
	}
}

// HasRole rejects users whose role differs from role.
func HasRole(role domain.Role) Guard {
	return func(user *domain.User) error {
		if user.Role != role {
			return apperrors.NewForbidden(fmt.Sprintf("this endpoint requires %s role", role))
		}
		return nil
	}
}

// RunGuards applies guards in order; the first failure wins.
func RunGuards(user *domain.User, guards ...Guard) error {
	for _, guard := range guards {
		if err := guard(user); err != nil {
			return err
		}
	}
	return nil
}
