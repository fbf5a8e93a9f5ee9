package users

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

// Echo context keys for the authenticated user.
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
)

// Middleware provides authentication middleware.
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate validates the bearer token, verifies the user still exists
// and is not blocked, and stores the user on the context.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return errcodes.Unauthorized("Authentication required")
		}
		claims, err := m.service.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		user, err := m.service.Retrieve(ctx, RetrieveUserOptions{ID: &claims.UserID})
		if err != nil {
			return errcodes.Unauthorized("User not found")
		}
		if user.IsBlocked {
			return errcodes.Forbidden("Using a blocked account")
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)
		return next(c)
	}
}

// RequireAdmin gates a route to admin users. Must run after Authenticate.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(ContextKeyUser).(*models.User)
		if !ok {
			return errcodes.Unauthorized("Authentication required")
		}
		if !user.IsAdmin() {
			return errcodes.Forbidden("Accessing this resource")
		}
		return next(c)
	}
}

// UserFromContext retrieves the authenticated user from the Echo context.
func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	return user, ok
}
