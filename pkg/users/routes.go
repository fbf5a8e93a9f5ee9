package users

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/uploads"
)

// RegisterRoutes registers all user and auth routes and returns the service
// and middleware for other route groups to share.
func RegisterRoutes(e *echo.Echo, service *Service, uploadService *uploads.Service, refreshTTL time.Duration) *Middleware {
	h := &handler{
		service:    service,
		uploads:    uploadService,
		refreshTTL: refreshTTL,
	}
	mw := NewMiddleware(service)

	g := e.Group("/api/user")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/admin-login", h.adminLogin)
	g.GET("/refresh", h.refresh)
	g.POST("/logout", h.logout)
	g.POST("/forgot-password", h.forgotPassword)
	g.PUT("/reset-password/:token", h.resetPassword)
	g.POST("/admin/forgot-password", h.adminForgotPassword)
	g.POST("/admin/verify-code", h.adminVerifyCode)
	g.POST("/admin/set-new-password", h.adminSetNewPassword)

	g.PUT("/password", h.changePassword, mw.Authenticate)
	g.PUT("/edit-profile", h.editProfile, mw.Authenticate)
	g.PUT("/preferred-language", h.updatePreferredLanguage, mw.Authenticate)

	g.GET("/all-users", h.listUsers, mw.Authenticate, mw.RequireAdmin)
	g.GET("/admins", h.listAdmins, mw.Authenticate, mw.RequireAdmin)
	g.POST("/make-admin", h.makeAdmin, mw.Authenticate, mw.RequireAdmin)
	g.DELETE("/admin/:id", h.deleteAdmin, mw.Authenticate, mw.RequireAdmin)
	g.PUT("/block/:id", h.blockUser, mw.Authenticate, mw.RequireAdmin)
	g.PUT("/unblock/:id", h.unblockUser, mw.Authenticate, mw.RequireAdmin)
	g.DELETE("/:id", h.deleteUser, mw.Authenticate, mw.RequireAdmin)
	g.GET("/:id", h.retrieveUser, mw.Authenticate)

	return mw
}
