package policies

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/users"
)

type handler struct {
	service *Service
}

type upsertPolicyPayload struct {
	TermsAndConditions *string `json:"terms_and_conditions"`
	PrivacyPolicy      *string `json:"privacy_policy"`
}

// RegisterRoutes registers the policy routes. Reads are public; the upsert
// is admin-gated.
func RegisterRoutes(e *echo.Echo, service *Service, mw *users.Middleware) {
	h := &handler{service: service}

	g := e.Group("/api/policy")
	g.GET("", h.retrieve)
	g.PUT("", h.upsert, mw.Authenticate, mw.RequireAdmin)
}

func (h *handler) retrieve(c echo.Context) error {
	policy, err := h.service.Retrieve(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, policy)
}

func (h *handler) upsert(c echo.Context) error {
	params := upsertPolicyPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	policy, err := h.service.Upsert(c.Request().Context(), UpsertPolicyOptions{
		TermsAndConditions: params.TermsAndConditions,
		PrivacyPolicy:      params.PrivacyPolicy,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, policy)
}
