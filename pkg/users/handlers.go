package users

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/uploads"
)

// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

const profilePictureField = "profilePicture"

type handler struct {
	service    *Service
	uploads    *uploads.Service
	refreshTTL time.Duration
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := struct {
		RegisterPayload
		FormFiles map[string]*multipart.FileHeader `json:"-"`
	}{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	opts := CreateUserOptions{
		Firstname:         params.Firstname,
		Lastname:          params.Lastname,
		Email:             params.Email,
		Password:          params.Password,
		Mobile:            params.Mobile,
		Location:          params.Location,
		Gender:            params.Gender,
		PreferredLanguage: params.PreferredLanguage,
	}
	if params.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", params.DateOfBirth)
		if err != nil {
			return errcodes.ValidationError(`"dateOfBirth" must be a valid date.`)
		}
		opts.DateOfBirth = &dob
	}
	if fh, ok := params.FormFiles[profilePictureField]; ok {
		url, err := h.uploads.SaveImage(ctx, "profiles", fh, true)
		if err != nil {
			return err
		}
		opts.ProfilePicture = url
	}

	user, err := h.service.Create(ctx, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *handler) login(c echo.Context) error {
	return h.loginAs(c, false)
}

func (h *handler) adminLogin(c echo.Context) error {
	return h.loginAs(c, true)
}

func (h *handler) loginAs(c echo.Context, requireAdmin bool) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	user, err := h.service.Authenticate(ctx, params.Email, params.Password)
	if err != nil {
		return err
	}
	if requireAdmin && !user.IsAdmin() {
		return errcodes.Forbidden("Signing in to the admin panel")
	}

	accessToken, err := h.service.GenerateAccessToken(user)
	if err != nil {
		return err
	}
	refreshToken, err := h.service.GenerateRefreshToken(ctx, user)
	if err != nil {
		return err
	}
	h.setRefreshCookie(c, refreshToken, int(h.refreshTTL.Seconds()))

	return c.JSON(http.StatusOK, loginResponse{AccessToken: accessToken, User: user})
}

func (h *handler) refresh(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return errcodes.Forbidden("Refreshing without a session cookie")
	}
	accessToken, err := h.service.Refresh(ctx, cookie.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: accessToken})
}

func (h *handler) logout(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(RefreshCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.service.Logout(ctx, cookie.Value); err != nil {
			return err
		}
	}
	h.setRefreshCookie(c, "", -1)
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) forgotPassword(c echo.Context) error {
	ctx := c.Request().Context()

	params := ForgotPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if err := h.service.ForgotPassword(ctx, params.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

func (h *handler) resetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	params := ResetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if err := h.service.ResetPassword(ctx, c.Param("token"), params.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password has been reset"})
}

func (h *handler) changePassword(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	params := ChangePasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if err := h.service.ChangePassword(ctx, user.ID, params.CurrentPassword, params.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *handler) listUsers(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.service.List(ctx, ListUsersOptions{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *handler) listAdmins(c echo.Context) error {
	ctx := c.Request().Context()

	role := models.RoleAdmin
	admins, err := h.service.List(ctx, ListUsersOptions{Role: &role})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, admins)
}

func (h *handler) retrieveUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.Retrieve(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *handler) editProfile(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := struct {
		EditProfilePayload
		FormFiles map[string]*multipart.FileHeader `json:"-"`
	}{}
	if err := c.Bind(&params); err != nil {
		return err
	}

	columns := []string{}
	if params.Firstname != nil {
		user.Firstname = *params.Firstname
		columns = append(columns, "firstname")
	}
	if params.Lastname != nil {
		user.Lastname = *params.Lastname
		columns = append(columns, "lastname")
	}
	if params.Mobile != nil {
		user.Mobile = *params.Mobile
		columns = append(columns, "mobile")
	}
	if params.Location != nil {
		user.Location = *params.Location
		columns = append(columns, "location")
	}
	if params.Gender != nil {
		user.Gender = *params.Gender
		columns = append(columns, "gender")
	}
	if params.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *params.DateOfBirth)
		if err != nil {
			return errcodes.ValidationError(`"dateOfBirth" must be a valid date.`)
		}
		user.DateOfBirth = &dob
		columns = append(columns, "date_of_birth")
	}
	if fh, ok := params.FormFiles[profilePictureField]; ok {
		url, err := h.uploads.SaveImage(ctx, "profiles", fh, true)
		if err != nil {
			return err
		}
		user.ProfilePicture = url
		columns = append(columns, "profile_picture")
	}
	if len(columns) == 0 {
		return errcodes.BadRequest("No updatable fields were provided.")
	}

	updated, err := h.service.Update(ctx, UpdateUserOptions{User: user, Columns: columns})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) updatePreferredLanguage(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	params := PreferredLanguagePayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	user.PreferredLanguage = params.PreferredLanguage
	updated, err := h.service.Update(ctx, UpdateUserOptions{User: user, Columns: []string{"preferred_language"}})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handler) deleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) deleteAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	role := models.RoleAdmin
	admin, err := h.service.Retrieve(ctx, RetrieveUserOptions{ID: &id, Role: &role})
	if err != nil {
		return err
	}
	if err := h.service.Delete(ctx, admin.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) blockUser(c echo.Context) error {
	return h.setBlocked(c, true)
}

func (h *handler) unblockUser(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *handler) setBlocked(c echo.Context, blocked bool) error {
	ctx := c.Request().Context()

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.SetBlocked(ctx, id, blocked)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *handler) adminForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()

	params := ForgotPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if err := h.service.AdminForgotPassword(ctx, params.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Verification code sent"})
}

func (h *handler) adminVerifyCode(c echo.Context) error {
	ctx := c.Request().Context()

	params := AdminVerifyCodePayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if err := h.service.AdminVerifyCode(ctx, params.Email, params.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Code verified"})
}

func (h *handler) adminSetNewPassword(c echo.Context) error {
	ctx := c.Request().Context()

	params := AdminSetNewPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if err := h.service.AdminSetNewPassword(ctx, params.Email, params.Code, params.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password has been reset"})
}

func (h *handler) makeAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	params := MakeAdminPayload{}
	if err := c.Bind(&params); err != nil {
		return err
	}
	user, err := h.service.MakeAdmin(ctx, CreateUserOptions{
		Email:     params.Email,
		Firstname: params.Firstname,
		Lastname:  params.Lastname,
		Password:  params.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *handler) setRefreshCookie(c echo.Context, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errors.WithStack(errcodes.NotFound("User"))
	}
	return id, nil
}
