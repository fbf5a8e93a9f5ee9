package users

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/migrations"
	"github.com/taleweave/taleweave/pkg/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// fakeMailer records the last message of each kind instead of sending it.
type fakeMailer struct {
	resetURL string
	code     string
	planName string
}

func (m *fakeMailer) SendPasswordReset(_, resetURL string) error {
	m.resetURL = resetURL
	return nil
}

func (m *fakeMailer) SendAdminResetCode(_, code string) error {
	m.code = code
	return nil
}

func (m *fakeMailer) SendSubscriptionConfirmation(_, planTitle string) error {
	m.planName = planTitle
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeMailer) {
	t.Helper()

	m := &fakeMailer{}
	svc := NewService(newTestDB(t), "test-secret", 24*time.Hour, 72*time.Hour, m, "http://client.test")
	return svc, m
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserOptions{
		Firstname: "Maria",
		Email:     "maria@example.com",
		Password:  "password123",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.SubscriptionFree, user.SubscriptionType)
	assert.Equal(t, "en", user.PreferredLanguage)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Minute)
	assert.WithinDuration(t, time.Now(), user.UpdatedAt, time.Minute)
}

func TestServiceCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserOptions{Firstname: "Other", Email: "MARIA@example.com", Password: "password123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.ValidationError("Email already exists"))
}

func TestServiceAuthenticate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "maria@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(ctx, "maria@example.com", "wrongpassword")
	assert.ErrorIs(t, err, errcodes.BadRequest("Invalid email or password"))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, errcodes.BadRequest("Invalid email or password"))
}

func TestServiceAuthenticateBlocked(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.SetBlocked(ctx, user.ID, true)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "maria@example.com", "password123")
	require.Error(t, err)

	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, 403, ec.HTTPCode)

	_, err = svc.SetBlocked(ctx, user.ID, false)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "maria@example.com", "password123")
	assert.NoError(t, err)
}

func TestServiceTokens(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123", Role: models.RoleAdmin})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	refresh, err := svc.GenerateRefreshToken(ctx, user)
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	require.NoError(t, svc.Logout(ctx, refresh))

	_, err = svc.Refresh(ctx, refresh)
	assert.Error(t, err)
}

func TestServicePasswordResetFlow(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, user.Email))
	require.NotEmpty(t, m.resetURL)

	// The raw token is the last URL segment; only its hash is stored.
	parts := strings.Split(m.resetURL, "/")
	token := parts[len(parts)-1]

	stored, err := svc.Retrieve(ctx, RetrieveUserOptions{ID: &user.ID})
	require.NoError(t, err)
	assert.NotEqual(t, token, stored.PasswordResetToken)
	assert.NotEmpty(t, stored.PasswordResetToken)

	require.NoError(t, svc.ResetPassword(ctx, token, "newpassword456"))

	_, err = svc.Authenticate(ctx, user.Email, "newpassword456")
	assert.NoError(t, err)

	// Token is single use.
	err = svc.ResetPassword(ctx, token, "anotherpassword")
	assert.Error(t, err)
}

func TestServiceAdminCodeFlow(t *testing.T) {
	t.Parallel()

	svc, m := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, CreateUserOptions{Firstname: "Admin", Email: "admin@example.com", Password: "password123", Role: models.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, svc.AdminForgotPassword(ctx, admin.Email))
	require.Len(t, m.code, 6)

	assert.Error(t, svc.AdminVerifyCode(ctx, admin.Email, "000000"))
	require.NoError(t, svc.AdminVerifyCode(ctx, admin.Email, m.code))

	require.NoError(t, svc.AdminSetNewPassword(ctx, admin.Email, m.code, "newpassword456"))

	_, err = svc.Authenticate(ctx, admin.Email, "newpassword456")
	assert.NoError(t, err)
}

func TestServiceAdminForgotPasswordRejectsNonAdmin(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.AdminForgotPassword(ctx, "maria@example.com")
	assert.ErrorIs(t, err, errcodes.NotFound("User"))
}

func TestServiceMakeAdmin(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	promoted, err := svc.MakeAdmin(ctx, CreateUserOptions{Email: "maria@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, promoted.ID)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	created, err := svc.MakeAdmin(ctx, CreateUserOptions{Email: "new@example.com", Firstname: "New", Password: "password123"})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, models.RoleAdmin, created.Role)

	_, err = svc.MakeAdmin(ctx, CreateUserOptions{Email: "another@example.com"})
	assert.Error(t, err)
}

func TestServiceChangePassword(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserOptions{Firstname: "Maria", Email: "maria@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrongpassword", "newpassword456")
	assert.ErrorIs(t, err, errcodes.BadRequest("Current password is incorrect"))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "password123", "newpassword456"))

	_, err = svc.Authenticate(ctx, user.Email, "newpassword456")
	assert.NoError(t, err)
}
