package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/mailer"
	"github.com/taleweave/taleweave/pkg/models"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing.
	BcryptCost = 12
	// ResetTokenTTL is how long password-reset tokens stay valid.
	ResetTokenTTL = 10 * time.Minute
)

// JWTClaims represents the claims in an access or refresh token.
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles user accounts and authentication.
type Service struct {
	db         *bun.DB
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	mailer     mailer.Mailer
	clientURL  string
}

func NewService(db *bun.DB, jwtSecret string, accessTTL, refreshTTL time.Duration, m mailer.Mailer, clientURL string) *Service {
	return &Service{
		db:         db,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		mailer:     m,
		clientURL:  clientURL,
	}
}

// CreateUserOptions contains options for registering a user.
type CreateUserOptions struct {
	Firstname         string
	Lastname          string
	Email             string
	Mobile            string
	Location          string
	Gender            string
	DateOfBirth       *time.Time
	Password          string
	ProfilePicture    string
	PreferredLanguage string
	Role              string
}

// Create registers a new user. Duplicate emails are rejected.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ? COLLATE NOCASE", opts.Email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Email already exists")
	}

	hashedPassword, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	role := opts.Role
	if role == "" {
		role = models.RoleUser
	}
	language := opts.PreferredLanguage
	if language == "" {
		language = "en"
	}

	now := time.Now()
	user := &models.User{
		Firstname:         opts.Firstname,
		Lastname:          opts.Lastname,
		Email:             opts.Email,
		Mobile:            opts.Mobile,
		Location:          opts.Location,
		Gender:            opts.Gender,
		DateOfBirth:       opts.DateOfBirth,
		PasswordHash:      hashedPassword,
		ProfilePicture:    opts.ProfilePicture,
		Role:              role,
		PreferredLanguage: language,
		SubscriptionType:  models.SubscriptionFree,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// Authenticate validates credentials. Blocked users are rejected even with a
// correct password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.email = ? COLLATE NOCASE", email).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.BadRequest("Invalid email or password")
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, errcodes.BadRequest("Invalid email or password")
	}
	if user.IsBlocked {
		return nil, errcodes.Forbidden("Signing in with a blocked account")
	}
	return user, nil
}

// GenerateAccessToken creates a short-lived bearer token.
func (s *Service) GenerateAccessToken(user *models.User) (string, error) {
	return s.generateToken(user, s.accessTTL)
}

// GenerateRefreshToken creates the long-lived token that is persisted on the
// user row and mirrored in an HTTP-only cookie.
func (s *Service) GenerateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	token, err := s.generateToken(user, s.refreshTTL)
	if err != nil {
		return "", err
	}
	_, err = s.db.NewUpdate().
		Model(user).
		Set("refresh_token = ?", token).
		Set("updated_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return token, nil
}

func (s *Service) generateToken(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return signedToken, nil
}

// ValidateToken validates a JWT and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// match the one stored on the user row and still verify.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.refresh_token = ?", refreshToken).
		Scan(ctx)
	if err != nil {
		return "", errcodes.Forbidden("Refreshing without a matching session")
	}
	_, err = s.ValidateToken(refreshToken)
	if err != nil {
		return "", errcodes.Forbidden("Refreshing with an invalid or expired token")
	}
	return s.GenerateAccessToken(user)
}

// Logout clears the stored refresh token so the cookie can no longer be
// exchanged.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("refresh_token = NULL").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("refresh_token = ?", refreshToken).
		Exec(ctx)
	return errors.WithStack(err)
}

type RetrieveUserOptions struct {
	ID    *int
	Email *string
	Role  *string
}

func (s *Service) Retrieve(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}
	q := s.db.NewSelect().Model(user)
	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.Email != nil {
		q = q.Where("u.email = ? COLLATE NOCASE", *opts.Email)
	}
	if opts.Role != nil {
		q = q.Where("u.role = ?", *opts.Role)
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("User")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

type ListUsersOptions struct {
	Role *string
}

func (s *Service) List(ctx context.Context, opts ListUsersOptions) ([]*models.User, error) {
	users := []*models.User{}
	q := s.db.NewSelect().Model(&users).Order("id ASC")
	if opts.Role != nil {
		q = q.Where("u.role = ?", *opts.Role)
	}
	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return users, nil
}

// UpdateUserOptions updates only the named Columns on the user.
type UpdateUserOptions struct {
	User    *models.User
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateUserOptions) (*models.User, error) {
	if len(opts.Columns) == 0 {
		return opts.User, nil
	}
	opts.User.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.User).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.User, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

// SetBlocked blocks or unblocks a user.
func (s *Service) SetBlocked(ctx context.Context, id int, blocked bool) (*models.User, error) {
	user, err := s.Retrieve(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return nil, err
	}
	user.IsBlocked = blocked
	return s.Update(ctx, UpdateUserOptions{User: user, Columns: []string{"is_blocked"}})
}

// ChangePassword sets a new password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	user, err := s.Retrieve(ctx, RetrieveUserOptions{ID: &userID})
	if err != nil {
		return err
	}
	if !CheckPassword(currentPassword, user.PasswordHash) {
		return errcodes.BadRequest("Current password is incorrect")
	}
	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword
	_, err = s.Update(ctx, UpdateUserOptions{User: user, Columns: []string{"password_hash"}})
	return err
}

// ForgotPassword issues a reset token, stores its sha256 digest with a
// 10-minute expiry, and emails the reset link. The raw token only ever
// appears in the email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Retrieve(ctx, RetrieveUserOptions{Email: &email})
	if err != nil {
		return err
	}

	raw := make([]byte, 32)
	_, err = rand.Read(raw)
	if err != nil {
		return errors.WithStack(err)
	}
	token := hex.EncodeToString(raw)

	err = s.storeResetToken(ctx, user, hashToken(token))
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(user.Email, s.clientURL+"/reset-password/"+token)
}

// ResetPassword consumes a reset token and sets the new password. The token
// fields are cleared whether or not they had expired.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.password_reset_token = ?", hashToken(token)).
		Scan(ctx)
	if err != nil {
		return errcodes.BadRequest("Reset token is invalid or has expired")
	}
	if user.ResetTokenExpired(time.Now()) {
		s.clearResetToken(ctx, user)
		return errcodes.BadRequest("Reset token is invalid or has expired")
	}

	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashedPassword
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	user.UpdatedAt = time.Now()
	_, err = s.db.NewUpdate().
		Model(user).
		Set("password_hash = ?", user.PasswordHash).
		Set("password_reset_token = NULL").
		Set("password_reset_expires = NULL").
		Set("updated_at = ?", user.UpdatedAt).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// AdminForgotPassword emails a 6-digit verification code to an admin and
// stores its bcrypt hash with a 10-minute expiry.
func (s *Service) AdminForgotPassword(ctx context.Context, email string) error {
	role := models.RoleAdmin
	user, err := s.Retrieve(ctx, RetrieveUserOptions{Email: &email, Role: &role})
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hashedCode, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return errors.WithStack(err)
	}
	err = s.storeResetToken(ctx, user, string(hashedCode))
	if err != nil {
		return err
	}
	return s.mailer.SendAdminResetCode(user.Email, code)
}

// AdminVerifyCode checks a verification code without consuming it.
func (s *Service) AdminVerifyCode(ctx context.Context, email, code string) error {
	_, err := s.adminWithValidCode(ctx, email, code)
	return err
}

// AdminSetNewPassword consumes a verified code and sets a new password.
func (s *Service) AdminSetNewPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.adminWithValidCode(ctx, email, code)
	if err != nil {
		return err
	}
	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.db.NewUpdate().
		Model(user).
		Set("password_hash = ?", hashedPassword).
		Set("password_reset_token = NULL").
		Set("password_reset_expires = NULL").
		Set("updated_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *Service) adminWithValidCode(ctx context.Context, email, code string) (*models.User, error) {
	role := models.RoleAdmin
	user, err := s.Retrieve(ctx, RetrieveUserOptions{Email: &email, Role: &role})
	if err != nil {
		return nil, err
	}
	if user.PasswordResetToken == "" || user.ResetTokenExpired(time.Now()) {
		return nil, errcodes.BadRequest("Verification code is invalid or has expired")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordResetToken), []byte(code)) != nil {
		return nil, errcodes.BadRequest("Verification code is invalid or has expired")
	}
	return user, nil
}

// MakeAdmin promotes an existing user, or creates a new admin account when
// no user has that email.
func (s *Service) MakeAdmin(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.email = ? COLLATE NOCASE", opts.Email).
		Scan(ctx)
	if err == nil {
		user.Role = models.RoleAdmin
		return s.Update(ctx, UpdateUserOptions{User: user, Columns: []string{"role"}})
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}
	if opts.Password == "" {
		return nil, errcodes.ValidationError("A password is required when creating a new admin")
	}
	opts.Role = models.RoleAdmin
	return s.Create(ctx, opts)
}

func (s *Service) storeResetToken(ctx context.Context, user *models.User, stored string) error {
	expires := time.Now().Add(ResetTokenTTL)
	_, err := s.db.NewUpdate().
		Model(user).
		Set("password_reset_token = ?", stored).
		Set("password_reset_expires = ?", expires).
		Set("updated_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *Service) clearResetToken(ctx context.Context, user *models.User) {
	_, _ = s.db.NewUpdate().
		Model(user).
		Set("password_reset_token = NULL").
		Set("password_reset_expires = NULL").
		WherePK().
		Exec(ctx)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", errors.WithStack(err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
