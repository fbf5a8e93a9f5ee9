package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	SubscriptionFree    = "Free"
	SubscriptionPremium = "Premium"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                   int        `bun:",pk,nullzero" json:"id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	ProfilePicture       string     `json:"profile_picture"`
	Firstname            string     `bun:",nullzero" json:"firstname"`
	Lastname             string     `json:"lastname"`
	Email                string     `bun:",nullzero" json:"email"`
	Mobile               string     `json:"mobile"`
	Location             string     `json:"location"`
	Gender               string     `json:"gender"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	PasswordHash         string     `json:"-"` // Never expose password hash
	Role                 string     `bun:",nullzero" json:"role"`
	IsBlocked            bool       `json:"is_blocked"`
	RefreshToken         string     `json:"-"`
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	PreferredLanguage    string     `bun:",nullzero" json:"preferred_language"`
	SubscriptionType     string     `bun:",nullzero" json:"subscription_type"`
	Income               float64    `json:"income"`
}

// IsAdmin reports whether the user may pass admin-gated routes.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ResetTokenExpired reports whether the stored password-reset token is past
// its expiry. A missing expiry counts as expired.
func (u *User) ResetTokenExpired(now time.Time) bool {
	return u.PasswordResetExpires == nil || now.After(*u.PasswordResetExpires)
}
