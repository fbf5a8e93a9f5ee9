package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	OrderID   *int      `json:"order_id,omitempty"`
	Order     *Order    `bun:"rel:belongs-to,join:order_id=id" json:"order,omitempty"`
	Message   string    `json:"message"`
	Status    string    `bun:",nullzero" json:"status"`
}
