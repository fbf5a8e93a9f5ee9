package notifications

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// List returns all notifications newest first with their user and order
// context loaded.
func (s *Service) List(ctx context.Context) ([]*models.Notification, error) {
	notifications := []*models.Notification{}
	err := s.db.NewSelect().
		Model(&notifications).
		Relation("User").
		Relation("Order").
		Order("n.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return notifications, nil
}

// MarkRead flips a notification to read.
func (s *Service) MarkRead(ctx context.Context, id int) (*models.Notification, error) {
	notification := &models.Notification{}
	err := s.db.NewSelect().Model(notification).Where("n.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Notification")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	notification.Status = models.NotificationStatusRead
	notification.UpdatedAt = time.Now()
	_, err = s.db.NewUpdate().
		Model(notification).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return notification, nil
}
