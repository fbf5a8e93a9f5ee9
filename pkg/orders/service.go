package orders

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/payments"
)

// Service handles print orders and their checkout sessions.
type Service struct {
	db        *bun.DB
	payments  payments.Provider
	clientURL string
}

func NewService(db *bun.DB, provider payments.Provider, clientURL string) *Service {
	return &Service{db: db, payments: provider, clientURL: clientURL}
}

type CreateOrderOptions struct {
	User            *models.User
	BookTitle       string
	Quantity        int
	Price           float64
	ShippingAddress *models.ShippingAddress
	PDFLink         string
}

// Create creates a pending order plus an admin notification, then opens a
// checkout session carrying the order id in its metadata. The returned URL
// is where the client redirects the customer.
func (s *Service) Create(ctx context.Context, opts CreateOrderOptions) (*models.Order, string, error) {
	now := time.Now()
	order := &models.Order{
		UserID:          opts.User.ID,
		BookTitle:       opts.BookTitle,
		Quantity:        opts.Quantity,
		Price:           opts.Price,
		Total:           opts.Price * float64(opts.Quantity),
		Status:          models.OrderStatusPending,
		ShippingAddress: opts.ShippingAddress,
		PDFLink:         opts.PDFLink,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(order).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		notification := &models.Notification{
			UserID:    opts.User.ID,
			OrderID:   &order.ID,
			Message:   fmt.Sprintf("New order #%d for %q placed by %s %s", order.ID, order.BookTitle, opts.User.Firstname, opts.User.Lastname),
			Status:    models.NotificationStatusUnread,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = tx.NewInsert().Model(notification).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, "", err
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Items: []payments.CheckoutItem{{
			Name:       order.BookTitle,
			UnitAmount: int64(math.Round(order.Price * 100)),
			Quantity:   int64(order.Quantity),
		}},
		SuccessURL:    s.clientURL + "/order-success",
		CancelURL:     s.clientURL + "/order-cancelled",
		CustomerEmail: opts.User.Email,
		Metadata: map[string]string{
			"orderId": fmt.Sprint(order.ID),
		},
		CollectShipping: true,
	})
	if err != nil {
		return nil, "", err
	}
	return order, session.URL, nil
}

type RetrieveOrderOptions struct {
	ID     int
	UserID *int
}

func (s *Service) Retrieve(ctx context.Context, opts RetrieveOrderOptions) (*models.Order, error) {
	order := &models.Order{}
	q := s.db.NewSelect().Model(order).Relation("User").Where("o.id = ?", opts.ID)
	if opts.UserID != nil {
		q = q.Where("o.user_id = ?", *opts.UserID)
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Order")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return order, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Order, error) {
	orders := []*models.Order{}
	err := s.db.NewSelect().
		Model(&orders).
		Relation("User").
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return orders, nil
}

type UpdateOrderOptions struct {
	Order   *models.Order
	Columns []string
}

func (s *Service) Update(ctx context.Context, opts UpdateOrderOptions) (*models.Order, error) {
	if len(opts.Columns) == 0 {
		return opts.Order, nil
	}
	opts.Order.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(opts.Order).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return opts.Order, nil
}

// Confirm transitions a pending order to confirmed and stores the payment id
// and customer contact details from the completed checkout session. Replays
// for an already-confirmed order are no-ops.
func (s *Service) Confirm(ctx context.Context, orderID int, session payments.CheckoutSession) error {
	order, err := s.Retrieve(ctx, RetrieveOrderOptions{ID: orderID})
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPending {
		return nil
	}
	order.Status = models.OrderStatusConfirmed
	order.PaymentID = session.PaymentIntentID
	order.CustomerEmail = session.CustomerEmail
	order.CustomerName = session.CustomerName
	order.CustomerPhone = session.CustomerPhone
	_, err = s.Update(ctx, UpdateOrderOptions{
		Order:   order,
		Columns: []string{"status", "payment_id", "customer_email", "customer_name", "customer_phone"},
	})
	return err
}
