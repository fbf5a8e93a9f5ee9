package tickets

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

// Service handles wallets and ticket purchases.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// AddFunds credits a user's wallet, creating it on first use, and appends a
// credit entry to the transaction log.
func (s *Service) AddFunds(ctx context.Context, userID int, amount float64) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		wallet = &models.Wallet{}
		err := tx.NewSelect().Model(wallet).Where("w.user_id = ?", userID).Scan(ctx)
		entry := models.WalletTransaction{
			Type:   models.WalletTxnCredit,
			Amount: amount,
			At:     time.Now(),
		}
		if errors.Is(err, sql.ErrNoRows) {
			wallet = &models.Wallet{
				UserID:       userID,
				Balance:      amount,
				Transactions: models.WalletTransactions{entry},
				CreatedAt:    entry.At,
				UpdatedAt:    entry.At,
			}
			_, err = tx.NewInsert().Model(wallet).Exec(ctx)
			return errors.WithStack(err)
		} else if err != nil {
			return errors.WithStack(err)
		}

		wallet.Balance += amount
		wallet.Transactions = append(wallet.Transactions, entry)
		wallet.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(wallet).
			Column("balance", "transactions", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Wallet returns a user's wallet, 404 when they never added funds.
func (s *Service) Wallet(ctx context.Context, userID int) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	err := s.db.NewSelect().Model(wallet).Where("w.user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Wallet")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return wallet, nil
}

type PurchaseOptions struct {
	UserID        int
	TrainID       int
	FromStationID int
	ToStationID   int
	Fare          float64
}

// Purchase debits the fare and issues the ticket in one transaction. The
// debit is a single conditional decrement, so two concurrent purchases can
// never overdraw the wallet: the second one loses the race and fails.
func (s *Service) Purchase(ctx context.Context, opts PurchaseOptions) (*models.Ticket, error) {
	train := &models.Train{}
	err := s.db.NewSelect().Model(train).Where("tr.id = ?", opts.TrainID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Train")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	if !stopsAt(train, opts.FromStationID) || !stopsAt(train, opts.ToStationID) {
		return nil, errcodes.ValidationError("This train does not stop at the selected stations")
	}

	now := time.Now()
	ticket := &models.Ticket{
		UserID:        opts.UserID,
		TrainID:       opts.TrainID,
		FromStationID: opts.FromStationID,
		ToStationID:   opts.ToStationID,
		Fare:          opts.Fare,
		IssuedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Wallet)(nil)).
			Set("balance = balance - ?", opts.Fare).
			Set("updated_at = CURRENT_TIMESTAMP").
			Where("user_id = ?", opts.UserID).
			Where("balance >= ?", opts.Fare).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.InsufficientBalance()
		}

		// The debit already happened above; this read inside the same
		// transaction only appends the log entry.
		wallet := &models.Wallet{}
		err = tx.NewSelect().Model(wallet).Where("w.user_id = ?", opts.UserID).Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		wallet.Transactions = append(wallet.Transactions, models.WalletTransaction{
			Type:   models.WalletTxnDebit,
			Amount: opts.Fare,
			At:     time.Now(),
		})
		_, err = tx.NewUpdate().
			Model(wallet).
			Column("transactions").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewInsert().Model(ticket).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListForUser returns the caller's tickets, newest first, with train and
// station context loaded.
func (s *Service) ListForUser(ctx context.Context, userID int) ([]*models.Ticket, error) {
	tickets := []*models.Ticket{}
	err := s.db.NewSelect().
		Model(&tickets).
		Relation("Train").
		Relation("FromStation").
		Relation("ToStation").
		Where("tk.user_id = ?", userID).
		Order("tk.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tickets, nil
}

func stopsAt(train *models.Train, stationID int) bool {
	for _, stop := range train.Stops {
		if stop.StationID == stationID {
			return true
		}
	}
	return false
}
