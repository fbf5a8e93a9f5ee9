package policies

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

// Retrieve returns the singleton policy row, 404 when it has never been set.
func (s *Service) Retrieve(ctx context.Context) (*models.Policy, error) {
	policy := &models.Policy{}
	err := s.db.NewSelect().Model(policy).Order("id ASC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Policy")
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	return policy, nil
}

type UpsertPolicyOptions struct {
	TermsAndConditions *string
	PrivacyPolicy      *string
}

// Upsert creates the singleton row on first write and patches it afterwards.
// Omitted fields keep their previous values.
func (s *Service) Upsert(ctx context.Context, opts UpsertPolicyOptions) (*models.Policy, error) {
	policy, err := s.Retrieve(ctx)
	if errors.Is(err, errcodes.NotFound("Policy")) {
		now := time.Now()
		policy = &models.Policy{CreatedAt: now, UpdatedAt: now}
		if opts.TermsAndConditions != nil {
			policy.TermsAndConditions = *opts.TermsAndConditions
		}
		if opts.PrivacyPolicy != nil {
			policy.PrivacyPolicy = *opts.PrivacyPolicy
		}
		_, err = s.db.NewInsert().Model(policy).Exec(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return policy, nil
	} else if err != nil {
		return nil, err
	}

	columns := []string{}
	if opts.TermsAndConditions != nil {
		policy.TermsAndConditions = *opts.TermsAndConditions
		columns = append(columns, "terms_and_conditions")
	}
	if opts.PrivacyPolicy != nil {
		policy.PrivacyPolicy = *opts.PrivacyPolicy
		columns = append(columns, "privacy_policy")
	}
	if len(columns) == 0 {
		return policy, nil
	}
	policy.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")
	_, err = s.db.NewUpdate().
		Model(policy).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return policy, nil
}
