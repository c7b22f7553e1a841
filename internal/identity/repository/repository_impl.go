package repository

import (
	"context"

	"github.com/fanvault/fanvault/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPlanByPrice(ctx context.Context, db *gorm.DB, accountID, priceID string) (*domain.CreatorPlan, error) {
	var item domain.CreatorPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, price_id, creator_id, plan_id, created_at
		 FROM creator_plans
		 WHERE account_id = ? AND price_id = ?
		 LIMIT 1`,
		accountID,
		priceID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindFanByCustomer(ctx context.Context, db *gorm.DB, processorCustomerID string) (string, error) {
	var fanID string
	err := db.WithContext(ctx).Raw(
		`SELECT fan_id
		 FROM customer_mappings
		 WHERE processor_customer_id = ?
		 LIMIT 1`,
		processorCustomerID,
	).Scan(&fanID).Error
	if err != nil {
		return "", err
	}
	return fanID, nil
}
