package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindPlanByPrice resolves a price to its creator plan, scoped to the
	// connected account that emitted the event. Returns nil when absent.
	FindPlanByPrice(ctx context.Context, db *gorm.DB, accountID, priceID string) (*CreatorPlan, error)

	// FindFanByCustomer resolves a processor customer id to the internal fan
	// id. Returns "" when no mapping exists yet.
	FindFanByCustomer(ctx context.Context, db *gorm.DB, processorCustomerID string) (string, error)
}
