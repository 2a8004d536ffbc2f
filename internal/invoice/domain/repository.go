package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// FindByCustomerAndWeekStart returns nil when no invoice exists yet;
	// invoices are created lazily on first settlement.
	FindByCustomerAndWeekStart(ctx context.Context, email string, weekStart time.Time) (*Invoice, error)
	// Create inserts a new invoice. A duplicate-key failure means another
	// writer won the race for this (customer, week).
	Create(ctx context.Context, inv *Invoice) error
	Save(ctx context.Context, inv *Invoice) error

	WithTx(tx *gorm.DB) Repository
}

var ErrDuplicateWeek = errors.New("invoice_week_exists")
