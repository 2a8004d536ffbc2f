package repository

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/pawsuite/barkbill/internal/invoice/domain"
	"github.com/pawsuite/barkbill/internal/timewindow"
	"github.com/pawsuite/barkbill/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(gdb *gorm.DB) invoicedomain.Repository {
	return &repo{db: gdb}
}

func (r *repo) WithTx(tx *gorm.DB) invoicedomain.Repository {
	return &repo{db: tx}
}

func (r *repo) FindByCustomerAndWeekStart(ctx context.Context, email string, weekStart time.Time) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		First(&inv, "customer_email = ? AND week_start = ?", email, timewindow.Day(weekStart)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repo) Create(ctx context.Context, inv *invoicedomain.Invoice) error {
	err := r.db.WithContext(ctx).Create(inv).Error
	if db.IsDuplicateKeyErr(err) {
		return invoicedomain.ErrDuplicateWeek
	}
	return err
}

func (r *repo) Save(ctx context.Context, inv *invoicedomain.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}
