package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/timewindow"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) bookingdomain.Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) bookingdomain.Repository {
	return &repo{db: tx}
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*bookingdomain.Booking, error) {
	var b bookingdomain.Booking
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingdomain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repo) FindByReference(ctx context.Context, reference string) (*bookingdomain.Booking, error) {
	var b bookingdomain.Booking
	err := r.db.WithContext(ctx).First(&b, "reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingdomain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repo) FindByDate(ctx context.Context, date time.Time) ([]bookingdomain.Booking, error) {
	var out []bookingdomain.Booking
	err := r.db.WithContext(ctx).
		Where("date = ?", timewindow.Day(date)).
		Find(&out).Error
	return out, err
}

func (r *repo) FindByDateRange(ctx context.Context, from, to time.Time) ([]bookingdomain.Booking, error) {
	var out []bookingdomain.Booking
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", timewindow.Day(from), timewindow.Day(to)).
		Find(&out).Error
	return out, err
}

func (r *repo) FindByCustomerAndDateRange(ctx context.Context, email string, from, to time.Time) ([]bookingdomain.Booking, error) {
	var out []bookingdomain.Booking
	err := r.db.WithContext(ctx).
		Where("customer_email = ? AND date >= ? AND date <= ?", email, timewindow.Day(from), timewindow.Day(to)).
		Find(&out).Error
	return out, err
}

func (r *repo) FindByCustomerAndCategoryAndDateRange(ctx context.Context, email string, categories []bookingdomain.ServiceCategory, from, to time.Time, excluding bookingdomain.BookingStatus) ([]bookingdomain.Booking, error) {
	var out []bookingdomain.Booking
	err := r.db.WithContext(ctx).
		Where("customer_email = ? AND category IN ? AND date >= ? AND date <= ? AND status <> ?",
			email, categories, timewindow.Day(from), timewindow.Day(to), excluding).
		Find(&out).Error
	return out, err
}

func (r *repo) Save(ctx context.Context, b *bookingdomain.Booking) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *repo) SaveAll(ctx context.Context, bs []*bookingdomain.Booking) error {
	if len(bs) == 0 {
		return nil
	}
	for _, b := range bs {
		if err := r.db.WithContext(ctx).Save(b).Error; err != nil {
			return err
		}
	}
	return nil
}
