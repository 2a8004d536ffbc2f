package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the booking store contract. Range queries are inclusive on
// both ends and operate on calendar dates.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Booking, error)
	FindByReference(ctx context.Context, reference string) (*Booking, error)
	FindByDate(ctx context.Context, date time.Time) ([]Booking, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]Booking, error)
	FindByCustomerAndDateRange(ctx context.Context, email string, from, to time.Time) ([]Booking, error)
	// FindByCustomerAndCategoryAndDateRange returns the customer's bookings
	// in any of the given categories, excluding the given status.
	FindByCustomerAndCategoryAndDateRange(ctx context.Context, email string, categories []ServiceCategory, from, to time.Time, excluding BookingStatus) ([]Booking, error)
	Save(ctx context.Context, b *Booking) error
	SaveAll(ctx context.Context, bs []*Booking) error

	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository
}
