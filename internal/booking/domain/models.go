// Package domain contains the booking model and store contract.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ServiceCategory is the canonical service classification. It is resolved
// once from the free-text service label when a booking is created and
// stored; it is never re-derived from the label at read time.
type ServiceCategory string

const (
	CategoryDaycareHalf       ServiceCategory = "DAYCARE_HALF"
	CategoryDaycareFull       ServiceCategory = "DAYCARE_FULL"
	CategoryDaycareAfterHours ServiceCategory = "DAYCARE_AFTER_HOURS"
	CategoryBoarding          ServiceCategory = "BOARDING"
	CategoryUnknown           ServiceCategory = "UNKNOWN"
)

// CategoryFromLabel classifies a free-text service label. Classification is
// total: every label maps to exactly one category, with CategoryUnknown as
// the fallback.
func CategoryFromLabel(label string) ServiceCategory {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case s == "":
		return CategoryUnknown
	case strings.Contains(s, "boarding"):
		return CategoryBoarding
	case strings.Contains(s, "daycare"):
		switch {
		case strings.Contains(s, "after hours"):
			return CategoryDaycareAfterHours
		case strings.Contains(s, "6 am - 3 pm"), strings.Contains(s, "half"):
			return CategoryDaycareHalf
		default:
			// "6 AM - 8 PM" and anything else daycare reads as the full block.
			return CategoryDaycareFull
		}
	default:
		return CategoryUnknown
	}
}

func (c ServiceCategory) IsDaycare() bool {
	return c == CategoryDaycareHalf || c == CategoryDaycareFull || c == CategoryDaycareAfterHours
}

// Discountable reports whether the category participates in the weekly
// prepay bundle. After-hours daycare never does.
func (c ServiceCategory) Discountable() bool {
	return c == CategoryDaycareHalf || c == CategoryDaycareFull
}

type BookingStatus string

const (
	StatusApproved BookingStatus = "APPROVED"
	StatusCanceled BookingStatus = "CANCELED"
)

const (
	MinDogCount = 1
	MaxDogCount = 5
)

// ClampDogCount forces a requested dog count into [1, 5]. Out-of-range
// values are clamped rather than rejected so public quoting stays forgiving.
func ClampDogCount(n int) int {
	if n < MinDogCount {
		return MinDogCount
	}
	if n > MaxDogCount {
		return MaxDogCount
	}
	return n
}

// Booking is one requested service instance. Canceled bookings stay on
// record forever; they are excluded from every aggregate but never deleted.
type Booking struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	Reference     string       `json:"reference" gorm:"type:text;not null;uniqueIndex"`
	CustomerEmail string       `json:"customer_email" gorm:"type:text;not null;index"`
	CustomerName  string       `json:"customer_name" gorm:"type:text;not null"`

	ServiceLabel string          `json:"service_label" gorm:"type:text;not null"`
	Category     ServiceCategory `json:"category" gorm:"type:text;not null;index"`
	Date         time.Time       `json:"date" gorm:"not null;index"`
	StartTime    *string         `json:"start_time,omitempty" gorm:"type:text"`
	DogCount     int             `json:"dog_count" gorm:"not null;default:1"`
	Status       BookingStatus   `json:"status" gorm:"type:text;not null;default:'APPROVED'"`

	// AdvanceEligible is computed once at creation (>= 24h gap to start)
	// and never re-derived.
	AdvanceEligible bool `json:"advance_eligible" gorm:"not null;default:false"`
	WantsAdvancePay bool `json:"wants_advance_pay" gorm:"not null;default:false"`
	InPrepayBundle  bool `json:"in_prepay_bundle" gorm:"not null;default:false"`

	// QuotedRateAtLock is the locked per-dog rate in cents. Once set it is
	// the sole source of truth for this booking's price; only the bundle
	// lock service may overwrite it.
	QuotedRateAtLock *int64     `json:"quoted_rate_at_lock,omitempty" gorm:""`
	BundleLockedAt   *time.Time `json:"bundle_locked_at,omitempty" gorm:""`

	EmergencySlot bool `json:"emergency_slot" gorm:"not null;default:false"`

	Paid   bool       `json:"paid" gorm:"not null;default:false"`
	PaidAt *time.Time `json:"paid_at,omitempty" gorm:""`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Booking) TableName() string { return "bookings" }

func (b *Booking) Canceled() bool {
	return strings.EqualFold(string(b.Status), string(StatusCanceled))
}

// StartsAt resolves the booking's date plus optional "HH:MM" start time in
// the given zone. A missing or malformed time reads as start of day, which
// is the conservative choice for cancellation cutoffs.
func (b *Booking) StartsAt(zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}
	d := b.Date
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, zone)
	if b.StartTime == nil {
		return start
	}
	parsed, err := time.Parse("15:04", *b.StartTime)
	if err != nil {
		return start
	}
	return start.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute)
}
