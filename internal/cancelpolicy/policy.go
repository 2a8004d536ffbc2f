// Package cancelpolicy decides whether a customer may still cancel a
// booking. Boarding has a 72-hour cutoff; daycare never does.
package cancelpolicy

import (
	"time"

	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
)

const boardingCancelHours = 72

// CanCustomerCancel reports whether the customer may cancel the booking at
// time now. A missing start time reads as start of day, the conservative
// choice for the cutoff.
func CanCustomerCancel(b *bookingdomain.Booking, now time.Time) bool {
	if b.Category != bookingdomain.CategoryBoarding {
		return true
	}
	start := b.StartsAt(now.Location())
	return start.Sub(now) >= boardingCancelHours*time.Hour
}

func PolicyMessage(b *bookingdomain.Booking) string {
	if b.Category == bookingdomain.CategoryBoarding {
		return "Boarding cancellations must be made at least 72 hours in advance."
	}
	return "You can cancel this booking."
}
