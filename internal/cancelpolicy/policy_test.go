package cancelpolicy

import (
	"testing"
	"time"

	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanCustomerCancel_DaycareAlways(t *testing.T) {
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	b := &bookingdomain.Booking{
		Category: bookingdomain.CategoryDaycareFull,
		Date:     time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
	}
	// Even with the start already in the past.
	assert.True(t, CanCustomerCancel(b, now))
}

func TestCanCustomerCancel_BoardingCutoff(t *testing.T) {
	start := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	startTime := "09:00"
	b := &bookingdomain.Booking{
		Category:  bookingdomain.CategoryBoarding,
		Date:      time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		StartTime: &startTime,
	}

	// Exactly 72 hours out is still allowed.
	assert.True(t, CanCustomerCancel(b, start.Add(-72*time.Hour)))
	// One second inside the window is not.
	assert.False(t, CanCustomerCancel(b, start.Add(-72*time.Hour+time.Second)))
}

func TestCanCustomerCancel_BoardingWithoutStartTime(t *testing.T) {
	b := &bookingdomain.Booking{
		Category: bookingdomain.CategoryBoarding,
		Date:     time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
	}

	// Missing start time reads as midnight, tightening the cutoff.
	assert.True(t, CanCustomerCancel(b, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)))
	assert.False(t, CanCustomerCancel(b, time.Date(2025, 6, 9, 0, 0, 1, 0, time.UTC)))
}

func TestPolicyMessage(t *testing.T) {
	boarding := &bookingdomain.Booking{Category: bookingdomain.CategoryBoarding}
	daycare := &bookingdomain.Booking{Category: bookingdomain.CategoryDaycareHalf}
	assert.Contains(t, PolicyMessage(boarding), "72 hours")
	assert.NotContains(t, PolicyMessage(daycare), "72 hours")
}
