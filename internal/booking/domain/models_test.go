package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromLabel(t *testing.T) {
	cases := []struct {
		label string
		want  ServiceCategory
	}{
		{"Boarding", CategoryBoarding},
		{"  boarding (overnight) ", CategoryBoarding},
		{"Daycare (6 AM - 3 PM)", CategoryDaycareHalf},
		{"daycare half day", CategoryDaycareHalf},
		{"Daycare (6 AM - 8 PM)", CategoryDaycareFull},
		{"Daycare", CategoryDaycareFull},
		{"Daycare After Hours Pickup", CategoryDaycareAfterHours},
		{"Grooming", CategoryUnknown},
		{"", CategoryUnknown},
		{"   ", CategoryUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, CategoryFromLabel(tc.label))
		})
	}
}

func TestCategoryPredicates(t *testing.T) {
	assert.True(t, CategoryDaycareHalf.IsDaycare())
	assert.True(t, CategoryDaycareFull.IsDaycare())
	assert.True(t, CategoryDaycareAfterHours.IsDaycare())
	assert.False(t, CategoryBoarding.IsDaycare())
	assert.False(t, CategoryUnknown.IsDaycare())

	assert.True(t, CategoryDaycareHalf.Discountable())
	assert.True(t, CategoryDaycareFull.Discountable())
	// After-hours pays the flat rate no matter how many days are prepaid.
	assert.False(t, CategoryDaycareAfterHours.Discountable())
	assert.False(t, CategoryBoarding.Discountable())
}

func TestClampDogCount(t *testing.T) {
	assert.Equal(t, 1, ClampDogCount(-3))
	assert.Equal(t, 1, ClampDogCount(0))
	assert.Equal(t, 1, ClampDogCount(1))
	assert.Equal(t, 3, ClampDogCount(3))
	assert.Equal(t, 5, ClampDogCount(5))
	assert.Equal(t, 5, ClampDogCount(12))
}

func TestStartsAt(t *testing.T) {
	date := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	b := &Booking{Date: date}
	assert.Equal(t, date, b.StartsAt(time.UTC))

	start := "14:30"
	b.StartTime = &start
	assert.Equal(t, date.Add(14*time.Hour+30*time.Minute), b.StartsAt(time.UTC))

	// Malformed times fall back to start of day.
	bad := "2pm"
	b.StartTime = &bad
	assert.Equal(t, date, b.StartsAt(time.UTC))

	assert.Equal(t, date, (&Booking{Date: date}).StartsAt(nil))
}

func TestCanceled(t *testing.T) {
	assert.False(t, (&Booking{Status: StatusApproved}).Canceled())
	assert.True(t, (&Booking{Status: StatusCanceled}).Canceled())
	assert.True(t, (&Booking{Status: "canceled"}).Canceled())
}
