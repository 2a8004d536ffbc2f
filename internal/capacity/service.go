// Package capacity decides whether a date can take another booking under
// the per-day caps, including the admin-only emergency overflow pool.
package capacity

import (
	"context"
	"time"

	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Snapshot is the derived per-date picture: counts of non-canceled bookings
// by category plus the configured caps. It is never persisted or cached;
// re-deriving from the booking set means cancellations free capacity for
// the very next check.
type Snapshot struct {
	Date     time.Time `json:"date"`
	Total    int       `json:"total"`
	Daycare  int       `json:"daycare"`
	Boarding int       `json:"boarding"`

	// EmergencyUsed is a derived overflow measure, not a tracked counter:
	// clamp(total - (daycareCap + boardingCap), 0, emergencyCap).
	EmergencyUsed int `json:"emergency_used"`

	TotalCap     int `json:"total_cap"`
	DaycareCap   int `json:"daycare_cap"`
	BoardingCap  int `json:"boarding_cap"`
	EmergencyCap int `json:"emergency_cap"`
}

func (s Snapshot) EmergencyRemaining() int {
	return s.EmergencyCap - s.EmergencyUsed
}

type Params struct {
	fx.In

	Log   *zap.Logger
	Rates *config.RateConfigHolder
	Repo  bookingdomain.Repository
}

type Service struct {
	log   *zap.Logger
	rates *config.RateConfigHolder
	repo  bookingdomain.Repository
}

func New(p Params) *Service {
	return &Service{
		log:   p.Log.Named("capacity.service"),
		rates: p.Rates,
		repo:  p.Repo,
	}
}

// WithRepo returns a copy of the service reading bookings through the
// given repository, so admission can count inside a transaction.
func (s *Service) WithRepo(repo bookingdomain.Repository) *Service {
	clone := *s
	clone.repo = repo
	return &clone
}

// Snapshot reads all non-canceled bookings for the date and derives counts.
func (s *Service) Snapshot(ctx context.Context, date time.Time) (Snapshot, error) {
	bookings, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return Snapshot{}, err
	}
	return s.derive(date, bookings), nil
}

func (s *Service) derive(date time.Time, bookings []bookingdomain.Booking) Snapshot {
	caps := s.rates.Get().Caps

	daycare, boarding := 0, 0
	for i := range bookings {
		b := &bookings[i]
		if b.Canceled() {
			continue
		}
		switch {
		case b.Category.IsDaycare():
			daycare++
		case b.Category == bookingdomain.CategoryBoarding:
			boarding++
		}
	}
	total := daycare + boarding

	normalCap := caps.Daycare + caps.Boarding
	emergencyUsed := total - normalCap
	if emergencyUsed < 0 {
		emergencyUsed = 0
	}
	if emergencyUsed > caps.Emergency {
		emergencyUsed = caps.Emergency
	}

	return Snapshot{
		Date:          date,
		Total:         total,
		Daycare:       daycare,
		Boarding:      boarding,
		EmergencyUsed: emergencyUsed,
		TotalCap:      caps.Total,
		DaycareCap:    caps.Daycare,
		BoardingCap:   caps.Boarding,
		EmergencyCap:  caps.Emergency,
	}
}

// CanCustomerBook reports whether a regular customer may book this category
// on this date without touching the emergency pool. Categories outside
// daycare and boarding are conservatively rejected.
func (s *Service) CanCustomerBook(ctx context.Context, date time.Time, category bookingdomain.ServiceCategory) (bool, error) {
	snap, err := s.Snapshot(ctx, date)
	if err != nil {
		return false, err
	}
	return s.admit(snap, category), nil
}

func (s *Service) admit(snap Snapshot, category bookingdomain.ServiceCategory) bool {
	// Daily hard cap first.
	if snap.Total >= snap.TotalCap {
		return false
	}
	switch {
	case category.IsDaycare():
		return snap.Daycare < snap.DaycareCap
	case category == bookingdomain.CategoryBoarding:
		return snap.Boarding < snap.BoardingCap
	default:
		return false
	}
}

// ShouldUseEmergency reports whether an administrator may place this
// booking through the emergency pool: normal capacity for the category is
// exhausted, the daily hard cap is not, and emergency spots remain.
func (s *Service) ShouldUseEmergency(ctx context.Context, date time.Time, category bookingdomain.ServiceCategory) (bool, error) {
	snap, err := s.Snapshot(ctx, date)
	if err != nil {
		return false, err
	}

	totalOK := snap.Total < snap.TotalCap
	emergencyAvailable := snap.EmergencyRemaining() > 0

	switch {
	case category.IsDaycare():
		return snap.Daycare >= snap.DaycareCap && totalOK && emergencyAvailable, nil
	case category == bookingdomain.CategoryBoarding:
		return snap.Boarding >= snap.BoardingCap && totalOK && emergencyAvailable, nil
	default:
		return false, nil
	}
}

// CanUseEmergency reports whether any emergency spot is usable for the date.
func (s *Service) CanUseEmergency(ctx context.Context, date time.Time) (bool, error) {
	snap, err := s.Snapshot(ctx, date)
	if err != nil {
		return false, err
	}
	return snap.Total < snap.TotalCap && snap.EmergencyRemaining() > 0, nil
}
