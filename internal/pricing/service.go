// Package pricing computes per-booking prices under the time-sensitive,
// count-based discount tiers: weekly prepay tiers for daycare, prior-month
// night tiers for boarding, and the boarding last-night pickup surcharge.
package pricing

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/config"
	"github.com/pawsuite/barkbill/internal/observability/metrics"
	"github.com/pawsuite/barkbill/internal/timewindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Rates   *config.RateConfigHolder
	Repo    bookingdomain.Repository
	Metrics *metrics.Metrics
}

type Service struct {
	log     *zap.Logger
	rates   *config.RateConfigHolder
	repo    bookingdomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:     p.Log.Named("pricing.service"),
		rates:   p.Rates,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// WithRepo returns a copy of the engine reading sibling bookings through
// the given repository, so settlement can price against a transaction's
// snapshot.
func (s *Service) WithRepo(repo bookingdomain.Repository) *Service {
	clone := *s
	clone.repo = repo
	return &clone
}

// UnitRate resolves the per-dog price in cents for one booking. A locked
// quote short-circuits every tier rule: once quoted_rate_at_lock is set,
// sibling bookings can no longer move this booking's price.
func (s *Service) UnitRate(ctx context.Context, b *bookingdomain.Booking) (int64, error) {
	if b == nil || b.CustomerEmail == "" {
		return 0, nil
	}
	if b.QuotedRateAtLock != nil {
		return *b.QuotedRateAtLock, nil
	}

	rates := s.rates.Get()
	switch b.Category {
	case bookingdomain.CategoryDaycareAfterHours:
		return rates.AfterHoursFlat, nil
	case bookingdomain.CategoryDaycareHalf, bookingdomain.CategoryDaycareFull:
		return s.daycareRate(ctx, b, rates)
	case bookingdomain.CategoryBoarding:
		return s.boardingRate(ctx, b, rates)
	default:
		// Data-quality event, never fatal: pricing runs on customer-facing
		// paths and must always return a value.
		s.metrics.UnknownServiceLabels.Inc()
		s.log.Warn("unknown service label priced at zero",
			zap.String("label", b.ServiceLabel),
			zap.String("customer", b.CustomerEmail),
		)
		return 0, nil
	}
}

// PriceFor is the total booking price: unit rate times the clamped dog count.
func (s *Service) PriceFor(ctx context.Context, b *bookingdomain.Booking) (int64, error) {
	unit, err := s.UnitRate(ctx, b)
	if err != nil {
		return 0, err
	}
	return unit * int64(bookingdomain.ClampDogCount(b.DogCount)), nil
}

func (s *Service) daycareRate(ctx context.Context, b *bookingdomain.Booking, rates config.RateConfig) (int64, error) {
	if !(b.AdvanceEligible && b.WantsAdvancePay) {
		return daycareTable(b.Category, rates).Immediate, nil
	}

	count, err := s.weeklyPrepayCount(ctx, b.CustomerEmail, b.Date)
	if err != nil {
		return 0, err
	}
	return s.quoteDaycareAtTier(b.Category, count >= 4, rates), nil
}

// weeklyPrepayCount counts the customer's non-canceled, prepay-eligible
// daycare bookings inside the booking's business week.
func (s *Service) weeklyPrepayCount(ctx context.Context, email string, d time.Time) (int, error) {
	ws := timewindow.WeekStartMonday(d)
	we := timewindow.WeekEndSunday(d)
	week, err := s.repo.FindByCustomerAndCategoryAndDateRange(ctx, email,
		[]bookingdomain.ServiceCategory{bookingdomain.CategoryDaycareHalf, bookingdomain.CategoryDaycareFull},
		ws, we, bookingdomain.StatusCanceled)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range week {
		if week[i].WantsAdvancePay && week[i].AdvanceEligible {
			count++
		}
	}
	return count, nil
}

func (s *Service) boardingRate(ctx context.Context, b *bookingdomain.Booking, rates config.RateConfig) (int64, error) {
	pms, pme := timewindow.PriorMonthRange(b.Date)
	prev, err := s.repo.FindByCustomerAndCategoryAndDateRange(ctx, b.CustomerEmail,
		[]bookingdomain.ServiceCategory{bookingdomain.CategoryBoarding},
		pms, pme, bookingdomain.StatusCanceled)
	if err != nil {
		return 0, err
	}

	// One booking is one night; the highest threshold met wins.
	nights := len(prev)
	rate := rates.Boarding.Base
	switch {
	case nights >= 16:
		rate = rates.Boarding.Tier16
	case nights >= 10:
		rate = rates.Boarding.Tier10
	case nights >= 4:
		rate = rates.Boarding.Tier4
	}

	lastNight, err := s.isLastNight(ctx, b)
	if err != nil {
		return 0, err
	}
	if lastNight {
		rate = mulPercentHalfUp(rate, rates.LastNightPercent)
	}
	return rate, nil
}

// isLastNight is true when no non-canceled boarding booking exists for the
// customer on the literal next calendar day, even when that day falls in
// the following business week. Daycare on the next day does not count, and
// a canceled boarding slot reads as vacant.
func (s *Service) isLastNight(ctx context.Context, b *bookingdomain.Booking) (bool, error) {
	next := timewindow.Day(b.Date).AddDate(0, 0, 1)
	following, err := s.repo.FindByCustomerAndCategoryAndDateRange(ctx, b.CustomerEmail,
		[]bookingdomain.ServiceCategory{bookingdomain.CategoryBoarding},
		next, next, bookingdomain.StatusCanceled)
	if err != nil {
		return false, err
	}
	return len(following) == 0, nil
}

// QuoteDaycareAtTier prices a daycare booking with the tier decision passed
// in explicitly, so the bundle lock makes the tier call exactly once from a
// single authoritative count instead of recounting per booking.
func (s *Service) QuoteDaycareAtTier(b *bookingdomain.Booking, atLeast4 bool) int64 {
	return s.quoteDaycareAtTier(b.Category, atLeast4, s.rates.Get())
}

func (s *Service) quoteDaycareAtTier(category bookingdomain.ServiceCategory, atLeast4 bool, rates config.RateConfig) int64 {
	if !category.Discountable() {
		if category == bookingdomain.CategoryDaycareAfterHours {
			return rates.AfterHoursFlat
		}
		s.metrics.UnknownServiceLabels.Inc()
		return 0
	}
	table := daycareTable(category, rates)
	if atLeast4 {
		return table.Prepay4P
	}
	return table.Prepay1_3
}

// ProvisionalWeekQuotes returns dynamic per-booking totals for every
// eligible daycare booking in the week of anyDate, keyed by booking ID.
// Nothing is locked; the tier follows the current eligible count.
func (s *Service) ProvisionalWeekQuotes(ctx context.Context, email string, anyDate time.Time) (map[snowflake.ID]int64, error) {
	ws := timewindow.WeekStartMonday(anyDate)
	we := timewindow.WeekEndSunday(anyDate)
	week, err := s.repo.FindByCustomerAndCategoryAndDateRange(ctx, email,
		[]bookingdomain.ServiceCategory{bookingdomain.CategoryDaycareHalf, bookingdomain.CategoryDaycareFull},
		ws, we, bookingdomain.StatusCanceled)
	if err != nil {
		return nil, err
	}

	eligible := make([]*bookingdomain.Booking, 0, len(week))
	for i := range week {
		if week[i].WantsAdvancePay && week[i].AdvanceEligible {
			eligible = append(eligible, &week[i])
		}
	}
	if len(eligible) == 0 {
		return map[snowflake.ID]int64{}, nil
	}

	atLeast4 := len(eligible) >= 4
	rates := s.rates.Get()
	quotes := make(map[snowflake.ID]int64, len(eligible))
	for _, b := range eligible {
		unit := s.quoteDaycareAtTier(b.Category, atLeast4, rates)
		quotes[b.ID] = unit * int64(bookingdomain.ClampDogCount(b.DogCount))
	}
	return quotes, nil
}

func daycareTable(category bookingdomain.ServiceCategory, rates config.RateConfig) config.DaycareRates {
	if category == bookingdomain.CategoryDaycareHalf {
		return rates.DaycareHalf
	}
	return rates.DaycareFull
}
