// Package bundle implements the weekly prepay commit point: it settles the
// discount tier from the final eligible set and stamps locked rates onto
// every booking in the bundle.
package bundle

import (
	"context"
	"time"

	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/clock"
	"github.com/pawsuite/barkbill/internal/observability/metrics"
	"github.com/pawsuite/barkbill/internal/pricing"
	"github.com/pawsuite/barkbill/internal/timewindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    bookingdomain.Repository
	Pricing *pricing.Service
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    bookingdomain.Repository
	pricing *pricing.Service
	metrics *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("bundle.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		pricing: p.Pricing,
		metrics: p.Metrics,
	}
}

// LockResult reports what a lock pass did.
type LockResult struct {
	WeekStart time.Time `json:"week_start"`
	Eligible  int       `json:"eligible"`
	AtLeast4  bool      `json:"at_least_4"`
	Locked    bool      `json:"locked"`
}

// LockWeek stamps the final tier onto every eligible daycare booking in the
// business week of anyDateInWeek. Calling it again after more eligible
// bookings appear recomputes the tier from the new total and overwrites the
// earlier locked rates: this is lock-at-each-commit, the last commit wins,
// and this service is the only component permitted to overwrite an existing
// quoted_rate_at_lock.
func (s *Service) LockWeek(ctx context.Context, customerEmail string, anyDateInWeek time.Time) (LockResult, error) {
	if customerEmail == "" {
		return LockResult{}, bookingdomain.ErrCustomerRequired
	}

	ws := timewindow.WeekStartMonday(anyDateInWeek)
	we := timewindow.WeekEndSunday(anyDateInWeek)
	result := LockResult{WeekStart: ws}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		week, err := repo.FindByCustomerAndCategoryAndDateRange(ctx, customerEmail,
			[]bookingdomain.ServiceCategory{bookingdomain.CategoryDaycareHalf, bookingdomain.CategoryDaycareFull},
			ws, we, bookingdomain.StatusCanceled)
		if err != nil {
			return err
		}

		// Eligibility is settled at commit time.
		eligible := make([]*bookingdomain.Booking, 0, len(week))
		for i := range week {
			if week[i].WantsAdvancePay && week[i].AdvanceEligible {
				eligible = append(eligible, &week[i])
			}
		}
		result.Eligible = len(eligible)
		if len(eligible) == 0 {
			return nil
		}

		// One tier decision for the whole bundle.
		atLeast4 := len(eligible) >= 4
		result.AtLeast4 = atLeast4
		now := s.clock.Now()

		for _, b := range eligible {
			rate := s.pricing.QuoteDaycareAtTier(b, atLeast4)
			b.InPrepayBundle = true
			b.QuotedRateAtLock = &rate
			locked := now
			b.BundleLockedAt = &locked
		}
		if err := repo.SaveAll(ctx, eligible); err != nil {
			return err
		}
		result.Locked = true
		return nil
	})
	if err != nil {
		return LockResult{}, err
	}

	if result.Locked {
		s.metrics.BundleLocks.Inc()
		s.log.Info("weekly prepay bundle locked",
			zap.String("customer", customerEmail),
			zap.Time("week_start", ws),
			zap.Int("eligible", result.Eligible),
			zap.Bool("at_least_4", result.AtLeast4),
		)
	}
	return result, nil
}

// HasWeekPaid reports whether any non-canceled booking in the business week
// of anyDateInWeek is already paid.
func (s *Service) HasWeekPaid(ctx context.Context, customerEmail string, anyDateInWeek time.Time) (bool, error) {
	if customerEmail == "" {
		return false, nil
	}
	ws := timewindow.WeekStartMonday(anyDateInWeek)
	we := timewindow.WeekEndSunday(anyDateInWeek)

	week, err := s.repo.FindByCustomerAndDateRange(ctx, customerEmail, ws, we)
	if err != nil {
		return false, err
	}
	for i := range week {
		if !week[i].Canceled() && week[i].Paid {
			return true, nil
		}
	}
	return false, nil
}
