package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/cancelpolicy"
	"github.com/pawsuite/barkbill/internal/capacity"
	"github.com/pawsuite/barkbill/internal/clock"
	"github.com/pawsuite/barkbill/internal/observability/metrics"
	"github.com/pawsuite/barkbill/internal/pricing"
	"github.com/pawsuite/barkbill/internal/timewindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// advanceEligibleGap is the minimum lead time for a booking to qualify for
// advance-pay discounts. Computed once at creation, never re-derived.
const advanceEligibleGap = 24 * time.Hour

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     bookingdomain.Repository
	Capacity *capacity.Service
	Pricing  *pricing.Service
	Metrics  *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     bookingdomain.Repository
	capacity *capacity.Service
	pricing  *pricing.Service
	metrics  *metrics.Metrics
}

func New(p Params) bookingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("booking.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		capacity: p.Capacity,
		pricing:  p.Pricing,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req bookingdomain.CreateRequest) (*bookingdomain.Booking, error) {
	email := strings.TrimSpace(strings.ToLower(req.CustomerEmail))
	if email == "" {
		return nil, bookingdomain.ErrCustomerRequired
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return nil, bookingdomain.ErrInvalidDate
	}

	category := bookingdomain.CategoryFromLabel(req.ServiceLabel)
	now := s.clock.Now()

	b := &bookingdomain.Booking{
		ID:            s.genID.Generate(),
		Reference:     uuid.NewString(),
		CustomerEmail: email,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		ServiceLabel:  strings.TrimSpace(req.ServiceLabel),
		Category:      category,
		Date:          timewindow.Day(date),
		StartTime:     req.StartTime,
		DogCount:      bookingdomain.ClampDogCount(req.DogCount),
		Status:        bookingdomain.StatusApproved,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}

	b.AdvanceEligible = b.StartsAt(now.Location()).Sub(now) >= advanceEligibleGap
	// Opt-in only means something for discountable daycare booked in advance.
	b.WantsAdvancePay = req.WantsAdvancePay && b.AdvanceEligible && category.Discountable()

	// The capacity check and the insert share one transaction so two
	// concurrent requests cannot both observe a free spot and both land.
	// Deployment note: per-date admission relies on the store serializing
	// writers for the same date.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		caps := s.capacity.WithRepo(repo)

		ok, err := caps.CanCustomerBook(ctx, b.Date, category)
		if err != nil {
			return err
		}
		pool := metrics.AdmissionNormal

		if !ok {
			if !req.AsAdmin {
				return bookingdomain.ErrCapacityFull
			}
			emergency, err := caps.ShouldUseEmergency(ctx, b.Date, category)
			if err != nil {
				return err
			}
			if !emergency {
				return bookingdomain.ErrCapacityFull
			}
			b.EmergencySlot = true
			pool = metrics.AdmissionEmergency
		}

		if err := repo.Save(ctx, b); err != nil {
			return err
		}
		s.metrics.BookingsAdmitted.WithLabelValues(pool).Inc()
		return nil
	})
	if err != nil {
		if err == bookingdomain.ErrCapacityFull {
			s.metrics.BookingsRejected.Inc()
			s.log.Info("booking rejected at capacity",
				zap.String("customer", email),
				zap.Time("date", b.Date),
				zap.String("category", string(category)),
			)
		}
		return nil, err
	}

	if category == bookingdomain.CategoryUnknown {
		s.log.Warn("booking created with unknown service label",
			zap.String("label", req.ServiceLabel),
			zap.String("reference", b.Reference),
		)
	}
	return b, nil
}

func (s *Service) Cancel(ctx context.Context, reference string, requestedByAdmin bool) (*bookingdomain.Booking, error) {
	b, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if b.Canceled() {
		return nil, bookingdomain.ErrAlreadyCanceled
	}

	// Admins may override the cutoff; customers may not.
	if !requestedByAdmin && !cancelpolicy.CanCustomerCancel(b, s.clock.Now()) {
		return nil, bookingdomain.ErrCancelWindowClosed
	}

	b.Status = bookingdomain.StatusCanceled
	b.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("booking canceled",
		zap.String("reference", b.Reference),
		zap.String("customer", b.CustomerEmail),
		zap.Time("date", b.Date),
	)
	return b, nil
}

// Quote prices a prospective booking without persisting it. The weekly
// sibling count sees only bookings already on record.
func (s *Service) Quote(ctx context.Context, req bookingdomain.QuoteRequest) (bookingdomain.QuoteResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.CustomerEmail))
	if email == "" {
		return bookingdomain.QuoteResponse{}, bookingdomain.ErrCustomerRequired
	}

	category := bookingdomain.CategoryFromLabel(req.ServiceLabel)
	now := s.clock.Now()

	b := &bookingdomain.Booking{
		CustomerEmail: email,
		ServiceLabel:  req.ServiceLabel,
		Category:      category,
		Date:          timewindow.Day(req.Date),
		StartTime:     req.StartTime,
		DogCount:      bookingdomain.ClampDogCount(req.DogCount),
		Status:        bookingdomain.StatusApproved,
	}
	b.AdvanceEligible = b.StartsAt(now.Location()).Sub(now) >= advanceEligibleGap
	b.WantsAdvancePay = req.WantsAdvancePay && b.AdvanceEligible && category.Discountable()

	unit, err := s.pricing.UnitRate(ctx, b)
	if err != nil {
		return bookingdomain.QuoteResponse{}, err
	}
	return bookingdomain.QuoteResponse{
		Category:     category,
		UnitCents:    unit,
		TotalCents:   unit * int64(b.DogCount),
		DogCount:     b.DogCount,
		AdvanceQuote: b.WantsAdvancePay,
	}, nil
}
