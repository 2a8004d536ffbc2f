// Package reconcile turns a customer's weekly booking set into an invoice
// and applies settlements. Payment state only ever moves forward: an
// invoice that was paid stays paid, and already-paid bookings are never
// touched again.
package reconcile

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/clock"
	invoicedomain "github.com/pawsuite/barkbill/internal/invoice/domain"
	"github.com/pawsuite/barkbill/internal/observability/metrics"
	"github.com/pawsuite/barkbill/internal/pricing"
	"github.com/pawsuite/barkbill/internal/timewindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Bookings bookingdomain.Repository
	Invoices invoicedomain.Repository
	Pricing  *pricing.Service
	Metrics  *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	bookings bookingdomain.Repository
	invoices invoicedomain.Repository
	pricing  *pricing.Service
	metrics  *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reconcile.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		bookings: p.Bookings,
		invoices: p.Invoices,
		pricing:  p.Pricing,
		metrics:  p.Metrics,
	}
}

// Row is one customer's reconciliation line for a week.
type Row struct {
	InvoiceID     *snowflake.ID `json:"invoice_id,omitempty"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	WeekStart     time.Time     `json:"week_start"`
	WeekEnd       time.Time     `json:"week_end"`

	AmountCents      int64 `json:"amount_cents"`
	PaidToDateCents  int64 `json:"paid_to_date_cents"`
	DeltaUnpaidCents int64 `json:"delta_unpaid_cents"`

	InvoicePaid bool `json:"invoice_paid"`
	RowPaid     bool `json:"row_paid"`
}

// WeeklyRows builds one row per customer with at least one non-canceled
// booking in the business week of start. Rows sort by display name,
// case-insensitive.
func (s *Service) WeeklyRows(ctx context.Context, start time.Time) ([]Row, error) {
	ws := timewindow.WeekStartMonday(start)
	we := timewindow.WeekEndSunday(start)

	week, err := s.bookings.FindByDateRange(ctx, ws, we)
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string][]*bookingdomain.Booking)
	for i := range week {
		b := &week[i]
		if b.Canceled() || b.CustomerEmail == "" {
			continue
		}
		byEmail[b.CustomerEmail] = append(byEmail[b.CustomerEmail], b)
	}

	rows := make([]Row, 0, len(byEmail))
	for email, bs := range byEmail {
		row := Row{
			CustomerEmail: email,
			CustomerName:  displayName(bs, email),
			WeekStart:     ws,
			WeekEnd:       we,
		}

		for _, b := range bs {
			total, err := s.pricing.PriceFor(ctx, b)
			if err != nil {
				return nil, err
			}
			row.AmountCents += total
			if b.Paid {
				row.PaidToDateCents += total
			}
		}
		row.DeltaUnpaidCents = row.AmountCents - row.PaidToDateCents
		if row.DeltaUnpaidCents < 0 {
			row.DeltaUnpaidCents = 0
		}

		inv, err := s.invoices.FindByCustomerAndWeekStart(ctx, email, ws)
		if err != nil {
			return nil, err
		}
		if inv != nil {
			id := inv.ID
			row.InvoiceID = &id
			row.InvoicePaid = inv.Paid
		}
		row.RowPaid = row.InvoicePaid && allPaid(bs)

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a := strings.ToLower(rows[i].CustomerName)
		b := strings.ToLower(rows[j].CustomerName)
		if a == b {
			return rows[i].CustomerEmail < rows[j].CustomerEmail
		}
		return a < b
	})
	return rows, nil
}

// SettleResult reports what a MarkPaid call did.
type SettleResult struct {
	WeekStart    time.Time `json:"week_start"`
	AmountCents  int64     `json:"amount_cents"`
	BookingsPaid int       `json:"bookings_paid"`
	// Kind is "first", "incremental" or "noop".
	Kind string `json:"kind"`
}

// MarkPaid settles the customer's week of anyDate. The date normalizes to
// its Monday. The first settlement pays every non-canceled booking in the
// week and flips the invoice to paid; later calls pay only bookings added
// since, refresh the amount, and never move the invoice back to unpaid.
// Safe to call repeatedly.
func (s *Service) MarkPaid(ctx context.Context, customerEmail string, anyDate time.Time) (SettleResult, error) {
	if customerEmail == "" {
		return SettleResult{}, bookingdomain.ErrCustomerRequired
	}

	result, err := s.settle(ctx, customerEmail, anyDate)
	if errors.Is(err, invoicedomain.ErrDuplicateWeek) {
		// Another writer created the invoice first; re-read and apply
		// incrementally instead of duplicating the row.
		result, err = s.settle(ctx, customerEmail, anyDate)
	}
	if err != nil {
		return SettleResult{}, err
	}

	s.metrics.Settlements.WithLabelValues(result.Kind).Inc()
	s.log.Info("week settled",
		zap.String("customer", customerEmail),
		zap.Time("week_start", result.WeekStart),
		zap.String("kind", result.Kind),
		zap.Int("bookings_paid", result.BookingsPaid),
	)
	return result, nil
}

func (s *Service) settle(ctx context.Context, customerEmail string, anyDate time.Time) (SettleResult, error) {
	ws := timewindow.WeekStartMonday(anyDate)
	we := timewindow.WeekEndSunday(anyDate)
	result := SettleResult{WeekStart: ws}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)
		invoices := s.invoices.WithTx(tx)
		engine := s.pricing.WithRepo(bookings)

		week, err := bookings.FindByCustomerAndDateRange(ctx, customerEmail, ws, we)
		if err != nil {
			return err
		}
		active := make([]*bookingdomain.Booking, 0, len(week))
		for i := range week {
			if !week[i].Canceled() {
				active = append(active, &week[i])
			}
		}

		amount := int64(0)
		for _, b := range active {
			total, err := engine.PriceFor(ctx, b)
			if err != nil {
				return err
			}
			amount += total
		}
		result.AmountCents = amount

		inv, err := invoices.FindByCustomerAndWeekStart(ctx, customerEmail, ws)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if inv == nil {
			inv = &invoicedomain.Invoice{
				ID:            s.genID.Generate(),
				CustomerEmail: customerEmail,
				CustomerName:  displayName(active, customerEmail),
				WeekStart:     ws,
				WeekEnd:       we,
				AmountCents:   amount,
				Paid:          true,
				PaidAt:        &now,
			}
			if err := invoices.Create(ctx, inv); err != nil {
				return err
			}
			paid := payBookings(active, now)
			result.Kind = metrics.SettlementFirst
			result.BookingsPaid = len(paid)
			return bookings.SaveAll(ctx, paid)
		}

		if !inv.Paid {
			inv.Paid = true
			inv.PaidAt = &now
			inv.AmountCents = amount
			if err := invoices.Save(ctx, inv); err != nil {
				return err
			}
			paid := payBookings(active, now)
			result.Kind = metrics.SettlementFirst
			result.BookingsPaid = len(paid)
			return bookings.SaveAll(ctx, paid)
		}

		// Already paid: apply only to bookings added since the last
		// settlement. Paid history is never revoked.
		newlyPaid := payBookings(active, now)
		if len(newlyPaid) == 0 {
			result.Kind = metrics.SettlementNoop
			return nil
		}

		inv.AmountCents = amount
		// paidAt only ever advances.
		if inv.PaidAt == nil || now.After(*inv.PaidAt) {
			inv.PaidAt = &now
		}
		if err := invoices.Save(ctx, inv); err != nil {
			return err
		}
		result.Kind = metrics.SettlementIncremental
		result.BookingsPaid = len(newlyPaid)
		return bookings.SaveAll(ctx, newlyPaid)
	})
	if err != nil {
		return SettleResult{}, err
	}
	return result, nil
}

// payBookings stamps paid/paidAt on the bookings that are still unpaid and
// returns just the ones it touched. Already-paid bookings keep their
// original paidAt.
func payBookings(active []*bookingdomain.Booking, now time.Time) []*bookingdomain.Booking {
	touched := make([]*bookingdomain.Booking, 0, len(active))
	for _, b := range active {
		if b.Paid {
			continue
		}
		b.Paid = true
		paidAt := now
		b.PaidAt = &paidAt
		touched = append(touched, b)
	}
	return touched
}

func allPaid(bs []*bookingdomain.Booking) bool {
	if len(bs) == 0 {
		return false
	}
	for _, b := range bs {
		if !b.Paid {
			return false
		}
	}
	return true
}

func displayName(bs []*bookingdomain.Booking, fallback string) string {
	for _, b := range bs {
		if b.CustomerName != "" {
			return b.CustomerName
		}
	}
	return fallback
}
