package domain

import (
	"context"
	"errors"
	"time"
)

// Service is the booking lifecycle surface consumed by the web layer.
type Service interface {
	// Create admits and persists a new booking. The capacity check and the
	// insert run inside one transaction.
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	// Cancel flips the booking to CANCELED subject to the cancel policy.
	// Bookings are never deleted.
	Cancel(ctx context.Context, reference string, requestedByAdmin bool) (*Booking, error)
	// Quote prices a prospective booking without persisting or locking
	// anything.
	Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error)
}

type CreateRequest struct {
	CustomerEmail   string  `json:"customer_email"`
	CustomerName    string  `json:"customer_name"`
	ServiceLabel    string  `json:"service_label"`
	Date            string  `json:"date"` // ISO date
	StartTime       *string `json:"start_time,omitempty"`
	DogCount        int     `json:"dog_count"`
	WantsAdvancePay bool    `json:"wants_advance_pay"`
	// AsAdmin unlocks the emergency overflow pool; ordinary customers
	// never get emergency access.
	AsAdmin bool `json:"-"`
}

type QuoteRequest struct {
	CustomerEmail   string
	ServiceLabel    string
	Date            time.Time
	StartTime       *string
	DogCount        int
	WantsAdvancePay bool
}

type QuoteResponse struct {
	Category     ServiceCategory `json:"category"`
	UnitCents    int64           `json:"unit_cents"`
	TotalCents   int64           `json:"total_cents"`
	DogCount     int             `json:"dog_count"`
	AdvanceQuote bool            `json:"advance_quote"`
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrCustomerRequired   = errors.New("customer_required")
	ErrInvalidDate        = errors.New("invalid_date")
	ErrCapacityFull       = errors.New("capacity_full")
	ErrAlreadyCanceled    = errors.New("already_canceled")
	ErrCancelWindowClosed = errors.New("cancel_window_closed")
)
