// Package domain contains the weekly invoice model and store contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invoice is one customer's bill for one business week. The unique key
// (customer_email, week_start) guarantees a single row per customer per
// week; concurrent first settlements converge on it at the storage layer.
type Invoice struct {
	ID snowflake.ID `json:"id" gorm:"primaryKey"`

	CustomerEmail string `json:"customer_email" gorm:"type:text;not null;uniqueIndex:ux_invoice_customer_week"`
	// CustomerName is captured at creation time for display stability.
	CustomerName string `json:"customer_name" gorm:"type:text;not null"`

	WeekStart time.Time `json:"week_start" gorm:"not null;uniqueIndex:ux_invoice_customer_week"`
	WeekEnd   time.Time `json:"week_end" gorm:"not null"`

	// AmountCents is the priced total for the week at last recomputation.
	AmountCents int64 `json:"amount_cents" gorm:"not null;default:0"`

	// Paid is monotonic: once true it never becomes false again.
	Paid   bool       `json:"paid" gorm:"not null;default:false"`
	PaidAt *time.Time `json:"paid_at,omitempty" gorm:""`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
