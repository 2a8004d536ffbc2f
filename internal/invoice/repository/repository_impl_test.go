package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	invoicedomain "github.com/pawsuite/barkbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))
	return db
}

func TestCreate_DuplicateWeekMapsToSentinel(t *testing.T) {
	db := openTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	node, _ := snowflake.NewNode(1)

	ws := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	first := &invoicedomain.Invoice{
		ID:            node.Generate(),
		CustomerEmail: "dup@example.com",
		CustomerName:  "Dup",
		WeekStart:     ws,
		WeekEnd:       ws.AddDate(0, 0, 6),
	}
	assert.NoError(t, repo.Create(ctx, first))

	second := &invoicedomain.Invoice{
		ID:            node.Generate(),
		CustomerEmail: "dup@example.com",
		CustomerName:  "Dup",
		WeekStart:     ws,
		WeekEnd:       ws.AddDate(0, 0, 6),
	}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, invoicedomain.ErrDuplicateWeek)

	// A different week for the same customer is fine.
	second.WeekStart = ws.AddDate(0, 0, 7)
	second.WeekEnd = ws.AddDate(0, 0, 13)
	assert.NoError(t, repo.Create(ctx, second))
}

func TestFindByCustomerAndWeekStart(t *testing.T) {
	db := openTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	node, _ := snowflake.NewNode(1)

	ws := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	// Absent reads as nil, not an error.
	inv, err := repo.FindByCustomerAndWeekStart(ctx, "none@example.com", ws)
	assert.NoError(t, err)
	assert.Nil(t, inv)

	assert.NoError(t, repo.Create(ctx, &invoicedomain.Invoice{
		ID:            node.Generate(),
		CustomerEmail: "find@example.com",
		CustomerName:  "Find",
		WeekStart:     ws,
		WeekEnd:       ws.AddDate(0, 0, 6),
		AmountCents:   9000,
	}))

	// Any timestamp inside the Monday normalizes to the same key.
	inv, err = repo.FindByCustomerAndWeekStart(ctx, "find@example.com", ws.Add(15*time.Hour))
	assert.NoError(t, err)
	if assert.NotNil(t, inv) {
		assert.Equal(t, int64(9000), inv.AmountCents)
	}
}
