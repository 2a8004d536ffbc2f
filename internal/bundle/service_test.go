package bundle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	bookingrepo "github.com/pawsuite/barkbill/internal/booking/repository"
	"github.com/pawsuite/barkbill/internal/clock"
	"github.com/pawsuite/barkbill/internal/config"
	"github.com/pawsuite/barkbill/internal/observability/metrics"
	"github.com/pawsuite/barkbill/internal/pricing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var monday = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  *Service
}

func newTestEnv(t *testing.T) *testEnv {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&bookingdomain.Booking{}))

	node, _ := snowflake.NewNode(1)
	log := zap.NewNop()
	holder := config.NewStaticRateHolder(config.DefaultRateConfig())
	repo := bookingrepo.Provide(db)
	m := metrics.New(prometheus.NewRegistry())

	engine := pricing.New(pricing.Params{Log: log, Rates: holder, Repo: repo, Metrics: m})
	svc := New(Params{
		DB:      db,
		Log:     log,
		Clock:   clock.NewFakeClock(monday),
		Repo:    repo,
		Pricing: engine,
		Metrics: m,
	})
	return &testEnv{db: db, node: node, svc: svc}
}

func (e *testEnv) seedDay(t *testing.T, email string, category bookingdomain.ServiceCategory, date time.Time, prepay bool) *bookingdomain.Booking {
	id := e.node.Generate()
	b := &bookingdomain.Booking{
		ID:              id,
		Reference:       id.String(),
		CustomerEmail:   email,
		CustomerName:    "Bundle Customer",
		ServiceLabel:    string(category),
		Category:        category,
		Date:            date,
		DogCount:        1,
		Status:          bookingdomain.StatusApproved,
		WantsAdvancePay: prepay,
		AdvanceEligible: prepay,
	}
	assert.NoError(t, e.db.Create(b).Error)
	return b
}

func (e *testEnv) reload(t *testing.T, id snowflake.ID) *bookingdomain.Booking {
	var b bookingdomain.Booking
	assert.NoError(t, e.db.First(&b, "id = ?", id).Error)
	return &b
}

func TestLockWeek_ThreeDaysLocksMiddleTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "bundle@example.com"

	ids := make([]snowflake.ID, 0, 3)
	for i := 0; i < 3; i++ {
		b := env.seedDay(t, email, bookingdomain.CategoryDaycareHalf, monday.AddDate(0, 0, i), true)
		ids = append(ids, b.ID)
	}

	result, err := env.svc.LockWeek(ctx, email, monday.AddDate(0, 0, 2))
	assert.NoError(t, err)
	assert.True(t, result.Locked)
	assert.Equal(t, 3, result.Eligible)
	assert.False(t, result.AtLeast4)
	assert.Equal(t, monday, result.WeekStart)

	for _, id := range ids {
		b := env.reload(t, id)
		assert.True(t, b.InPrepayBundle)
		assert.NotNil(t, b.BundleLockedAt)
		if assert.NotNil(t, b.QuotedRateAtLock) {
			assert.Equal(t, int64(4500), *b.QuotedRateAtLock)
		}
	}
}

func TestLockWeek_RelockOverwritesToHigherTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "relock@example.com"

	first := env.seedDay(t, email, bookingdomain.CategoryDaycareHalf, monday, true)
	for i := 1; i < 3; i++ {
		env.seedDay(t, email, bookingdomain.CategoryDaycareHalf, monday.AddDate(0, 0, i), true)
	}

	_, err := env.svc.LockWeek(ctx, email, monday)
	assert.NoError(t, err)
	assert.Equal(t, int64(4500), *env.reload(t, first.ID).QuotedRateAtLock)

	// A fourth eligible day lands and the customer commits again. The new
	// commit recomputes the tier for the whole bundle; the last commit wins.
	env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday.AddDate(0, 0, 3), true)

	result, err := env.svc.LockWeek(ctx, email, monday)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.Eligible)
	assert.True(t, result.AtLeast4)
	assert.Equal(t, int64(4000), *env.reload(t, first.ID).QuotedRateAtLock)
}

func TestLockWeek_MixedCategoriesLockOwnTables(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "mixed@example.com"

	half := env.seedDay(t, email, bookingdomain.CategoryDaycareHalf, monday, true)
	full := env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday.AddDate(0, 0, 1), true)
	env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday.AddDate(0, 0, 2), true)
	env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday.AddDate(0, 0, 3), true)

	result, err := env.svc.LockWeek(ctx, email, monday)
	assert.NoError(t, err)
	assert.True(t, result.AtLeast4)
	// One tier decision, two rate tables.
	assert.Equal(t, int64(4000), *env.reload(t, half.ID).QuotedRateAtLock)
	assert.Equal(t, int64(4500), *env.reload(t, full.ID).QuotedRateAtLock)
}

func TestLockWeek_IgnoresIneligibleAndCanceled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "skip@example.com"

	immediate := env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday, false)
	canceled := env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday.AddDate(0, 0, 1), true)
	canceled.Status = bookingdomain.StatusCanceled
	assert.NoError(t, env.db.Save(canceled).Error)
	eligible := env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday.AddDate(0, 0, 2), true)

	result, err := env.svc.LockWeek(ctx, email, monday)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Eligible)

	assert.Nil(t, env.reload(t, immediate.ID).QuotedRateAtLock)
	assert.Nil(t, env.reload(t, canceled.ID).QuotedRateAtLock)
	assert.NotNil(t, env.reload(t, eligible.ID).QuotedRateAtLock)
}

func TestLockWeek_EmptyWeekIsNoop(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.LockWeek(context.Background(), "nobody@example.com", monday)
	assert.NoError(t, err)
	assert.False(t, result.Locked)
	assert.Equal(t, 0, result.Eligible)
}

func TestLockWeek_RequiresCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.LockWeek(context.Background(), "", monday)
	assert.ErrorIs(t, err, bookingdomain.ErrCustomerRequired)
}

func TestHasWeekPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "paid@example.com"

	b := env.seedDay(t, email, bookingdomain.CategoryDaycareFull, monday, true)

	paid, err := env.svc.HasWeekPaid(ctx, email, monday)
	assert.NoError(t, err)
	assert.False(t, paid)

	b.Paid = true
	assert.NoError(t, env.db.Save(b).Error)

	paid, err = env.svc.HasWeekPaid(ctx, email, monday)
	assert.NoError(t, err)
	assert.True(t, paid)
}
