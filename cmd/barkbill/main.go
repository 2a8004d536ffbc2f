package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pawsuite/barkbill/internal/booking"
	"github.com/pawsuite/barkbill/internal/bundle"
	"github.com/pawsuite/barkbill/internal/capacity"
	"github.com/pawsuite/barkbill/internal/clock"
	"github.com/pawsuite/barkbill/internal/config"
	"github.com/pawsuite/barkbill/internal/invoice"
	"github.com/pawsuite/barkbill/internal/logger"
	"github.com/pawsuite/barkbill/internal/migration"
	"github.com/pawsuite/barkbill/internal/observability/metrics"
	"github.com/pawsuite/barkbill/internal/pricing"
	"github.com/pawsuite/barkbill/internal/reconcile"
	"github.com/pawsuite/barkbill/internal/server"
	"github.com/pawsuite/barkbill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		logger.Module,
		db.Module,
		clock.Module,
		migration.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		booking.Module,
		invoice.Module,
		capacity.Module,
		pricing.Module,
		bundle.Module,
		reconcile.Module,
		server.Module,
	).Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
