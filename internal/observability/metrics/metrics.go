// Package metrics exposes the engine's prometheus instruments. Data-quality
// signals (unknown service labels) surface here instead of as errors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

type Metrics struct {
	UnknownServiceLabels prometheus.Counter
	BookingsAdmitted     *prometheus.CounterVec
	BookingsRejected     prometheus.Counter
	BundleLocks          prometheus.Counter
	Settlements          *prometheus.CounterVec
}

const (
	AdmissionNormal    = "normal"
	AdmissionEmergency = "emergency"

	SettlementFirst       = "first"
	SettlementIncremental = "incremental"
	SettlementNoop        = "noop"
)

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UnknownServiceLabels: factory.NewCounter(prometheus.CounterOpts{
			Name: "barkbill_pricing_unknown_service_total",
			Help: "Bookings priced at zero because the service label did not classify.",
		}),
		BookingsAdmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "barkbill_bookings_admitted_total",
			Help: "Bookings admitted, by capacity pool.",
		}, []string{"pool"}),
		BookingsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "barkbill_bookings_rejected_total",
			Help: "Bookings rejected for lack of capacity.",
		}),
		BundleLocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "barkbill_bundle_locks_total",
			Help: "Weekly prepay bundle lock operations that stamped at least one booking.",
		}),
		Settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "barkbill_settlements_total",
			Help: "Invoice settlement operations, by kind.",
		}, []string{"kind"}),
	}
}

func provide() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

var Module = fx.Module("observability.metrics",
	fx.Provide(provide),
)
