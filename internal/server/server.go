// Package server is the thin HTTP surface over the pricing and billing
// engine. Authentication and session handling live upstream of this
// service; handlers bind parameters and delegate.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	"github.com/pawsuite/barkbill/internal/bundle"
	"github.com/pawsuite/barkbill/internal/capacity"
	"github.com/pawsuite/barkbill/internal/config"
	"github.com/pawsuite/barkbill/internal/pricing"
	"github.com/pawsuite/barkbill/internal/reconcile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

type Server struct {
	engine     *gin.Engine
	log        *zap.Logger
	bookingSvc bookingdomain.Service
	capacity   *capacity.Service
	pricing    *pricing.Service
	bundle     *bundle.Service
	reconcile  *reconcile.Service
}

type ServerParams struct {
	fx.In

	Engine     *gin.Engine
	Log        *zap.Logger
	BookingSvc bookingdomain.Service
	Capacity   *capacity.Service
	Pricing    *pricing.Service
	Bundle     *bundle.Service
	Reconcile  *reconcile.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:     p.Engine,
		log:        p.Log.Named("server"),
		bookingSvc: p.BookingSvc,
		capacity:   p.Capacity,
		pricing:    p.Pricing,
		bundle:     p.Bundle,
		reconcile:  p.Reconcile,
	}
}

func registerRoutes(s *Server) {
	api := s.engine.Group("/api")
	api.POST("/bookings", s.createBooking)
	api.POST("/bookings/:reference/cancel", s.cancelBooking)
	api.GET("/bookings/quote", s.quote)
	api.GET("/bookings/week-quotes", s.weekQuotes)

	admin := s.engine.Group("/admin")
	admin.POST("/bookings", s.createAdminBooking)
	admin.GET("/capacity", s.capacitySnapshot)
	admin.POST("/prepay/lock", s.lockPrepayBundle)
	admin.GET("/invoices/weekly", s.weeklyInvoices)
	admin.POST("/invoices/mark-paid", s.markWeekPaid)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
