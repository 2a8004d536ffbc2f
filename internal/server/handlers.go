package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/pawsuite/barkbill/internal/booking/domain"
	invoicedomain "github.com/pawsuite/barkbill/internal/invoice/domain"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func (s *Server) createBooking(c *gin.Context) {
	s.admitBooking(c, false)
}

// createAdminBooking is the front-desk entry point. Admin requests may
// spill into the emergency pool when the public caps are exhausted.
func (s *Server) createAdminBooking(c *gin.Context) {
	s.admitBooking(c, true)
}

func (s *Server) admitBooking(c *gin.Context, asAdmin bool) {
	var req bookingdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	req.AsAdmin = asAdmin

	b, err := s.bookingSvc.Create(c.Request.Context(), req)
	if err != nil {
		s.writeBookingErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) cancelBooking(c *gin.Context) {
	asAdmin := c.Query("admin") == "true"
	b, err := s.bookingSvc.Cancel(c.Request.Context(), c.Param("reference"), asAdmin)
	if err != nil {
		s.writeBookingErr(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) quote(c *gin.Context) {
	date, ok := s.parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	var startTime *string
	if v := c.Query("start_time"); v != "" {
		startTime = &v
	}

	req := bookingdomain.QuoteRequest{
		CustomerEmail:   c.Query("email"),
		ServiceLabel:    c.Query("service"),
		Date:            date,
		StartTime:       startTime,
		DogCount:        atoiDefault(c.Query("dogs"), 1),
		WantsAdvancePay: c.Query("advance") == "true",
	}

	resp, err := s.bookingSvc.Quote(c.Request.Context(), req)
	if err != nil {
		s.writeBookingErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) weekQuotes(c *gin.Context) {
	date, ok := s.parseDate(c, c.Query("date"))
	if !ok {
		return
	}
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email_required"})
		return
	}

	quotes, err := s.pricing.ProvisionalWeekQuotes(c.Request.Context(), email, date)
	if err != nil {
		s.writeInternalErr(c, err)
		return
	}

	out := make(map[string]int64, len(quotes))
	for id, cents := range quotes {
		out[id.String()] = cents
	}
	c.JSON(http.StatusOK, gin.H{"quotes": out})
}

func (s *Server) capacitySnapshot(c *gin.Context) {
	date, ok := s.parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	snap, err := s.capacity.Snapshot(c.Request.Context(), date)
	if err != nil {
		s.writeInternalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type lockRequest struct {
	CustomerEmail string `json:"customer_email" binding:"required"`
	Date          string `json:"date" binding:"required"`
}

func (s *Server) lockPrepayBundle(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	date, ok := s.parseDate(c, req.Date)
	if !ok {
		return
	}

	result, err := s.bundle.LockWeek(c.Request.Context(), req.CustomerEmail, date)
	if err != nil {
		s.writeInternalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) weeklyInvoices(c *gin.Context) {
	start, ok := s.parseDate(c, c.Query("start"))
	if !ok {
		return
	}

	rows, err := s.reconcile.WeeklyRows(c.Request.Context(), start)
	if err != nil {
		s.writeInternalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

type markPaidRequest struct {
	CustomerEmail string `json:"customer_email" binding:"required"`
	Date          string `json:"date" binding:"required"`
}

func (s *Server) markWeekPaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	date, ok := s.parseDate(c, req.Date)
	if !ok {
		return
	}

	result, err := s.reconcile.MarkPaid(c.Request.Context(), req.CustomerEmail, date)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrDuplicateWeek) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate_week"})
			return
		}
		s.writeInternalErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) parseDate(c *gin.Context, raw string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date"})
		return time.Time{}, false
	}
	return d, true
}

func (s *Server) writeBookingErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bookingdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bookingdomain.ErrCustomerRequired),
		errors.Is(err, bookingdomain.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, bookingdomain.ErrCapacityFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bookingdomain.ErrAlreadyCanceled),
		errors.Is(err, bookingdomain.ErrCancelWindowClosed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.writeInternalErr(c, err)
	}
}

func (s *Server) writeInternalErr(c *gin.Context, err error) {
	s.log.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}
