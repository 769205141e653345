package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skyfare/airbooking/internal/domain"
	"github.com/skyfare/airbooking/internal/payment"
	"github.com/skyfare/airbooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	SeatID         int64  `json:"seat_id" binding:"required"`
	PassengerName  string `json:"passenger_name" binding:"required"`
	PassengerEmail string `json:"passenger_email" binding:"required,email"`
	PassengerPhone string `json:"passenger_phone"`
}

type bookingResponse struct {
	Reference      string `json:"reference"`
	SeatID         int64  `json:"seat_id"`
	State          string `json:"state"`
	HoldUntil      string `json:"hold_until,omitempty"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PaymentAmount  int64  `json:"payment_amount"`
	RefundAmount   int64  `json:"refund_amount,omitempty"`
}

type paymentResponse struct {
	bookingResponse
	Outcome string `json:"outcome"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:reference", h.get)
	router.POST("/:reference/payment", h.pay)
	router.POST("/:reference/cancel", h.cancel)
	router.POST("/:reference/refund", h.refund)
	router.POST("/:reference/release", h.release)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		SeatID:         req.SeatID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		PassengerPhone: req.PassengerPhone,
		Actor:          actorFrom(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func (h *BookingHandler) pay(c *gin.Context) {
	b, err := h.service.ProcessPayment(c.Request.Context(), c.Param("reference"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := paymentResponse{bookingResponse: toResponse(b), Outcome: string(payment.OutcomeSuccess)}
	if b.State != domain.StateConfirmed {
		resp.Outcome = string(payment.OutcomeFailure)
		c.JSON(http.StatusPaymentRequired, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("reference"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func (h *BookingHandler) refund(c *gin.Context) {
	b, err := h.service.RefundBooking(c.Request.Context(), c.Param("reference"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func (h *BookingHandler) release(c *gin.Context) {
	b, err := h.service.ReleaseHold(c.Request.Context(), c.Param("reference"), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func toResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		Reference:      b.Reference,
		SeatID:         b.SeatID,
		State:          string(b.State),
		PassengerName:  b.PassengerName,
		PassengerEmail: b.PassengerEmail,
		PaymentAmount:  b.PaymentAmount,
		RefundAmount:   b.RefundAmount,
	}
	if b.State == domain.StateSeatHeld {
		resp.HoldUntil = b.HoldUntil.Format(time.RFC3339)
	}
	return resp
}
