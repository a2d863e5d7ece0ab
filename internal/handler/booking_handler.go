package handler

import (
	"net/http"

	"eventbook/internal/middleware"
	"eventbook/internal/model"
	"eventbook/internal/payment"
	"eventbook/internal/service"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	service  service.BookingService
	verifier payment.Verifier
}

func NewBookingHandler(service service.BookingService, verifier payment.Verifier) *BookingHandler {
	return &BookingHandler{service: service, verifier: verifier}
}

// RegisterRoutes 所有訂位路由都需要登入
func (h *BookingHandler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	router := r.Group("/api/v1", middleware.Authenticate(jwtSecret))
	{
		router.POST("events/:id/bookings", h.CreateBooking)
		router.GET("events/:id/bookings", h.ListEventBookings)
		router.GET("events/:id/bookings/active", h.HasActiveBooking)
		router.GET("bookings", h.ListMyBookings)
		router.GET("bookings/:id", h.GetBooking)
		router.PUT("bookings/:id/cancel", h.CancelBooking)
	}
}

// CreateBookingRequest 付款完成後送出的訂位請求
type CreateBookingRequest struct {
	Tickets        int    `json:"tickets" binding:"required,min=1"`
	OrderID        string `json:"order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"omitempty,max=128"`
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	eventID, ok := BindID(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	// 1. 驗證付款
	paymentRef, err := h.verifier.Verify(payment.Confirmation{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader(idempotencyHeader)
	}

	// 2. 寫入帳本
	booking, err := h.service.CreateBooking(c, model.CreateBookingRequest{
		UserID:         middleware.CurrentUser(c).ID,
		EventID:        eventID,
		Tickets:        req.Tickets,
		PaymentRef:     paymentRef,
		IdempotencyKey: key,
	})
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}

	c.JSON(http.StatusCreated, model.NewBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := BindID(c)
	if !ok {
		return
	}
	booking, err := h.service.CancelBooking(c, *middleware.CurrentUser(c), bookingID)
	if err != nil {
		handleError(c, err, "CancelBooking")
		return
	}
	c.JSON(http.StatusOK, model.NewBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := BindID(c)
	if !ok {
		return
	}
	booking, err := h.service.GetBooking(c, *middleware.CurrentUser(c), bookingID)
	if err != nil {
		handleError(c, err, "GetBooking")
		return
	}
	c.JSON(http.StatusOK, model.NewBookingResponse(booking))
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	bookings, err := h.service.ListBookingsForUser(c, middleware.CurrentUser(c).ID)
	if err != nil {
		handleError(c, err, "ListMyBookings")
		return
	}

	resp := make([]model.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, model.NewBookingWithEventResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

// ListEventBookings 管理員查看活動的所有訂位
func (h *BookingHandler) ListEventBookings(c *gin.Context) {
	eventID, ok := BindID(c)
	if !ok {
		return
	}
	bookings, err := h.service.ListBookingsForEvent(c, *middleware.CurrentUser(c), eventID)
	if err != nil {
		handleError(c, err, "ListEventBookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) HasActiveBooking(c *gin.Context) {
	eventID, ok := BindID(c)
	if !ok {
		return
	}
	active, err := h.service.HasActiveBooking(c, middleware.CurrentUser(c).ID, eventID)
	if err != nil {
		handleError(c, err, "HasActiveBooking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active})
}
