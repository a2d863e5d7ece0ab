package handler

import (
	"errors"
	"net/http"

	apperrors "eventbook/pkg/app_errors"
	"eventbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

type idURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// BindID 解析路徑上的 :id
func BindID(c *gin.Context) (uuid.UUID, bool) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(uri.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

type errorMapping struct {
	target  error
	status  int
	message string
}

// 由上往下比對，訊息直接顯示給使用者
var errorMappings = []errorMapping{
	{apperrors.ErrEventNotFound, http.StatusNotFound, "Event not found"},
	{apperrors.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{apperrors.ErrPaymentNotVerified, http.StatusPaymentRequired, "Payment could not be verified"},
	{apperrors.ErrUnauthorized, http.StatusForbidden, "You are not allowed to do that"},
	{apperrors.ErrInsufficientSeats, http.StatusConflict, "Not enough seats left"},
	{apperrors.ErrDuplicateBooking, http.StatusConflict, "You already have a booking for this event"},
	{apperrors.ErrIdempotencyConflict, http.StatusConflict, "Idempotency key was already used for a different booking"},
	{apperrors.ErrBookingNotActive, http.StatusConflict, "Booking is already cancelled"},
	{apperrors.ErrCancellationWindowClosed, http.StatusConflict, "The cancellation window for this event has closed"},
	{apperrors.ErrSeatsBelowBooked, http.StatusConflict, "Total seats cannot be lower than seats already booked"},
	{apperrors.ErrTransactionAborted, http.StatusServiceUnavailable, "Please try again"},
	{apperrors.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, "Please try again"},
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			log.Warn(m.message)
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
	}

	if errors.Is(err, apperrors.ErrInvariantViolation) {
		log.Error("Seat ledger invariant violated")
	} else {
		log.Error("Unexpected error")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
