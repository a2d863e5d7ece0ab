package apperrors

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidInput    = errors.New("invalid input")

	ErrInsufficientSeats        = errors.New("insufficient seats")
	ErrDuplicateBooking         = errors.New("user already has an active booking for this event")
	ErrBookingCodeTaken         = errors.New("booking code already in use")
	ErrCodeGenerationExhausted  = errors.New("booking code generation exhausted")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
	ErrBookingNotActive         = errors.New("booking is not active")
	ErrIdempotencyConflict      = errors.New("idempotency key reused with different parameters")
	ErrPaymentNotVerified       = errors.New("payment not verified")
	ErrSeatsBelowBooked         = errors.New("total seats below booked seats")

	// ErrInvariantViolation 代表資料已不一致，必須告警，不能自動修正
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrTransactionAborted 交易無法提交（衝突、斷線），呼叫端可整個重試
	ErrTransactionAborted = errors.New("transaction aborted")
)
