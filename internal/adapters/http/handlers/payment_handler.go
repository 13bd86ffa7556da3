package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"loanlink-portal/internal/adapters/http/middleware"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/services"
	"loanlink-portal/internal/pkg/response"
)

// PaymentHandler handles the browser's return from checkout
type PaymentHandler struct {
	paymentService *services.PaymentService
	wait           time.Duration
}

// NewPaymentHandler creates a new payment handler. A confirmation taking
// longer than wait answers with the loading placeholder.
func NewPaymentHandler(paymentService *services.PaymentService, wait time.Duration) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, wait: wait}
}

// Success reconciles the returning checkout session. With a session_id the
// payment is confirmed and the browser is sent to the clean URL, where the
// result is shown once.
// @Summary Payment success
// @Tags Payments
// @Produce json
// @Param session_id query string false "Checkout session"
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response
// @Success 303
// @Router /dashboard/payment-success [get]
func (h *PaymentHandler) Success(c *fiber.Ctx) error {
	v := middleware.ViewerFrom(c)

	if sessionID := c.Query("session_id"); sessionID != "" {
		ctx, cancel := context.WithTimeout(c.UserContext(), h.wait)
		defer cancel()
		_, err := h.paymentService.Confirm(ctx, v, sessionID)
		if errors.Is(err, services.ErrStillLoading) {
			return response.Pending(c, "Confirming your payment...", retryAfterSeconds)
		}
		return response.SeeOther(c, guard.RoutePaymentSuccess)
	}

	return response.Success(c, "", h.paymentService.PaymentResult(v))
}

// Cancelled is where checkout sends the browser when payment is abandoned
// @Summary Payment cancelled
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Response
// @Router /dashboard/payment-cancelled [get]
func (h *PaymentHandler) Cancelled(c *fiber.Ctx) error {
	return response.Success(c, "Payment was cancelled. You can pay the fee from My Loans at any time.", fiber.Map{
		"myLoans": guard.RouteMyLoans,
	})
}
