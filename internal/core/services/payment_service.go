package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/core/payment"
)

// FlashPayment is the session flash key of the last payment result
const FlashPayment = "payment"

// PaymentService handles the browser's return from checkout
type PaymentService struct {
	reconciler *payment.Reconciler
	log        logrus.FieldLogger
}

// NewPaymentService creates a new payment service
func NewPaymentService(reconciler *payment.Reconciler, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{reconciler: reconciler, log: log}
}

// PaymentResultView is shown once on the clean payment-success URL
type PaymentResultView struct {
	Result *payment.Reconciliation `json:"result"`
}

// Confirm reconciles sessionID and keeps the outcome for the next
// PaymentResult call. A reconciliation still in flight when ctx ends
// returns ErrStillLoading.
func (s *PaymentService) Confirm(ctx context.Context, v Viewer, sessionID string) (payment.Reconciliation, error) {
	res, err := s.reconciler.Reconcile(ctx, v.Email(), sessionID, v.Session.Store)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return res, ErrStillLoading
	}

	if res.State == payment.StateReconciled {
		v.Session.Resources.Invalidate(KeyMyLoans(v.Email()))
	}
	if !errors.Is(err, payment.ErrMissingSession) && !errors.Is(err, payment.ErrMissingOwner) {
		v.Session.SetFlash(FlashPayment, res)
	}
	return res, err
}

// PaymentResult returns the stored outcome once
func (s *PaymentService) PaymentResult(v Viewer) *PaymentResultView {
	val, ok := v.Session.TakeFlash(FlashPayment)
	if !ok {
		return &PaymentResultView{}
	}
	res, ok := val.(payment.Reconciliation)
	if !ok {
		return &PaymentResultView{}
	}
	return &PaymentResultView{Result: &res}
}
