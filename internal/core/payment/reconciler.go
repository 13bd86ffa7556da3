// Package payment reconciles a returning checkout session with the backend.
// A session id is confirmed once per signed-in user; later returns of that
// user with the same id read the stored result.
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/metrics"
)

// State of a reconciliation
type State string

const (
	StatePending    State = "pending"
	StateReconciled State = "reconciled"
	StateFailed     State = "failed"
)

// ErrMissingSession is returned when the return URL carries no session id
var ErrMissingSession = errors.New("payment session id is required")

// ErrMissingOwner is returned when no signed-in user is confirming
var ErrMissingOwner = errors.New("payment owner is required")

// Confirmer confirms a checkout session with the backend
type Confirmer interface {
	ConfirmPayment(ctx context.Context, tokens httpclient.TokenSource, sessionID string) (*domain.PaymentConfirmation, error)
}

// Reconciliation is the outcome of confirming one checkout session
type Reconciliation struct {
	SessionID     string `json:"sessionId"`
	State         State  `json:"state"`
	TransactionID string `json:"transactionId,omitempty"`
	TrackingID    string `json:"trackingId,omitempty"`
	ModifiedCount int    `json:"modifiedCount"`
	Err           error  `json:"-"`
}

// Reconciler confirms checkout sessions at most once each
type Reconciler struct {
	confirmer Confirmer
	results   *lru.Cache[string, Reconciliation]
	group     singleflight.Group
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewReconciler keeps the results of at most size sessions
func NewReconciler(confirmer Confirmer, size int, timeout time.Duration, log logrus.FieldLogger) (*Reconciler, error) {
	results, err := lru.New[string, Reconciliation](size)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		confirmer: confirmer,
		results:   results,
		timeout:   timeout,
		log:       log,
	}, nil
}

// resultKey scopes a stored result to the user who confirmed it
func resultKey(owner, sessionID string) string {
	return strings.ToLower(strings.TrimSpace(owner)) + "|" + sessionID
}

// lookup returns the stored result of sessionID for owner
func (r *Reconciler) lookup(owner, sessionID string) (Reconciliation, bool) {
	return r.results.Get(resultKey(owner, sessionID))
}

// Reconcile confirms sessionID for owner unless that owner already
// reconciled it. Concurrent calls of the same owner and id share one
// confirmation; another user always goes to the backend with their own
// token. A failed confirmation is retried on the next call. ctx bounds only
// how long this caller waits.
func (r *Reconciler) Reconcile(ctx context.Context, owner, sessionID string, tokens httpclient.TokenSource) (Reconciliation, error) {
	if sessionID == "" {
		return Reconciliation{State: StateFailed, Err: ErrMissingSession}, ErrMissingSession
	}
	if strings.TrimSpace(owner) == "" {
		return Reconciliation{SessionID: sessionID, State: StateFailed, Err: ErrMissingOwner}, ErrMissingOwner
	}
	if res, ok := r.lookup(owner, sessionID); ok && res.State == StateReconciled {
		return res, nil
	}

	key := resultKey(owner, sessionID)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		if res, ok := r.results.Peek(key); ok && res.State == StateReconciled {
			return res, nil
		}

		cctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		res := Reconciliation{SessionID: sessionID}
		conf, err := r.confirmer.ConfirmPayment(cctx, tokens, sessionID)
		log := r.log.WithFields(logrus.Fields{"session_id": sessionID, "email": owner})
		if err != nil {
			res.State = StateFailed
			res.Err = err
			metrics.RecordPayment(string(StateFailed))
			log.WithError(err).Warn("⚠️  Payment reconciliation failed")
		} else {
			res.State = StateReconciled
			res.TransactionID = conf.TransactionID
			res.TrackingID = conf.TrackingID
			res.ModifiedCount = conf.ModifiedCount
			metrics.RecordPayment(string(StateReconciled))
			log.WithField("transaction_id", conf.TransactionID).Info("💳 Payment reconciled")
		}
		r.results.Add(key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return Reconciliation{SessionID: sessionID, State: StatePending}, ctx.Err()
	case out := <-ch:
		res := out.Val.(Reconciliation)
		return res, res.Err
	}
}
