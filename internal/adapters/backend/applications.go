package backend

import (
	"context"
	"net/url"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
)

// Application transitions accepted by PATCH /loan-applications/:id/:action
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionCancel  = "cancel"
)

// MyApplications lists the applications submitted by email
func (a *API) MyApplications(ctx context.Context, tokens httpclient.TokenSource, email string) ([]domain.LoanApplication, error) {
	var apps []domain.LoanApplication
	if err := a.http.Credentialed(tokens).Get(ctx, MyLoansPath(email), &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListApplications lists every application
func (a *API) ListApplications(ctx context.Context, tokens httpclient.TokenSource) ([]domain.LoanApplication, error) {
	var apps []domain.LoanApplication
	if err := a.http.Credentialed(tokens).Get(ctx, PathApplications, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// SubmitApplication creates a loan application and returns its id
func (a *API) SubmitApplication(ctx context.Context, tokens httpclient.TokenSource, app domain.LoanApplication) (string, error) {
	var res insertResult
	if err := a.http.Credentialed(tokens).Post(ctx, PathApplications, app, &res); err != nil {
		return "", err
	}
	return res.InsertedID, nil
}

// TransitionApplication moves an application to a new status
func (a *API) TransitionApplication(ctx context.Context, tokens httpclient.TokenSource, id, action string) error {
	return a.http.Credentialed(tokens).Patch(ctx, ApplicationPath(id)+"/"+url.PathEscape(action), struct{}{}, nil)
}

// CreatePaymentSession asks for a hosted checkout and returns its URL
func (a *API) CreatePaymentSession(ctx context.Context, tokens httpclient.TokenSource, req domain.PaymentSessionRequest) (string, error) {
	var res struct {
		URL         string `json:"url"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := a.http.Credentialed(tokens).Post(ctx, PathPaymentSession, req, &res); err != nil {
		return "", err
	}
	if res.RedirectURL != "" {
		return res.RedirectURL, nil
	}
	return res.URL, nil
}

// ConfirmPayment reconciles a completed checkout session
func (a *API) ConfirmPayment(ctx context.Context, tokens httpclient.TokenSource, sessionID string) (*domain.PaymentConfirmation, error) {
	var res domain.PaymentConfirmation
	path := httpclient.WithQuery(PathPaymentSuccess, url.Values{"session_id": {sessionID}})
	if err := a.http.Credentialed(tokens).Patch(ctx, path, struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
