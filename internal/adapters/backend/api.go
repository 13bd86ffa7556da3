// Package backend is the typed client for the loan-marketplace REST API.
// Reads of public catalog data go out in Public mode; everything that
// touches a user's records goes out Credentialed.
package backend

import (
	"context"
	"net/url"

	"loanlink-portal/internal/adapters/httpclient"
)

// API wraps the HTTP client facade with the backend's endpoints
type API struct {
	http *httpclient.Client
}

// New creates an API on top of the facade
func New(client *httpclient.Client) *API {
	return &API{http: client}
}

// Endpoint paths. They double as resource store keys.
const (
	PathLoans          = "/loans"
	PathAddLoan        = "/add-loan"
	PathUsers          = "/users"
	PathMyLoans        = "/my-loans"
	PathApplications   = "/loan-applications"
	PathPaymentSession = "/create-payment-session"
	PathPaymentSuccess = "/payment-success"
)

// LoanPath is the path of one loan
func LoanPath(id string) string {
	return PathLoans + "/" + url.PathEscape(id)
}

// UserPath is the path of one user record
func UserPath(email string) string {
	return PathUsers + "/" + url.PathEscape(email)
}

// ApplicationPath is the path of one loan application
func ApplicationPath(id string) string {
	return PathApplications + "/" + url.PathEscape(id)
}

// MyLoansPath is the borrower's application list
func MyLoansPath(email string) string {
	return httpclient.WithQuery(PathMyLoans, url.Values{"email": {email}})
}

type insertResult struct {
	InsertedID string `json:"insertedId"`
}

// Ping checks that the backend answers at all
func (a *API) Ping(ctx context.Context) error {
	return a.http.Public(nil).Get(ctx, "/", nil)
}
