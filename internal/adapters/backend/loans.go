package backend

import (
	"context"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/domain"
)

// ListLoans returns the public loan catalog
func (a *API) ListLoans(ctx context.Context, tokens httpclient.TokenSource) ([]domain.Loan, error) {
	var loans []domain.Loan
	if err := a.http.Public(tokens).Get(ctx, PathLoans, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// GetLoan returns one loan
func (a *API) GetLoan(ctx context.Context, tokens httpclient.TokenSource, id string) (*domain.Loan, error) {
	var loan domain.Loan
	if err := a.http.Public(tokens).Get(ctx, LoanPath(id), &loan); err != nil {
		return nil, err
	}
	if loan.ID == "" && loan.Title == "" {
		return nil, domain.ErrNotFound
	}
	return &loan, nil
}

// AddLoan creates a loan and returns its id
func (a *API) AddLoan(ctx context.Context, tokens httpclient.TokenSource, loan domain.Loan) (string, error) {
	var res insertResult
	if err := a.http.Credentialed(tokens).Post(ctx, PathAddLoan, loan, &res); err != nil {
		return "", err
	}
	return res.InsertedID, nil
}

// UpdateLoan patches a loan
func (a *API) UpdateLoan(ctx context.Context, tokens httpclient.TokenSource, id string, patch domain.LoanPatch) error {
	return a.http.Credentialed(tokens).Patch(ctx, LoanPath(id), patch, nil)
}

// DeleteLoan removes a loan
func (a *API) DeleteLoan(ctx context.Context, tokens httpclient.TokenSource, id string) error {
	return a.http.Credentialed(tokens).Delete(ctx, LoanPath(id), nil)
}
