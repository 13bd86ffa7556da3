// Package listing derives filtered, sorted and paginated views from the last
// successful value of a list resource. Inputs are never modified.
package listing

import (
	"sort"
	"strings"

	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/pkg/pagination"
)

// HomeLimit is the number of loans featured on the home page
const HomeLimit = 6

// LowInterestCeiling splits the interest bands: low is at or below it
const LowInterestCeiling = 10.0

// Interest bands
const (
	InterestLow  = "low"
	InterestHigh = "high"
)

// Sort orders of the loan listing
const (
	SortInterestAsc  = "interestAsc"
	SortInterestDesc = "interestDesc"
	SortMaxLoanAsc   = "maxLoanAsc"
	SortMaxLoanDesc  = "maxLoanDesc"
)

// LoanQuery holds the listing controls of the all-loans view
type LoanQuery struct {
	Search   string `query:"search" json:"search"`
	Category string `query:"category" json:"category"`
	Interest string `query:"interest" json:"interest"`
	Sort     string `query:"sort" json:"sort"`
}

// LoanPage is one page of the filtered loans
type LoanPage struct {
	Loans      []domain.Loan    `json:"loans"`
	Categories []string         `json:"categories"`
	Query      LoanQuery        `json:"query"`
	Meta       *pagination.Meta `json:"meta"`
}

func matchesSearch(loan domain.Loan, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(loan.Title), term) ||
		strings.Contains(strings.ToLower(loan.Category), term)
}

// FilterLoans applies search, category, interest band and sort. Sorting is
// stable, so loans that compare equal keep their backend order.
func FilterLoans(loans []domain.Loan, q LoanQuery) []domain.Loan {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Loan, 0, len(loans))
	for _, loan := range loans {
		if !matchesSearch(loan, term) {
			continue
		}
		if q.Category != "" && loan.Category != q.Category {
			continue
		}
		switch q.Interest {
		case InterestLow:
			if loan.InterestRate > LowInterestCeiling {
				continue
			}
		case InterestHigh:
			if loan.InterestRate <= LowInterestCeiling {
				continue
			}
		}
		out = append(out, loan)
	}

	var less func(a, b domain.Loan) bool
	switch q.Sort {
	case SortInterestAsc:
		less = func(a, b domain.Loan) bool { return a.InterestRate < b.InterestRate }
	case SortInterestDesc:
		less = func(a, b domain.Loan) bool { return a.InterestRate > b.InterestRate }
	case SortMaxLoanAsc:
		less = func(a, b domain.Loan) bool { return a.MaxLoanLimit < b.MaxLoanLimit }
	case SortMaxLoanDesc:
		less = func(a, b domain.Loan) bool { return a.MaxLoanLimit > b.MaxLoanLimit }
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// SearchLoans keeps loans whose title or category contains term
func SearchLoans(loans []domain.Loan, term string) []domain.Loan {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.Loan, 0, len(loans))
	for _, loan := range loans {
		if matchesSearch(loan, term) {
			out = append(out, loan)
		}
	}
	return out
}

// Categories lists the distinct categories in first-seen order
func Categories(loans []domain.Loan) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, loan := range loans {
		if loan.Category == "" {
			continue
		}
		if _, ok := seen[loan.Category]; ok {
			continue
		}
		seen[loan.Category] = struct{}{}
		out = append(out, loan.Category)
	}
	return out
}

// PageLoans filters loans and cuts the requested page
func PageLoans(loans []domain.Loan, q LoanQuery, params *pagination.Params) LoanPage {
	filtered := FilterLoans(loans, q)
	return LoanPage{
		Loans:      pagination.Slice(filtered, params),
		Categories: Categories(loans),
		Query:      q,
		Meta:       pagination.GetMeta(params, int64(len(filtered))),
	}
}

// Featured returns the loans marked for the home page, at most HomeLimit
func Featured(loans []domain.Loan) []domain.Loan {
	out := make([]domain.Loan, 0, HomeLimit)
	for _, loan := range loans {
		if !loan.ShowOnHome {
			continue
		}
		out = append(out, loan)
		if len(out) == HomeLimit {
			break
		}
	}
	return out
}
