package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/core/access"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/listing"
	"loanlink-portal/internal/core/validation"
	"loanlink-portal/internal/pkg/pagination"
)

// DefaultLoanImage is used when a new loan has no image
const DefaultLoanImage = "https://via.placeholder.com/600x400.png?text=Default+Loan+Image"

// LoanService serves the loan catalog views
type LoanService struct {
	backend  Backend
	policy   *access.Policy
	validate *validation.Validator
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(backend Backend, policy *access.Policy, validate *validation.Validator, log logrus.FieldLogger) *LoanService {
	return &LoanService{
		backend:  backend,
		policy:   policy,
		validate: validate,
		log:      log,
		now:      time.Now,
	}
}

// LoanForm is the add-loan form. Comma-separated lists are split and
// trimmed.
type LoanForm struct {
	Title             string  `json:"title" form:"title" validate:"required"`
	ShortDescription  string  `json:"short_description" form:"short_description" validate:"required"`
	Description       string  `json:"description" form:"description" validate:"required"`
	Category          string  `json:"loan_category" form:"loan_category" validate:"required"`
	InterestRate      float64 `json:"interest_rate" form:"interest_rate" validate:"gte=0"`
	MaxLoanLimit      float64 `json:"max_loan_limit" form:"max_loan_limit" validate:"gt=0"`
	EMIPlans          string  `json:"available_emi_plan" form:"available_emi_plan"`
	RequiredDocuments string  `json:"requiredDocuments" form:"requiredDocuments"`
	Image             string  `json:"image" form:"image" validate:"omitempty,url"`
	ShowOnHome        bool    `json:"showOnHome" form:"showOnHome"`
}

// LoanUpdateForm is the edit form of the manage views. Only fields that
// are present are sent.
type LoanUpdateForm struct {
	Title             *string  `json:"title" validate:"omitempty,min=1"`
	ShortDescription  *string  `json:"short_description"`
	Description       *string  `json:"description"`
	Category          *string  `json:"loan_category" validate:"omitempty,min=1"`
	InterestRate      *float64 `json:"interest_rate" validate:"omitempty,gte=0"`
	MaxLoanLimit      *float64 `json:"max_loan_limit" validate:"omitempty,gt=0"`
	EMIPlans          *string  `json:"available_emi_plan"`
	RequiredDocuments *string  `json:"requiredDocuments"`
	Image             *string  `json:"image" validate:"omitempty,url"`
	ShowOnHome        *bool    `json:"showOnHome"`
}

// SplitList splits a comma-separated form value, dropping empty items
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (f LoanUpdateForm) patch() domain.LoanPatch {
	p := domain.LoanPatch{
		Title:            f.Title,
		ShortDescription: f.ShortDescription,
		Description:      f.Description,
		Category:         f.Category,
		InterestRate:     f.InterestRate,
		MaxLoanLimit:     f.MaxLoanLimit,
		Image:            f.Image,
		ShowOnHome:       f.ShowOnHome,
	}
	if f.EMIPlans != nil {
		plans := SplitList(*f.EMIPlans)
		p.EMIPlans = &plans
	}
	if f.RequiredDocuments != nil {
		docs := SplitList(*f.RequiredDocuments)
		p.RequiredDocuments = &docs
	}
	return p
}

// HomeView is the landing page
type HomeView struct {
	Featured []domain.Loan `json:"featured"`
}

// LoanDetailsView is the view-details page
type LoanDetailsView struct {
	Loan     *domain.Loan `json:"loan"`
	CanApply bool         `json:"canApply"`
}

// ManageLoansView is a manager or admin loan table
type ManageLoansView struct {
	Loans  []domain.Loan `json:"loans"`
	Search string        `json:"search"`
	Total  int           `json:"total"`
}

func (s *LoanService) loans(ctx context.Context, v Viewer) ([]domain.Loan, error) {
	return load(ctx, v.Session.Resources, KeyLoans, func(ctx context.Context) ([]domain.Loan, error) {
		return s.backend.ListLoans(ctx, v.Session.Store)
	})
}

// Loan loads one loan through the viewer's resource store
func (s *LoanService) Loan(ctx context.Context, v Viewer, id string) (*domain.Loan, error) {
	return load(ctx, v.Session.Resources, KeyLoan(id), func(ctx context.Context) (*domain.Loan, error) {
		return s.backend.GetLoan(ctx, v.Session.Store, id)
	})
}

// Home lists the featured loans
func (s *LoanService) Home(ctx context.Context, v Viewer) (*HomeView, error) {
	loans, err := s.loans(ctx, v)
	if err != nil {
		return nil, err
	}
	return &HomeView{Featured: listing.Featured(loans)}, nil
}

// AllLoans is the public catalog with search, filters, sort and paging
func (s *LoanService) AllLoans(ctx context.Context, v Viewer, q listing.LoanQuery, params *pagination.Params) (*listing.LoanPage, error) {
	loans, err := s.loans(ctx, v)
	if err != nil {
		return nil, err
	}
	page := listing.PageLoans(loans, q, params)
	return &page, nil
}

// Details shows one loan and whether the viewer may apply for it
func (s *LoanService) Details(ctx context.Context, v Viewer, id string) (*LoanDetailsView, error) {
	loan, err := s.Loan(ctx, v, id)
	if err != nil {
		return nil, err
	}
	return &LoanDetailsView{Loan: loan, CanApply: s.policy.CanApply(v.Role)}, nil
}

// Manage lists loans for the manager and admin tables
func (s *LoanService) Manage(ctx context.Context, v Viewer, search string) (*ManageLoansView, error) {
	loans, err := s.loans(ctx, v)
	if err != nil {
		return nil, err
	}
	found := listing.SearchLoans(loans, search)
	return &ManageLoansView{Loans: found, Search: search, Total: len(found)}, nil
}

// Add validates the form and creates a loan. Nothing is sent when the form
// is invalid.
func (s *LoanService) Add(ctx context.Context, v Viewer, form LoanForm) (string, error) {
	if !s.policy.CanPerform(v.Role, access.LoanCreate) {
		return "", ErrNotPermitted
	}
	if err := s.validate.Struct(form); err != nil {
		return "", err
	}

	image := strings.TrimSpace(form.Image)
	if image == "" {
		image = DefaultLoanImage
	}
	now := s.now().UTC()
	loan := domain.Loan{
		Title:             strings.TrimSpace(form.Title),
		ShortDescription:  strings.TrimSpace(form.ShortDescription),
		Description:       strings.TrimSpace(form.Description),
		Category:          strings.TrimSpace(form.Category),
		InterestRate:      form.InterestRate,
		MaxLoanLimit:      form.MaxLoanLimit,
		EMIPlans:          SplitList(form.EMIPlans),
		RequiredDocuments: SplitList(form.RequiredDocuments),
		Image:             image,
		ShowOnHome:        form.ShowOnHome,
		CreatedBy:         v.Email(),
		CreatedAt:         &now,
	}

	var id string
	err := mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		var err error
		id, err = s.backend.AddLoan(ctx, v.Session.Store, loan)
		return err
	}, KeyLoans)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{"loan_id": id, "by": v.Email()}).Info("✅ Loan created")
	return id, nil
}

// Update patches a loan and refetches the list and the loan
func (s *LoanService) Update(ctx context.Context, v Viewer, id string, form LoanUpdateForm) error {
	if !s.policy.CanPerform(v.Role, access.LoanUpdate) {
		return ErrNotPermitted
	}
	if err := s.validate.Struct(form); err != nil {
		return err
	}
	return mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.UpdateLoan(ctx, v.Session.Store, id, form.patch())
	}, KeyLoans, KeyLoan(id))
}

// ToggleHome sets whether a loan is featured on the home page
func (s *LoanService) ToggleHome(ctx context.Context, v Viewer, id string, show bool) error {
	if !s.policy.CanPerform(v.Role, access.LoanToggleHome) {
		return ErrNotPermitted
	}
	return mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.UpdateLoan(ctx, v.Session.Store, id, domain.LoanPatch{ShowOnHome: &show})
	}, KeyLoans, KeyLoan(id))
}

// Delete removes a loan
func (s *LoanService) Delete(ctx context.Context, v Viewer, id string) error {
	if !s.policy.CanPerform(v.Role, access.LoanDelete) {
		return ErrNotPermitted
	}
	err := mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.DeleteLoan(ctx, v.Session.Store, id)
	}, KeyLoans, KeyLoan(id))
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"loan_id": id, "by": v.Email()}).Info("🗑️ Loan deleted")
	return nil
}
