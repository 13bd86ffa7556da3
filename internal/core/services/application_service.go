package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/adapters/backend"
	"loanlink-portal/internal/core/access"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/listing"
	"loanlink-portal/internal/core/validation"
)

// ApplicationService serves the apply form and the application tables
type ApplicationService struct {
	backend  Backend
	loans    *LoanService
	policy   *access.Policy
	validate *validation.Validator
	payment  PaymentURLs
	log      logrus.FieldLogger
	now      func() time.Time
}

// PaymentURLs are where the checkout sends the browser back to
type PaymentURLs struct {
	Success string
	Cancel  string
}

// NewApplicationService creates a new application service
func NewApplicationService(backend Backend, loans *LoanService, policy *access.Policy, validate *validation.Validator, payment PaymentURLs, log logrus.FieldLogger) *ApplicationService {
	return &ApplicationService{
		backend:  backend,
		loans:    loans,
		policy:   policy,
		validate: validate,
		payment:  payment,
		log:      log,
		now:      time.Now,
	}
}

// ApplicationForm is the apply-loan form
type ApplicationForm struct {
	FirstName     string  `json:"firstName" form:"firstName" validate:"required"`
	LastName      string  `json:"lastName" form:"lastName" validate:"required"`
	ContactNumber string  `json:"contactNumber" form:"contactNumber" validate:"required"`
	NIDPassport   string  `json:"nidPassport" form:"nidPassport" validate:"required"`
	IncomeSource  string  `json:"incomeSource" form:"incomeSource" validate:"required"`
	MonthlyIncome float64 `json:"monthlyIncome" form:"monthlyIncome" validate:"gte=0"`
	LoanAmount    float64 `json:"loanAmount" form:"loanAmount" validate:"gte=1"`
	LoanReason    string  `json:"loanReason" form:"loanReason" validate:"required"`
	Address       string  `json:"address" form:"address" validate:"required"`
	ExtraNotes    string  `json:"extraNotes" form:"extraNotes"`
}

// ApplyView is the context of the apply form
type ApplyView struct {
	Loan         *domain.Loan `json:"loan"`
	UserEmail    string       `json:"userEmail"`
	InterestRate float64      `json:"interestRate"`
	CanApply     bool         `json:"canApply"`
}

// ApplicationsView is a table of applications
type ApplicationsView struct {
	Applications []domain.LoanApplication `json:"applications"`
	Status       string                   `json:"status"`
	Total        int                      `json:"total"`
}

// MyLoansView is the borrower's own applications
type MyLoansView struct {
	Applications []domain.LoanApplication `json:"applications"`
	Total        int                      `json:"total"`
}

func (s *ApplicationService) mine(ctx context.Context, v Viewer) ([]domain.LoanApplication, error) {
	email := v.Email()
	return load(ctx, v.Session.Resources, KeyMyLoans(email), func(ctx context.Context) ([]domain.LoanApplication, error) {
		return s.backend.MyApplications(ctx, v.Session.Store, email)
	})
}

func (s *ApplicationService) all(ctx context.Context, v Viewer) ([]domain.LoanApplication, error) {
	return load(ctx, v.Session.Resources, KeyApplications, func(ctx context.Context) ([]domain.LoanApplication, error) {
		return s.backend.ListApplications(ctx, v.Session.Store)
	})
}

// ApplyContext loads the loan the form is for
func (s *ApplicationService) ApplyContext(ctx context.Context, v Viewer, loanID string) (*ApplyView, error) {
	loan, err := s.loans.Loan(ctx, v, loanID)
	if err != nil {
		return nil, err
	}
	return &ApplyView{
		Loan:         loan,
		UserEmail:    v.Email(),
		InterestRate: loan.InterestRate,
		CanApply:     s.policy.CanApply(v.Role),
	}, nil
}

// Apply validates and submits an application for loanID. The application
// starts Pending with the fee Unpaid.
func (s *ApplicationService) Apply(ctx context.Context, v Viewer, loanID string, form ApplicationForm) (string, error) {
	if !s.policy.CanApply(v.Role) {
		return "", ErrNotPermitted
	}
	if err := s.validate.Struct(form); err != nil {
		return "", err
	}

	loan, err := s.loans.Loan(ctx, v, loanID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	app := domain.LoanApplication{
		UserEmail:            v.Email(),
		LoanID:               loan.ID,
		LoanTitle:            loan.Title,
		InterestRate:         loan.InterestRate,
		FirstName:            strings.TrimSpace(form.FirstName),
		LastName:             strings.TrimSpace(form.LastName),
		ContactNumber:        strings.TrimSpace(form.ContactNumber),
		NIDPassport:          strings.TrimSpace(form.NIDPassport),
		IncomeSource:         strings.TrimSpace(form.IncomeSource),
		MonthlyIncome:        form.MonthlyIncome,
		LoanAmount:           form.LoanAmount,
		LoanReason:           strings.TrimSpace(form.LoanReason),
		Address:              strings.TrimSpace(form.Address),
		ExtraNotes:           strings.TrimSpace(form.ExtraNotes),
		Status:               domain.ApplicationPending,
		ApplicationFeeStatus: domain.FeeUnpaid,
		CreatedAt:            &now,
	}
	if app.LoanID == "" {
		app.LoanID = loanID
	}

	var id string
	err = mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		var err error
		id, err = s.backend.SubmitApplication(ctx, v.Session.Store, app)
		return err
	}, KeyMyLoans(v.Email()), KeyApplications)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{"application_id": id, "loan_id": loanID, "email": v.Email()}).Info("📝 Application submitted")
	return id, nil
}

// MyLoans lists the viewer's applications
func (s *ApplicationService) MyLoans(ctx context.Context, v Viewer) (*MyLoansView, error) {
	if !s.policy.CanPerform(v.Role, access.ApplicationViewOwn) {
		return nil, ErrNotPermitted
	}
	apps, err := s.mine(ctx, v)
	if err != nil {
		return nil, err
	}
	return &MyLoansView{Applications: apps, Total: len(apps)}, nil
}

// List shows every application filtered by status. The pending and
// approved manager views are List with a fixed status.
func (s *ApplicationService) List(ctx context.Context, v Viewer, status string) (*ApplicationsView, error) {
	if !s.policy.CanPerform(v.Role, access.ApplicationViewAll) {
		return nil, ErrNotPermitted
	}
	apps, err := s.all(ctx, v)
	if err != nil {
		return nil, err
	}
	filtered := listing.FilterApplications(apps, status)
	if status == "" {
		status = listing.StatusAll
	}
	return &ApplicationsView{Applications: filtered, Status: status, Total: len(filtered)}, nil
}

func find(apps []domain.LoanApplication, id string) (*domain.LoanApplication, bool) {
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], true
		}
	}
	return nil, false
}

// Cancel withdraws one of the viewer's pending applications
func (s *ApplicationService) Cancel(ctx context.Context, v Viewer, id string) error {
	if !s.policy.CanPerform(v.Role, access.ApplicationCancel) {
		return ErrNotPermitted
	}
	apps, err := s.mine(ctx, v)
	if err != nil {
		return err
	}
	app, ok := find(apps, id)
	if !ok {
		return domain.ErrNotFound
	}
	if app.Status != domain.ApplicationPending {
		return ErrNotPending
	}

	return mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.TransitionApplication(ctx, v.Session.Store, id, backend.ActionCancel)
	}, KeyMyLoans(v.Email()), KeyApplications)
}

// Review approves or rejects a pending application
func (s *ApplicationService) Review(ctx context.Context, v Viewer, id, action string) error {
	var needed access.Action
	switch action {
	case backend.ActionApprove:
		needed = access.ApplicationApprove
	case backend.ActionReject:
		needed = access.ApplicationReject
	default:
		return &domain.ValidationError{Field: "action", Rule: "oneof", Message: "action must be approve or reject"}
	}
	if !s.policy.CanPerform(v.Role, needed) {
		return ErrNotPermitted
	}

	apps, err := s.all(ctx, v)
	if err != nil {
		return err
	}
	app, ok := find(apps, id)
	if !ok {
		return domain.ErrNotFound
	}
	if app.Status != domain.ApplicationPending {
		return ErrNotPending
	}

	err = mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.TransitionApplication(ctx, v.Session.Store, id, action)
	}, KeyApplications, KeyMyLoans(app.UserEmail))
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"application_id": id, "action": action, "by": v.Email()}).Info("✅ Application reviewed")
	return nil
}

// PayFee opens a checkout for the application fee and returns the URL to
// send the browser to
func (s *ApplicationService) PayFee(ctx context.Context, v Viewer, id string) (string, error) {
	if !s.policy.CanPerform(v.Role, access.ApplicationPayFee) {
		return "", ErrNotPermitted
	}
	apps, err := s.mine(ctx, v)
	if err != nil {
		return "", err
	}
	app, ok := find(apps, id)
	if !ok {
		return "", domain.ErrNotFound
	}
	if app.ApplicationFeeStatus == domain.FeePaid {
		return "", ErrFeeAlreadyPaid
	}

	url, err := s.backend.CreatePaymentSession(ctx, v.Session.Store, domain.PaymentSessionRequest{
		ApplicationID: app.ID,
		LoanTitle:     app.LoanTitle,
		Email:         v.Email(),
		SuccessURL:    s.payment.Success,
		CancelURL:     s.payment.Cancel,
	})
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"application_id": id, "email": v.Email()}).Info("💳 Checkout session created")
	return url, nil
}
