package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlink-portal/internal/adapters/httpclient"
	"loanlink-portal/internal/core/access"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/guard"
	"loanlink-portal/internal/core/listing"
	"loanlink-portal/internal/core/payment"
	"loanlink-portal/internal/core/resource"
	"loanlink-portal/internal/core/role"
	"loanlink-portal/internal/core/session"
	"loanlink-portal/internal/core/validation"
	"loanlink-portal/internal/pkg/pagination"
)

// fakeBackend is an in-memory marketplace
type fakeBackend struct {
	mu        sync.Mutex
	loans     []domain.Loan
	apps      []domain.LoanApplication
	users     []domain.User
	listCalls int
	listErrs  []error
	updateErr error
	submitted []domain.LoanApplication
	added     []domain.Loan
	patches   map[string]domain.UserPatch
	sessions  []domain.PaymentSessionRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		loans: []domain.Loan{
			{ID: "l1", Title: "Home Starter", Category: "Home", InterestRate: 7, MaxLoanLimit: 50000, ShowOnHome: true},
			{ID: "l2", Title: "Car Plus", Category: "Vehicle", InterestRate: 12, MaxLoanLimit: 20000},
		},
		apps: []domain.LoanApplication{
			{ID: "a1", UserEmail: "ann@example.com", LoanID: "l1", LoanTitle: "Home Starter", Status: domain.ApplicationPending, ApplicationFeeStatus: domain.FeeUnpaid, LoanAmount: 1000},
			{ID: "a2", UserEmail: "ann@example.com", LoanID: "l2", LoanTitle: "Car Plus", Status: domain.ApplicationApproved, ApplicationFeeStatus: domain.FeePaid, LoanAmount: 500},
			{ID: "a3", UserEmail: "bob@example.com", LoanID: "l2", Status: domain.ApplicationPending, ApplicationFeeStatus: domain.FeeUnpaid},
		},
		users: []domain.User{
			{Email: "ann@example.com", Role: domain.RoleBorrower},
			{Email: "boss@example.com", Role: domain.RoleAdmin},
		},
		patches: map[string]domain.UserPatch{},
	}
}

func (f *fakeBackend) ListLoans(context.Context, httpclient.TokenSource) ([]domain.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		return nil, err
	}
	out := make([]domain.Loan, len(f.loans))
	copy(out, f.loans)
	return out, nil
}

func (f *fakeBackend) GetLoan(_ context.Context, _ httpclient.TokenSource, id string) (*domain.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.ID == id {
			cp := l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) AddLoan(_ context.Context, _ httpclient.TokenSource, loan domain.Loan) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, loan)
	return "new-loan", nil
}

func (f *fakeBackend) UpdateLoan(_ context.Context, _ httpclient.TokenSource, id string, patch domain.LoanPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.loans {
		if f.loans[i].ID == id {
			if patch.Title != nil {
				f.loans[i].Title = *patch.Title
			}
			if patch.ShowOnHome != nil {
				f.loans[i].ShowOnHome = *patch.ShowOnHome
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) DeleteLoan(context.Context, httpclient.TokenSource, string) error { return nil }

func (f *fakeBackend) GetUser(_ context.Context, _ httpclient.TokenSource, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) ListUsers(context.Context, httpclient.TokenSource) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.User(nil), f.users...), nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, _ httpclient.TokenSource, email string, patch domain.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches[email] = patch
	if patch.Role != nil {
		for i := range f.users {
			if f.users[i].Email == email {
				f.users[i].Role = *patch.Role
			}
		}
	}
	return nil
}

func (f *fakeBackend) MyApplications(_ context.Context, _ httpclient.TokenSource, email string) ([]domain.LoanApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.LoanApplication
	for _, a := range f.apps {
		if a.UserEmail == email {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListApplications(context.Context, httpclient.TokenSource) ([]domain.LoanApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.LoanApplication(nil), f.apps...), nil
}

func (f *fakeBackend) SubmitApplication(_ context.Context, _ httpclient.TokenSource, app domain.LoanApplication) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, app)
	return "new-app", nil
}

func (f *fakeBackend) TransitionApplication(context.Context, httpclient.TokenSource, string, string) error {
	return nil
}

func (f *fakeBackend) CreatePaymentSession(_ context.Context, _ httpclient.TokenSource, req domain.PaymentSessionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, req)
	return "https://checkout.example/cs_1", nil
}

func (f *fakeBackend) ConfirmPayment(_ context.Context, _ httpclient.TokenSource, sessionID string) (*domain.PaymentConfirmation, error) {
	return &domain.PaymentConfirmation{TransactionID: "tx-" + sessionID, ModifiedCount: 1}, nil
}

func (f *fakeBackend) CreateUser(context.Context, httpclient.TokenSource, domain.User) error {
	return errors.New("backend down")
}

func (f *fakeBackend) loanCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// stubProvider signs in anyone with password "Secret1!"
type stubProvider struct{}

func (stubProvider) SignIn(_ context.Context, email, password string) (*domain.Identity, error) {
	if password != "Secret1!" {
		return nil, &domain.AuthError{Kind: domain.InvalidCredentials}
	}
	return &domain.Identity{Email: email, Token: "tok-" + email}, nil
}

func (p stubProvider) Register(ctx context.Context, email, password string, profile domain.Profile) (*domain.Identity, error) {
	ident, err := p.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	ident.DisplayName = profile.DisplayName
	return ident, nil
}

func (stubProvider) Lookup(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrUnauthenticated
}

func (stubProvider) Refresh(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrUnauthenticated
}

func (stubProvider) UpdateProfile(context.Context, string, domain.Profile) error { return nil }

func (stubProvider) SignOut(context.Context, *domain.Identity) error { return nil }

type nopPersister struct{}

func (nopPersister) Load(context.Context) (*session.Credential, error) { return nil, nil }
func (nopPersister) Save(context.Context, *domain.Identity) error     { return nil }
func (nopPersister) Clear(context.Context) error                      { return nil }

type fixture struct {
	backend      *fakeBackend
	roles        *role.Resolver
	loans        *LoanService
	applications *ApplicationService
	users        *UserService
	payments     *PaymentService
	auth         *AuthService
	dashboard    *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	policy, err := access.NewPolicy()
	require.NoError(t, err)
	v := validation.New()
	b := newFakeBackend()

	reconciler, err := payment.NewReconciler(b, 8, time.Second, log)
	require.NoError(t, err)

	loans := NewLoanService(b, policy, v, log)
	apps := NewApplicationService(b, loans, policy, v, PaymentURLs{Success: "https://portal/ok", Cancel: "https://portal/cancel"}, log)
	roles, err := role.NewResolver(b, 8, time.Second, log)
	require.NoError(t, err)

	users := NewUserService(b, roles, policy, v, log)
	return &fixture{
		backend:      b,
		roles:        roles,
		loans:        loans,
		applications: apps,
		users:        users,
		payments:     NewPaymentService(reconciler, log),
		auth:         NewAuthService(v, log),
		dashboard:    NewDashboardService(guard.DefaultTable(), policy, apps, users, log),
	}
}

// viewer signs email in on a fresh session with the given role
func (f *fixture) viewer(t *testing.T, email string, role domain.Role) Viewer {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := session.NewStore(stubProvider{}, nopPersister{}, f.backend, log)
	sess := session.NewSession("s-"+email, store, resource.NewStore(time.Minute, log))
	if email == "" {
		return Viewer{Session: sess, Role: domain.RoleNone}
	}
	ident, err := store.SignIn(context.Background(), email, "Secret1!")
	require.NoError(t, err)
	return Viewer{Session: sess, Identity: ident, Role: role}
}

func TestManagerEditRefetchesList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.viewer(t, "mgr@example.com", domain.RoleManager)

	view, err := f.loans.Manage(ctx, v, "")
	require.NoError(t, err)
	require.Len(t, view.Loans, 2)
	require.Equal(t, 1, f.backend.loanCalls())

	title := "Home Starter Plus"
	require.NoError(t, f.loans.Update(ctx, v, "l1", LoanUpdateForm{Title: &title}))

	assert.Eventually(t, func() bool { return f.backend.loanCalls() == 2 }, time.Second, 5*time.Millisecond)

	view, err = f.loans.Manage(ctx, v, "plus")
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.loanCalls())
	titles := []string{}
	for _, l := range view.Loans {
		titles = append(titles, l.Title)
	}
	assert.ElementsMatch(t, []string{"Home Starter Plus", "Car Plus"}, titles)
}

func TestFailedWriteLeavesReadDataAndStillRefetches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.viewer(t, "mgr@example.com", domain.RoleManager)
	f.backend.updateErr = &domain.NetworkError{Kind: domain.ServerError, Status: 500}

	_, err := f.loans.Manage(ctx, v, "")
	require.NoError(t, err)

	title := "x"
	err = f.loans.Update(ctx, v, "l1", LoanUpdateForm{Title: &title})
	assert.ErrorIs(t, err, domain.ErrServer)
	assert.Eventually(t, func() bool { return f.backend.loanCalls() == 2 }, time.Second, 5*time.Millisecond)

	view, err := f.loans.Manage(ctx, v, "")
	require.NoError(t, err)
	assert.Equal(t, "Home Starter", view.Loans[0].Title)
}

func TestInvalidLoanFormIsNeverSent(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "mgr@example.com", domain.RoleManager)

	_, err := f.loans.Add(context.Background(), v, LoanForm{Title: "Only title"})
	list, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.NotEmpty(t, list)
	assert.Empty(t, f.backend.added)
}

func TestAddLoanSplitsListsAndDefaultsImage(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "mgr@example.com", domain.RoleManager)

	id, err := f.loans.Add(context.Background(), v, LoanForm{
		Title:             "Travel",
		ShortDescription:  "short",
		Description:       "long",
		Category:          "Personal",
		InterestRate:      9,
		MaxLoanLimit:      1000,
		EMIPlans:          "3 months, 6 months,, ",
		RequiredDocuments: " NID ,Payslip",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-loan", id)

	require.Len(t, f.backend.added, 1)
	added := f.backend.added[0]
	assert.Equal(t, []string{"3 months", "6 months"}, added.EMIPlans)
	assert.Equal(t, []string{"NID", "Payslip"}, added.RequiredDocuments)
	assert.Equal(t, DefaultLoanImage, added.Image)
	assert.Equal(t, "mgr@example.com", added.CreatedBy)
}

func TestAddLoanNeedsManager(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "ann@example.com", domain.RoleBorrower)
	_, err := f.loans.Add(context.Background(), v, LoanForm{})
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestDetailsCanApplyFollowsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.loans.Details(ctx, f.viewer(t, "ann@example.com", domain.RoleBorrower), "l1")
	require.NoError(t, err)
	assert.True(t, view.CanApply)

	view, err = f.loans.Details(ctx, f.viewer(t, "mgr@example.com", domain.RoleManager), "l1")
	require.NoError(t, err)
	assert.False(t, view.CanApply)

	_, err = f.loans.Details(ctx, f.viewer(t, "ann@example.com", domain.RoleBorrower), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAllLoansAndHome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.viewer(t, "", domain.RoleNone)

	page, err := f.loans.AllLoans(ctx, v, listing.LoanQuery{Interest: listing.InterestHigh}, pagination.New(1, 8))
	require.NoError(t, err)
	require.Len(t, page.Loans, 1)
	assert.Equal(t, "l2", page.Loans[0].ID)

	page, err = f.loans.AllLoans(ctx, v, listing.LoanQuery{Search: "car"}, pagination.New(1, 8))
	require.NoError(t, err)
	require.Len(t, page.Loans, 1)
	assert.Equal(t, "l2", page.Loans[0].ID)

	page, err = f.loans.AllLoans(ctx, v, listing.LoanQuery{Category: "Home", Sort: listing.SortInterestDesc}, pagination.New(1, 8))
	require.NoError(t, err)
	require.Len(t, page.Loans, 1)
	assert.Equal(t, "l1", page.Loans[0].ID)

	home, err := f.loans.Home(ctx, v)
	require.NoError(t, err)
	require.Len(t, home.Featured, 1)
	assert.Equal(t, "l1", home.Featured[0].ID)

	assert.Equal(t, 1, f.backend.loanCalls(), "filters are applied to the cached list")
}

func TestFailedListIsRetriedOnNextView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.listErrs = []error{errors.New("backend down")}
	v := f.viewer(t, "", domain.RoleNone)

	_, err := f.loans.AllLoans(ctx, v, listing.LoanQuery{}, pagination.New(1, 8))
	require.EqualError(t, err, "backend down")
	require.Equal(t, 1, f.backend.loanCalls())

	page, err := f.loans.AllLoans(ctx, v, listing.LoanQuery{}, pagination.New(1, 8))
	require.NoError(t, err)
	assert.Len(t, page.Loans, 2)
	assert.Equal(t, 2, f.backend.loanCalls())
}

func TestMyLoansIsBorrowerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.applications.MyLoans(ctx, f.viewer(t, "mgr@example.com", domain.RoleManager))
	assert.ErrorIs(t, err, ErrNotPermitted)
	_, err = f.applications.MyLoans(ctx, f.viewer(t, "boss@example.com", domain.RoleAdmin))
	assert.ErrorIs(t, err, ErrNotPermitted)

	view, err := f.applications.MyLoans(ctx, f.viewer(t, "ann@example.com", domain.RoleBorrower))
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)
}

func TestApplySubmitsPendingUnpaid(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "ann@example.com", domain.RoleBorrower)

	id, err := f.applications.Apply(context.Background(), v, "l2", ApplicationForm{
		FirstName: "Ann", LastName: "Lee", ContactNumber: "0123", NIDPassport: "N1",
		IncomeSource: "Job", MonthlyIncome: 2000, LoanAmount: 5000, LoanReason: "Car", Address: "Street 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-app", id)

	require.Len(t, f.backend.submitted, 1)
	app := f.backend.submitted[0]
	assert.Equal(t, domain.ApplicationPending, app.Status)
	assert.Equal(t, domain.FeeUnpaid, app.ApplicationFeeStatus)
	assert.Equal(t, "ann@example.com", app.UserEmail)
	assert.Equal(t, "Car Plus", app.LoanTitle)
	assert.Equal(t, 12.0, app.InterestRate)
}

func TestApplyRejectsMissingAmount(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "ann@example.com", domain.RoleBorrower)

	_, err := f.applications.Apply(context.Background(), v, "l2", ApplicationForm{
		FirstName: "Ann", LastName: "Lee", ContactNumber: "0123", NIDPassport: "N1",
		IncomeSource: "Job", LoanReason: "Car", Address: "Street 1",
	})
	list, ok := domain.AsValidation(err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "loanAmount", list[0].Field)
	assert.Empty(t, f.backend.submitted)
}

func TestCancelOnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.viewer(t, "ann@example.com", domain.RoleBorrower)

	assert.NoError(t, f.applications.Cancel(ctx, v, "a1"))
	assert.ErrorIs(t, f.applications.Cancel(ctx, v, "a2"), ErrNotPending)
	assert.ErrorIs(t, f.applications.Cancel(ctx, v, "a3"), domain.ErrNotFound)
}

func TestReviewNeedsManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.applications.Review(ctx, f.viewer(t, "ann@example.com", domain.RoleBorrower), "a3", "approve")
	assert.ErrorIs(t, err, ErrNotPermitted)

	mgr := f.viewer(t, "mgr@example.com", domain.RoleManager)
	assert.NoError(t, f.applications.Review(ctx, mgr, "a3", "approve"))
	assert.ErrorIs(t, f.applications.Review(ctx, mgr, "a2", "reject"), ErrNotPending)

	_, ok := domain.AsValidation(f.applications.Review(ctx, mgr, "a3", "delete"))
	assert.True(t, ok)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	view, err := f.applications.List(context.Background(), f.viewer(t, "mgr@example.com", domain.RoleManager), "Pending")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)
}

func TestPayFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.viewer(t, "ann@example.com", domain.RoleBorrower)

	url, err := f.applications.PayFee(ctx, v, "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", url)
	require.Len(t, f.backend.sessions, 1)
	assert.Equal(t, "https://portal/ok", f.backend.sessions[0].SuccessURL)

	_, err = f.applications.PayFee(ctx, v, "a2")
	assert.ErrorIs(t, err, ErrFeeAlreadyPaid)
}

func TestPaymentResultShownOnce(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "ann@example.com", domain.RoleBorrower)

	res, err := f.payments.Confirm(context.Background(), v, "cs_9")
	require.NoError(t, err)
	assert.Equal(t, payment.StateReconciled, res.State)

	view := f.payments.PaymentResult(v)
	require.NotNil(t, view.Result)
	assert.Equal(t, "tx-cs_9", view.Result.TransactionID)

	assert.Nil(t, f.payments.PaymentResult(v).Result)
}

func TestRegisterWarnsWhenRecordMissing(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "", domain.RoleNone)

	res, err := f.auth.Register(context.Background(), v.Session, RegisterForm{
		Name: "Ann", Email: "ann@example.com", Password: "Secret1!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, "ann@example.com", v.Session.Store.Current().Email)
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "", domain.RoleNone)

	_, err := f.auth.Register(context.Background(), v.Session, RegisterForm{
		Name: "Ann", Email: "ann@example.com", Password: "secret",
	})
	list, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "strongpassword", list[0].Rule)
	assert.Nil(t, v.Session.Store.Current())
}

func TestSignInReturnsSafeLocation(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "", domain.RoleNone)

	res, err := f.auth.SignIn(context.Background(), v.Session, LoginForm{
		Email: "ann@example.com", Password: "Secret1!", From: "/dashboard/my-loans",
	})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/my-loans", res.Location)

	_, err = f.auth.SignIn(context.Background(), v.Session, LoginForm{Email: "ann@example.com", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSetRoleRefusesSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.viewer(t, "boss@example.com", domain.RoleAdmin)

	err := f.users.SetRole(ctx, admin, "boss@example.com", SetRoleForm{Role: "borrower"})
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)

	require.NoError(t, f.users.SetRole(ctx, admin, "ann@example.com", SetRoleForm{Role: "manager"}))
	require.NotNil(t, f.backend.patches["ann@example.com"].Role)
	assert.Equal(t, domain.RoleManager, *f.backend.patches["ann@example.com"].Role)
}

func TestSetRoleRefreshesTargetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.viewer(t, "boss@example.com", domain.RoleAdmin)
	ann := f.viewer(t, "ann@example.com", domain.RoleBorrower)

	got, err := f.roles.Resolve(ctx, ann.Identity, ann.Session.Store)
	require.NoError(t, err)
	require.Equal(t, domain.RoleBorrower, got)

	require.NoError(t, f.users.SetRole(ctx, admin, "ann@example.com", SetRoleForm{Role: "manager"}))

	got, loading := f.roles.State("ann@example.com")
	assert.False(t, loading)
	assert.Equal(t, domain.RoleManager, got)
}

func TestProfileWithoutRecord(t *testing.T) {
	f := newFixture(t)
	v := f.viewer(t, "new@example.com", domain.RoleUnknown)

	view, err := f.users.Profile(context.Background(), v)
	require.NoError(t, err)
	assert.Nil(t, view.User)
	assert.Equal(t, "new@example.com", view.Identity.Email)
}

func TestOverviewPerRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.dashboard.Overview(ctx, f.viewer(t, "ann@example.com", domain.RoleBorrower))
	require.NoError(t, err)
	require.NotNil(t, view.Applications)
	assert.Equal(t, 2, view.Applications.Total)
	assert.Equal(t, 1, view.Applications.FeesPaid)
	assert.Nil(t, view.Users)

	view, err = f.dashboard.Overview(ctx, f.viewer(t, "boss@example.com", domain.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, 3, view.Applications.Total)
	require.NotNil(t, view.Users)
	assert.Equal(t, 2, *view.Users)
}
