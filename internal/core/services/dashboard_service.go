package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/core/access"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/guard"
)

// DashboardService builds the dashboard overview
type DashboardService struct {
	table        *guard.Table
	policy       *access.Policy
	applications *ApplicationService
	users        *UserService
	log          logrus.FieldLogger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(table *guard.Table, policy *access.Policy, applications *ApplicationService, users *UserService, log logrus.FieldLogger) *DashboardService {
	return &DashboardService{
		table:        table,
		policy:       policy,
		applications: applications,
		users:        users,
		log:          log,
	}
}

// ApplicationStats counts applications by status
type ApplicationStats struct {
	Total       int     `json:"total"`
	Pending     int     `json:"pending"`
	Approved    int     `json:"approved"`
	Rejected    int     `json:"rejected"`
	Cancelled   int     `json:"cancelled"`
	FeesPaid    int     `json:"feesPaid"`
	TotalAmount float64 `json:"totalAmount"`
}

// OverviewView is the dashboard landing page
type OverviewView struct {
	Identity     *domain.Identity  `json:"identity"`
	Role         domain.Role       `json:"role"`
	Menu         []guard.MenuItem  `json:"menu"`
	Actions      []access.Action   `json:"actions"`
	Applications *ApplicationStats `json:"applications,omitempty"`
	Users        *int              `json:"users,omitempty"`
}

func countApplications(apps []domain.LoanApplication) *ApplicationStats {
	st := &ApplicationStats{Total: len(apps)}
	for _, a := range apps {
		switch a.Status {
		case domain.ApplicationPending:
			st.Pending++
		case domain.ApplicationApproved:
			st.Approved++
		case domain.ApplicationRejected:
			st.Rejected++
		case domain.ApplicationCancelled:
			st.Cancelled++
		}
		if a.ApplicationFeeStatus == domain.FeePaid {
			st.FeesPaid++
		}
		st.TotalAmount += a.LoanAmount
	}
	return st
}

// Overview shows the menu the viewer's role opens up and the counts of the
// records that role works with. Counts that fail to load are left out.
func (s *DashboardService) Overview(ctx context.Context, v Viewer) (*OverviewView, error) {
	view := &OverviewView{
		Identity: v.Identity,
		Role:     v.Role,
		Menu:     s.table.Menu(guard.RouteDashboard+"/", v.Identity != nil, v.Role),
		Actions:  s.policy.Allowed(v.Role),
	}

	switch {
	case s.policy.CanPerform(v.Role, access.ApplicationViewAll):
		apps, err := s.applications.all(ctx, v)
		if err != nil {
			if isStillLoading(err) {
				return nil, err
			}
			s.log.WithError(err).Warn("⚠️  Overview: applications unavailable")
			break
		}
		view.Applications = countApplications(apps)
	case s.policy.CanPerform(v.Role, access.ApplicationViewOwn):
		apps, err := s.applications.mine(ctx, v)
		if err != nil {
			if isStillLoading(err) {
				return nil, err
			}
			s.log.WithError(err).Warn("⚠️  Overview: applications unavailable")
			break
		}
		view.Applications = countApplications(apps)
	}

	if s.policy.CanPerform(v.Role, access.UserList) {
		users, err := s.users.users(ctx, v)
		if err == nil {
			n := len(users)
			view.Users = &n
		} else if isStillLoading(err) {
			return nil, err
		}
	}

	return view, nil
}
