// Package access answers which actions a role may perform. Route-level
// admission is the guard's job; this is the finer check behind buttons
// such as "Apply" and the mutation endpoints.
package access

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"loanlink-portal/internal/core/domain"
)

//go:embed model.conf
var modelContent string

// defaultPolicies grants actions per role
var defaultPolicies = [][]string{
	{string(domain.RoleBorrower), string(LoanApply)},
	{string(domain.RoleBorrower), string(ApplicationViewOwn)},
	{string(domain.RoleBorrower), string(ApplicationCancel)},
	{string(domain.RoleBorrower), string(ApplicationPayFee)},
	{string(domain.RoleBorrower), "profile:*"},

	{string(domain.RoleManager), string(LoanCreate)},
	{string(domain.RoleManager), string(LoanUpdate)},
	{string(domain.RoleManager), string(LoanDelete)},
	{string(domain.RoleManager), string(ApplicationViewAll)},
	{string(domain.RoleManager), string(ApplicationApprove)},
	{string(domain.RoleManager), string(ApplicationReject)},
	{string(domain.RoleManager), "profile:*"},

	{string(domain.RoleAdmin), string(LoanUpdate)},
	{string(domain.RoleAdmin), string(LoanDelete)},
	{string(domain.RoleAdmin), string(LoanToggleHome)},
	{string(domain.RoleAdmin), string(ApplicationViewAll)},
	{string(domain.RoleAdmin), "user:*"},
	{string(domain.RoleAdmin), "profile:*"},
}

// Policy wraps a casbin enforcer loaded with the role grants
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds the enforcer from the embedded model and default grants
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("load casbin policies: %w", err)
	}

	return &Policy{enforcer: enforcer}, nil
}

// CanPerform reports whether role may perform action. Unknown and empty
// roles may perform nothing, and no role may perform an action outside
// AllActions even where a wildcard grant would match it.
func (p *Policy) CanPerform(role domain.Role, action Action) bool {
	if !role.Known() || !knownAction(action) {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), string(action))
	return err == nil && ok
}

// Allowed returns every concrete action role may perform
func (p *Policy) Allowed(role domain.Role) []Action {
	var out []Action
	for _, a := range AllActions {
		if p.CanPerform(role, a) {
			out = append(out, a)
		}
	}
	return out
}

// CanApply is CanPerform(role, LoanApply)
func (p *Policy) CanApply(role domain.Role) bool {
	return p.CanPerform(role, LoanApply)
}
