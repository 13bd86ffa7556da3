// Package guard decides whether a navigation may proceed. Evaluate is a pure
// function of the route chain and the session/role state; waiting for that
// state to settle is the caller's concern.
package guard

import (
	"fmt"
	"net/url"
	"strings"

	"loanlink-portal/internal/core/domain"
)

// LoginPath is where unauthenticated navigations are sent
const LoginPath = "/login"

// Kind is the access requirement of a route
type Kind int

const (
	Public Kind = iota
	Authenticated
	RoleIn
)

// Access is a route's access requirement
type Access struct {
	Kind  Kind
	Roles []domain.Role
}

// PublicAccess admits everyone
func PublicAccess() Access { return Access{Kind: Public} }

// AnyAuthenticated admits any signed-in identity, whatever its role
func AnyAuthenticated() Access { return Access{Kind: Authenticated} }

// Roles admits identities whose role is in roles
func Roles(roles ...domain.Role) Access { return Access{Kind: RoleIn, Roles: roles} }

func (a Access) allows(role domain.Role) bool {
	if a.Kind != RoleIn {
		return true
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Spec binds an access requirement to a route pattern
type Spec struct {
	Pattern string
	Title   string
	Access  Access
}

// State is what the guard knows about the session when it decides
type State struct {
	SessionLoading bool
	Identity       *domain.Identity
	Role           domain.Role
	RoleLoading    bool
}

// Outcome of a guard evaluation
type Outcome int

const (
	Evaluating Outcome = iota
	Allow
	Redirect
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "evaluating"
	}
}

// Decision is the result of Evaluate
type Decision struct {
	Outcome  Outcome
	Location string
	Message  string
}

// RequiresIdentity reports whether any spec in chain needs a signed-in user
func RequiresIdentity(chain []Spec) bool {
	for _, s := range chain {
		if s.Access.Kind != Public {
			return true
		}
	}
	return false
}

func requiresRole(chain []Spec) bool {
	for _, s := range chain {
		if s.Access.Kind == RoleIn {
			return true
		}
	}
	return false
}

// Evaluate decides a navigation to target (path plus query) guarded by
// chain. All specs in the chain must admit the navigation.
func Evaluate(target string, chain []Spec, st State) Decision {
	if !RequiresIdentity(chain) {
		return Decision{Outcome: Allow}
	}
	if st.SessionLoading {
		return Decision{Outcome: Evaluating}
	}
	if st.Identity == nil {
		return Decision{Outcome: Redirect, Location: LoginLocation(target)}
	}
	if !requiresRole(chain) {
		return Decision{Outcome: Allow}
	}
	if st.RoleLoading {
		return Decision{Outcome: Evaluating}
	}
	for _, s := range chain {
		if !s.Access.allows(st.Role) {
			return Decision{Outcome: Deny, Message: forbiddenMessage(s.Access.Roles)}
		}
	}
	return Decision{Outcome: Allow}
}

// LoginLocation is the login page carrying the originally requested target
func LoginLocation(target string) string {
	return LoginPath + "?" + url.Values{"from": {target}}.Encode()
}

// SafeReturn returns from if it is a local path, otherwise "/"
func SafeReturn(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	if strings.HasPrefix(from, LoginPath) {
		return "/"
	}
	return from
}

func forbiddenMessage(roles []domain.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, strings.ToUpper(string(r[:1]))+string(r[1:])+"s")
	}
	return fmt.Sprintf("Forbidden: %s only!", strings.Join(names, " and "))
}
