package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"loanlink-portal/internal/core/access"
	"loanlink-portal/internal/core/domain"
	"loanlink-portal/internal/core/listing"
	"loanlink-portal/internal/core/validation"
)

// UserService handles user administration and the profile page
type UserService struct {
	backend  Backend
	roles    RoleRefresher
	policy   *access.Policy
	validate *validation.Validator
	log      logrus.FieldLogger
}

// NewUserService creates a new user service
func NewUserService(backend Backend, roles RoleRefresher, policy *access.Policy, validate *validation.Validator, log logrus.FieldLogger) *UserService {
	return &UserService{
		backend:  backend,
		roles:    roles,
		policy:   policy,
		validate: validate,
		log:      log,
	}
}

// SetRoleForm changes a user's role
type SetRoleForm struct {
	Role string `json:"role" form:"role" validate:"required,oneof=borrower manager admin"`
}

// SuspendForm suspends a user with a reason shown to them
type SuspendForm struct {
	Reason   string `json:"reason" form:"reason" validate:"required"`
	Feedback string `json:"feedback" form:"feedback"`
}

// ProfileForm updates the viewer's display name and photo
type ProfileForm struct {
	DisplayName string `json:"displayName" form:"displayName" validate:"required"`
	PhotoURL    string `json:"photoURL" form:"photoURL" validate:"omitempty,url"`
}

// UsersView is the manage-users table
type UsersView struct {
	Users  []domain.User `json:"users"`
	Search string        `json:"search"`
	Role   domain.Role   `json:"role,omitempty"`
	Total  int           `json:"total"`
}

// ProfileView is the profile page
type ProfileView struct {
	Identity *domain.Identity `json:"identity"`
	User     *domain.User     `json:"user,omitempty"`
	Role     domain.Role      `json:"role"`
}

func (s *UserService) users(ctx context.Context, v Viewer) ([]domain.User, error) {
	return load(ctx, v.Session.Resources, KeyUsers, func(ctx context.Context) ([]domain.User, error) {
		return s.backend.ListUsers(ctx, v.Session.Store)
	})
}

// Manage lists users matching search and, if set, role
func (s *UserService) Manage(ctx context.Context, v Viewer, search, role string) (*UsersView, error) {
	if !s.policy.CanPerform(v.Role, access.UserList) {
		return nil, ErrNotPermitted
	}
	users, err := s.users(ctx, v)
	if err != nil {
		return nil, err
	}

	filter := domain.RoleNone
	if role != "" {
		filter = domain.ParseRole(role)
	}
	found := listing.SearchUsers(users, search, filter)
	return &UsersView{Users: found, Search: search, Role: filter, Total: len(found)}, nil
}

// SetRole changes another user's role and re-resolves the target's cached
// role with the admin's credentials, so the target's next navigation is
// guarded by the new role.
func (s *UserService) SetRole(ctx context.Context, v Viewer, email string, form SetRoleForm) error {
	if !s.policy.CanPerform(v.Role, access.UserSetRole) {
		return ErrNotPermitted
	}
	if err := s.validate.Struct(form); err != nil {
		return err
	}
	if strings.EqualFold(email, v.Email()) {
		return ErrCannotChangeOwnRole
	}

	role := domain.ParseRole(form.Role)
	err := mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.UpdateUser(ctx, v.Session.Store, email, domain.UserPatch{Role: &role})
	}, KeyUsers, KeyUser(email))
	if err != nil {
		return err
	}
	log := s.log.WithFields(logrus.Fields{"email": email, "role": role, "by": v.Email()})
	log.Info("👤 Role changed")

	resolved, err := s.roles.Refresh(ctx, &domain.Identity{Email: email}, v.Session.Store)
	if err != nil {
		// the entry was forgotten, so the target re-resolves on its next request
		log.WithError(err).Warn("⚠️  Role refresh did not finish")
		return nil
	}
	if resolved != role {
		log.WithField("resolved", resolved).Warn("⚠️  Refreshed role differs from the one set")
	}
	return nil
}

// Suspend marks a user suspended with a reason and feedback
func (s *UserService) Suspend(ctx context.Context, v Viewer, email string, form SuspendForm) error {
	if !s.policy.CanPerform(v.Role, access.UserSuspend) {
		return ErrNotPermitted
	}
	if err := s.validate.Struct(form); err != nil {
		return err
	}

	status := domain.UserSuspended
	reason := strings.TrimSpace(form.Reason)
	feedback := strings.TrimSpace(form.Feedback)
	err := mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		return s.backend.UpdateUser(ctx, v.Session.Store, email, domain.UserPatch{
			Status:          &status,
			SuspendReason:   &reason,
			SuspendFeedback: &feedback,
		})
	}, KeyUsers, KeyUser(email))
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"email": email, "by": v.Email()}).Warn("⛔ User suspended")
	return nil
}

// Profile shows the viewer's identity and backend record. A missing record
// still renders the identity.
func (s *UserService) Profile(ctx context.Context, v Viewer) (*ProfileView, error) {
	if v.Identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	email := v.Email()
	user, err := load(ctx, v.Session.Resources, KeyUser(email), func(ctx context.Context) (*domain.User, error) {
		return s.backend.GetUser(ctx, v.Session.Store, email)
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &ProfileView{Identity: v.Identity, User: user, Role: v.Role}, nil
}

// UpdateProfile changes the provider profile and mirrors it onto the
// backend user record
func (s *UserService) UpdateProfile(ctx context.Context, v Viewer, form ProfileForm) (*domain.Identity, error) {
	if v.Identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := s.validate.Struct(form); err != nil {
		return nil, err
	}

	profile := domain.Profile{
		DisplayName: strings.TrimSpace(form.DisplayName),
		PhotoURL:    strings.TrimSpace(form.PhotoURL),
	}

	var ident *domain.Identity
	email := v.Email()
	err := mutate(ctx, v.Session.Resources, func(ctx context.Context) error {
		var err error
		ident, err = v.Session.Store.UpdateProfile(ctx, profile)
		if err != nil {
			return err
		}
		return s.backend.UpdateUser(ctx, v.Session.Store, email, domain.UserPatch{
			DisplayName: &profile.DisplayName,
			PhotoURL:    &profile.PhotoURL,
		})
	}, KeyUser(email), KeyUsers)
	return ident, err
}
