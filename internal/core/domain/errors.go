package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrNotFound  = errors.New("resource not found")
	ErrSuspended = errors.New("user account is suspended")
)

// AuthErrorKind classifies authentication and authorization failures
type AuthErrorKind int

const (
	InvalidCredentials AuthErrorKind = iota + 1
	Unauthenticated
	Unauthorized
)

func (k AuthErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid credentials"
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	default:
		return "auth error"
	}
}

// AuthError is returned by the identity provider, the session store and the
// backend when a request is rejected for identity reasons.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches another AuthError of the same kind, so the package-level
// sentinels work with errors.Is.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

// Auth sentinels for errors.Is
var (
	ErrInvalidCredentials = &AuthError{Kind: InvalidCredentials}
	ErrUnauthenticated    = &AuthError{Kind: Unauthenticated}
	ErrUnauthorized       = &AuthError{Kind: Unauthorized}
)

// NetworkErrorKind classifies transport failures
type NetworkErrorKind int

const (
	Timeout NetworkErrorKind = iota + 1
	Unreachable
	ServerError
)

func (k NetworkErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Unreachable:
		return "unreachable"
	case ServerError:
		return "server error"
	default:
		return "network error"
	}
}

// NetworkError wraps failures talking to the backend or identity provider
type NetworkError struct {
	Kind   NetworkErrorKind
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	msg := e.Kind.String()
	if e.Kind == ServerError && e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*NetworkError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

// Network sentinels for errors.Is
var (
	ErrTimeout     = &NetworkError{Kind: Timeout}
	ErrUnreachable = &NetworkError{Kind: Unreachable}
	ErrServer      = &NetworkError{Kind: ServerError}
)

// ValidationError reports one rejected form field
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed %s", e.Field, e.Rule)
}

// ValidationErrors is the list of field failures for one form
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConsistencyError reports a multi-step operation that completed only partly,
// e.g. a provider identity whose backend user record could not be created.
type ConsistencyError struct {
	Op  string
	Err error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent state after %s: %v", e.Op, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// IsAuth reports whether err is an AuthError of kind
func IsAuth(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// IsNetwork reports whether err is a NetworkError of kind
func IsNetwork(err error, kind NetworkErrorKind) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Kind == kind
}

// AsValidation extracts validation failures from err, if any
func AsValidation(err error) (ValidationErrors, bool) {
	var list ValidationErrors
	if errors.As(err, &list) {
		return list, true
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return ValidationErrors{single}, true
	}
	return nil, false
}
