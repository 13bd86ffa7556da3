package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("sign in: %w", &AuthError{Kind: InvalidCredentials, Err: ErrSuspended})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrSuspended)
	assert.True(t, IsAuth(err, InvalidCredentials))
	assert.False(t, IsAuth(err, Unauthorized))
}

func TestNetworkErrorMessage(t *testing.T) {
	err := &NetworkError{Kind: ServerError, Status: 503, Err: errors.New("upstream")}

	assert.Equal(t, "server error (503): upstream", err.Error())
	assert.ErrorIs(t, err, ErrServer)
	assert.True(t, IsNetwork(err, ServerError))
	assert.False(t, IsNetwork(err, Timeout))
}

func TestAsValidation(t *testing.T) {
	list, ok := AsValidation(ValidationErrors{{Field: "email", Rule: "required"}})
	assert.True(t, ok)
	assert.Len(t, list, 1)

	list, ok = AsValidation(fmt.Errorf("form: %w", &ValidationError{Field: "action", Rule: "oneof"}))
	assert.True(t, ok)
	assert.Equal(t, "action", list[0].Field)

	_, ok = AsValidation(ErrNotFound)
	assert.False(t, ok)
}

func TestConsistencyErrorUnwraps(t *testing.T) {
	err := &ConsistencyError{Op: "create user record", Err: ErrServer}
	assert.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "create user record")
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleUnknown, ParseRole("superuser"))
	assert.False(t, RoleUnknown.Known())
	assert.True(t, RoleBorrower.Known())
}
