package services

import (
	"context"
	"testing"

	"parkingapp/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	acc, err := env.accounts.Register(ctx, " Driver@Example.com ", "driver", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "driver@example.com", acc.Email)
	assert.Equal(t, []string{models.RoleUser}, acc.RoleNames())

	_, err = env.accounts.Register(ctx, "driver@example.com", "again", "secret1")
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Account already exists", err.Error())

	res, err := env.accounts.Login(ctx, "DRIVER@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, acc.AccountID, res.ID)
	assert.Equal(t, "driver", res.Username)
	assert.NotEmpty(t, res.AuthToken)

	p, err := env.accounts.Authenticate(ctx, res.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, acc.AccountID, p.AccountID)
	assert.True(t, p.HasRole(models.RoleUser))
	assert.False(t, p.HasRole(models.RoleAdmin))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	for _, in := range [][3]string{
		{"not-an-email", "u", "secret1"},
		{"a@example.com", " ", "secret1"},
		{"a@example.com", "u", "123"},
	} {
		_, err := env.accounts.Register(ctx, in[0], in[1], in[2])
		assert.ErrorIs(t, err, ErrValidation, "%v", in)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.user(t, "a@example.com")

	_, err := env.accounts.Login(ctx, "", "x")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.accounts.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Account not found", err.Error())

	_, err = env.accounts.Login(ctx, "a@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Incorrect password", err.Error())

	require.NoError(t, env.accounts.SetActive(ctx, acc.AccountID, false))
	_, err = env.accounts.Login(ctx, "a@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestAuthenticateSeesCurrentAccountState(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	acc := env.user(t, "a@example.com")
	res, err := env.accounts.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, env.accounts.AssignRole(ctx, acc.AccountID, "admin"))
	p, err := env.accounts.Authenticate(ctx, res.AuthToken)
	require.NoError(t, err)
	assert.True(t, p.HasRole(models.RoleAdmin))

	require.NoError(t, env.accounts.SetActive(ctx, acc.AccountID, false))
	_, err = env.accounts.Authenticate(ctx, res.AuthToken)
	assert.ErrorIs(t, err, ErrAuth)

	_, err = env.accounts.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestAccountAdministration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	assert.ErrorIs(t, env.accounts.SetActive(ctx, 77, true), ErrNotFound)
	assert.ErrorIs(t, env.accounts.AssignRole(ctx, 77, "user"), ErrNotFound)

	acc := env.user(t, "a@example.com")
	assert.ErrorIs(t, env.accounts.AssignRole(ctx, acc.AccountID, "superuser"), ErrValidation)

	profile, err := env.accounts.Profile(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", profile.Email)
	assert.True(t, profile.Active)

	_, err = env.accounts.Profile(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.accounts.EnsureDefaults(ctx, "admin@parking.local", "admin", "admin123"))
	require.NoError(t, env.accounts.EnsureDefaults(ctx, "admin@parking.local", "admin", "admin123"))

	n, err := env.store.Accounts().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err := env.accounts.Login(ctx, "admin@parking.local", "admin123")
	require.NoError(t, err)
	assert.Contains(t, res.Roles, models.RoleAdmin)

	user, err := env.accounts.Register(ctx, "u@example.com", "u", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, user.RoleNames())
}
