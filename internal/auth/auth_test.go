package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_GetToken(t *testing.T) {
	token, err := (&StaticProvider{Token: " tok_123\n"}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "tok_123", token)

	_, err = (&StaticProvider{}).GetToken()
	assert.Error(t, err)
}

func TestEnvProvider_GetToken_Success(t *testing.T) {
	t.Setenv(DefaultEnvVar, "pulp_test_token_123")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	require.NoError(t, err)
	assert.Equal(t, "pulp_test_token_123", token)
}

func TestEnvProvider_GetToken_CustomVar(t *testing.T) {
	t.Setenv("OTHER_TOKEN", "other")

	token, err := (&EnvProvider{Var: "OTHER_TOKEN"}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "other", token)
}

func TestEnvProvider_GetToken_Missing(t *testing.T) {
	t.Setenv(DefaultEnvVar, "")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), DefaultEnvVar)
}

func TestCommandProvider_GetToken(t *testing.T) {
	token, err := (&CommandProvider{Command: "echo cmd_token"}).GetToken()
	if err != nil {
		// No POSIX shell available; the error must still be descriptive.
		assert.NotEmpty(t, err.Error())
		return
	}
	assert.Equal(t, "cmd_token", token)

	_, err = (&CommandProvider{Command: "exit 3"}).GetToken()
	assert.Error(t, err)

	_, err = (&CommandProvider{}).GetToken()
	assert.Error(t, err)
}

type errProvider struct{ err error }

func (e *errProvider) GetToken() (string, error) { return "", e.err }

func TestResolve(t *testing.T) {
	t.Run("first provider wins", func(t *testing.T) {
		token, err := Resolve(&StaticProvider{Token: "config"}, &StaticProvider{Token: "second"})
		require.NoError(t, err)
		assert.Equal(t, "config", token)
	})

	t.Run("falls back to env", func(t *testing.T) {
		t.Setenv(DefaultEnvVar, "from_env")

		token, err := Resolve(&StaticProvider{}, nil, &EnvProvider{})
		require.NoError(t, err)
		assert.Equal(t, "from_env", token)
	})

	t.Run("all fail", func(t *testing.T) {
		token, err := Resolve(&errProvider{err: errors.New("first broke")}, &errProvider{err: errors.New("second broke")})
		assert.Empty(t, token)
		assert.ErrorIs(t, err, ErrNoToken)
		assert.Contains(t, err.Error(), "first broke")
		assert.Contains(t, err.Error(), "second broke")
	})
}
