package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/fractallabs/authkit"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "secret-password"},
		{name: "unicode password", password: "contraseña-🔒"},
		{name: "empty password", password: "", wantErr: auth.ErrNoEmptyString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("secret-password")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash("secret-password", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("not a bcrypt hash", func(t *testing.T) {
		assert.Error(t, auth.ComparePasswordAndHash("secret-password", "garbage"))
	})
}

func TestRandomPasswordHash(t *testing.T) {
	a := auth.RandomPasswordHash()
	b := auth.RandomPasswordHash()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
