package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "testpassword123",
		},
		{
			name:     "empty password is malformed input",
			password: "",
			wantErr:  ErrEmptyPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			assert.True(t, hasher.Verify(tt.password, hash))
			assert.False(t, hasher.Verify("wrong-password", hash))
		})
	}
}

func TestPasswordHasher_MismatchIsNotAnError(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("testpassword123")
	require.NoError(t, err)

	// A mismatch comes back as false; garbage hashes do too.
	assert.False(t, hasher.Verify("other", hash))
	assert.False(t, hasher.Verify("testpassword123", "not-a-bcrypt-hash"))
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("testpassword123")
	require.NoError(t, err)
	second, err := hasher.Hash("testpassword123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
