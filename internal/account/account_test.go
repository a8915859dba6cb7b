package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridianlabs/accounthub/internal/audit"
	"github.com/meridianlabs/accounthub/internal/config"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       "test-secret-key",
		SessionDuration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
		CodeTTL:         15 * time.Minute,
	}
}

func newTestService(t *testing.T) (*Service, Repository, *audit.MemoryRecorder) {
	repo := NewMemoryRepository()
	recorder := audit.NewMemoryRecorder()
	svc := NewService(newTestConfig(), newTestLogger(t), repo, recorder)
	return svc, repo, recorder
}

// registerActive registers and verifies an account in one step.
func registerActive(t *testing.T, svc *Service, email, password string) *Account {
	t.Helper()

	_, code, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	acct, err := svc.ConfirmVerification(context.Background(), email, code)
	require.NoError(t, err)
	require.Equal(t, StatusActive, acct.Status)
	return acct
}

func strPtr(s string) *string {
	return &s
}
