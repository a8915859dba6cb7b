package account

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/accounthub/internal/audit"
)

func TestService_Register(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		setup   func(svc *Service)
		wantErr error
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Email: "new@example.com", Password: "testpass123"},
		},
		{
			name:  "duplicate email",
			input: RegisterInput{Email: "taken@example.com", Password: "testpass123"},
			setup: func(svc *Service) {
				_, _, err := svc.Register(context.Background(), RegisterInput{
					Email:    "taken@example.com",
					Password: "testpass123",
				})
				require.NoError(t, err)
			},
			wantErr: ErrDuplicateEmail,
		},
		{
			name:  "duplicate email differs only in case",
			input: RegisterInput{Email: "Taken@Example.COM", Password: "testpass123"},
			setup: func(svc *Service) {
				_, _, err := svc.Register(context.Background(), RegisterInput{
					Email:    "taken@example.com",
					Password: "testpass123",
				})
				require.NoError(t, err)
			},
			wantErr: ErrDuplicateEmail,
		},
		{
			name:    "password too short",
			input:   RegisterInput{Email: "short@example.com", Password: "abc"},
			wantErr: ErrPasswordTooWeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			if tt.setup != nil {
				tt.setup(svc)
			}

			acct, code, err := svc.Register(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, StatusInactive, acct.Status)
			assert.False(t, acct.Verified)
			assert.Equal(t, RoleUser, acct.Role)
			assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
			assert.NotNil(t, acct.VerificationExpiry)

			stored, err := repo.GetByEmail(tt.input.Email)
			require.NoError(t, err)
			assert.Equal(t, acct.ID, stored.ID)
		})
	}
}

func TestService_RequestVerification(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, firstCode, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw12345678"})
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.RequestVerification(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("new code invalidates the previous one", func(t *testing.T) {
		newCode, err := svc.RequestVerification(ctx, "a@x.com")
		require.NoError(t, err)

		if newCode != firstCode {
			_, err = svc.ConfirmVerification(ctx, "a@x.com", firstCode)
			assert.ErrorIs(t, err, ErrCodeMismatch)
		}

		_, err = svc.ConfirmVerification(ctx, "a@x.com", newCode)
		assert.NoError(t, err)
	})

	t.Run("already verified", func(t *testing.T) {
		_, err := svc.RequestVerification(ctx, "a@x.com")
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})
}

func TestService_ConfirmVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.ConfirmVerification(ctx, "nobody@x.com", "123456")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, code, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw12345678"})
		require.NoError(t, err)

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		_, err = svc.ConfirmVerification(ctx, "a@x.com", wrong)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	})

	t.Run("expired code never succeeds even when it matches", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		_, code, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw12345678"})
		require.NoError(t, err)

		acct, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		past := time.Now().Add(-time.Minute)
		acct.VerificationExpiry = &past

		_, err = svc.ConfirmVerification(ctx, "a@x.com", code)
		assert.ErrorIs(t, err, ErrCodeExpired)
	})

	t.Run("no pending code", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		_, _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw12345678"})
		require.NoError(t, err)

		acct, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		acct.VerificationCode = nil
		acct.VerificationExpiry = nil

		_, err = svc.ConfirmVerification(ctx, "a@x.com", "123456")
		assert.ErrorIs(t, err, ErrNoPendingCode)
	})

	t.Run("not reentrant", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, code, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw12345678"})
		require.NoError(t, err)

		acct, err := svc.ConfirmVerification(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, acct.Status)
		assert.True(t, acct.Verified)
		assert.Nil(t, acct.VerificationCode)
		assert.Nil(t, acct.VerificationExpiry)

		_, err = svc.ConfirmVerification(ctx, "a@x.com", code)
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})
}

func TestService_RequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is silent and leaves no audit trace", func(t *testing.T) {
		svc, _, recorder := newTestService(t)

		code, err := svc.RequestPasswordReset(ctx, "nobody@x.com")
		assert.NoError(t, err)
		assert.Empty(t, code)
		assert.Empty(t, recorder.Entries())
	})

	t.Run("existing account gets a code and an audit entry", func(t *testing.T) {
		svc, _, recorder := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		code, err := svc.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
		assert.Contains(t, recorder.Actions(), audit.ActionPasswordResetRequested)
	})
}

func TestService_ConfirmPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong code, unknown email and expired code fail identically", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")
		code, err := svc.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		errWrong := svc.ConfirmPasswordReset(ctx, "a@x.com", wrong, "newpw12345")
		errUnknown := svc.ConfirmPasswordReset(ctx, "nobody@x.com", code, "newpw12345")

		acct, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		past := time.Now().Add(-time.Minute)
		acct.ResetTokenExpiry = &past
		errExpired := svc.ConfirmPasswordReset(ctx, "a@x.com", code, "newpw12345")

		assert.ErrorIs(t, errWrong, ErrInvalidOrExpiredCode)
		assert.ErrorIs(t, errUnknown, ErrInvalidOrExpiredCode)
		assert.ErrorIs(t, errExpired, ErrInvalidOrExpiredCode)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
		assert.Equal(t, errWrong.Error(), errExpired.Error())
	})

	t.Run("success replaces the password and clears the token", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		code, err := svc.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)

		require.NoError(t, svc.ConfirmPasswordReset(ctx, "a@x.com", code, "newpw12345"))

		acct, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		assert.Nil(t, acct.ResetToken)
		assert.Nil(t, acct.ResetTokenExpiry)

		_, err = svc.Authenticate(ctx, "a@x.com", "pw12345678")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "a@x.com", "newpw12345")
		assert.NoError(t, err)
	})

	t.Run("reset does not touch verification state", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		code, err := svc.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)
		require.NoError(t, svc.ConfirmPasswordReset(ctx, "a@x.com", code, "newpw12345"))

		acct, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, StatusActive, acct.Status)
		assert.True(t, acct.Verified)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		_, errWrong := svc.Authenticate(ctx, "a@x.com", "not-the-password")
		_, errUnknown := svc.Authenticate(ctx, "nobody@x.com", "pw12345678")

		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("account without password hash", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		registerActive(t, svc, "oauth@x.com", "pw12345678")

		acct, err := repo.GetByEmail("oauth@x.com")
		require.NoError(t, err)
		acct.PasswordHash = nil

		_, err = svc.Authenticate(ctx, "oauth@x.com", "pw12345678")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("suspended account fails distinctly with a correct password", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		acct, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		acct.Status = StatusSuspended

		_, err = svc.Authenticate(ctx, "a@x.com", "pw12345678")
		assert.ErrorIs(t, err, ErrAccountSuspended)
	})

	t.Run("success writes a LOGIN entry", func(t *testing.T) {
		svc, _, recorder := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		acct, err := svc.Authenticate(ctx, "a@x.com", "pw12345678")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", acct.Email)
		assert.Contains(t, recorder.Actions(), audit.ActionLogin)
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		_, err := svc.Authenticate(ctx, "A@X.COM", "pw12345678")
		assert.NoError(t, err)
	})
}

func TestService_AuthenticateExternal(t *testing.T) {
	ctx := context.Background()

	t.Run("existing account", func(t *testing.T) {
		svc, repo, recorder := newTestService(t)
		registerActive(t, svc, "a@x.com", "pw12345678")

		acct, err := svc.AuthenticateExternal(ctx, "a@x.com", "Ada L", "google")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", acct.Email)

		entries := recorder.Entries()
		last := entries[len(entries)-1]
		assert.Equal(t, audit.ActionLogin, last.Action)
		assert.Equal(t, "google", last.Details["method"])

		stored, err := repo.GetByEmail("a@x.com")
		require.NoError(t, err)
		stored.Status = StatusSuspended

		_, err = svc.AuthenticateExternal(ctx, "a@x.com", "Ada L", "google")
		assert.ErrorIs(t, err, ErrAccountSuspended)
	})

	t.Run("first sign-in creates a verified account without a password", func(t *testing.T) {
		svc, _, recorder := newTestService(t)

		acct, err := svc.AuthenticateExternal(ctx, "New@X.com", "Ada L", "github")
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", acct.Email)
		assert.Equal(t, "Ada L", acct.Name)
		assert.Equal(t, StatusActive, acct.Status)
		assert.True(t, acct.Verified)
		assert.False(t, acct.HasPassword())

		assert.Equal(t, []string{
			audit.ActionAccountCreated,
			audit.ActionLogin,
		}, recorder.Actions())

		// Credential login stays closed for OAuth-only accounts.
		_, err = svc.Authenticate(ctx, "new@x.com", "anything123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		acct := registerActive(t, svc, "a@x.com", "pw12345678")

		err := svc.ChangePassword(ctx, acct.ID, "not-the-password", "newpw12345")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("account without a password", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		acct := registerActive(t, svc, "oauth@x.com", "pw12345678")

		stored, err := repo.GetByID(acct.ID)
		require.NoError(t, err)
		stored.PasswordHash = nil

		err = svc.ChangePassword(ctx, acct.ID, "pw12345678", "newpw12345")
		assert.ErrorIs(t, err, ErrNoPasswordSet)
	})

	t.Run("success rotates the hash", func(t *testing.T) {
		svc, _, recorder := newTestService(t)
		acct := registerActive(t, svc, "a@x.com", "pw12345678")

		require.NoError(t, svc.ChangePassword(ctx, acct.ID, "pw12345678", "newpw12345"))

		_, err := svc.Authenticate(ctx, "a@x.com", "pw12345678")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Authenticate(ctx, "a@x.com", "newpw12345")
		assert.NoError(t, err)
		assert.Contains(t, recorder.Actions(), audit.ActionPasswordChanged)
	})
}

func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("self-suspension is forbidden", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")

		_, err := svc.SetStatus(ctx, admin.ID, admin.ID, StatusSuspended)
		assert.ErrorIs(t, err, ErrSelfStatusChange)

		stored, err := repo.GetByID(admin.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, stored.Status)
	})

	t.Run("suspending another account", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")
		target := registerActive(t, svc, "user@x.com", "pw12345678")

		acct, err := svc.SetStatus(ctx, admin.ID, target.ID, StatusSuspended)
		require.NoError(t, err)
		assert.Equal(t, StatusSuspended, acct.Status)
	})

	t.Run("cannot activate an unverified account", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")
		target, _, err := svc.Register(ctx, RegisterInput{Email: "user@x.com", Password: "pw12345678"})
		require.NoError(t, err)

		_, err = svc.SetStatus(ctx, admin.ID, target.ID, StatusActive)
		assert.ErrorIs(t, err, ErrNotVerified)
	})

	t.Run("invalid status", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")

		_, err := svc.SetStatus(ctx, admin.ID, "other", Status("DORMANT"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestService_UpdateUser(t *testing.T) {
	ctx := context.Background()

	role := func(r Role) *Role { return &r }
	status := func(s Status) *Status { return &s }

	t.Run("applies role and status together", func(t *testing.T) {
		svc, _, recorder := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")
		target := registerActive(t, svc, "user@x.com", "pw12345678")

		acct, err := svc.UpdateUser(ctx, admin.ID, target.ID, role(RoleModerator), status(StatusSuspended))
		require.NoError(t, err)
		assert.Equal(t, RoleModerator, acct.Role)
		assert.Equal(t, StatusSuspended, acct.Status)

		entries := recorder.Entries()
		last := entries[len(entries)-1]
		assert.Equal(t, audit.ActionUserUpdated, last.Action)
		assert.Equal(t, "MODERATOR", last.Details["role"])
		assert.Equal(t, "SUSPENDED", last.Details["status"])
	})

	t.Run("a rejected status change applies nothing, role included", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")

		_, err := svc.UpdateUser(ctx, admin.ID, admin.ID, role(RoleModerator), status(StatusSuspended))
		assert.ErrorIs(t, err, ErrSelfStatusChange)

		stored, err := repo.GetByID(admin.ID)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, stored.Role)
		assert.Equal(t, StatusActive, stored.Status)
	})

	t.Run("a rejected role change applies nothing, status included", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")
		target := registerActive(t, svc, "user@x.com", "pw12345678")

		_, err := svc.UpdateUser(ctx, admin.ID, target.ID, role(Role("SUPERUSER")), status(StatusSuspended))
		assert.ErrorIs(t, err, ErrInvalidRole)

		stored, err := repo.GetByID(target.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, stored.Status)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("self-deletion is forbidden and leaves state unchanged", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")

		err := svc.Delete(ctx, admin.ID, admin.ID)
		assert.ErrorIs(t, err, ErrSelfStatusChange)

		_, err = repo.GetByID(admin.ID)
		assert.NoError(t, err)
	})

	t.Run("deleting another account", func(t *testing.T) {
		svc, repo, recorder := newTestService(t)
		admin := registerActive(t, svc, "admin@x.com", "pw12345678")
		target := registerActive(t, svc, "user@x.com", "pw12345678")

		require.NoError(t, svc.Delete(ctx, admin.ID, target.ID))

		_, err := repo.GetByID(target.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, recorder.Actions(), audit.ActionUserDeleted)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	acct := registerActive(t, svc, "a@x.com", "pw12345678")

	updated, profile, err := svc.UpdateProfile(ctx, acct.ID,
		AccountPatch{FirstName: SetField("Ada"), LastName: SetField("Lovelace")},
		ProfilePatch{Bio: SetField("mathematician"), City: SetField("London")},
	)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "mathematician", *profile.Bio)

	// Clearing a field while leaving the rest untouched.
	updated, profile, err = svc.UpdateProfile(ctx, acct.ID,
		AccountPatch{},
		ProfilePatch{Bio: ClearField()},
	)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Nil(t, profile.Bio)
	require.NotNil(t, profile.City)
	assert.Equal(t, "London", *profile.City)
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _, recorder := newTestService(t)

	acct, code, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw12345678"})
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, acct.Status)
	assert.False(t, acct.Verified)

	acct, err = svc.ConfirmVerification(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, acct.Status)
	assert.True(t, acct.Verified)

	_, err = svc.Authenticate(ctx, "a@x.com", "pw12345678")
	require.NoError(t, err)

	assert.Equal(t, []string{
		audit.ActionAccountCreated,
		audit.ActionEmailVerified,
		audit.ActionLogin,
	}, recorder.Actions())

	resetCode, err := svc.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmPasswordReset(ctx, "a@x.com", resetCode, "newpw12345"))

	_, err = svc.Authenticate(ctx, "a@x.com", "pw12345678")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "a@x.com", "newpw12345")
	assert.NoError(t, err)
}
