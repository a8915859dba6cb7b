package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/audit"
	"github.com/meridianlabs/accounthub/internal/config"
)

const minPasswordLength = 8

// Service owns the account lifecycle: registration, code verification,
// password reset and change, authentication, and the admin-side status
// transitions. All durable state lives behind Repository; the service keeps
// no cross-request state.
type Service struct {
	config   *config.AuthConfig
	log      *zap.Logger
	repo     Repository
	recorder audit.Recorder
	hasher   *PasswordHasher
	codes    *CodeGenerator
}

func NewService(cfg *config.AuthConfig, log *zap.Logger, repo Repository, recorder audit.Recorder) *Service {
	return &Service{
		config:   cfg,
		log:      log,
		repo:     repo,
		recorder: recorder,
		hasher:   NewPasswordHasher(cfg.BcryptCost),
		codes:    NewCodeGenerator(cfg.CodeTTL),
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
	Phone     *string
	Company   *string
}

// Register creates an INACTIVE, unverified account and issues its first
// verification code. The code is returned so the delivery channel (email,
// SMS) stays outside this package.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, string, error) {
	email := NormalizeEmail(in.Email)
	if len(in.Password) < minPasswordLength {
		return nil, "", ErrPasswordTooWeak
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	code, expiry, err := s.codes.Generate()
	if err != nil {
		return nil, "", err
	}

	acct := &Account{
		ID:                 uuid.NewString(),
		Email:              email,
		Name:               displayName(in.FirstName, in.LastName, email),
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Phone:              in.Phone,
		Company:            in.Company,
		PasswordHash:       &hash,
		Role:               RoleUser,
		Status:             StatusInactive,
		Verified:           false,
		VerificationCode:   &code,
		VerificationExpiry: &expiry,
	}

	if err := s.repo.Create(acct); err != nil {
		return nil, "", err
	}

	profile := &Profile{UserID: acct.ID, CompanyName: in.Company}
	if err := s.repo.SaveProfile(profile); err != nil {
		s.log.Error("failed to create profile", zap.String("account_id", acct.ID), zap.Error(err))
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionAccountCreated,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"method": "email"},
	})

	return acct, code, nil
}

// RequestVerification issues a fresh verification code, invalidating any
// previous one.
func (s *Service) RequestVerification(ctx context.Context, email string) (string, error) {
	acct, err := s.repo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	if acct.Verified {
		return "", ErrAlreadyVerified
	}

	code, expiry, err := s.codes.Generate()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetVerificationCode(acct.ID, code, expiry); err != nil {
		return "", err
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionVerificationCodeResent,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"email": acct.Email},
	})

	return code, nil
}

// ConfirmVerification validates the submitted code and moves the account to
// ACTIVE/verified atomically. The final update is conditional on the stored
// code, so a concurrent confirmation succeeds exactly once; the loser gets
// ErrCodeMismatch.
func (s *Service) ConfirmVerification(ctx context.Context, email, submitted string) (*Account, error) {
	acct, err := s.repo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acct.Verified {
		return nil, ErrAlreadyVerified
	}
	if acct.VerificationCode == nil || acct.VerificationExpiry == nil {
		return nil, ErrNoPendingCode
	}
	if time.Now().After(*acct.VerificationExpiry) {
		return nil, ErrCodeExpired
	}
	if *acct.VerificationCode != submitted {
		return nil, ErrCodeMismatch
	}

	if err := s.repo.MarkVerified(acct.ID, submitted); err != nil {
		return nil, err
	}

	acct.Verified = true
	acct.Status = StatusActive
	acct.VerificationCode = nil
	acct.VerificationExpiry = nil

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionEmailVerified,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"email": acct.Email},
	})

	return acct, nil
}

// RequestPasswordReset issues a reset code for an existing account. An
// unknown email returns an empty code and no error so the caller's response
// cannot reveal whether the address is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	acct, err := s.repo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if err == ErrNotFound {
			return "", nil
		}
		return "", err
	}

	code, expiry, err := s.codes.Generate()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetResetToken(acct.ID, code, expiry); err != nil {
		return "", err
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionPasswordResetRequested,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"email": acct.Email},
	})

	return code, nil
}

// ConfirmPasswordReset replaces the password when {email, code, unexpired}
// all match. The single ErrInvalidOrExpiredCode covers wrong code, expired
// code and unknown email alike.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooWeak
	}

	acct, err := s.repo.GetByResetToken(NormalizeEmail(email), code, time.Now())
	if err != nil {
		if err == ErrNotFound {
			return ErrInvalidOrExpiredCode
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.ResetPassword(acct.ID, code, hash, time.Now()); err != nil {
		return err
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionPasswordReset,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"email": acct.Email},
	})

	return nil
}

// ChangePassword rotates the password of a signed-in account.
func (s *Service) ChangePassword(ctx context.Context, accountID, current, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooWeak
	}

	acct, err := s.repo.GetByID(accountID)
	if err != nil {
		return err
	}
	if !acct.HasPassword() {
		return ErrNoPasswordSet
	}
	if !s.hasher.Verify(current, *acct.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(acct.ID, hash); err != nil {
		return err
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionPasswordChanged,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"email": acct.Email},
	})

	return nil
}

// Authenticate checks a credential login. Unknown email, missing password
// hash and wrong password all come back as ErrInvalidCredentials; a
// suspended account is reported as such.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acct, err := s.repo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if err == ErrNotFound {
			// Equalize timing with the hash comparison below.
			_, _ = s.hasher.Hash("dummy-password")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !acct.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if acct.Status == StatusSuspended {
		return nil, ErrAccountSuspended
	}
	if !s.hasher.Verify(password, *acct.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionLogin,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"method": "credentials"},
	})

	return acct, nil
}

// AuthenticateExternal handles a sign-in asserted by an external identity
// provider. The provider has already proven control of the email address, so
// a first sign-in creates a verified, active account with no credential hash;
// only the suspension rule applies after that.
func (s *Service) AuthenticateExternal(ctx context.Context, email, name, provider string) (*Account, error) {
	normalized := NormalizeEmail(email)

	acct, err := s.repo.GetByEmail(normalized)
	if err == ErrNotFound {
		acct = &Account{
			ID:       uuid.NewString(),
			Email:    normalized,
			Name:     name,
			Role:     RoleUser,
			Status:   StatusActive,
			Verified: true,
		}
		if acct.Name == "" {
			acct.Name = displayName(nil, nil, normalized)
		}
		if err := s.repo.Create(acct); err != nil {
			return nil, err
		}
		s.record(ctx, audit.Entry{
			UserID:     acct.ID,
			Action:     audit.ActionAccountCreated,
			Resource:   "User",
			ResourceID: acct.ID,
			Details:    map[string]string{"method": provider},
		})
	} else if err != nil {
		return nil, err
	}

	if acct.Status == StatusSuspended {
		return nil, ErrAccountSuspended
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionLogin,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    map[string]string{"method": provider},
	})

	return acct, nil
}

// Logout records the end of a session. Token expiry remains the only hard
// termination path.
func (s *Service) Logout(ctx context.Context, accountID string) {
	s.record(ctx, audit.Entry{
		UserID:     accountID,
		Action:     audit.ActionLogout,
		Resource:   "User",
		ResourceID: accountID,
	})
}

// Get returns the account by id.
func (s *Service) Get(_ context.Context, accountID string) (*Account, error) {
	return s.repo.GetByID(accountID)
}

// GetProfile returns the profile extension, creating an empty one lazily for
// accounts that predate the profiles table.
func (s *Service) GetProfile(_ context.Context, accountID string) (*Profile, error) {
	profile, err := s.repo.GetProfile(accountID)
	if err == ErrNotFound {
		profile = &Profile{UserID: accountID}
		if err := s.repo.SaveProfile(profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	return profile, err
}

// UpdateProfile applies the two patches through a single validated merge.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, acctPatch AccountPatch, profPatch ProfilePatch) (*Account, *Profile, error) {
	acct, err := s.repo.GetByID(accountID)
	if err != nil {
		return nil, nil, err
	}

	acctPatch.Apply(acct)
	if err := s.repo.Update(acct); err != nil {
		return nil, nil, err
	}

	profile, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	profPatch.Apply(profile)
	if err := s.repo.SaveProfile(profile); err != nil {
		return nil, nil, err
	}

	s.record(ctx, audit.Entry{
		UserID:     acct.ID,
		Action:     audit.ActionProfileUpdated,
		Resource:   "User",
		ResourceID: acct.ID,
	})

	return acct, profile, nil
}

// UpdateUser applies an admin-side role and/or status change as a single
// transition. Both fields are validated before anything is written, so a
// rejected change leaves the account untouched. Suspending your own account
// is rejected like self-deletion; moving an unverified account to ACTIVE
// would break the verified invariant and is rejected too. Self role-demotion
// is allowed.
func (s *Service) UpdateUser(ctx context.Context, actingID, targetID string, role *Role, status *Status) (*Account, error) {
	if role != nil && !role.Valid() {
		return nil, ErrInvalidRole
	}
	if status != nil {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		if actingID == targetID && *status == StatusSuspended {
			return nil, ErrSelfStatusChange
		}
	}

	acct, err := s.repo.GetByID(targetID)
	if err != nil {
		return nil, err
	}
	if status != nil && *status == StatusActive && !acct.Verified {
		return nil, ErrNotVerified
	}

	details := map[string]string{}
	if role != nil {
		acct.Role = *role
		details["role"] = string(*role)
	}
	if status != nil {
		acct.Status = *status
		details["status"] = string(*status)
	}
	if err := s.repo.Update(acct); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		UserID:     actingID,
		Action:     audit.ActionUserUpdated,
		Resource:   "User",
		ResourceID: acct.ID,
		Details:    details,
	})

	return acct, nil
}

// SetStatus applies an admin-side status transition.
func (s *Service) SetStatus(ctx context.Context, actingID, targetID string, status Status) (*Account, error) {
	return s.UpdateUser(ctx, actingID, targetID, nil, &status)
}

// SetRole changes the target's role.
func (s *Service) SetRole(ctx context.Context, actingID, targetID string, role Role) (*Account, error) {
	return s.UpdateUser(ctx, actingID, targetID, &role, nil)
}

// Delete removes the target account. An admin can never delete their own
// account through this path.
func (s *Service) Delete(ctx context.Context, actingID, targetID string) error {
	if actingID == targetID {
		return ErrSelfStatusChange
	}

	if err := s.repo.Delete(targetID); err != nil {
		return err
	}

	s.record(ctx, audit.Entry{
		UserID:     actingID,
		Action:     audit.ActionUserDeleted,
		Resource:   "User",
		ResourceID: targetID,
	})

	return nil
}

// List and Stats back the admin console.
func (s *Service) List(_ context.Context, opts ListOptions) ([]Account, int64, error) {
	return s.repo.List(opts)
}

func (s *Service) Stats(_ context.Context) (*Stats, error) {
	return s.repo.Stats()
}

// record appends an audit entry. The transition has already committed when
// this runs; a sink failure is logged and never propagated.
func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.log.Error("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("account_id", entry.UserID),
			zap.Error(err))
	}
}

// NormalizeEmail lowercases and trims the address; all lookups and stored
// rows use this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
