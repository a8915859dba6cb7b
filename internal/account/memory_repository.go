package account

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryRepository mirrors the conditional-update semantics of the database
// implementation so the state-machine tests exercise the same race outcomes.
// Lookups return the live pointer on purpose: tests adjust code expiries
// directly.
//
// NewMemoryRepository is exported for tests in other packages and for
// running the service without a database.
type memoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*Account
	byEmail  map[string]*Account
	profiles map[string]*Profile
	nextID   int
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:     make(map[string]*Account),
		byEmail:  make(map[string]*Account),
		profiles: make(map[string]*Profile),
	}
}

func (r *memoryRepository) Create(acct *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[strings.ToLower(acct.Email)]; exists {
		return ErrDuplicateEmail
	}
	acct.CreatedAt = time.Now()
	acct.UpdatedAt = acct.CreatedAt
	r.byID[acct.ID] = acct
	r.byEmail[strings.ToLower(acct.Email)] = acct
	return nil
}

func (r *memoryRepository) GetByEmail(email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, exists := r.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) GetByID(id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, exists := r.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) GetByResetToken(email, code string, now time.Time) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, exists := r.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, ErrNotFound
	}
	if acct.ResetToken == nil || acct.ResetTokenExpiry == nil {
		return nil, ErrNotFound
	}
	if *acct.ResetToken != code || !acct.ResetTokenExpiry.After(now) {
		return nil, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) SetVerificationCode(id, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byID[id]
	if !exists {
		return ErrNotFound
	}
	acct.VerificationCode = &code
	acct.VerificationExpiry = &expiry
	return nil
}

func (r *memoryRepository) MarkVerified(id, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byID[id]
	if !exists {
		return ErrCodeMismatch
	}
	if acct.Verified || acct.VerificationCode == nil || *acct.VerificationCode != code {
		return ErrCodeMismatch
	}
	acct.Verified = true
	acct.Status = StatusActive
	acct.VerificationCode = nil
	acct.VerificationExpiry = nil
	return nil
}

func (r *memoryRepository) SetResetToken(id, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byID[id]
	if !exists {
		return ErrNotFound
	}
	acct.ResetToken = &code
	acct.ResetTokenExpiry = &expiry
	return nil
}

func (r *memoryRepository) ResetPassword(id, code, hash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byID[id]
	if !exists {
		return ErrInvalidOrExpiredCode
	}
	if acct.ResetToken == nil || acct.ResetTokenExpiry == nil {
		return ErrInvalidOrExpiredCode
	}
	if *acct.ResetToken != code || !acct.ResetTokenExpiry.After(now) {
		return ErrInvalidOrExpiredCode
	}
	acct.PasswordHash = &hash
	acct.ResetToken = nil
	acct.ResetTokenExpiry = nil
	return nil
}

func (r *memoryRepository) UpdatePassword(id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byID[id]
	if !exists {
		return ErrNotFound
	}
	acct.PasswordHash = &hash
	return nil
}

func (r *memoryRepository) Update(acct *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[acct.ID]
	if !exists {
		return ErrNotFound
	}
	*stored = *acct
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byID[id]
	if !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, strings.ToLower(acct.Email))
	delete(r.profiles, id)
	return nil
}

// List mirrors the database implementation's contract: clamped pagination,
// total counted before the page is cut, newest first.
func (r *memoryRepository) List(opts ListOptions) ([]Account, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}

	var accounts []Account
	for _, acct := range r.byID {
		if opts.Role != "" && acct.Role != opts.Role {
			continue
		}
		if opts.Status != "" && acct.Status != opts.Status {
			continue
		}
		if opts.Search != "" &&
			!strings.Contains(acct.Email, opts.Search) &&
			!strings.Contains(acct.Name, opts.Search) {
			continue
		}
		accounts = append(accounts, *acct)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})

	total := int64(len(accounts))
	start := (opts.Page - 1) * opts.PageSize
	if start > len(accounts) {
		start = len(accounts)
	}
	end := start + opts.PageSize
	if end > len(accounts) {
		end = len(accounts)
	}
	return accounts[start:end], total, nil
}

func (r *memoryRepository) Stats() (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats Stats
	for _, acct := range r.byID {
		stats.Total++
		switch acct.Status {
		case StatusActive:
			stats.Active++
		case StatusInactive:
			stats.Inactive++
		case StatusSuspended:
			stats.Suspended++
		}
		if acct.Verified {
			stats.Verified++
		}
		if acct.Role == RoleAdmin {
			stats.Admins++
		}
	}
	return &stats, nil
}

func (r *memoryRepository) GetProfile(userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (r *memoryRepository) SaveProfile(profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.ID == 0 {
		r.nextID++
		profile.ID = uint(r.nextID)
	}
	r.profiles[profile.UserID] = profile
	return nil
}
