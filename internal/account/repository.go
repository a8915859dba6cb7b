package account

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Role     Role
	Status   Status
}

type Stats struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Inactive    int64 `json:"inactive"`
	Suspended   int64 `json:"suspended"`
	Verified    int64 `json:"verified"`
	Admins      int64 `json:"admins"`
	RecentWeek  int64 `json:"recentWeek"`
	RecentMonth int64 `json:"recentMonth"`
}

// Repository is the persistence boundary of the account state machine.
// Concurrent transitions on the same row are serialized by the conditional
// updates: MarkVerified and ResetPassword only succeed while the stored code
// still matches, so a concurrent racer loses with a mismatch instead of
// succeeding twice.
type Repository interface {
	Create(acct *Account) error
	GetByEmail(email string) (*Account, error)
	GetByID(id string) (*Account, error)
	GetByResetToken(email, code string, now time.Time) (*Account, error)

	SetVerificationCode(id, code string, expiry time.Time) error
	MarkVerified(id, code string) error
	SetResetToken(id, code string, expiry time.Time) error
	ResetPassword(id, code, hash string, now time.Time) error
	UpdatePassword(id, hash string) error

	Update(acct *Account) error
	Delete(id string) error
	List(opts ListOptions) ([]Account, int64, error)
	Stats() (*Stats, error)

	GetProfile(userID string) (*Profile, error)
	SaveProfile(profile *Profile) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(acct *Account) error {
	if err := r.db.Create(acct).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *repository) GetByEmail(email string) (*Account, error) {
	var acct Account
	if err := r.db.Where("email = ?", email).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *repository) GetByID(id string) (*Account, error) {
	var acct Account
	if err := r.db.Where("id = ?", id).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *repository) GetByResetToken(email, code string, now time.Time) (*Account, error) {
	var acct Account
	err := r.db.
		Where("email = ? AND reset_token = ? AND reset_token_expiry > ?", email, code, now).
		First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func (r *repository) SetVerificationCode(id, code string, expiry time.Time) error {
	res := r.db.Model(&Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"verification_code":   code,
		"verification_expiry": expiry,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified flips the account to ACTIVE/verified and clears the code
// fields in one conditional update keyed on the current code value.
func (r *repository) MarkVerified(id, code string) error {
	res := r.db.Model(&Account{}).
		Where("id = ? AND verified = ? AND verification_code = ?", id, false, code).
		Updates(map[string]interface{}{
			"verified":            true,
			"status":              StatusActive,
			"verification_code":   nil,
			"verification_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCodeMismatch
	}
	return nil
}

func (r *repository) SetResetToken(id, code string, expiry time.Time) error {
	res := r.db.Model(&Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_token":        code,
		"reset_token_expiry": expiry,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword replaces the hash and clears the reset fields only while the
// stored token matches and has not expired.
func (r *repository) ResetPassword(id, code, hash string, now time.Time) error {
	res := r.db.Model(&Account{}).
		Where("id = ? AND reset_token = ? AND reset_token_expiry > ?", id, code, now).
		Updates(map[string]interface{}{
			"password_hash":      hash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidOrExpiredCode
	}
	return nil
}

func (r *repository) UpdatePassword(id, hash string) error {
	res := r.db.Model(&Account{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Update(acct *Account) error {
	return r.db.Save(acct).Error
}

func (r *repository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) List(opts ListOptions) ([]Account, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}

	query := r.db.Model(&Account{})
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		query = query.Where("email LIKE ? OR name LIKE ?", like, like)
	}
	if opts.Role != "" {
		query = query.Where("role = ?", opts.Role)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []Account
	err := query.
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *repository) Stats() (*Stats, error) {
	var stats Stats
	type countQuery struct {
		dst   *int64
		where string
		args  []interface{}
	}
	now := time.Now()
	queries := []countQuery{
		{&stats.Total, "", nil},
		{&stats.Active, "status = ?", []interface{}{StatusActive}},
		{&stats.Inactive, "status = ?", []interface{}{StatusInactive}},
		{&stats.Suspended, "status = ?", []interface{}{StatusSuspended}},
		{&stats.Verified, "verified = ?", []interface{}{true}},
		{&stats.Admins, "role = ?", []interface{}{RoleAdmin}},
		{&stats.RecentWeek, "created_at > ?", []interface{}{now.AddDate(0, 0, -7)}},
		{&stats.RecentMonth, "created_at > ?", []interface{}{now.AddDate(0, -1, 0)}},
	}
	for _, q := range queries {
		query := r.db.Model(&Account{})
		if q.where != "" {
			query = query.Where(q.where, q.args...)
		}
		if err := query.Count(q.dst).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

func (r *repository) GetProfile(userID string) (*Profile, error) {
	var profile Profile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repository) SaveProfile(profile *Profile) error {
	return r.db.Save(profile).Error
}
