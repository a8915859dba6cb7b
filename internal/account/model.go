package account

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type Status string

const (
	// StatusInactive is the state between registration and code confirmation.
	StatusInactive  Status = "INACTIVE"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Account is the identity record. Email is stored lowercased and is the
// case-insensitive lookup key. PasswordHash is nil for accounts created
// through an external identity provider.
type Account struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	Email     string  `gorm:"uniqueIndex;not null" json:"email"`
	Name      string  `json:"name"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`

	PasswordHash *string `json:"-"`

	Role     Role   `gorm:"not null;default:USER" json:"role"`
	Status   Status `gorm:"not null;default:INACTIVE" json:"status"`
	Verified bool   `gorm:"not null;default:false" json:"verified"`

	// One outstanding code of each kind at most; issuing a new code
	// overwrites the previous pair. Code and expiry are set and cleared
	// together.
	VerificationCode   *string    `json:"-"`
	VerificationExpiry *time.Time `json:"-"`
	ResetToken         *string    `json:"-"`
	ResetTokenExpiry   *time.Time `json:"-"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "users"
}

// HasPassword reports whether the account can authenticate with credentials.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// Profile is the one-to-one extension record holding the fields the account
// table does not need for authentication.
type Profile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"userId"`

	Bio         *string `json:"bio,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
	JobTitle    *string `json:"jobTitle,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	LinkedIn    *string `json:"linkedIn,omitempty"`
	Github      *string `json:"github,omitempty"`
	Website     *string `json:"website,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	Language    *string `json:"language,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Identity is the claim bundle handed to the session issuer after a
// successful authentication.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

func (a *Account) Identity() Identity {
	return Identity{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
	}
}
