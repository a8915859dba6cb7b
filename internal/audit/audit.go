package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Actions recorded by the account service. The log is append-only; rows are
// never updated or deleted.
const (
	ActionAccountCreated         = "ACCOUNT_CREATED"
	ActionLogin                  = "LOGIN"
	ActionLogout                 = "LOGOUT"
	ActionEmailVerified          = "EMAIL_VERIFIED"
	ActionVerificationCodeResent = "VERIFICATION_CODE_RESENT"
	ActionPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	ActionPasswordReset          = "PASSWORD_RESET"
	ActionPasswordChanged        = "PASSWORD_CHANGED"
	ActionProfileUpdated         = "PROFILE_UPDATED"
	ActionUserUpdated            = "USER_UPDATED"
	ActionUserDeleted            = "USER_DELETED"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Entry struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]string
	Outcome    string
}

// Recorder is the append side of the audit log. Implementations must have
// committed the entry by the time Record returns; callers treat failures as
// best-effort and never roll back the transition that triggered the entry.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader serves the admin console's per-user activity view.
type Reader interface {
	RecentForUser(ctx context.Context, userID string, limit int) ([]Log, error)
}

type Log struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     string          `gorm:"index;not null" json:"userId"`
	Action     string          `gorm:"not null" json:"action"`
	Resource   string          `json:"resource"`
	ResourceID string          `json:"resourceId"`
	Details    json.RawMessage `gorm:"type:jsonb" json:"details"`
	Outcome    string          `json:"outcome"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (Log) TableName() string {
	return "audit_logs"
}
