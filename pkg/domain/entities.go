package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across stored entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// InterviewRound is one stage of a job's interview process. Rounds are
// identified within a job by ordinal position, so replacing a job's round
// list invalidates every previously scheduled reminder for that job.
type InterviewRound struct {
	Label       string     `json:"label"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// HasSchedule reports whether the round carries a concrete datetime.
func (r InterviewRound) HasSchedule() bool {
	return r.ScheduledAt != nil && !r.ScheduledAt.IsZero()
}

// RoundList stores an ordered []InterviewRound as JSON.
type RoundList []InterviewRound

func (l RoundList) Value() (driver.Value, error) {
	return json.Marshal([]InterviewRound(l))
}

func (l *RoundList) Scan(value any) error {
	if l == nil {
		return errors.New("RoundList: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]InterviewRound)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]InterviewRound)(l))
	default:
		return fmt.Errorf("RoundList: unsupported type %T", value)
	}
}

// StringList stores []string as JSON.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value any) error {
	if s == nil {
		return errors.New("StringList: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	default:
		return fmt.Errorf("StringList: unsupported type %T", value)
	}
}

// Job is an application being tracked. The scheduler never persists Job
// state itself; it only reacts to records supplied by the job-management
// collaborator.
type Job struct {
	bun.BaseModel `bun:"table:jobs"`
	RecordMeta

	OwnerUserID string    `bun:",nullzero,notnull" json:"owner_user_id"`
	Company     string    `bun:",nullzero,notnull" json:"company"`
	Position    string    `bun:",nullzero,notnull" json:"position"`
	Status      string    `bun:",nullzero" json:"status"`
	AppliedAt   time.Time `bun:",nullzero" json:"applied_at,omitempty"`
	Notes       string    `bun:",nullzero" json:"notes,omitempty"`
	Rounds      RoundList `bun:"type:jsonb,nullzero" json:"rounds"`
}

// NotificationPreferences control whether and when reminder email goes out.
type NotificationPreferences struct {
	Email     bool       `json:"email"`
	Intervals StringList `json:"intervals"`
}

func (p NotificationPreferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *NotificationPreferences) Scan(value any) error {
	if p == nil {
		return errors.New("NotificationPreferences: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*p = NotificationPreferences{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("NotificationPreferences: unsupported type %T", value)
	}
}

// User is the profile record supplied by the auth/profile collaborator.
type User struct {
	bun.BaseModel `bun:"table:users"`
	RecordMeta

	UserID      string                  `bun:",unique,nullzero,notnull" json:"user_id"`
	Email       string                  `bun:",nullzero" json:"email"`
	FullName    string                  `bun:",nullzero" json:"full_name,omitempty"`
	Preferences NotificationPreferences `bun:"type:jsonb" json:"preferences"`
}

// WantsEmail reports whether reminder email may be sent to this user at all.
func (u *User) WantsEmail() bool {
	return u != nil && u.Preferences.Email && strings.TrimSpace(u.Email) != ""
}

// DefaultIntervalLabels is the interval set applied when a user has not
// expressed a preference.
var DefaultIntervalLabels = StringList{"1day", "6hrs", "1hr", "exact"}

// DefaultPreferences is the named fallback applied to synthetic users:
// email enabled, full interval set.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		Email:     true,
		Intervals: append(StringList(nil), DefaultIntervalLabels...),
	}
}

// FallbackUser builds the synthetic user substituted when a user record
// cannot be found. A momentarily missing profile must never fail a job
// save: the caller proceeds with default preferences, and because the
// fallback carries no address, nothing is scheduled until the record
// shows up and the job is rescheduled.
func FallbackUser(userID string) *User {
	return &User{
		UserID:      userID,
		Preferences: DefaultPreferences(),
	}
}
