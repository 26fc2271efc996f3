package domain

import (
	"strings"
	"time"
)

// Login methods recorded on audit entries and last-login metadata.
const (
	MethodUSSD = "ussd"
	MethodSMS  = "sms"
	MethodWeb  = "web"
)

type User struct {
	ID              string
	Email           string
	PhoneNumber     string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            Role
	IsVerified      bool
	IsActive        bool
	LastLogin       *time.Time
	LastLoginMethod string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins the display names, tolerating either being empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile holds the non-authentication attributes of a user. It is created
// lazily on first access and removed together with its user.
type Profile struct {
	UserID             string
	Avatar             string
	Bio                string
	Location           string
	BirthDate          *time.Time
	PreferredLanguage  string
	SMSNotifications   bool
	EmailNotifications bool
	SessionTimeout     int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultSessionTimeout is the USSD session timeout in seconds applied to
// lazily created profiles.
const DefaultSessionTimeout = 300

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// LoginAttempt is an immutable audit record, written exactly once per
// authentication attempt. UserID is nil when the attempted email did not
// resolve to a known user.
type LoginAttempt struct {
	ID         string
	UserID     *string
	Email      string
	IPAddress  string
	Method     string
	Successful bool
	Timestamp  time.Time
	UserAgent  string
}

// UserStats is an approximate point-in-time snapshot of account counts.
type UserStats struct {
	TotalUsers    int `json:"total_users"`
	ActiveUsers   int `json:"active_users"`
	VerifiedUsers int `json:"verified_users"`
	Citizens      int `json:"citizens"`
	FundOfficers  int `json:"fund_officers"`
	FundAdmins    int `json:"fund_admins"`
	Superadmins   int `json:"superadmins"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role     *Role
	IsActive *bool
	Search   string
}

// LoginAttemptFilter narrows audit listings. Hours limits results to the
// trailing time window when positive.
type LoginAttemptFilter struct {
	UserID     string
	Successful *bool
	Hours      int
}
