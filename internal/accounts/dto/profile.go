package dto

import (
	"time"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
)

type ProfileOutput struct {
	Avatar             string     `json:"avatar"`
	Bio                string     `json:"bio"`
	Location           string     `json:"location"`
	BirthDate          *time.Time `json:"birth_date,omitempty"`
	PreferredLanguage  string     `json:"preferred_language"`
	SMSNotifications   bool       `json:"sms_notifications"`
	EmailNotifications bool       `json:"email_notifications"`
	SessionTimeout     int        `json:"session_timeout"`
}

func NewProfileOutput(p *domain.Profile) *ProfileOutput {
	return &ProfileOutput{
		Avatar:             p.Avatar,
		Bio:                p.Bio,
		Location:           p.Location,
		BirthDate:          p.BirthDate,
		PreferredLanguage:  p.PreferredLanguage,
		SMSNotifications:   p.SMSNotifications,
		EmailNotifications: p.EmailNotifications,
		SessionTimeout:     p.SessionTimeout,
	}
}

type UpdateProfileInput struct {
	Avatar             *string    `json:"avatar"`
	Bio                *string    `json:"bio"`
	Location           *string    `json:"location"`
	BirthDate          *time.Time `json:"birth_date"`
	PreferredLanguage  *string    `json:"preferred_language"`
	SMSNotifications   *bool      `json:"sms_notifications"`
	EmailNotifications *bool      `json:"email_notifications"`
	SessionTimeout     *int       `json:"session_timeout"`
}
