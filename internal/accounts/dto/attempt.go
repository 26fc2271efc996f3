package dto

import (
	"time"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
)

type LoginAttemptOutput struct {
	ID         string    `json:"id"`
	UserID     *string   `json:"user_id,omitempty"`
	Email      string    `json:"email"`
	IPAddress  string    `json:"ip_address"`
	Method     string    `json:"method"`
	Successful bool      `json:"successful"`
	Timestamp  time.Time `json:"timestamp"`
	UserAgent  string    `json:"user_agent"`
}

func NewLoginAttemptOutputs(attempts []*domain.LoginAttempt) []*LoginAttemptOutput {
	out := make([]*LoginAttemptOutput, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, &LoginAttemptOutput{
			ID:         a.ID,
			UserID:     a.UserID,
			Email:      a.Email,
			IPAddress:  a.IPAddress,
			Method:     a.Method,
			Successful: a.Successful,
			Timestamp:  a.Timestamp,
			UserAgent:  a.UserAgent,
		})
	}
	return out
}
