package dto

import (
	"time"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
)

type UserOutput struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phone_number"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	FullName        string     `json:"full_name"`
	Role            string     `json:"role"`
	IsVerified      bool       `json:"is_verified"`
	IsActive        bool       `json:"is_active"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	LastLoginMethod string     `json:"last_login_method,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewUserOutput(u *domain.User) *UserOutput {
	return &UserOutput{
		ID:              u.ID,
		Email:           u.Email,
		PhoneNumber:     u.PhoneNumber,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Role:            u.Role.String(),
		IsVerified:      u.IsVerified,
		IsActive:        u.IsActive,
		LastLogin:       u.LastLogin,
		LastLoginMethod: u.LastLoginMethod,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func NewUserOutputs(users []*domain.User) []*UserOutput {
	out := make([]*UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserOutput(u))
	}
	return out
}

// UpdateUserInput carries the fields a user may change on their own record.
// Pointer fields distinguish "absent" from "set to zero value" so PATCH
// semantics work.
type UpdateUserInput struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

// AdminUpdateUserInput additionally exposes role and state flags.
type AdminUpdateUserInput struct {
	UpdateUserInput
	Role       *string `json:"role"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
}

type BulkActionInput struct {
	Action  string   `json:"action"`
	UserIDs []string `json:"user_ids"`
}

type BulkActionResult struct {
	Action   string `json:"action"`
	Affected int64  `json:"affected"`
}
