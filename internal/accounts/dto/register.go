package dto

type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	PhoneNumber     string `json:"phone_number"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// AdminCreateInput is RegisterInput plus the role-assignable fields only an
// admin may set.
type AdminCreateInput struct {
	RegisterInput
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

type PasswordChangeInput struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}
