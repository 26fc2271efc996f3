package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/dto"
	apperror "github.com/smartfunds-ke/smartfunds-backend/internal/errors"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?\d{9,15}$`)
)

const minPasswordLength = 8

// Bulk actions accepted by BulkAction.
const (
	BulkActivate   = "activate"
	BulkDeactivate = "deactivate"
	BulkVerify     = "verify"
	BulkDelete     = "delete"
)

// UserService owns the identity lifecycle: registration, administrative
// creation, updates, password changes, bulk state transitions and reporting.
type UserService struct {
	repo domain.UserRepository
}

func NewUserService(repo domain.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// validateRegistration reports every violated field at once.
func validateRegistration(input dto.RegisterInput) *apperror.ValidationError {
	vErr := apperror.NewValidationError()

	if !emailRe.MatchString(input.Email) {
		vErr.Add("email", "enter a valid email address")
	}
	if len(input.Password) < minPasswordLength {
		vErr.Add("password", "password must be at least 8 characters")
	}
	if input.Password != input.PasswordConfirm {
		vErr.Add("password_confirm", "passwords don't match")
	}
	if !phoneRe.MatchString(input.PhoneNumber) {
		vErr.Add("phone_number", "phone number must be 9-15 digits with optional leading +")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		vErr.Add("first_name", "first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		vErr.Add("last_name", "last name is required")
	}

	return vErr
}

// Register creates a self-service account. The role is always citizen;
// uniqueness of email and phone is enforced by the storage layer and surfaces
// as a ConflictError.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	if vErr := validateRegistration(input); !vErr.Empty() {
		return nil, vErr
	}
	return s.create(ctx, input, domain.RoleCitizen, false)
}

// CreateByAdmin creates an account with an assignable role. Only a superadmin
// may assign superadmin; only an admin may assign fund_admin or fund_officer.
func (s *UserService) CreateByAdmin(ctx context.Context, requester *authz.Principal, input dto.AdminCreateInput) (*domain.User, error) {
	role := domain.RoleCitizen
	vErr := validateRegistration(input.RegisterInput)
	if input.Role != "" {
		parsed, err := domain.ParseRole(input.Role)
		if err != nil {
			vErr.Add("role", "invalid role")
		} else {
			role = parsed
		}
	}
	if !vErr.Empty() {
		return nil, vErr
	}

	if role == domain.RoleSuperadmin && requester.Role != domain.RoleSuperadmin {
		return nil, &apperror.AuthorizationError{Field: "role", Message: "only superadmin can create superadmin users"}
	}
	if (role == domain.RoleFundAdmin || role == domain.RoleFundOfficer) && !requester.Role.IsAdmin() {
		return nil, &apperror.AuthorizationError{Field: "role", Message: "only admin users can assign admin or officer roles"}
	}

	return s.create(ctx, input.RegisterInput, role, input.IsVerified)
}

func (s *UserService) create(ctx context.Context, input dto.RegisterInput, role domain.Role, verified bool) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		IsVerified:   verified,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return user, nil
}

// UpdateSelf applies a user's changes to their own record. Role and state
// flags are not reachable from here.
func (s *UserService) UpdateSelf(ctx context.Context, userID string, input dto.UpdateUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := applyUserInput(user, input); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateByAdmin may additionally change role and state flags. Moving a user
// into or out of superadmin requires the requester to be superadmin.
func (s *UserService) UpdateByAdmin(ctx context.Context, requester *authz.Principal, targetID string, input dto.AdminUpdateUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		newRole, err := domain.ParseRole(*input.Role)
		if err != nil {
			vErr := apperror.NewValidationError()
			vErr.Add("role", "invalid role")
			return nil, vErr
		}
		touchesSuperadmin := newRole == domain.RoleSuperadmin || user.Role == domain.RoleSuperadmin
		if touchesSuperadmin && requester.Role != domain.RoleSuperadmin {
			return nil, &apperror.AuthorizationError{Field: "role", Message: "only superadmin can modify superadmin roles"}
		}
		user.Role = newRole
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsVerified != nil {
		user.IsVerified = *input.IsVerified
	}

	if err := applyUserInput(user, input.UpdateUserInput); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func applyUserInput(user *domain.User, input dto.UpdateUserInput) error {
	vErr := apperror.NewValidationError()

	if input.PhoneNumber != nil {
		if !phoneRe.MatchString(*input.PhoneNumber) {
			vErr.Add("phone_number", "phone number must be 9-15 digits with optional leading +")
		} else {
			user.PhoneNumber = *input.PhoneNumber
		}
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}

	if !vErr.Empty() {
		return vErr
	}
	return nil
}

// ChangePassword re-hashes the credential after verifying the old one. Other
// sessions stay valid; revocation on password change is deliberately not
// performed.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input dto.PasswordChangeInput) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	vErr := apperror.NewValidationError()
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)) != nil {
		vErr.Add("old_password", "old password is incorrect")
	}
	if len(input.NewPassword) < minPasswordLength {
		vErr.Add("new_password", "password must be at least 8 characters")
	}
	if input.NewPassword != input.NewPasswordConfirm {
		vErr.Add("new_password_confirm", "new passwords don't match")
	}
	if !vErr.Empty() {
		return vErr
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashed)
	user.UpdatedAt = time.Now()
	return s.repo.Update(ctx, user)
}

// BulkAction applies one state transition to a caller-supplied id set. The
// action name is validated before anything mutates; an unknown action fails
// the whole call.
func (s *UserService) BulkAction(ctx context.Context, requester *authz.Principal, input dto.BulkActionInput) (*dto.BulkActionResult, error) {
	if requester == nil || requester.Role != domain.RoleSuperadmin {
		return nil, &apperror.AuthorizationError{Message: "bulk actions require superadmin"}
	}

	vErr := apperror.NewValidationError()
	switch input.Action {
	case BulkActivate, BulkDeactivate, BulkVerify, BulkDelete:
	case "":
		vErr.Add("action", "action is required")
	default:
		vErr.Add("action", "invalid action")
	}
	if len(input.UserIDs) == 0 {
		vErr.Add("user_ids", "user_ids is required")
	}
	if !vErr.Empty() {
		return nil, vErr
	}

	var affected int64
	var err error
	switch input.Action {
	case BulkActivate:
		affected, err = s.repo.SetActiveByIDs(ctx, input.UserIDs, true)
	case BulkDeactivate:
		affected, err = s.repo.SetActiveByIDs(ctx, input.UserIDs, false)
	case BulkVerify:
		affected, err = s.repo.SetVerifiedByIDs(ctx, input.UserIDs, true)
	case BulkDelete:
		affected, err = s.repo.DeleteByIDs(ctx, input.UserIDs)
	}
	if err != nil {
		return nil, err
	}

	return &dto.BulkActionResult{Action: input.Action, Affected: affected}, nil
}

func (s *UserService) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	return s.repo.List(ctx, filter)
}

// ListByRole returns active users of the given role. The role is validated
// against the enumeration before any query runs.
func (s *UserService) ListByRole(ctx context.Context, roleName string) ([]*domain.User, error) {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		vErr := apperror.NewValidationError()
		vErr.Add("role", "invalid role")
		return nil, vErr
	}
	return s.repo.ListByRole(ctx, role)
}

func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	return s.repo.Stats(ctx)
}

// Delete removes a single user; profile rows cascade, login attempts keep a
// null reference.
func (s *UserService) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.DeleteByIDs(ctx, []string{id})
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *UserService) ListLoginAttempts(ctx context.Context, filter domain.LoginAttemptFilter) ([]*domain.LoginAttempt, error) {
	return s.repo.ListLoginAttempts(ctx, filter)
}

// GetProfile lazily creates the profile on first access.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.GetOrCreateProfile(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input dto.UpdateProfileInput) (*domain.Profile, error) {
	profile, err := s.repo.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	vErr := apperror.NewValidationError()
	if input.SessionTimeout != nil {
		if *input.SessionTimeout <= 0 {
			vErr.Add("session_timeout", "session timeout must be positive")
		} else {
			profile.SessionTimeout = *input.SessionTimeout
		}
	}
	if !vErr.Empty() {
		return nil, vErr
	}

	if input.Avatar != nil {
		profile.Avatar = *input.Avatar
	}
	if input.Bio != nil {
		profile.Bio = *input.Bio
	}
	if input.Location != nil {
		profile.Location = *input.Location
	}
	if input.BirthDate != nil {
		profile.BirthDate = input.BirthDate
	}
	if input.PreferredLanguage != nil {
		profile.PreferredLanguage = *input.PreferredLanguage
	}
	if input.SMSNotifications != nil {
		profile.SMSNotifications = *input.SMSNotifications
	}
	if input.EmailNotifications != nil {
		profile.EmailNotifications = *input.EmailNotifications
	}

	profile.UpdatedAt = time.Now()
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
