package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain UserRepository

import "context"

// UserRepository is the credential store. Uniqueness of email and phone is
// enforced by the storage layer (unique indexes); violations surface as
// *errors.ConflictError, never as silently doubled rows.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	Stats(ctx context.Context) (*UserStats, error)
	UpdateLastLogin(ctx context.Context, id, method string) error
	SetActiveByIDs(ctx context.Context, ids []string, active bool) (int64, error)
	SetVerifiedByIDs(ctx context.Context, ids []string, verified bool) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	StoreRefreshToken(ctx context.Context, rt *RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	// ConsumeRefreshToken atomically revokes the token identified by id and
	// reports whether this call was the one that revoked it. A false result
	// with a nil error means the token was already consumed.
	ConsumeRefreshToken(ctx context.Context, id string) (bool, error)
	RevokeAllRefreshTokensByUserID(ctx context.Context, userID string) (int64, error)

	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
	ListLoginAttempts(ctx context.Context, filter LoginAttemptFilter) ([]*LoginAttempt, error)

	GetOrCreateProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) error
}
