package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	apperror "github.com/smartfunds-ke/smartfunds-backend/internal/errors"
)

// DBTX is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db           DBTX
	queryTimeout time.Duration
}

func NewPostgresRepository(db DBTX, queryTimeout time.Duration) *PostgresRepository {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &PostgresRepository{db: db, queryTimeout: queryTimeout}
}

// withTimeout bounds every storage operation so a sick database surfaces as a
// retryable error instead of a hung request.
func (r *PostgresRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

// translate maps low-level pgx failures onto the service error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrStorageTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := "email"
		if strings.Contains(pgErr.ConstraintName, "phone") {
			field = "phone_number"
		}
		return &apperror.ConflictError{Field: field}
	}
	return err
}

const userColumns = `id, email, phone_number, password_hash, first_name, last_name,
		role, is_verified, is_active, last_login, last_login_method, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.IsVerified, &u.IsActive, &u.LastLogin, &u.LastLoginMethod, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1) LIMIT 1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(fmt.Errorf("get user by email: %w", err))
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(fmt.Errorf("get user by id: %w", err))
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, phone_number, password_hash, first_name, last_name,
			role, is_verified, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, user.ID, user.Email, user.PhoneNumber, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.IsVerified, user.IsActive, user.CreatedAt, user.UpdatedAt)

	return translate(err)
}

func (r *PostgresRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET email = $2, phone_number = $3, password_hash = $4, first_name = $5, last_name = $6,
			role = $7, is_verified = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`, user.ID, user.Email, user.PhoneNumber, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.IsVerified, user.IsActive, user.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE 1=1`, userColumns)
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(
			" AND (email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR phone_number ILIKE $%d)",
			n, n, n, n)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(fmt.Errorf("list users: %w", err))
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *PostgresRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND is_active = TRUE ORDER BY created_at DESC`, userColumns)

	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, translate(fmt.Errorf("list users by role: %w", err))
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Single-statement snapshot; approximate under concurrent writes is fine.
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE is_active),
			count(*) FILTER (WHERE is_verified),
			count(*) FILTER (WHERE role = 'citizen'),
			count(*) FILTER (WHERE role = 'fund_officer'),
			count(*) FILTER (WHERE role = 'fund_admin'),
			count(*) FILTER (WHERE role = 'superadmin')
		FROM users
	`

	var s domain.UserStats
	err := r.db.QueryRow(ctx, query).Scan(&s.TotalUsers, &s.ActiveUsers, &s.VerifiedUsers,
		&s.Citizens, &s.FundOfficers, &s.FundAdmins, &s.Superadmins)
	if err != nil {
		return nil, translate(fmt.Errorf("user stats: %w", err))
	}
	return &s, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id, method string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE users SET last_login = now(), last_login_method = $2, updated_at = now() WHERE id = $1
	`, id, method)
	return translate(err)
}

func (r *PostgresRepository) SetActiveByIDs(ctx context.Context, ids []string, active bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET is_active = $2, updated_at = now() WHERE id = ANY($1)
	`, ids, active)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) SetVerifiedByIDs(ctx context.Context, ids []string, verified bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET is_verified = $2, updated_at = now() WHERE id = ANY($1)
	`, ids, verified)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// Profiles go with their users (FK cascade); login attempts keep a null
	// user reference (FK set-null).
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, rt *domain.RefreshToken) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, ip_address, user_agent, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rt.ID, rt.UserID, rt.Token, rt.IPAddress, rt.UserAgent, rt.ExpiresAt, rt.CreatedAt, rt.Revoked)
	return translate(err)
}

func (r *PostgresRepository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, token, ip_address, user_agent, expires_at, created_at, revoked
		FROM refresh_tokens WHERE token = $1 LIMIT 1
	`

	var rt domain.RefreshToken
	err := r.db.QueryRow(ctx, query, token).Scan(&rt.ID, &rt.UserID, &rt.Token,
		&rt.IPAddress, &rt.UserAgent, &rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(fmt.Errorf("get refresh token: %w", err))
	}
	return &rt, nil
}

// ConsumeRefreshToken is the rotation compare-and-swap: of two concurrent
// callers holding the same token, exactly one sees RowsAffected == 1.
func (r *PostgresRepository) ConsumeRefreshToken(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE
	`, id)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) RevokeAllRefreshTokensByUserID(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE
	`, userID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, a *domain.LoginAttempt) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, user_id, email, ip_address, method, successful, attempted_at, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.UserID, a.Email, a.IPAddress, a.Method, a.Successful, a.Timestamp, a.UserAgent)
	return translate(err)
}

func (r *PostgresRepository) ListLoginAttempts(ctx context.Context, filter domain.LoginAttemptFilter) ([]*domain.LoginAttempt, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, email, ip_address, method, successful, attempted_at, user_agent
		FROM login_attempts WHERE 1=1
	`
	args := []any{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Successful != nil {
		args = append(args, *filter.Successful)
		query += fmt.Sprintf(" AND successful = $%d", len(args))
	}
	if filter.Hours > 0 {
		args = append(args, filter.Hours)
		query += fmt.Sprintf(" AND attempted_at >= now() - make_interval(hours => $%d)", len(args))
	}
	query += " ORDER BY attempted_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(fmt.Errorf("list login attempts: %w", err))
	}
	defer rows.Close()

	var attempts []*domain.LoginAttempt
	for rows.Next() {
		var a domain.LoginAttempt
		err := rows.Scan(&a.ID, &a.UserID, &a.Email, &a.IPAddress, &a.Method,
			&a.Successful, &a.Timestamp, &a.UserAgent)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

// GetOrCreateProfile returns the user's profile, creating the default one on
// first access. The upsert keeps concurrent first accesses from racing.
func (r *PostgresRepository) GetOrCreateProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO user_profiles (user_id, preferred_language, sms_notifications, email_notifications,
			session_timeout, created_at, updated_at)
		VALUES ($1, 'en', TRUE, TRUE, $2, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, avatar, bio, location, birth_date, preferred_language,
			sms_notifications, email_notifications, session_timeout, created_at, updated_at
	`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID, domain.DefaultSessionTimeout).Scan(
		&p.UserID, &p.Avatar, &p.Bio, &p.Location, &p.BirthDate, &p.PreferredLanguage,
		&p.SMSNotifications, &p.EmailNotifications, &p.SessionTimeout, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translate(fmt.Errorf("get or create profile: %w", err))
	}
	return &p, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE user_profiles
		SET avatar = $2, bio = $3, location = $4, birth_date = $5, preferred_language = $6,
			sms_notifications = $7, email_notifications = $8, session_timeout = $9, updated_at = now()
		WHERE user_id = $1
	`, p.UserID, p.Avatar, p.Bio, p.Location, p.BirthDate, p.PreferredLanguage,
		p.SMSNotifications, p.EmailNotifications, p.SessionTimeout)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
