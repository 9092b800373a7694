package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// ErrEmailTaken is returned when the email uniqueness constraint fires.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
	RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) error
	RecordSuccessfulLogin(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, phone, is_active, is_email_verified,
       failed_login_attempts, locked_until, email_otp, email_otp_expires_at,
       reset_token, reset_token_expires_at, last_login_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, phone, is_active, is_email_verified,
                           email_otp, email_otp_expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.IsActive,
		user.IsEmailVerified,
		user.EmailOTP,
		user.EmailOTPExpiresAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, phone=$5,
            is_active=$6, is_email_verified=$7, email_otp=$8, email_otp_expires_at=$9,
            reset_token=$10, reset_token_expires_at=$11, updated_at=NOW()
        WHERE id=$12`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.IsActive,
		user.IsEmailVerified,
		user.EmailOTP,
		user.EmailOTPExpiresAt,
		user.ResetToken,
		user.ResetTokenExpiresAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) GetByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1) AND role=$2`
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, email, role).Scan(userFields(&user)...); err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordFailedLogin bumps the attempt counter in a single statement and
// stamps the lock window when the threshold is crossed. Doing the
// increment server-side keeps concurrent failures from under-counting.
func (r *userRepository) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) error {
	const query = `
        UPDATE users SET
            failed_login_attempts = failed_login_attempts + 1,
            locked_until = CASE WHEN failed_login_attempts + 1 >= $2
                           THEN NOW() + make_interval(secs => $3) ELSE locked_until END,
            updated_at = NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id, maxAttempts, lockFor.Seconds())
	return err
}

func (r *userRepository) RecordSuccessfulLogin(ctx context.Context, id string) error {
	const query = `
        UPDATE users SET failed_login_attempts = 0, locked_until = NULL,
            last_login_at = NOW(), updated_at = NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(userFields(&user)...); err != nil {
		return nil, err
	}
	return &user, nil
}

func userFields(u *domain.User) []any {
	return []any{
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Phone,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.FailedLoginAttempts,
		&u.LockedUntil,
		&u.EmailOTP,
		&u.EmailOTPExpiresAt,
		&u.ResetToken,
		&u.ResetTokenExpiresAt,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}
