// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const userColumns = `id, email, password_hash, name, role, verified, google_id,
	avatar_url, avatar_id, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	LinkGoogle(ctx context.Context, id, googleID string) error
	UpdateProfile(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id, role string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	MarkVerified(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, verified, google_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.Verified,
		user.GoogleID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(
		ctx,
		"get user by email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
}

func (r *repository) GetByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return r.getOne(
		ctx,
		"get user by google id",
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`,
		googleID,
	)
}

func (r *repository) getOne(ctx context.Context, op, query string, arg any) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) LinkGoogle(ctx context.Context, id, googleID string) error {
	query := `
		UPDATE users
		SET google_id = $2, verified = TRUE, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "link google account", query, id, googleID)
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, avatar_url = $3, avatar_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.AvatarURL,
		user.AvatarID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update role", query, id, role)
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET verified = TRUE, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "mark verified", query, id)
}

func (r *repository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}
