package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = ` id, email, phone, password_hash, nickname, role, banned, created_at, updated_at`

type CreateUserParams struct {
	Email        *string
	Phone        *string
	PasswordHash *string
	Nickname     string
}

func (r *UserRepo) Create(ctx context.Context, tx pgx.Tx, p CreateUserParams) (model.User, error) {
	if tx == nil {
		return model.User{}, fmt.Errorf("transaction is required")
	}
	if p.Email == nil && p.Phone == nil {
		return model.User{}, fmt.Errorf("email or phone is required")
	}
	if p.Nickname == "" {
		return model.User{}, fmt.Errorf("nickname is required")
	}

	row := tx.QueryRow(ctx, `
INSERT INTO users (email, phone, password_hash, nickname, role, banned, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'USER', FALSE, NOW(), NOW())
RETURNING`+userColumns, p.Email, p.Phone, p.PasswordHash, p.Nickname)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, ErrUserExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Register creates the account and credits the signup bonus in one
// transaction, so a crash cannot leave a user without the welcome grant.
func (r *UserRepo) Register(ctx context.Context, email, phone, passwordHash *string, nickname string, signupBonus int64) (model.User, error) {
	var user model.User
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		created, err := r.Create(ctx, tx, CreateUserParams{
			Email:        email,
			Phone:        phone,
			PasswordHash: passwordHash,
			Nickname:     nickname,
		})
		if err != nil {
			return err
		}
		user = created

		if signupBonus > 0 {
			if _, err := tx.Exec(ctx, `
INSERT INTO point_entries (user_id, delta, reason, ref_id, created_at)
VALUES ($1, $2, 'signup_bonus', NULL, NOW())
`, created.ID, signupBonus); err != nil {
				return fmt.Errorf("credit signup bonus: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE phone = $1`, phone)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by phone: %w", err)
	}
	return user, nil
}

// GetForUpdate locks the user row for the duration of the transaction.
// Lock order is photo first, then user; callers must not reverse it.
func (r *UserRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.User, error) {
	if tx == nil {
		return model.User{}, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("lock user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) UpdateNickname(ctx context.Context, userID int64, nickname string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET nickname = $2, updated_at = NOW() WHERE id = $1
`, userID, nickname)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserExists
		}
		return fmt.Errorf("update nickname: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) SetBanned(ctx context.Context, userID int64, banned bool) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET banned = $2, updated_at = NOW() WHERE id = $1
`, userID, banned)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) SetRole(ctx context.Context, userID int64, role enums.Role) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
`, userID, string(role))
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+userColumns+`
FROM users
ORDER BY id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate users: %w", rows.Err())
	}

	return users, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user model.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Nickname,
		&role,
		&user.Banned,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return model.User{}, err
	}
	user.Role = enums.Role(role)
	return user, nil
}
