package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bmanav26/E-Commerce/internal/domain"
	"github.com/bmanav26/E-Commerce/pkg/database"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, avatar_url, reset_password_token, reset_password_expires, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "users.Create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.AvatarURL,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByResetDigest retrieves the user with an unexpired reset token digest.
// Expiry is checked in SQL so expired digests are not found, same as unknown
// ones.
func (r *UserRepository) GetByResetDigest(ctx context.Context, digest string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE reset_password_token = $1 AND reset_password_expires > NOW()`
	return r.scanUser(ctx, query, digest)
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) (_ []domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "users.List", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Update modifies an existing user.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, role = $4, avatar_url = $5,
		    reset_password_token = $6, reset_password_expires = $7, updated_at = $8
		WHERE id = $9`

	ctx, end := database.TraceQuery(ctx, "users.Update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.AvatarURL,
		u.ResetPasswordToken,
		u.ResetPasswordExpires,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// Delete removes a user together with the rows that reference it: the
// user's reviews, the user's products, and the reviews on those products.
// Products the user had reviewed get their aggregate columns recomputed in
// the same transaction so ratings stay the average of the remaining reviews.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "users.Delete", "DELETE FROM users WHERE id = $1")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Capture the products the user reviewed before the rows go away.
	rows, err := tx.Query(ctx, `SELECT DISTINCT product_id FROM product_reviews WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("list reviewed products: %w", err)
	}
	var reviewed []string
	for rows.Next() {
		var productID string
		if err := rows.Scan(&productID); err != nil {
			rows.Close()
			return fmt.Errorf("scan reviewed product id: %w", err)
		}
		reviewed = append(reviewed, productID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate reviewed product ids: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_reviews WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user reviews: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_reviews WHERE product_id IN (SELECT id FROM products WHERE user_id = $1)`, id); err != nil {
		return fmt.Errorf("delete reviews on user products: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user products: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	// Products owned by the user are gone by now, so this touches only the
	// surviving ones.
	if len(reviewed) > 0 {
		recompute := `
			UPDATE products p
			SET ratings = COALESCE((SELECT AVG(r.rating)::double precision FROM product_reviews r WHERE r.product_id = p.id), 0),
			    num_reviews = (SELECT count(*) FROM product_reviews r WHERE r.product_id = p.id),
			    updated_at = NOW()
			WHERE p.id::text = ANY($1)`
		if _, err := tx.Exec(ctx, recompute, reviewed); err != nil {
			return fmt.Errorf("recompute product ratings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "users.Get", query)
	defer func() { end(err) }()

	var u domain.User

	err = scanUserRow(r.pool.QueryRow(ctx, query, args...), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

func scanUserRow(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.AvatarURL,
		&u.ResetPasswordToken,
		&u.ResetPasswordExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
