package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/share-board/internal/dbx"
)

// PostgresRepository は PostgreSQL を使った Repository 実装です。
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, nu NewUser) (*User, error) {
	query := `INSERT INTO users (email, password_hash, name)
	          VALUES ($1, $2, $3)
	          RETURNING id, email, password_hash, name, profile_picture_url, profile_picture_public_id, created_at`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, nu.Email, nu.PasswordHash, nu.Name).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.ProfilePictureURL, &user.ProfilePicturePublic, &user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, password_hash, name, profile_picture_url, profile_picture_public_id, created_at
	          FROM users WHERE email = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, email, password_hash, name, profile_picture_url, profile_picture_public_id, created_at
	          FROM users WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateProfilePicture(ctx context.Context, id int64, secureURL, publicID string) error {
	query := `UPDATE users SET profile_picture_url = $1, profile_picture_public_id = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, secureURL, publicID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.ProfilePictureURL, &user.ProfilePicturePublic, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// isUniqueViolation は PostgreSQL の一意制約違反 (23505) かどうかを判定します。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
