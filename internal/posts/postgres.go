package posts

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, typeFilter *PostType) ([]Post, error) {
	query := `SELECT id, description, completed, category, user_id, post_type
	          FROM posts WHERE user_id = $1`
	args := []any{userID}
	if typeFilter != nil {
		query += ` AND post_type = $2`
		args = append(args, typeFilter.String())
	}
	query += ` ORDER BY id`

	return r.list(ctx, query, args...)
}

func (r *PostgresRepository) ListAll(ctx context.Context, typeFilter *PostType) ([]Post, error) {
	query := `SELECT id, description, completed, category, user_id, post_type FROM posts`
	args := []any{}
	if typeFilter != nil {
		query += ` WHERE post_type = $1`
		args = append(args, typeFilter.String())
	}
	query += ` ORDER BY id`

	return r.list(ctx, query, args...)
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, np NewPost) (*Post, error) {
	query := `INSERT INTO posts (description, completed, category, user_id, post_type)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, description, completed, category, user_id, post_type`

	post := &Post{}
	var storedType string
	err := r.db.QueryRowContext(ctx, query,
		np.Description, false, np.Category, userID, np.PostType.String(),
	).Scan(&post.ID, &post.Description, &post.Completed, &post.Category, &post.UserID, &storedType)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	post.PostType = ParsePostType(storedType)
	return post, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID int64, post Post) (bool, error) {
	query := `UPDATE posts SET description = $1, completed = $2, category = $3, post_type = $4
	          WHERE id = $5 AND user_id = $6`

	result, err := r.db.ExecContext(ctx, query,
		post.Description, post.Completed, post.Category, post.PostType.String(), post.ID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var post Post
		var storedType string
		if err := rows.Scan(&post.ID, &post.Description, &post.Completed, &post.Category, &post.UserID, &storedType); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		post.PostType = ParsePostType(storedType)
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return posts, nil
}
