// Package users はユーザー情報の永続化レイヤーを提供します。
package users

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound は対象のユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反の場合に返されます。
	ErrDuplicateEmail = errors.New("email already registered")
)

// User はユーザーレコードを表します。
type User struct {
	ID                   int64     `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	Name                 *string   `json:"name,omitempty"`
	ProfilePictureURL    *string   `json:"profile_picture_url,omitempty"`
	ProfilePicturePublic *string   `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
}

// NewUser は登録時の入力を表します。
type NewUser struct {
	Email        string
	PasswordHash string
	Name         *string
}

// Repository はユーザーストアへのアクセスを抽象化します。
type Repository interface {
	// Create はユーザーを追加し、ID採番済みのレコードを返します。
	// メールアドレスが既に存在する場合は ErrDuplicateEmail を返します。
	Create(ctx context.Context, nu NewUser) (*User, error)

	// GetByEmail はメールアドレスでユーザーを検索します。
	// 見つからない場合は ErrNotFound を返します。
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID はIDでユーザーを検索します。
	// 見つからない場合は ErrNotFound を返します。
	GetByID(ctx context.Context, id int64) (*User, error)

	// UpdateProfilePicture はプロフィール画像のURLと公開IDを更新します。
	UpdateProfilePicture(ctx context.Context, id int64, secureURL, publicID string) error
}
