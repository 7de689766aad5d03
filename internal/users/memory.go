package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository はメモリ上にユーザーを保持する Repository 実装です。
// テストおよびデータベースなしのローカル起動で使用します。
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*User
}

// NewMemoryRepository は MemoryRepository を作成します。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byID:   make(map[int64]*User),
	}
}

func (r *MemoryRepository) Create(_ context.Context, nu NewUser) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == nu.Email {
			return nil, ErrDuplicateEmail
		}
	}

	user := &User{
		ID:           r.nextID,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Name:         nu.Name,
		CreatedAt:    time.Now().UTC(),
	}
	r.byID[user.ID] = user
	r.nextID++

	clone := *user
	return &clone, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *MemoryRepository) UpdateProfilePicture(_ context.Context, id int64, secureURL, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.ProfilePictureURL = &secureURL
	u.ProfilePicturePublic = &publicID
	return nil
}
