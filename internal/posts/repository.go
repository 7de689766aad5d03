package posts

import "context"

// Repository は投稿ストアへのアクセスを抽象化します。
// typeFilter が nil の場合は全種別を対象にします。
type Repository interface {
	// ListByUser は指定ユーザーの投稿をID順で返します。
	ListByUser(ctx context.Context, userID int64, typeFilter *PostType) ([]Post, error)

	// ListAll は全ユーザーの投稿をID順で返します（コミュニティビュー用）。
	ListAll(ctx context.Context, typeFilter *PostType) ([]Post, error)

	// Create は投稿を追加し、ID採番済みのレコードを返します。
	Create(ctx context.Context, userID int64, np NewPost) (*Post, error)

	// Update は本人所有の投稿を更新します。対象が無ければ false を返します。
	Update(ctx context.Context, userID int64, post Post) (bool, error)

	// Delete は本人所有の投稿を削除します。対象が無ければ false を返します。
	Delete(ctx context.Context, userID int64, id int64) (bool, error)
}
