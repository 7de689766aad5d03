// Package posts はコミュニティ投稿のモデルと永続化・HTTPハンドラーを提供します。
package posts

// PostType は投稿の種別を表す閉じた集合です。
type PostType string

const (
	// PostTypeOffer は「提供します」投稿です。
	PostTypeOffer PostType = "offer"
	// PostTypeRequest は「求めています」投稿です。
	PostTypeRequest PostType = "request"
)

// ParsePostType はストレージ上の文字列表現を PostType に写します。
// 未知の値は request に倒します（保存データを黙って再分類するため、
// 厳密には拒否すべきかもしれない既知の挙動）。
func ParsePostType(s string) PostType {
	switch s {
	case string(PostTypeOffer):
		return PostTypeOffer
	case string(PostTypeRequest):
		return PostTypeRequest
	default:
		return PostTypeRequest
	}
}

// String はストレージ表現を返します。
func (t PostType) String() string {
	return string(t)
}

// Post は投稿レコードを表します。
type Post struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Category    string   `json:"category"`
	UserID      int64    `json:"user_id"`
	PostType    PostType `json:"post_type"`
}

// NewPost は投稿作成時の入力を表します。
type NewPost struct {
	Description string
	Category    string
	PostType    PostType
}

// DeleteResponse は削除エンドポイントのレスポンスです。
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}
