// Package auth は認証・認可機能を提供します。
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/share-board/internal/users"
)

const (
	// SessionCookieName はセッションCookieの名前です。
	SessionCookieName = "sb_session"

	sessionKeyUserID = "user_id"
)

var maxSessionLifetime = 12 * time.Hour

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// ContextUserIDKey は、ハンドラー間でログイン済みユーザーIDを共有するためのキーです。
const ContextUserIDKey = "auth.user_id"

// AuthResponse は認証系エンドポイント共通のレスポンスです。
// バリデーション失敗や認証情報の不一致はHTTPエラーではなく
// success=false のデータとして返します。
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  *int64 `json:"user_id"`
}

// Manager は認証処理をまとめた構造体です。
type Manager struct {
	users    users.Repository
	uploader Uploader
	cleanup  AssetCleanupEnqueuer
}

// NewManager は認証マネージャーを作成します。
// uploader と cleanup は画像サブシステム無効時に nil を許容します。
func NewManager(repo users.Repository, uploader Uploader, cleanup AssetCleanupEnqueuer) *Manager {
	return &Manager{
		users:    repo,
		uploader: uploader,
		cleanup:  cleanup,
	}
}

// Register は POST /auth/register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	name, hasName := c.GetPostForm("name")

	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusOK, failure("Invalid email format"))
		return
	}

	if len(password) < 6 {
		c.JSON(http.StatusOK, failure("Password must be at least 6 characters long"))
		return
	}

	var namePtr *string
	if hasName {
		if strings.TrimSpace(name) == "" {
			c.JSON(http.StatusOK, failure("Name cannot be empty"))
			return
		}
		namePtr = &name
	}

	// 既存メールの事前チェック。INSERTとはトランザクションで括っていないため、
	// 同時登録の競合時は一意制約違反が後段で内部エラーとして表面化する。
	_, err := m.users.GetByEmail(c.Request.Context(), email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, failure("Email already registered"))
		return
	case !errors.Is(err, users.ErrNotFound):
		internalError(c, "Failed to look up user")
		return
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		internalError(c, "Failed to hash password")
		return
	}

	user, err := m.users.Create(c.Request.Context(), users.NewUser{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         namePtr,
	})
	if err != nil {
		internalError(c, "Failed to create user")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		internalError(c, "Failed to set session")
		return
	}

	c.JSON(http.StatusOK, success("Registration successful", user.ID))
}

// Login は POST /auth/login のハンドラーです。
// 未登録メールとパスワード不一致は同一のメッセージを返し、
// アカウントの存在を推測できないようにします。
func (m *Manager) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := m.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusOK, failure("Invalid credentials"))
			return
		}
		internalError(c, "Failed to look up user")
		return
	}

	valid, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		internalError(c, "Failed to verify password")
		return
	}
	if !valid {
		c.JSON(http.StatusOK, failure("Invalid credentials"))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		internalError(c, "Failed to set session")
		return
	}

	c.JSON(http.StatusOK, success("Login successful", user.ID))
}

// Logout は POST /auth/logout のハンドラーです。冪等で、常に成功します。
// 値のクリアだけでなく MaxAge を負にしてセッションを破棄します
// （ストア側のレコード削除と失効Cookieの送出が走る）。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := session.Save(); err != nil {
		internalError(c, "Failed to clear session")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// Check は GET /auth/check のハンドラーです。
// 401を出さずに認証状態を問い合わせるためのエンドポイントです。
func (m *Manager) Check(c *gin.Context) {
	session := sessions.Default(c)
	if userID, ok := readUserID(session.Get(sessionKeyUserID)); ok {
		c.JSON(http.StatusOK, success("Authenticated", userID))
		return
	}
	c.JSON(http.StatusOK, failure("Not authenticated"))
}

// RequireLogin はセッションを検証するミドルウェアを返します。
// 保護ルートはすべてこのゲートを通り、未認証なら401でリクエストを打ち切ります。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := readUserID(session.Get(sessionKeyUserID))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Authentication required",
			})
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// CurrentUserID は RequireLogin 通過後のハンドラーからユーザーIDを取得します。
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// readUserID はセッションに格納されたユーザーIDを読み取ります。
// Redisストア経由ではJSONの復元で数値型が変わるため複数の型を受け付けます。
func readUserID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	case float64:
		return int64(id), true
	default:
		return 0, false
	}
}

func success(message string, userID int64) AuthResponse {
	return AuthResponse{Success: true, Message: message, UserID: &userID}
}

func failure(message string) AuthResponse {
	return AuthResponse{Success: false, Message: message}
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": message,
	})
}
