// Package session はセッションストアのバックエンド実装を提供します。
// 既定のデプロイはプロセス内メモリ（memstore）で、本パッケージの RedisStore は
// セッション状態を外部化するための差し替え実装です。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore は Redis にセッション状態を保存する gin-contrib/sessions 互換ストアです。
// Cookieにはランダムトークン（securecookieで署名済み）のみを載せ、
// 値本体は Redis 側に JSON で保持します。
type RedisStore struct {
	rdb    *redis.Client
	codecs []securecookie.Codec
	opts   *gsessions.Options
	ttl    time.Duration
}

// NewRedisStore は RedisStore を作成します。keyPairs はCookie署名鍵です。
func NewRedisStore(rdb *redis.Client, ttl time.Duration, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		opts: &gsessions.Options{
			Path:   "/",
			MaxAge: int(ttl.Seconds()),
		},
		ttl: ttl,
	}
}

// Options はミドルウェアから渡されるCookie属性を反映します。
func (s *RedisStore) Options(options ginsessions.Options) {
	s.opts = options.ToGorillaOptions()
}

// Get は登録済みのセッションを返します（gorilla sessions の規約どおり）。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はCookieからトークンを復号し、Redisから状態を読み込みます。
// トークンが無い・復号できない・Redisに無い場合は新規セッションを返します。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.opts
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var token string
	if err := securecookie.DecodeMulti(name, cookie.Value, &token, s.codecs...); err != nil {
		return session, nil
	}

	session.ID = token
	if err := s.load(r.Context(), session); err == nil {
		session.IsNew = false
	}
	return session, nil
}

// Save はセッションを永続化しCookieを書き込みます。
// MaxAge が負の場合は破棄（Redis削除 + 失効Cookie）として扱います。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rdb.Del(r.Context(), sessionKeyPrefix+session.ID).Err(); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		token, err := generateToken()
		if err != nil {
			return err
		}
		session.ID = token
	}

	if err := s.persist(r.Context(), session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) persist(ctx context.Context, session *gsessions.Session) error {
	payload, err := json.Marshal(encodeValues(session.Values))
	if err != nil {
		return err
	}

	ttl := s.ttl
	if session.Options.MaxAge > 0 {
		ttl = time.Duration(session.Options.MaxAge) * time.Second
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err()
}

func (s *RedisStore) load(ctx context.Context, session *gsessions.Session) error {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+session.ID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("session not found: %s", session.ID)
		}
		return err
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	for name, value := range values {
		session.Values[name] = value
	}
	return nil
}

// encodeValues は gorilla の map[interface{}]interface{} をJSON化可能な形に写します。
// このアプリで使うキーは文字列のみです。
func encodeValues(values map[any]any) map[string]any {
	encoded := make(map[string]any, len(values))
	for key, value := range values {
		name, ok := key.(string)
		if !ok {
			continue
		}
		encoded[name] = value
	}
	return encoded
}

// generateToken は128ビット以上のエントロピーを持つ推測不能なトークンを返します。
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
