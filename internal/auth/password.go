package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword はパスワードをbcrypt（ソルト付き・既定コスト）でハッシュ化します。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword はパスワードとハッシュを照合します。
// 不一致は (false, nil) であり、エラーはbcrypt自体が実行できない場合のみ返します。
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
