package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcryptでハッシュ化
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化失敗: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword ハッシュと平文が一致するか
func CheckPassword(hashed, password string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// GenerateURLSafeToken 招待・パスワード再設定用のランダムトークン
func GenerateURLSafeToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("トークン生成失敗: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
