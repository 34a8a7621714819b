package model

import "errors"

// ドメイン共通のエラー。ハンドラーでHTTPステータスに変換する
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRestricted         = errors.New("locations in this area are restricted")
	ErrForbidden          = errors.New("not allowed")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactive           = errors.New("inactive user")
	ErrInvalidToken       = errors.New("token is either not valid or expired")
	ErrBadRequest         = errors.New("bad request")
	ErrUnavailable        = errors.New("service unavailable")
	ErrRateLimited        = errors.New("too many requests")
)

// DetailError 利用者向けのメッセージを持つエラー
type DetailError struct {
	Err     error
	Message string
}

func (e *DetailError) Error() string { return e.Message }

func (e *DetailError) Unwrap() error { return e.Err }

// Detail kindに利用者向けメッセージを付ける
func Detail(kind error, message string) error {
	return &DetailError{Err: kind, Message: message}
}

// MessageOf エラーに付けられた利用者向けメッセージ。なければfallback
func MessageOf(err error, fallback string) string {
	var d *DetailError
	if errors.As(err, &d) {
		return d.Message
	}
	return fallback
}
