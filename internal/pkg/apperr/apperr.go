package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの種別を表す（API境界でステータスコードに変換される）
type Kind string

const (
	KindInvalidInput Kind = "INVALID_INPUT"
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindInvalidState Kind = "INVALID_STATE"
	KindInternal     Kind = "INTERNAL"
)

// Error は種別付きのドメインエラー
type Error struct {
	Kind    Kind
	Message string
}

// New は種別付きエラーを作成する
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Detail は元のエラーを保ったまま詳細を付け加える
// errors.Is で元のセンチネルと比較できる
func Detail(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}

// KindOf はエラーチェーンから種別を取り出す。種別がない場合は KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is はエラーが指定した種別かを返す
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus はエラーの種別をHTTPステータスコードに変換する
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
