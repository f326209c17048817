package actor

import "github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"

// Role は操作者のロールを表す
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var (
	ErrUnknownRole = apperr.New(apperr.KindForbidden, "不明なロールです")
	ErrAdminOnly   = apperr.New(apperr.KindForbidden, "この操作は管理者のみ実行できます")
)

// ParseRole は文字列をロールに変換する
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", ErrUnknownRole
}

// Actor は認証済みの操作者
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin は管理者かを返す
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns は指定ユーザーIDの所有者本人かを返す
func (a Actor) Owns(ownerID string) bool {
	return a.ID != "" && a.ID == ownerID
}

// RequireAdmin は管理者でなければ ErrAdminOnly を返す
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}
