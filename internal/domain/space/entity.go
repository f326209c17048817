package space

import (
	"strings"
	"time"
)

// State はスペースの運用状態を表す
type State string

const (
	StateAvailable   State = "available"
	StateMaintenance State = "maintenance"
	StateClosed      State = "closed"
)

// ParseState は文字列を運用状態に変換する
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateAvailable, StateMaintenance, StateClosed:
		return State(s), nil
	case "":
		return StateAvailable, nil
	}
	return "", ErrInvalidState
}

// Space は予約可能な施設（教室、講堂など）
type Space struct {
	ID               string
	Name             string
	Description      string
	Capacity         int
	Location         string
	State            State
	RequiresApproval bool
	MaxHours         int // 1回の予約の上限時間。0 は無制限
	SecretariatID    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSpace は新しいスペースを作成する
func NewSpace(name, description, location string, capacity, maxHours int, requiresApproval bool, now time.Time) *Space {
	return &Space{
		Name:             strings.TrimSpace(name),
		Description:      description,
		Location:         location,
		Capacity:         capacity,
		State:            StateAvailable,
		RequiresApproval: requiresApproval,
		MaxHours:         maxHours,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate はスペースの検証を行う
func (s *Space) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNameRequired
	}
	if s.Capacity < 0 {
		return ErrInvalidCapacity
	}
	if s.MaxHours < 0 {
		return ErrInvalidMaxHours
	}
	if _, err := ParseState(string(s.State)); err != nil {
		return err
	}
	return nil
}

// CheckBookable は予約を受け付けられるか、時間帯の長さが上限内かを検証する
func (s *Space) CheckBookable(duration time.Duration) error {
	if s.State != StateAvailable {
		return ErrNotBookable
	}
	if s.MaxHours > 0 && duration > time.Duration(s.MaxHours)*time.Hour {
		return ErrExceedsMaxHours
	}
	return nil
}
