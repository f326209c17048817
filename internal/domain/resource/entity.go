package resource

import (
	"strings"
	"time"

	"github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"
)

// Resource はプロジェクターやマイクなど在庫を持つ貸出備品
type Resource struct {
	ID          string
	Name        string
	Description string
	TotalStock  int
	Active      bool
}

// Assignment はスペースで利用できる備品とその上限数
// 上限数は備品の総在庫を超えない
type Assignment struct {
	SpaceID     string
	ResourceID  string
	MaxQuantity int
}

// NewAssignment はスペースへの備品割り当てを作成する
func NewAssignment(spaceID string, res *Resource, maxQuantity int) (*Assignment, error) {
	if maxQuantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if maxQuantity > res.TotalStock {
		return nil, apperr.Detail(ErrExceedsStock, "総在庫 %d", res.TotalStock)
	}
	return &Assignment{SpaceID: spaceID, ResourceID: res.ID, MaxQuantity: maxQuantity}, nil
}

// CheckRequested は申請数が割り当て上限内かを検証する
func (a *Assignment) CheckRequested(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > a.MaxQuantity {
		return apperr.Detail(ErrExceedsMaximum, "上限 %d", a.MaxQuantity)
	}
	return nil
}

// Request は予約ごとの備品申請
// ConfirmedQuantity が nil のときは未確定
type Request struct {
	ReservationID     string
	ResourceID        string
	RequestedQuantity int
	ConfirmedQuantity *int
	Notes             string
	UpdatedAt         time.Time
}

// NewRequest は割り当て上限を検証して備品申請を作成する
func NewRequest(reservationID string, a *Assignment, quantity int, notes string, now time.Time) (*Request, error) {
	if err := a.CheckRequested(quantity); err != nil {
		return nil, err
	}
	return &Request{
		ReservationID:     reservationID,
		ResourceID:        a.ResourceID,
		RequestedQuantity: quantity,
		Notes:             strings.TrimSpace(notes),
		UpdatedAt:         now,
	}, nil
}

// Confirm は確定数を設定する。確定数は申請数を超えない
func (r *Request) Confirm(quantity int, now time.Time) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity > r.RequestedQuantity {
		return apperr.Detail(ErrConfirmedExceedsRequested, "申請数 %d", r.RequestedQuantity)
	}
	r.ConfirmedQuantity = &quantity
	r.UpdatedAt = now
	return nil
}
