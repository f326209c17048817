package reservation

import (
	"strings"
	"time"
)

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ParseStatus は文字列を予約ステータスに変換する
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Reservation は予約エンティティを表す
type Reservation struct {
	ID                string
	Number            string
	SpaceID           string
	RequesterID       string
	Title             string
	Description       string
	Motive            string
	Observations      string
	ParticipantCount  int
	ParticipantEmails []string
	Window            Window
	Status            Status
	RequiresApproval  bool // 作成時にスペースから複写し、以後変更しない
	ApprovedBy        *string
	ApprovedAt        *time.Time
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Details は予約の可変項目
type Details struct {
	Title             string
	Description       string
	Motive            string
	Observations      string
	ParticipantCount  int
	ParticipantEmails []string
}

// NewReservation は新しい予約を作成する
// 初期ステータスはスペースの承認要否で決まる
func NewReservation(spaceID, requesterID string, w Window, d Details, requiresApproval bool, now time.Time) *Reservation {
	status := StatusConfirmed
	if requiresApproval {
		status = StatusPending
	}
	return &Reservation{
		SpaceID:           spaceID,
		RequesterID:       requesterID,
		Title:             strings.TrimSpace(d.Title),
		Description:       d.Description,
		Motive:            d.Motive,
		Observations:      d.Observations,
		ParticipantCount:  d.ParticipantCount,
		ParticipantEmails: normalizeEmails(d.ParticipantEmails),
		Window:            w,
		Status:            status,
		RequiresApproval:  requiresApproval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.SpaceID == "" {
		return ErrSpaceIDRequired
	}
	if r.RequesterID == "" {
		return ErrRequesterIDRequired
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.ParticipantCount < 0 {
		return ErrInvalidParticipantCount
	}
	return r.Window.Validate()
}

// IsDeleted は論理削除済みかを返す
func (r *Reservation) IsDeleted() bool {
	return r.DeletedAt != nil
}

// BlocksSpace は他の予約と競合し得る状態かを返す
func (r *Reservation) BlocksSpace() bool {
	if r.IsDeleted() {
		return false
	}
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

func normalizeEmails(emails []string) []string {
	if len(emails) == 0 {
		return nil
	}
	out := make([]string, 0, len(emails))
	seen := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
