// Package notification は予約の通知依頼を表す
// 配信はこのサービスの外で行い、ここではブローカーへ依頼を発行するだけ
package notification

import (
	"context"
	"time"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
)

// Type は通知の種類
type Type string

const (
	TypeCreated  Type = "reservation.created"
	TypeApproved Type = "reservation.approved"
	TypeEdited   Type = "reservation.edited"
)

// Message は通知依頼の内容
type Message struct {
	Type          Type                      `json:"type"`
	ReservationID string                    `json:"reservation_id"`
	Number        string                    `json:"number"`
	Title         string                    `json:"title"`
	SpaceID       string                    `json:"space_id"`
	StartDate     string                    `json:"start_date"`
	StartTime     string                    `json:"start_time"`
	EndDate       string                    `json:"end_date"`
	EndTime       string                    `json:"end_time"`
	Status        string                    `json:"status"`
	RequesterID   string                    `json:"requester_id"`
	ApproverID    string                    `json:"approver_id,omitempty"`
	Recipients    []string                  `json:"recipients"`
	Changes       []reservation.FieldChange `json:"changes,omitempty"`
	OccurredAt    time.Time                 `json:"occurred_at"`
}

// Policy は通知先の決め方
type Policy struct {
	// Recipients は常に通知する宛先（事務局など）
	Recipients []string
	// IncludeRequester が true のとき予約の作成者も宛先に含める
	// 作成者IDからアドレスへの解決は配信側で行う
	IncludeRequester bool
	// IncludeParticipants が true のとき参加者のメールアドレスも宛先に含める
	IncludeParticipants bool
}

// NewMessage は予約から通知依頼を作成する
func NewMessage(typ Type, r *reservation.Reservation, p Policy, now time.Time) *Message {
	recipients := append([]string(nil), p.Recipients...)
	if p.IncludeRequester && r.RequesterID != "" {
		recipients = appendUnique(recipients, r.RequesterID)
	}
	if p.IncludeParticipants {
		recipients = appendUnique(recipients, r.ParticipantEmails...)
	}
	m := &Message{
		Type:          typ,
		ReservationID: r.ID,
		Number:        r.Number,
		Title:         r.Title,
		SpaceID:       r.SpaceID,
		StartDate:     r.Window.StartDate(),
		StartTime:     r.Window.StartClock(),
		EndDate:       r.Window.EndDate(),
		EndTime:       r.Window.EndClock(),
		Status:        string(r.Status),
		RequesterID:   r.RequesterID,
		Recipients:    recipients,
		OccurredAt:    now,
	}
	if r.ApprovedBy != nil {
		m.ApproverID = *r.ApprovedBy
	}
	return m
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	return dst
}

// Publisher は通知依頼をブローカーへ発行する
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}
