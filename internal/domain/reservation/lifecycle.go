package reservation

import (
	"strconv"
	"strings"
	"time"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
)

// Action は予約に対する操作を表す
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
)

// transitions は状態遷移表。表にない組み合わせは不正な遷移
// 論理削除はステータスと直交するためこの表には含めない
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusConfirmed,
		ActionReject:  StatusRejected,
		ActionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		ActionCancel: StatusCancelled,
		ActionEdit:   StatusConfirmed,
	},
	StatusRejected:  {},
	StatusCancelled: {},
}

// authorize は操作者がその操作を実行できるかを判定する
func (r *Reservation) authorize(action Action, a actor.Actor) error {
	switch action {
	case ActionApprove, ActionReject:
		return a.RequireAdmin()
	case ActionCancel, ActionEdit, ActionDelete:
		return r.CheckAccess(a)
	}
	return ErrNotOwner
}

// CheckAccess は予約の作成者または管理者かを判定する（閲覧や備品申請に使う）
func (r *Reservation) CheckAccess(a actor.Actor) error {
	if a.IsAdmin() || a.Owns(r.RequesterID) {
		return nil
	}
	return ErrNotOwner
}

func stateError(action Action, from Status) error {
	switch action {
	case ActionApprove, ActionReject:
		return ErrReservationNotPending
	case ActionCancel:
		if from == StatusCancelled {
			return ErrReservationAlreadyCancelled
		}
		return ErrReservationNotCancellable
	case ActionEdit:
		return ErrReservationNotConfirmed
	}
	return ErrReservationNotCancellable
}

// next は権限と現在の状態から遷移先を決める。権限の判定が状態の判定より先
func (r *Reservation) next(action Action, a actor.Actor) (Status, error) {
	if err := r.authorize(action, a); err != nil {
		return "", err
	}
	if r.IsDeleted() {
		return "", ErrReservationDeleted
	}
	to, ok := transitions[r.Status][action]
	if !ok {
		return "", stateError(action, r.Status)
	}
	return to, nil
}

// Approve は承認待ちの予約を確定する
func (r *Reservation) Approve(approver actor.Actor, now time.Time) error {
	to, err := r.next(ActionApprove, approver)
	if err != nil {
		return err
	}
	approverID := approver.ID
	r.Status = to
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject は承認待ちの予約を却下する
func (r *Reservation) Reject(a actor.Actor, now time.Time) error {
	to, err := r.next(ActionReject, a)
	if err != nil {
		return err
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// Cancel は予約をキャンセルする
func (r *Reservation) Cancel(a actor.Actor, now time.Time) error {
	to, err := r.next(ActionCancel, a)
	if err != nil {
		return err
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// CheckEditable は編集可能かを判定する（変更は加えない）
func (r *Reservation) CheckEditable(a actor.Actor) error {
	_, err := r.next(ActionEdit, a)
	return err
}

// Edit は予約の変更内容。nil の項目は変更しない
type Edit struct {
	Window            *Window
	Title             *string
	Description       *string
	Motive            *string
	Observations      *string
	ParticipantCount  *int
	ParticipantEmails []string
}

// FieldChange は通知に載せる変更項目
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ApplyEdit は確定済み予約に変更を適用し、変更された項目を返す
func (r *Reservation) ApplyEdit(a actor.Actor, e Edit, now time.Time) ([]FieldChange, error) {
	if err := r.CheckEditable(a); err != nil {
		return nil, err
	}

	updated := *r
	if e.Window != nil {
		updated.Window = *e.Window
	}
	if e.Title != nil {
		updated.Title = strings.TrimSpace(*e.Title)
	}
	if e.Description != nil {
		updated.Description = *e.Description
	}
	if e.Motive != nil {
		updated.Motive = *e.Motive
	}
	if e.Observations != nil {
		updated.Observations = *e.Observations
	}
	if e.ParticipantCount != nil {
		updated.ParticipantCount = *e.ParticipantCount
	}
	if e.ParticipantEmails != nil {
		updated.ParticipantEmails = normalizeEmails(e.ParticipantEmails)
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	changes := diff(r, &updated)
	updated.UpdatedAt = now
	*r = updated
	return changes, nil
}

func diff(before, after *Reservation) []FieldChange {
	var changes []FieldChange
	if !before.Window.Equal(after.Window) {
		changes = append(changes, FieldChange{Field: "window", Before: formatWindow(before.Window), After: formatWindow(after.Window)})
	}
	if before.Title != after.Title {
		changes = append(changes, FieldChange{Field: "title", Before: before.Title, After: after.Title})
	}
	if before.Description != after.Description {
		changes = append(changes, FieldChange{Field: "description", Before: before.Description, After: after.Description})
	}
	if before.ParticipantCount != after.ParticipantCount {
		changes = append(changes, FieldChange{
			Field:  "participant_count",
			Before: strconv.Itoa(before.ParticipantCount),
			After:  strconv.Itoa(after.ParticipantCount),
		})
	}
	if before.Motive != after.Motive {
		changes = append(changes, FieldChange{Field: "motive", Before: before.Motive, After: after.Motive})
	}
	return changes
}

func formatWindow(w Window) string {
	return w.StartDate() + " " + w.StartClock() + " - " + w.EndDate() + " " + w.EndClock()
}

// SoftDelete は予約を論理削除する
// 開始日が今日より後の予約のみ削除でき、それ以外はキャンセルのみ可能
func (r *Reservation) SoftDelete(a actor.Actor, now time.Time) error {
	if err := r.authorize(ActionDelete, a); err != nil {
		return err
	}
	if r.IsDeleted() {
		return ErrReservationDeleted
	}
	if !r.Window.StartsAfterDay(now) {
		return ErrDeleteNotAllowed
	}
	r.DeletedAt = &now
	r.UpdatedAt = now
	return nil
}

// EditSnapshot は編集前の可変項目を返す
func (r *Reservation) EditSnapshot() map[string]any {
	return map[string]any{
		"title":             r.Title,
		"description":       r.Description,
		"motive":            r.Motive,
		"observations":      r.Observations,
		"participant_count": r.ParticipantCount,
		"start_date":        r.Window.StartDate(),
		"start_time":        r.Window.StartClock(),
		"end_date":          r.Window.EndDate(),
		"end_time":          r.Window.EndClock(),
		"status":            string(r.Status),
	}
}

// DeleteSnapshot は削除前の状態を返す
func (r *Reservation) DeleteSnapshot() map[string]any {
	return map[string]any{
		"previous_status": string(r.Status),
		"start_date":      r.Window.StartDate(),
		"title":           r.Title,
	}
}
