package history

import (
	"encoding/json"
	"time"
)

// ChangeType は履歴に残す変更の種類
type ChangeType string

const (
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

// NoteDeletedByUser は論理削除時の備考
const NoteDeletedByUser = "deleted by user"

// Entry は予約の変更履歴。追記のみで更新・削除はしない
// Snapshot は変更前の状態
type Entry struct {
	ID            string
	ReservationID string
	Snapshot      json.RawMessage
	ChangeType    ChangeType
	ActorID       string
	Note          string
	CreatedAt     time.Time
}

// NewEntry は変更前のスナップショットから履歴を作成する
func NewEntry(reservationID string, changeType ChangeType, snapshot map[string]any, actorID, note string, now time.Time) (*Entry, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ReservationID: reservationID,
		Snapshot:      raw,
		ChangeType:    changeType,
		ActorID:       actorID,
		Note:          note,
		CreatedAt:     now,
	}, nil
}
