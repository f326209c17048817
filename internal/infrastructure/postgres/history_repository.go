package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
)

type historyRow struct {
	ID            string    `db:"id"`
	ReservationID string    `db:"reservation_id"`
	Snapshot      []byte    `db:"snapshot"`
	ChangeType    string    `db:"change_type"`
	ActorID       string    `db:"actor_id"`
	Note          string    `db:"note"`
	CreatedAt     time.Time `db:"created_at"`
}

// HistoryRepository は変更履歴のPostgreSQL実装（追記のみ）
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository は HistoryRepository を作成する
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append は履歴を追記する
func (r *HistoryRepository) Append(ctx context.Context, e *history.Entry) error {
	query := `
		INSERT INTO reservation_history (reservation_id, snapshot, change_type, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.ReservationID, []byte(e.Snapshot), string(e.ChangeType), e.ActorID, e.Note, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("履歴の書き込みに失敗しました: %w", err)
	}
	return nil
}

// ListByReservation は予約の履歴を古い順に取得する
func (r *HistoryRepository) ListByReservation(ctx context.Context, reservationID string) ([]*history.Entry, error) {
	var rows []historyRow
	query := `
		SELECT id, reservation_id, snapshot, change_type, actor_id, note, created_at
		FROM reservation_history WHERE reservation_id = $1 ORDER BY created_at, id
	`
	if err := r.db.SelectContext(ctx, &rows, query, reservationID); err != nil {
		return nil, fmt.Errorf("履歴の取得に失敗しました: %w", err)
	}
	entries := make([]*history.Entry, len(rows))
	for i, row := range rows {
		entries[i] = &history.Entry{
			ID:            row.ID,
			ReservationID: row.ReservationID,
			Snapshot:      json.RawMessage(row.Snapshot),
			ChangeType:    history.ChangeType(row.ChangeType),
			ActorID:       row.ActorID,
			Note:          row.Note,
			CreatedAt:     row.CreatedAt,
		}
	}
	return entries, nil
}

// インターフェースを満たしているか確認
var _ history.Repository = (*HistoryRepository)(nil)
