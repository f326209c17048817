package history

import "context"

// Repository は変更履歴のリポジトリ
type Repository interface {
	// Append は履歴を追記する
	Append(ctx context.Context, entry *Entry) error

	// ListByReservation は予約の履歴を古い順に取得する
	ListByReservation(ctx context.Context, reservationID string) ([]*Entry, error)
}
