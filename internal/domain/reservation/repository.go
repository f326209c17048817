package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

// Filter は予約一覧の絞り込み条件
type Filter struct {
	SpaceID        string
	RequesterID    string
	Status         Status
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する（論理削除済みも含む）
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate は行ロックを取って予約を取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// List は条件に一致する予約一覧を取得する
	List(ctx context.Context, filter Filter) ([]*Reservation, error)

	// ListActiveBySpace はスペースの承認待ち・確定済み予約のうち時間帯と重なるものを取得する
	ListActiveBySpace(ctx context.Context, spaceID string, window Window) ([]*Reservation, error)

	// ListActiveBySpaceTx はトランザクション内で ListActiveBySpace を行う
	ListActiveBySpaceTx(ctx context.Context, tx transaction.Tx, spaceID string, window Window) ([]*Reservation, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// LockNumbering は年ごとの採番をトランザクション終了まで直列化する
	LockNumbering(ctx context.Context, tx transaction.Tx, year int) error

	// CountCreatedInYear は指定年に作成された予約数を返す（論理削除済みを含む）
	CountCreatedInYear(ctx context.Context, tx transaction.Tx, year int) (int, error)

	// HasActiveFrom はスペースに指定日以降開始の有効な予約があるかを返す
	HasActiveFrom(ctx context.Context, spaceID string, from time.Time) (bool, error)

	// CountByStatus は論理削除されていない予約のステータス別件数を返す
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
