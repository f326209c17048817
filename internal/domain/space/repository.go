package space

import (
	"context"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

// Repository はスペースリポジトリのインターフェース
type Repository interface {
	// Create は新しいスペースを作成する（名前の重複は ErrNameTaken）
	Create(ctx context.Context, space *Space) error

	// GetByID はIDからスペースを取得する
	GetByID(ctx context.Context, id string) (*Space, error)

	// List はスペース一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Space, error)

	// Update はスペースを更新する（名前の重複は ErrNameTaken）
	Update(ctx context.Context, space *Space) error

	// Delete はスペースを削除する
	Delete(ctx context.Context, id string) error

	// LockForBooking はスペース行をロックして取得する（トランザクション必須）
	// 同じスペースへの予約書き込みはこのロックで直列化される
	LockForBooking(ctx context.Context, tx transaction.Tx, id string) (*Space, error)
}
