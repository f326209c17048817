package resource

import (
	"context"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

// Repository は備品・割り当て・申請のリポジトリ
type Repository interface {
	// GetResource はIDから備品を取得する
	GetResource(ctx context.Context, id string) (*Resource, error)

	// GetAssignment はスペースへの備品割り当てを取得する（未割り当ては ErrNotAssignedToSpace）
	GetAssignment(ctx context.Context, spaceID, resourceID string) (*Assignment, error)

	// ListAssignments はスペースに割り当てられた備品一覧を取得する
	ListAssignments(ctx context.Context, spaceID string) ([]*Assignment, error)

	// SaveAssignment は割り当てを作成または上書きする
	SaveAssignment(ctx context.Context, a *Assignment) error

	// UpsertRequest は申請を作成または上書きする（トランザクション必須）
	UpsertRequest(ctx context.Context, tx transaction.Tx, r *Request) error

	// GetRequestForUpdate はトランザクション内で申請を行ロック付きで取得する
	GetRequestForUpdate(ctx context.Context, tx transaction.Tx, reservationID, resourceID string) (*Request, error)

	// UpdateConfirmed は申請の確定数を更新する
	UpdateConfirmed(ctx context.Context, tx transaction.Tx, r *Request) error

	// DeleteRequest は申請を削除する（存在しない場合は ErrRequestNotFound）
	DeleteRequest(ctx context.Context, reservationID, resourceID string) error

	// ListRequests は予約の申請一覧を取得する
	ListRequests(ctx context.Context, reservationID string) ([]*Request, error)
}
