package space

import "github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"

// Space ドメインのエラー定義
var (
	ErrSpaceNotFound    = apperr.New(apperr.KindNotFound, "スペースが見つかりません")
	ErrNameRequired     = apperr.New(apperr.KindInvalidInput, "スペース名は必須です")
	ErrNameTaken        = apperr.New(apperr.KindInvalidInput, "同じ名前のスペースが既に存在します")
	ErrInvalidCapacity  = apperr.New(apperr.KindInvalidInput, "収容人数は0以上である必要があります")
	ErrInvalidMaxHours  = apperr.New(apperr.KindInvalidInput, "最大利用時間は0以上である必要があります")
	ErrInvalidState     = apperr.New(apperr.KindInvalidInput, "不明な運用状態です")
	ErrNotBookable      = apperr.New(apperr.KindInvalidState, "このスペースは現在予約を受け付けていません")
	ErrExceedsMaxHours  = apperr.New(apperr.KindInvalidInput, "スペースの最大利用時間を超えています")
	ErrHasActiveBooking = apperr.New(apperr.KindInvalidState, "今後の有効な予約があるスペースは削除できません")
	ErrHasReservations  = apperr.New(apperr.KindInvalidState, "予約の記録が残っているスペースは削除できません。運用状態を closed にしてください")
)
