package resource

import "github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"

// Resource ドメインのエラー定義
var (
	ErrResourceNotFound          = apperr.New(apperr.KindNotFound, "備品が見つかりません")
	ErrResourceInactive          = apperr.New(apperr.KindNotFound, "備品は利用停止中です")
	ErrNotAssignedToSpace        = apperr.New(apperr.KindInvalidInput, "この備品はスペースに割り当てられていません")
	ErrExceedsMaximum            = apperr.New(apperr.KindInvalidInput, "申請数がスペースの上限を超えています")
	ErrExceedsStock              = apperr.New(apperr.KindInvalidInput, "上限数が備品の総在庫を超えています")
	ErrInvalidQuantity           = apperr.New(apperr.KindInvalidInput, "数量が不正です")
	ErrConfirmedExceedsRequested = apperr.New(apperr.KindInvalidInput, "確定数が申請数を超えています")
	ErrRequestNotFound           = apperr.New(apperr.KindNotFound, "備品申請が見つかりません")
	ErrDuplicateResource         = apperr.New(apperr.KindInvalidInput, "同じ備品が複数回指定されています")
)
