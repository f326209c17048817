package reservation

import (
	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"
)

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound         = apperr.New(apperr.KindNotFound, "予約が見つかりません")
	ErrReservationNotPending       = apperr.New(apperr.KindInvalidState, "予約は承認待ちではありません")
	ErrReservationNotConfirmed     = apperr.New(apperr.KindInvalidState, "確定済みの予約のみ編集できます")
	ErrReservationAlreadyCancelled = apperr.New(apperr.KindInvalidState, "予約は既にキャンセルされています")
	ErrReservationNotCancellable   = apperr.New(apperr.KindInvalidState, "この状態の予約はキャンセルできません")
	ErrReservationDeleted          = apperr.New(apperr.KindInvalidState, "予約は削除済みです")
	ErrAdminOnly                   = actor.ErrAdminOnly
	ErrNotOwner                    = apperr.New(apperr.KindForbidden, "予約の作成者または管理者のみ実行できます")
	ErrDeleteNotAllowed            = apperr.New(apperr.KindForbidden, "本日以前に開始する予約は削除できません。キャンセルしてください")
	ErrTimeConflict                = apperr.New(apperr.KindConflict, "指定した時間帯は既に予約されています")
	ErrInvalidWindow               = apperr.New(apperr.KindInvalidInput, "終了日時は開始日時より後である必要があります")
	ErrInvalidWindowFormat         = apperr.New(apperr.KindInvalidInput, "日付または時刻の形式が不正です")
	ErrSpaceIDRequired             = apperr.New(apperr.KindInvalidInput, "スペースIDは必須です")
	ErrRequesterIDRequired         = apperr.New(apperr.KindInvalidInput, "予約者IDは必須です")
	ErrTitleRequired               = apperr.New(apperr.KindInvalidInput, "タイトルは必須です")
	ErrInvalidParticipantCount     = apperr.New(apperr.KindInvalidInput, "参加人数は0以上である必要があります")
	ErrInvalidStatus               = apperr.New(apperr.KindInvalidInput, "不明な予約ステータスです")
)
