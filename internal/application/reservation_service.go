package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/notification"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
	redislock "github.com/sanosuguru/go-facility-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/metrics"
)

// ReservationService は予約の作成・空き確認・状態遷移を扱う
type ReservationService struct {
	txManager    transaction.Manager
	reservations reservation.Repository
	spaces       space.Repository
	resources    resource.Repository
	history      history.Repository

	lockManager   redislock.LockManagerInterface
	lockTTL       time.Duration
	publisher     notification.Publisher
	policy        notification.Policy
	notifyTimeout time.Duration
	metrics       *metrics.Metrics
	clock         Clock
	loc           *time.Location

	// 発行中の通知
	inflight sync.WaitGroup
}

// NewReservationService は ReservationService を作成する
func NewReservationService(
	txm transaction.Manager,
	reservations reservation.Repository,
	spaces space.Repository,
	resources resource.Repository,
	hist history.Repository,
	opts ...Option,
) *ReservationService {
	s := &ReservationService{
		txManager:     txm,
		reservations:  reservations,
		spaces:        spaces,
		resources:     resources,
		history:       hist,
		lockTTL:       10 * time.Second,
		notifyTimeout: 5 * time.Second,
		metrics:       metrics.Noop(),
		clock:         SystemClock,
		loc:           time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WindowInput は日付と時刻を別々に受け取った時間帯
type WindowInput struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

func (s *ReservationService) parseWindow(in WindowInput) (reservation.Window, error) {
	return reservation.NewWindow(in.StartDate, in.StartTime, in.EndDate, in.EndTime, s.loc)
}

// CreateReservationInput は予約作成の入力
type CreateReservationInput struct {
	Actor     actor.Actor
	SpaceID   string
	Window    WindowInput
	Details   reservation.Details
	Resources []ResourceRequestInput
}

// CreateReservation は予約を作成する
// スペースが承認を要する場合は承認待ち、そうでなければ即確定となる
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (res *reservation.Reservation, err error) {
	defer func() { s.recordCreate(res, err) }()

	w, err := s.parseWindow(in.Window)
	if err != nil {
		return nil, err
	}
	sp, err := s.spaces.GetByID(ctx, in.SpaceID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := reservation.NewReservation(in.SpaceID, in.Actor.ID, w, in.Details, sp.RequiresApproval, now).Validate(); err != nil {
		return nil, err
	}
	if err := sp.CheckBookable(w.Duration()); err != nil {
		return nil, err
	}
	requests, err := buildResourceRequests(ctx, s.resources, in.SpaceID, in.Resources, now)
	if err != nil {
		return nil, err
	}

	release, err := s.lockSpace(ctx, in.SpaceID)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *reservation.Reservation
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		// スペース行のロックで同じスペースへの書き込みを直列化し、確定済みデータで再確認する
		locked, err := s.spaces.LockForBooking(ctx, tx, in.SpaceID)
		if err != nil {
			return err
		}
		if err := locked.CheckBookable(w.Duration()); err != nil {
			return err
		}
		existing, err := s.reservations.ListActiveBySpaceTx(ctx, tx, in.SpaceID, w)
		if err != nil {
			return err
		}
		if len(reservation.FindConflicts(w, existing, "")) > 0 {
			return reservation.ErrTimeConflict
		}

		r := reservation.NewReservation(in.SpaceID, in.Actor.ID, w, in.Details, locked.RequiresApproval, now)
		year := now.In(s.loc).Year()
		if err := s.reservations.LockNumbering(ctx, tx, year); err != nil {
			return err
		}
		count, err := s.reservations.CountCreatedInYear(ctx, tx, year)
		if err != nil {
			return err
		}
		r.Number = reservation.FormatNumber(year, count)

		if err := s.reservations.Create(ctx, tx, r); err != nil {
			return err
		}
		for _, req := range requests {
			req.ReservationID = r.ID
			if err := s.resources.UpsertRequest(ctx, tx, req); err != nil {
				return err
			}
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("予約を作成しました",
		zap.String("reservation_id", created.ID),
		zap.String("number", created.Number),
		zap.String("space_id", created.SpaceID),
		zap.String("status", string(created.Status)),
	)
	if created.Status == reservation.StatusConfirmed {
		s.notify(notification.TypeCreated, created, nil)
	}
	return created, nil
}

// CheckAvailability はスペースの時間帯が空いているかを確認する（読み取りのみ）
// excludeID を指定するとその予約（編集中の自分自身）を競合から除外する
func (s *ReservationService) CheckAvailability(ctx context.Context, spaceID string, in WindowInput, excludeID string) (reservation.Availability, error) {
	w, err := s.parseWindow(in)
	if err != nil {
		return reservation.Availability{}, err
	}
	if _, err := s.spaces.GetByID(ctx, spaceID); err != nil {
		return reservation.Availability{}, err
	}
	existing, err := s.reservations.ListActiveBySpace(ctx, spaceID, w)
	if err != nil {
		return reservation.Availability{}, err
	}
	return reservation.CheckAvailability(w, existing, excludeID), nil
}

// GetReservation は予約を取得する。作成者と管理者のみ閲覧できる
func (s *ReservationService) GetReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.CheckAccess(a); err != nil {
		return nil, err
	}
	return r, nil
}

// ListReservationsInput は予約一覧の条件
type ListReservationsInput struct {
	SpaceID        string
	Status         string
	Mine           bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ListReservations は予約一覧を取得する
// 管理者以外は自分の予約のみ、論理削除済みは管理者のみ参照できる
func (s *ReservationService) ListReservations(ctx context.Context, a actor.Actor, in ListReservationsInput) ([]*reservation.Reservation, error) {
	f := reservation.Filter{SpaceID: in.SpaceID, Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		st, err := reservation.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	if !a.IsAdmin() || in.Mine {
		f.RequesterID = a.ID
	}
	f.IncludeDeleted = a.IsAdmin() && in.IncludeDeleted
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.reservations.List(ctx, f)
}

// ApproveReservation は承認待ちの予約を確定する（管理者のみ）
func (s *ReservationService) ApproveReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	r, err := s.transition(ctx, reservation.ActionApprove, id, func(r *reservation.Reservation) error {
		return r.Approve(a, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(notification.TypeApproved, r, nil)
	return r, nil
}

// RejectReservation は承認待ちの予約を却下する（管理者のみ）
func (s *ReservationService) RejectReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, reservation.ActionReject, id, func(r *reservation.Reservation) error {
		return r.Reject(a, s.clock.Now())
	})
}

// CancelReservation は予約をキャンセルする（作成者または管理者）
func (s *ReservationService) CancelReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	return s.transition(ctx, reservation.ActionCancel, id, func(r *reservation.Reservation) error {
		return r.Cancel(a, s.clock.Now())
	})
}

// transition は行ロックを取った予約に fn を適用して保存する
func (s *ReservationService) transition(ctx context.Context, action reservation.Action, id string, fn func(r *reservation.Reservation) error) (*reservation.Reservation, error) {
	var updated *reservation.Reservation
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		r, err := s.reservations.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		if err := s.reservations.Update(ctx, tx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	s.metrics.ReservationTransitionsTotal.WithLabelValues(string(action), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	logger.Info("予約の状態を変更しました",
		zap.String("reservation_id", updated.ID),
		zap.String("action", string(action)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// EditReservationInput は予約編集の入力。nil の項目は変更しない
type EditReservationInput struct {
	Actor             actor.Actor
	ID                string
	Window            *WindowInput
	Title             *string
	Description       *string
	Motive            *string
	Observations      *string
	ParticipantCount  *int
	ParticipantEmails []string
}

// EditReservation は確定済みの予約を編集し、変更された項目を返す
// 変更前の状態を履歴に残し、変更があれば通知する
func (s *ReservationService) EditReservation(ctx context.Context, in EditReservationInput) (_ *reservation.Reservation, _ []reservation.FieldChange, err error) {
	defer func() {
		s.metrics.ReservationTransitionsTotal.WithLabelValues(string(reservation.ActionEdit), outcome(err)).Inc()
	}()

	current, err := s.reservations.GetByID(ctx, in.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := current.CheckEditable(in.Actor); err != nil {
		return nil, nil, err
	}

	edit := reservation.Edit{
		Title:             in.Title,
		Description:       in.Description,
		Motive:            in.Motive,
		Observations:      in.Observations,
		ParticipantCount:  in.ParticipantCount,
		ParticipantEmails: in.ParticipantEmails,
	}
	var requested *reservation.Window
	if in.Window != nil {
		w, err := s.parseWindow(*in.Window)
		if err != nil {
			return nil, nil, err
		}
		requested = &w
	}
	if requested != nil && !requested.Equal(current.Window) {
		release, err := s.lockSpace(ctx, current.SpaceID)
		if err != nil {
			return nil, nil, err
		}
		defer release()
	}

	var (
		updated  *reservation.Reservation
		changes  []reservation.FieldChange
		snapshot map[string]any
	)
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		r, err := s.reservations.GetByIDForUpdate(ctx, tx, in.ID)
		if err != nil {
			return err
		}
		if err := r.CheckEditable(in.Actor); err != nil {
			return err
		}
		// 時間帯の変更有無はロック後の行で判定する
		edit.Window = nil
		if requested != nil && !requested.Equal(r.Window) {
			if err := s.checkWindowFree(ctx, tx, r, *requested); err != nil {
				return err
			}
			edit.Window = requested
		}
		snapshot = r.EditSnapshot()
		changes, err = r.ApplyEdit(in.Actor, edit, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.reservations.Update(ctx, tx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordHistory(ctx, updated.ID, history.ChangeEdit, snapshot, in.Actor.ID, "")
	if len(changes) > 0 {
		s.notify(notification.TypeEdited, updated, changes)
	}
	return updated, changes, nil
}

// checkWindowFree はスペース行をロックしたうえで、自分自身を除いて新しい時間帯が空いているかを確認する
func (s *ReservationService) checkWindowFree(ctx context.Context, tx transaction.Tx, r *reservation.Reservation, w reservation.Window) error {
	sp, err := s.spaces.LockForBooking(ctx, tx, r.SpaceID)
	if err != nil {
		return err
	}
	if err := sp.CheckBookable(w.Duration()); err != nil {
		return err
	}
	existing, err := s.reservations.ListActiveBySpaceTx(ctx, tx, r.SpaceID, w)
	if err != nil {
		return err
	}
	if len(reservation.FindConflicts(w, existing, r.ID)) > 0 {
		return reservation.ErrTimeConflict
	}
	return nil
}

// DeleteReservation は予約を論理削除する
// 開始日が今日より後の予約のみ対象で、削除前の状態を履歴に残す
func (s *ReservationService) DeleteReservation(ctx context.Context, a actor.Actor, id string) (err error) {
	defer func() {
		s.metrics.ReservationTransitionsTotal.WithLabelValues(string(reservation.ActionDelete), outcome(err)).Inc()
	}()

	var snapshot map[string]any
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		r, err := s.reservations.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		snapshot = r.DeleteSnapshot()
		if err := r.SoftDelete(a, s.clock.Now()); err != nil {
			return err
		}
		return s.reservations.Update(ctx, tx, r)
	})
	if err != nil {
		return err
	}

	logger.Info("予約を削除しました", zap.String("reservation_id", id), zap.String("actor_id", a.ID))
	s.recordHistory(ctx, id, history.ChangeDelete, snapshot, a.ID, history.NoteDeletedByUser)
	return nil
}

// ListHistory は予約の変更履歴を取得する（作成者または管理者）
func (s *ReservationService) ListHistory(ctx context.Context, a actor.Actor, id string) ([]*history.Entry, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.CheckAccess(a); err != nil {
		return nil, err
	}
	return s.history.ListByReservation(ctx, id)
}

// Wait は発行中の通知がすべて終わるまで待つ
func (s *ReservationService) Wait() {
	s.inflight.Wait()
}

// lockSpace は Redis のロックでスペースへの同時書き込みを絞る
// ロックが競合している場合や Redis に障害がある場合はDBの行ロックのみで続行する
func (s *ReservationService) lockSpace(ctx context.Context, spaceID string) (func(), error) {
	if s.lockManager == nil {
		return func() {}, nil
	}

	start := time.Now()
	lock, err := s.lockManager.AcquireLockWithRetry(ctx, "space:"+spaceID, s.lockTTL, 3, 100*time.Millisecond)
	if err != nil {
		if errors.Is(err, redislock.ErrLockNotAcquired) {
			s.metrics.DistributedLockDuration.WithLabelValues("acquire", "contended").Observe(time.Since(start).Seconds())
			logger.Warn("分散ロックが競合しているため行ロックのみで続行します", zap.String("space_id", spaceID))
			return func() {}, nil
		}
		s.metrics.DistributedLockDuration.WithLabelValues("acquire", "failed").Observe(time.Since(start).Seconds())
		logger.Warn("分散ロックを取得できないため行ロックのみで続行します", zap.String("space_id", spaceID), zap.Error(err))
		return func() {}, nil
	}
	s.metrics.DistributedLockDuration.WithLabelValues("acquire", "success").Observe(time.Since(start).Seconds())

	return func() {
		start := time.Now()
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.metrics.DistributedLockDuration.WithLabelValues("release", "failed").Observe(time.Since(start).Seconds())
			logger.Warn("分散ロックの解放に失敗しました", zap.String("space_id", spaceID), zap.Error(err))
			return
		}
		s.metrics.DistributedLockDuration.WithLabelValues("release", "success").Observe(time.Since(start).Seconds())
	}, nil
}

// recordHistory はコミット後に履歴を追記する。失敗しても操作は成功として扱う
func (s *ReservationService) recordHistory(ctx context.Context, reservationID string, ct history.ChangeType, snapshot map[string]any, actorID, note string) {
	entry, err := history.NewEntry(reservationID, ct, snapshot, actorID, note, s.clock.Now())
	if err == nil {
		err = s.history.Append(context.WithoutCancel(ctx), entry)
	}
	if err != nil {
		s.metrics.HistoryWritesTotal.WithLabelValues(string(ct), "failed").Inc()
		logger.Error("履歴の書き込みに失敗しました",
			zap.String("reservation_id", reservationID),
			zap.String("change_type", string(ct)),
			zap.Error(err),
		)
		return
	}
	s.metrics.HistoryWritesTotal.WithLabelValues(string(ct), "success").Inc()
}

// notify は通知依頼を非同期に発行する。失敗はログとメトリクスに残すだけで呼び出し元には返さない
func (s *ReservationService) notify(typ notification.Type, r *reservation.Reservation, changes []reservation.FieldChange) {
	if s.publisher == nil {
		s.metrics.NotificationsTotal.WithLabelValues(string(typ), "skipped").Inc()
		return
	}
	msg := notification.NewMessage(typ, r, s.policy, s.clock.Now())
	msg.Changes = changes

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, msg); err != nil {
			s.metrics.NotificationsTotal.WithLabelValues(string(typ), "failed").Inc()
			logger.Warn("通知依頼の発行に失敗しました",
				zap.String("reservation_id", msg.ReservationID),
				zap.String("type", string(typ)),
				zap.Error(err),
			)
			return
		}
		s.metrics.NotificationsTotal.WithLabelValues(string(typ), "success").Inc()
	}()
}

func (s *ReservationService) recordCreate(res *reservation.Reservation, err error) {
	status := outcome(err)
	if err == nil && res != nil {
		status = string(res.Status)
	}
	s.metrics.ReservationsTotal.WithLabelValues(status).Inc()
}

// outcome はエラーをメトリクスのラベルに変換する
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return "invalid"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindForbidden:
		return "forbidden"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindInvalidState:
		return "invalid_state"
	}
	return "error"
}
