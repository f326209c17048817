package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

// ResourceRequestInput は備品申請1件分の入力
type ResourceRequestInput struct {
	ResourceID string
	Quantity   int
	Notes      string
}

// buildResourceRequests はすべての申請を検証してから申請エンティティを返す
// 1件でも不正なら何も返さない
func buildResourceRequests(ctx context.Context, repo resource.Repository, spaceID string, inputs []ResourceRequestInput, now time.Time) ([]*resource.Request, error) {
	requests := make([]*resource.Request, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if seen[in.ResourceID] {
			return nil, resource.ErrDuplicateResource
		}
		seen[in.ResourceID] = true

		res, err := repo.GetResource(ctx, in.ResourceID)
		if err != nil {
			return nil, err
		}
		if !res.Active {
			return nil, resource.ErrResourceInactive
		}
		assignment, err := repo.GetAssignment(ctx, spaceID, in.ResourceID)
		if err != nil {
			return nil, err
		}
		req, err := resource.NewRequest("", assignment, in.Quantity, in.Notes, now)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// ResourceService は予約ごとの備品申請とスペースへの備品割り当てを扱う
type ResourceService struct {
	txManager    transaction.Manager
	reservations reservation.Repository
	spaces       space.Repository
	resources    resource.Repository
	clock        Clock
}

// NewResourceService は ResourceService を作成する
func NewResourceService(txm transaction.Manager, reservations reservation.Repository, spaces space.Repository, resources resource.Repository, clock Clock) *ResourceService {
	if clock == nil {
		clock = SystemClock
	}
	return &ResourceService{txManager: txm, reservations: reservations, spaces: spaces, resources: resources, clock: clock}
}

// accessible は予約が存在し、操作者が作成者か管理者で、論理削除されていないことを確認する
func (s *ResourceService) accessible(ctx context.Context, a actor.Actor, reservationID string) (*reservation.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := r.CheckAccess(a); err != nil {
		return nil, err
	}
	if r.IsDeleted() {
		return nil, reservation.ErrReservationDeleted
	}
	return r, nil
}

// RequestResources は予約に備品を申請する
// 既存の申請は上書きされ、すべての申請を検証してから1つのトランザクションで書き込む
func (s *ResourceService) RequestResources(ctx context.Context, a actor.Actor, reservationID string, inputs []ResourceRequestInput) ([]*resource.Request, error) {
	r, err := s.accessible(ctx, a, reservationID)
	if err != nil {
		return nil, err
	}
	requests, err := buildResourceRequests(ctx, s.resources, r.SpaceID, inputs, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		for _, req := range requests {
			req.ReservationID = r.ID
			if err := s.resources.UpsertRequest(ctx, tx, req); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("備品を申請しました", zap.String("reservation_id", r.ID), zap.Int("count", len(requests)))
	return requests, nil
}

// ConfirmResource は申請の確定数を設定する（管理者のみ）
func (s *ResourceService) ConfirmResource(ctx context.Context, a actor.Actor, reservationID, resourceID string, quantity int) (*resource.Request, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	var req *resource.Request
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		locked, err := s.resources.GetRequestForUpdate(ctx, tx, reservationID, resourceID)
		if err != nil {
			return err
		}
		if err := locked.Confirm(quantity, s.clock.Now()); err != nil {
			return err
		}
		if err := s.resources.UpdateConfirmed(ctx, tx, locked); err != nil {
			return err
		}
		req = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RemoveResource は申請を取り消す（作成者または管理者）
func (s *ResourceService) RemoveResource(ctx context.Context, a actor.Actor, reservationID, resourceID string) error {
	if _, err := s.accessible(ctx, a, reservationID); err != nil {
		return err
	}
	return s.resources.DeleteRequest(ctx, reservationID, resourceID)
}

// ListResources は予約の申請一覧を取得する
func (s *ResourceService) ListResources(ctx context.Context, a actor.Actor, reservationID string) ([]*resource.Request, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := r.CheckAccess(a); err != nil {
		return nil, err
	}
	return s.resources.ListRequests(ctx, reservationID)
}

// AssignResource はスペースに備品を割り当てる（管理者のみ）
func (s *ResourceService) AssignResource(ctx context.Context, a actor.Actor, spaceID, resourceID string, maxQuantity int) (*resource.Assignment, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.spaces.GetByID(ctx, spaceID); err != nil {
		return nil, err
	}
	res, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	assignment, err := resource.NewAssignment(spaceID, res, maxQuantity)
	if err != nil {
		return nil, err
	}
	if err := s.resources.SaveAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// ListAssignments はスペースで利用できる備品の一覧を取得する
func (s *ResourceService) ListAssignments(ctx context.Context, spaceID string) ([]*resource.Assignment, error) {
	if _, err := s.spaces.GetByID(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.resources.ListAssignments(ctx, spaceID)
}
