package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
)

type resourceDeps struct {
	txManager *MockTxManager
	tx        *MockTx
	resRepo   *MockReservationRepository
	spaceRepo *MockSpaceRepository
	itemRepo  *MockResourceRepository
	service   *ResourceService
}

func newResourceDeps() *resourceDeps {
	d := &resourceDeps{
		txManager: new(MockTxManager),
		tx:        new(MockTx),
		resRepo:   new(MockReservationRepository),
		spaceRepo: new(MockSpaceRepository),
		itemRepo:  new(MockResourceRepository),
	}
	d.service = NewResourceService(d.txManager, d.resRepo, d.spaceRepo, d.itemRepo, fixedClock{now: testNow})
	return d
}

var (
	microphone = &resource.Resource{ID: "mic", Name: "Microphone", TotalStock: 6, Active: true}
	micSlot    = &resource.Assignment{SpaceID: "space-1", ResourceID: "mic", MaxQuantity: 4}
)

func TestResourceService_RequestResources(t *testing.T) {
	t.Run("作成者は備品を申請できる", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		r := testReservation(t, "res-1", reservation.StatusConfirmed, "2025-05-01", "09:00", "11:00")

		d.resRepo.On("GetByID", ctx, "res-1").Return(r, nil)
		d.itemRepo.On("GetResource", ctx, "mic").Return(microphone, nil)
		d.itemRepo.On("GetAssignment", ctx, "space-1", "mic").Return(micSlot, nil)
		d.txManager.On("Begin", ctx).Return(d.tx, nil)
		d.tx.On("Commit").Return(nil)
		d.itemRepo.On("UpsertRequest", ctx, d.tx, mock.MatchedBy(func(req *resource.Request) bool {
			return req.ReservationID == "res-1" && req.RequestedQuantity == 2 && req.Notes == "podium"
		})).Return(nil)

		got, err := d.service.RequestResources(ctx, ownerUser, "res-1", []ResourceRequestInput{
			{ResourceID: "mic", Quantity: 2, Notes: " podium "},
		})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].ConfirmedQuantity)
		d.itemRepo.AssertExpectations(t)
	})

	t.Run("他人の予約には申請できない", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		r := testReservation(t, "res-1", reservation.StatusConfirmed, "2025-05-01", "09:00", "11:00")
		d.resRepo.On("GetByID", ctx, "res-1").Return(r, nil)

		_, err := d.service.RequestResources(ctx, otherUser, "res-1", []ResourceRequestInput{{ResourceID: "mic", Quantity: 1}})

		assert.ErrorIs(t, err, reservation.ErrNotOwner)
		d.itemRepo.AssertNotCalled(t, "GetResource", mock.Anything, mock.Anything)
	})

	t.Run("論理削除済みの予約には申請できない", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		r := testReservation(t, "res-1", reservation.StatusConfirmed, "2025-05-01", "09:00", "11:00")
		deletedAt := testNow
		r.DeletedAt = &deletedAt
		d.resRepo.On("GetByID", ctx, "res-1").Return(r, nil)

		_, err := d.service.RequestResources(ctx, ownerUser, "res-1", []ResourceRequestInput{{ResourceID: "mic", Quantity: 1}})

		assert.ErrorIs(t, err, reservation.ErrReservationDeleted)
	})

	t.Run("利用停止中の備品", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		r := testReservation(t, "res-1", reservation.StatusConfirmed, "2025-05-01", "09:00", "11:00")
		d.resRepo.On("GetByID", ctx, "res-1").Return(r, nil)
		d.itemRepo.On("GetResource", ctx, "mic").Return(&resource.Resource{ID: "mic", TotalStock: 6}, nil)

		_, err := d.service.RequestResources(ctx, ownerUser, "res-1", []ResourceRequestInput{{ResourceID: "mic", Quantity: 1}})

		assert.ErrorIs(t, err, resource.ErrResourceInactive)
		d.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestResourceService_ConfirmResource(t *testing.T) {
	newRequest := func() *resource.Request {
		return &resource.Request{ReservationID: "res-1", ResourceID: "mic", RequestedQuantity: 3}
	}

	t.Run("管理者は申請数以内で確定できる", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		req := newRequest()
		d.txManager.On("Begin", ctx).Return(d.tx, nil)
		d.tx.On("Commit").Return(nil)
		d.itemRepo.On("GetRequestForUpdate", ctx, d.tx, "res-1", "mic").Return(req, nil)
		d.itemRepo.On("UpdateConfirmed", ctx, d.tx, req).Return(nil)

		got, err := d.service.ConfirmResource(ctx, adminUser, "res-1", "mic", 2)

		require.NoError(t, err)
		require.NotNil(t, got.ConfirmedQuantity)
		assert.Equal(t, 2, *got.ConfirmedQuantity)
		d.tx.AssertCalled(t, "Commit")
		d.tx.AssertNotCalled(t, "Rollback")
	})

	t.Run("申請数を超える確定", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		d.txManager.On("Begin", ctx).Return(d.tx, nil)
		d.tx.On("Rollback").Return(nil)
		d.itemRepo.On("GetRequestForUpdate", ctx, d.tx, "res-1", "mic").Return(newRequest(), nil)

		_, err := d.service.ConfirmResource(ctx, adminUser, "res-1", "mic", 4)

		assert.ErrorIs(t, err, resource.ErrConfirmedExceedsRequested)
		d.itemRepo.AssertNotCalled(t, "UpdateConfirmed", mock.Anything, mock.Anything, mock.Anything)
		d.tx.AssertCalled(t, "Rollback")
		d.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("ロック取得後の申請数で検証する", func(t *testing.T) {
		// 同時に申請数が 1 に減らされた後の行をロック越しに読む
		d := newResourceDeps()
		ctx := context.Background()
		shrunk := &resource.Request{ReservationID: "res-1", ResourceID: "mic", RequestedQuantity: 1}
		d.txManager.On("Begin", ctx).Return(d.tx, nil)
		d.tx.On("Rollback").Return(nil)
		d.itemRepo.On("GetRequestForUpdate", ctx, d.tx, "res-1", "mic").Return(shrunk, nil)

		_, err := d.service.ConfirmResource(ctx, adminUser, "res-1", "mic", 2)

		assert.ErrorIs(t, err, resource.ErrConfirmedExceedsRequested)
		d.itemRepo.AssertNotCalled(t, "UpdateConfirmed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("更新時の制約違反はロールバックする", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		req := newRequest()
		d.txManager.On("Begin", ctx).Return(d.tx, nil)
		d.tx.On("Rollback").Return(nil)
		d.itemRepo.On("GetRequestForUpdate", ctx, d.tx, "res-1", "mic").Return(req, nil)
		d.itemRepo.On("UpdateConfirmed", ctx, d.tx, req).Return(resource.ErrConfirmedExceedsRequested)

		got, err := d.service.ConfirmResource(ctx, adminUser, "res-1", "mic", 3)

		assert.ErrorIs(t, err, resource.ErrConfirmedExceedsRequested)
		assert.Nil(t, got)
		d.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("申請が存在しない", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		d.txManager.On("Begin", ctx).Return(d.tx, nil)
		d.tx.On("Rollback").Return(nil)
		d.itemRepo.On("GetRequestForUpdate", ctx, d.tx, "res-1", "mic").Return(nil, resource.ErrRequestNotFound)

		_, err := d.service.ConfirmResource(ctx, adminUser, "res-1", "mic", 1)

		assert.ErrorIs(t, err, resource.ErrRequestNotFound)
	})

	t.Run("一般ユーザーは確定できない", func(t *testing.T) {
		d := newResourceDeps()

		_, err := d.service.ConfirmResource(context.Background(), ownerUser, "res-1", "mic", 1)

		assert.ErrorIs(t, err, reservation.ErrAdminOnly)
		d.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestResourceService_RemoveResource(t *testing.T) {
	d := newResourceDeps()
	ctx := context.Background()
	r := testReservation(t, "res-1", reservation.StatusConfirmed, "2025-05-01", "09:00", "11:00")
	d.resRepo.On("GetByID", ctx, "res-1").Return(r, nil)
	d.itemRepo.On("DeleteRequest", ctx, "res-1", "mic").Return(resource.ErrRequestNotFound)

	err := d.service.RemoveResource(ctx, ownerUser, "res-1", "mic")

	assert.ErrorIs(t, err, resource.ErrRequestNotFound)
}

func TestResourceService_AssignResource(t *testing.T) {
	t.Run("総在庫以内で割り当てる", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		d.spaceRepo.On("GetByID", ctx, "space-1").Return(openSpace(false), nil)
		d.itemRepo.On("GetResource", ctx, "mic").Return(microphone, nil)
		d.itemRepo.On("SaveAssignment", ctx, mock.MatchedBy(func(a *resource.Assignment) bool {
			return a.SpaceID == "space-1" && a.MaxQuantity == 6
		})).Return(nil)

		got, err := d.service.AssignResource(ctx, adminUser, "space-1", "mic", 6)

		require.NoError(t, err)
		assert.Equal(t, "mic", got.ResourceID)
	})

	t.Run("総在庫を超える割り当て", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		d.spaceRepo.On("GetByID", ctx, "space-1").Return(openSpace(false), nil)
		d.itemRepo.On("GetResource", ctx, "mic").Return(microphone, nil)

		_, err := d.service.AssignResource(ctx, adminUser, "space-1", "mic", 7)

		assert.ErrorIs(t, err, resource.ErrExceedsStock)
	})

	t.Run("存在しないスペース", func(t *testing.T) {
		d := newResourceDeps()
		ctx := context.Background()
		d.spaceRepo.On("GetByID", ctx, "missing").Return(nil, space.ErrSpaceNotFound)

		_, err := d.service.AssignResource(ctx, adminUser, "missing", "mic", 1)

		assert.ErrorIs(t, err, space.ErrSpaceNotFound)
	})
}
