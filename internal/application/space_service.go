package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
	redisinfra "github.com/sanosuguru/go-facility-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

const spaceCacheTTL = 5 * time.Minute

// SpaceCache はスペースの読み取りキャッシュ
type SpaceCache interface {
	Get(ctx context.Context, id string) (*space.Space, error)
	Set(ctx context.Context, s *space.Space, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}

// SpaceService はスペースの管理を扱う
type SpaceService struct {
	spaces       space.Repository
	reservations reservation.Repository
	cache        SpaceCache
	clock        Clock
	loc          *time.Location
}

// NewSpaceService は SpaceService を作成する。cache が nil のときはキャッシュを使わない
func NewSpaceService(spaces space.Repository, reservations reservation.Repository, cache SpaceCache, clock Clock, loc *time.Location) *SpaceService {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SpaceService{spaces: spaces, reservations: reservations, cache: cache, clock: clock, loc: loc}
}

// CreateSpaceInput はスペース作成の入力
type CreateSpaceInput struct {
	Name             string
	Description      string
	Location         string
	Capacity         int
	MaxHours         int
	RequiresApproval bool
	SecretariatID    *string
}

// CreateSpace はスペースを作成する（管理者のみ）
func (s *SpaceService) CreateSpace(ctx context.Context, a actor.Actor, in CreateSpaceInput) (*space.Space, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	sp := space.NewSpace(in.Name, in.Description, in.Location, in.Capacity, in.MaxHours, in.RequiresApproval, s.clock.Now())
	sp.SecretariatID = in.SecretariatID
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	if err := s.spaces.Create(ctx, sp); err != nil {
		return nil, err
	}
	logger.Info("スペースを作成しました", zap.String("space_id", sp.ID), zap.String("name", sp.Name))
	return sp, nil
}

// GetSpace はスペースを取得する。キャッシュがあれば先に参照する
func (s *SpaceService) GetSpace(ctx context.Context, id string) (*space.Space, error) {
	if s.cache != nil {
		sp, err := s.cache.Get(ctx, id)
		if err == nil {
			return sp, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("スペースキャッシュの取得に失敗しました", zap.String("space_id", id), zap.Error(err))
		}
	}

	sp, err := s.spaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sp, spaceCacheTTL); err != nil {
			logger.Warn("スペースキャッシュの保存に失敗しました", zap.String("space_id", id), zap.Error(err))
		}
	}
	return sp, nil
}

// ListSpaces はスペース一覧を取得する
func (s *SpaceService) ListSpaces(ctx context.Context, limit, offset int) ([]*space.Space, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.spaces.List(ctx, limit, offset)
}

// UpdateSpaceInput はスペース更新の入力。nil の項目は変更しない
type UpdateSpaceInput struct {
	ID               string
	Name             *string
	Description      *string
	Location         *string
	Capacity         *int
	MaxHours         *int
	RequiresApproval *bool
	State            *string
	SecretariatID    *string
}

// UpdateSpace はスペースを更新する（管理者のみ）
// 承認要否の変更は以後に作成される予約にのみ影響する
func (s *SpaceService) UpdateSpace(ctx context.Context, a actor.Actor, in UpdateSpaceInput) (*space.Space, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	sp, err := s.spaces.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		sp.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		sp.Description = *in.Description
	}
	if in.Location != nil {
		sp.Location = *in.Location
	}
	if in.Capacity != nil {
		sp.Capacity = *in.Capacity
	}
	if in.MaxHours != nil {
		sp.MaxHours = *in.MaxHours
	}
	if in.RequiresApproval != nil {
		sp.RequiresApproval = *in.RequiresApproval
	}
	if in.State != nil {
		st, err := space.ParseState(*in.State)
		if err != nil {
			return nil, err
		}
		sp.State = st
	}
	if in.SecretariatID != nil {
		sp.SecretariatID = in.SecretariatID
	}
	sp.UpdatedAt = s.clock.Now()
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	if err := s.spaces.Update(ctx, sp); err != nil {
		return nil, err
	}
	s.invalidate(ctx, sp.ID)
	return sp, nil
}

// DeleteSpace はスペースを削除する（管理者のみ）
// 今日以降に開始する承認待ち・確定済みの予約があるスペースは削除できない
func (s *SpaceService) DeleteSpace(ctx context.Context, a actor.Actor, id string) error {
	if err := a.RequireAdmin(); err != nil {
		return err
	}
	if _, err := s.spaces.GetByID(ctx, id); err != nil {
		return err
	}
	active, err := s.reservations.HasActiveFrom(ctx, id, startOfDay(s.clock.Now(), s.loc))
	if err != nil {
		return err
	}
	if active {
		return space.ErrHasActiveBooking
	}
	if err := s.spaces.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.Info("スペースを削除しました", zap.String("space_id", id))
	return nil
}

func (s *SpaceService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Warn("スペースキャッシュの無効化に失敗しました", zap.String("space_id", id), zap.Error(err))
	}
}
