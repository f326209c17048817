package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// cachedSpace はキャッシュに保存する形式
type cachedSpace struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Capacity         int       `json:"capacity"`
	Location         string    `json:"location"`
	State            string    `json:"state"`
	RequiresApproval bool      `json:"requires_approval"`
	MaxHours         int       `json:"max_hours"`
	SecretariatID    *string   `json:"secretariat_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SpaceCache はスペース情報の読み取りキャッシュ
// 予約時の競合チェックには使わず、一覧・詳細表示と空き確認の前段でのみ使う
type SpaceCache struct {
	client *redis.Client
}

// NewSpaceCache は SpaceCache を作成する
func NewSpaceCache(client *redis.Client) *SpaceCache {
	return &SpaceCache{client: client}
}

// Get はスペースをキャッシュから取得する
func (c *SpaceCache) Get(ctx context.Context, id string) (*space.Space, error) {
	raw, err := c.client.Get(ctx, spaceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var cs cachedSpace
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return &space.Space{
		ID:               cs.ID,
		Name:             cs.Name,
		Description:      cs.Description,
		Capacity:         cs.Capacity,
		Location:         cs.Location,
		State:            space.State(cs.State),
		RequiresApproval: cs.RequiresApproval,
		MaxHours:         cs.MaxHours,
		SecretariatID:    cs.SecretariatID,
		CreatedAt:        cs.CreatedAt,
		UpdatedAt:        cs.UpdatedAt,
	}, nil
}

// Set はスペースをキャッシュに保存する
func (c *SpaceCache) Set(ctx context.Context, s *space.Space, ttl time.Duration) error {
	raw, err := json.Marshal(cachedSpace{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		Capacity:         s.Capacity,
		Location:         s.Location,
		State:            string(s.State),
		RequiresApproval: s.RequiresApproval,
		MaxHours:         s.MaxHours,
		SecretariatID:    s.SecretariatID,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("キャッシュの変換に失敗: %w", err)
	}
	if err := c.client.Set(ctx, spaceKey(s.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はスペースのキャッシュを無効化する
func (c *SpaceCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, spaceKey(id)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func spaceKey(id string) string {
	return "spaces:" + id
}
