package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

const spaceColumns = `id, name, description, capacity, location, state, requires_approval, max_hours, secretariat_id, created_at, updated_at`

// spaceRow はDBの行を表す構造体
type spaceRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Description      *string   `db:"description"`
	Capacity         int       `db:"capacity"`
	Location         *string   `db:"location"`
	State            string    `db:"state"`
	RequiresApproval bool      `db:"requires_approval"`
	MaxHours         int       `db:"max_hours"`
	SecretariatID    *string   `db:"secretariat_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *spaceRow) toEntity() *space.Space {
	return &space.Space{
		ID:               r.ID,
		Name:             r.Name,
		Description:      derefString(r.Description),
		Capacity:         r.Capacity,
		Location:         derefString(r.Location),
		State:            space.State(r.State),
		RequiresApproval: r.RequiresApproval,
		MaxHours:         r.MaxHours,
		SecretariatID:    r.SecretariatID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// SpaceRepository はスペースリポジトリのPostgreSQL実装
type SpaceRepository struct {
	db *sqlx.DB
}

// NewSpaceRepository は SpaceRepository を作成する
func NewSpaceRepository(db *sqlx.DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

// Create は新しいスペースを作成する
func (r *SpaceRepository) Create(ctx context.Context, s *space.Space) error {
	query := `
		INSERT INTO spaces (name, description, capacity, location, state, requires_approval, max_hours, secretariat_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		s.Name, nullString(s.Description), s.Capacity, nullString(s.Location), string(s.State),
		s.RequiresApproval, s.MaxHours, s.SecretariatID, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return space.ErrNameTaken
		}
		return fmt.Errorf("スペース作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからスペースを取得する
func (r *SpaceRepository) GetByID(ctx context.Context, id string) (*space.Space, error) {
	return r.get(ctx, r.db, `SELECT `+spaceColumns+` FROM spaces WHERE id = $1`, id)
}

// LockForBooking はスペース行を FOR UPDATE でロックして取得する
func (r *SpaceRepository) LockForBooking(ctx context.Context, tx transaction.Tx, id string) (*space.Space, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlTx, `SELECT `+spaceColumns+` FROM spaces WHERE id = $1 FOR UPDATE`, id)
}

func (r *SpaceRepository) get(ctx context.Context, q sqlx.QueryerContext, query, id string) (*space.Space, error) {
	var row spaceRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, space.ErrSpaceNotFound
		}
		return nil, fmt.Errorf("スペース取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はスペース一覧を名前順に取得する
func (r *SpaceRepository) List(ctx context.Context, limit, offset int) ([]*space.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces ORDER BY name LIMIT $1 OFFSET $2`

	var rows []spaceRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("スペース一覧取得に失敗しました: %w", err)
	}
	spaces := make([]*space.Space, len(rows))
	for i := range rows {
		spaces[i] = rows[i].toEntity()
	}
	return spaces, nil
}

// Update はスペースを更新する
func (r *SpaceRepository) Update(ctx context.Context, s *space.Space) error {
	query := `
		UPDATE spaces
		SET name = $1, description = $2, capacity = $3, location = $4, state = $5,
		    requires_approval = $6, max_hours = $7, secretariat_id = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := r.db.ExecContext(ctx, query,
		s.Name, nullString(s.Description), s.Capacity, nullString(s.Location), string(s.State),
		s.RequiresApproval, s.MaxHours, s.SecretariatID, s.UpdatedAt, s.ID,
	)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return space.ErrNameTaken
		}
		return fmt.Errorf("スペース更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return space.ErrSpaceNotFound
	}
	return nil
}

// Delete はスペースを削除する
func (r *SpaceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		switch pqCode(err) {
		case codeForeignKeyViolation:
			return space.ErrHasReservations
		case codeInvalidText:
			return space.ErrSpaceNotFound
		}
		return fmt.Errorf("スペース削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return space.ErrSpaceNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// インターフェースを満たしているか確認
var _ space.Repository = (*SpaceRepository)(nil)
