package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

type resourceRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	TotalStock  int     `db:"total_stock"`
	Active      bool    `db:"active"`
}

type assignmentRow struct {
	SpaceID     string `db:"space_id"`
	ResourceID  string `db:"resource_id"`
	MaxQuantity int    `db:"max_quantity"`
}

func (r *assignmentRow) toEntity() *resource.Assignment {
	return &resource.Assignment{SpaceID: r.SpaceID, ResourceID: r.ResourceID, MaxQuantity: r.MaxQuantity}
}

type requestRow struct {
	ReservationID     string    `db:"reservation_id"`
	ResourceID        string    `db:"resource_id"`
	RequestedQuantity int       `db:"requested_quantity"`
	ConfirmedQuantity *int      `db:"confirmed_quantity"`
	Notes             string    `db:"notes"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r *requestRow) toEntity() *resource.Request {
	return &resource.Request{
		ReservationID:     r.ReservationID,
		ResourceID:        r.ResourceID,
		RequestedQuantity: r.RequestedQuantity,
		ConfirmedQuantity: r.ConfirmedQuantity,
		Notes:             r.Notes,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ResourceRepository は備品・割り当て・申請のPostgreSQL実装
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository は ResourceRepository を作成する
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// GetResource はIDから備品を取得する
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (*resource.Resource, error) {
	var row resourceRow
	query := `SELECT id, name, description, total_stock, active FROM resources WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, resource.ErrResourceNotFound
		}
		return nil, fmt.Errorf("備品取得に失敗しました: %w", err)
	}
	return &resource.Resource{
		ID:          row.ID,
		Name:        row.Name,
		Description: derefString(row.Description),
		TotalStock:  row.TotalStock,
		Active:      row.Active,
	}, nil
}

// GetAssignment はスペースへの備品割り当てを取得する
func (r *ResourceRepository) GetAssignment(ctx context.Context, spaceID, resourceID string) (*resource.Assignment, error) {
	var row assignmentRow
	query := `SELECT space_id, resource_id, max_quantity FROM space_resources WHERE space_id = $1 AND resource_id = $2`
	if err := r.db.GetContext(ctx, &row, query, spaceID, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, resource.ErrNotAssignedToSpace
		}
		return nil, fmt.Errorf("備品割り当て取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListAssignments はスペースに割り当てられた備品一覧を取得する
func (r *ResourceRepository) ListAssignments(ctx context.Context, spaceID string) ([]*resource.Assignment, error) {
	var rows []assignmentRow
	query := `SELECT space_id, resource_id, max_quantity FROM space_resources WHERE space_id = $1 ORDER BY resource_id`
	if err := r.db.SelectContext(ctx, &rows, query, spaceID); err != nil {
		return nil, fmt.Errorf("備品割り当て一覧取得に失敗しました: %w", err)
	}
	result := make([]*resource.Assignment, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// SaveAssignment は割り当てを作成または上書きする
func (r *ResourceRepository) SaveAssignment(ctx context.Context, a *resource.Assignment) error {
	query := `
		INSERT INTO space_resources (space_id, resource_id, max_quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (space_id, resource_id) DO UPDATE SET max_quantity = EXCLUDED.max_quantity
	`
	if _, err := r.db.ExecContext(ctx, query, a.SpaceID, a.ResourceID, a.MaxQuantity); err != nil {
		return fmt.Errorf("備品割り当ての保存に失敗しました: %w", err)
	}
	return nil
}

// UpsertRequest は申請を作成または上書きする
// 上書き時は確定数をリセットする
func (r *ResourceRepository) UpsertRequest(ctx context.Context, tx transaction.Tx, req *resource.Request) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO reservation_resources (reservation_id, resource_id, requested_quantity, confirmed_quantity, notes, updated_at)
		VALUES ($1, $2, $3, NULL, $4, $5)
		ON CONFLICT (reservation_id, resource_id) DO UPDATE
		SET requested_quantity = EXCLUDED.requested_quantity,
		    confirmed_quantity = NULL,
		    notes = EXCLUDED.notes,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := sqlTx.ExecContext(ctx, query, req.ReservationID, req.ResourceID, req.RequestedQuantity, req.Notes, req.UpdatedAt); err != nil {
		return fmt.Errorf("備品申請の保存に失敗しました: %w", err)
	}
	return nil
}

// GetRequestForUpdate は申請を FOR UPDATE で取得する
// 同じ申請への確定数更新はコミットまで待たされる
func (r *ResourceRepository) GetRequestForUpdate(ctx context.Context, tx transaction.Tx, reservationID, resourceID string) (*resource.Request, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	var row requestRow
	query := `
		SELECT reservation_id, resource_id, requested_quantity, confirmed_quantity, notes, updated_at
		FROM reservation_resources WHERE reservation_id = $1 AND resource_id = $2
		FOR UPDATE
	`
	if err := sqlTx.GetContext(ctx, &row, query, reservationID, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, resource.ErrRequestNotFound
		}
		return nil, fmt.Errorf("備品申請取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// UpdateConfirmed は申請の確定数を更新する
func (r *ResourceRepository) UpdateConfirmed(ctx context.Context, tx transaction.Tx, req *resource.Request) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		UPDATE reservation_resources SET confirmed_quantity = $1, updated_at = $2
		WHERE reservation_id = $3 AND resource_id = $4
	`
	result, err := sqlTx.ExecContext(ctx, query, req.ConfirmedQuantity, req.UpdatedAt, req.ReservationID, req.ResourceID)
	if err != nil {
		if pqCode(err) == codeCheckViolation {
			return resource.ErrConfirmedExceedsRequested
		}
		return fmt.Errorf("確定数の更新に失敗しました: %w", err)
	}
	return expectOneRow(result, resource.ErrRequestNotFound)
}

// DeleteRequest は申請を削除する
func (r *ResourceRepository) DeleteRequest(ctx context.Context, reservationID, resourceID string) error {
	query := `DELETE FROM reservation_resources WHERE reservation_id = $1 AND resource_id = $2`
	result, err := r.db.ExecContext(ctx, query, reservationID, resourceID)
	if err != nil {
		if pqCode(err) == codeInvalidText {
			return resource.ErrRequestNotFound
		}
		return fmt.Errorf("備品申請の削除に失敗しました: %w", err)
	}
	return expectOneRow(result, resource.ErrRequestNotFound)
}

// ListRequests は予約の申請一覧を取得する
func (r *ResourceRepository) ListRequests(ctx context.Context, reservationID string) ([]*resource.Request, error) {
	var rows []requestRow
	query := `
		SELECT reservation_id, resource_id, requested_quantity, confirmed_quantity, notes, updated_at
		FROM reservation_resources WHERE reservation_id = $1 ORDER BY resource_id
	`
	if err := r.db.SelectContext(ctx, &rows, query, reservationID); err != nil {
		return nil, fmt.Errorf("備品申請一覧取得に失敗しました: %w", err)
	}
	result := make([]*resource.Request, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ resource.Repository = (*ResourceRepository)(nil)
