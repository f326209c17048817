package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

const (
	dbDateLayout      = "2006-01-02"
	dbClockLayout     = "15:04:05"
	dbTimestampLayout = "2006-01-02 15:04:05"
)

// 日付と時刻は文字列で取り出し、キャンパスのタイムゾーンで結合する
const reservationColumns = `id, number, space_id, requester_id, title, description, motive, observations,
	participant_count, participant_emails,
	to_char(start_date, 'YYYY-MM-DD') AS start_date, to_char(start_time, 'HH24:MI:SS') AS start_time,
	to_char(end_date, 'YYYY-MM-DD') AS end_date, to_char(end_time, 'HH24:MI:SS') AS end_time,
	status, requires_approval, approved_by, approved_at, deleted_at, created_at, updated_at`

const activeCondition = `deleted_at IS NULL AND status IN ('pending', 'confirmed')`

type reservationRow struct {
	ID                string         `db:"id"`
	Number            string         `db:"number"`
	SpaceID           string         `db:"space_id"`
	RequesterID       string         `db:"requester_id"`
	Title             string         `db:"title"`
	Description       string         `db:"description"`
	Motive            string         `db:"motive"`
	Observations      string         `db:"observations"`
	ParticipantCount  int            `db:"participant_count"`
	ParticipantEmails pq.StringArray `db:"participant_emails"`
	StartDate         string         `db:"start_date"`
	StartTime         string         `db:"start_time"`
	EndDate           string         `db:"end_date"`
	EndTime           string         `db:"end_time"`
	Status            string         `db:"status"`
	RequiresApproval  bool           `db:"requires_approval"`
	ApprovedBy        *string        `db:"approved_by"`
	ApprovedAt        *time.Time     `db:"approved_at"`
	DeletedAt         *time.Time     `db:"deleted_at"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r *reservationRow) toEntity(loc *time.Location) (*reservation.Reservation, error) {
	w, err := reservation.NewWindow(r.StartDate, r.StartTime, r.EndDate, r.EndTime, loc)
	if err != nil {
		return nil, fmt.Errorf("予約 %s の時間帯が不正です: %w", r.ID, err)
	}
	var emails []string
	if len(r.ParticipantEmails) > 0 {
		emails = []string(r.ParticipantEmails)
	}
	return &reservation.Reservation{
		ID:                r.ID,
		Number:            r.Number,
		SpaceID:           r.SpaceID,
		RequesterID:       r.RequesterID,
		Title:             r.Title,
		Description:       r.Description,
		Motive:            r.Motive,
		Observations:      r.Observations,
		ParticipantCount:  r.ParticipantCount,
		ParticipantEmails: emails,
		Window:            w,
		Status:            reservation.Status(r.Status),
		RequiresApproval:  r.RequiresApproval,
		ApprovedBy:        r.ApprovedBy,
		ApprovedAt:        r.ApprovedAt,
		DeletedAt:         r.DeletedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

// ReservationRepository は予約リポジトリのPostgreSQL実装
type ReservationRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

// NewReservationRepository は ReservationRepository を作成する
// loc は日付・時刻カラムを解釈するキャンパスのタイムゾーン
func NewReservationRepository(db *sqlx.DB, loc *time.Location) *ReservationRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationRepository{db: db, loc: loc}
}

// Create は新しい予約を作成する
func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO reservations (number, space_id, requester_id, title, description, motive, observations,
			participant_count, participant_emails, start_date, start_time, end_date, end_time,
			status, requires_approval, approved_by, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`
	err = sqlTx.QueryRowContext(ctx, query,
		res.Number, res.SpaceID, res.RequesterID, res.Title, res.Description, res.Motive, res.Observations,
		res.ParticipantCount, pq.Array(emailsOrEmpty(res.ParticipantEmails)),
		res.Window.Start.Format(dbDateLayout), res.Window.Start.Format(dbClockLayout),
		res.Window.End.Format(dbDateLayout), res.Window.End.Format(dbClockLayout),
		string(res.Status), res.RequiresApproval, res.ApprovedBy, res.ApprovedAt, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		if pqCode(err) == codeExclusionViolation {
			return reservation.ErrTimeConflict
		}
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	return r.get(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

// GetByIDForUpdate は行ロックを取って予約を取得する
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlTx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReservationRepository) get(ctx context.Context, q sqlx.QueryerContext, query, id string) (*reservation.Reservation, error) {
	var row reservationRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		if pqCode(err) == codeInvalidText {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(r.loc)
}

// List は条件に一致する予約一覧を取得する
func (r *ReservationRepository) List(ctx context.Context, f reservation.Filter) ([]*reservation.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.SpaceID != "" {
		add("space_id = ?", f.SpaceID)
	}
	if f.RequesterID != "" {
		add("requester_id = ?", f.RequesterID)
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY starts_at DESC, created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.selectRows(ctx, r.db, query, args...)
}

// ListActiveBySpace はスペースの有効な予約のうち時間帯と重なるものを取得する
func (r *ReservationRepository) ListActiveBySpace(ctx context.Context, spaceID string, w reservation.Window) ([]*reservation.Reservation, error) {
	return r.listActive(ctx, r.db, spaceID, w)
}

// ListActiveBySpaceTx はトランザクション内で ListActiveBySpace を行う
func (r *ReservationRepository) ListActiveBySpaceTx(ctx context.Context, tx transaction.Tx, spaceID string, w reservation.Window) ([]*reservation.Reservation, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.listActive(ctx, sqlTx, spaceID, w)
}

func (r *ReservationRepository) listActive(ctx context.Context, q sqlx.QueryerContext, spaceID string, w reservation.Window) ([]*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE space_id = $1 AND ` + activeCondition + `
		  AND starts_at < $3::timestamp AND ends_at > $2::timestamp
		ORDER BY starts_at`
	return r.selectRows(ctx, q, query, spaceID,
		w.Start.In(r.loc).Format(dbTimestampLayout), w.End.In(r.loc).Format(dbTimestampLayout))
}

func (r *ReservationRepository) selectRows(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}
	result := make([]*reservation.Reservation, 0, len(rows))
	for i := range rows {
		res, err := rows[i].toEntity(r.loc)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

// Update は予約を更新する
func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := `
		UPDATE reservations
		SET title = $1, description = $2, motive = $3, observations = $4,
		    participant_count = $5, participant_emails = $6,
		    start_date = $7, start_time = $8, end_date = $9, end_time = $10,
		    status = $11, approved_by = $12, approved_at = $13, deleted_at = $14, updated_at = $15
		WHERE id = $16
	`
	result, err := sqlTx.ExecContext(ctx, query,
		res.Title, res.Description, res.Motive, res.Observations,
		res.ParticipantCount, pq.Array(emailsOrEmpty(res.ParticipantEmails)),
		res.Window.Start.Format(dbDateLayout), res.Window.Start.Format(dbClockLayout),
		res.Window.End.Format(dbDateLayout), res.Window.End.Format(dbClockLayout),
		string(res.Status), res.ApprovedBy, res.ApprovedAt, res.DeletedAt, res.UpdatedAt,
		res.ID,
	)
	if err != nil {
		if pqCode(err) == codeExclusionViolation {
			return reservation.ErrTimeConflict
		}
		return fmt.Errorf("予約更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// LockNumbering は年ごとの採番をトランザクション終了まで直列化する
func (r *ReservationRepository) LockNumbering(ctx context.Context, tx transaction.Tx, year int) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('reservation_number'), $1)`, year); err != nil {
		return fmt.Errorf("採番ロックの取得に失敗しました: %w", err)
	}
	return nil
}

// CountCreatedInYear は指定年に作成された予約数を返す
func (r *ReservationRepository) CountCreatedInYear(ctx context.Context, tx transaction.Tx, year int) (int, error) {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return 0, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc)
	to := from.AddDate(1, 0, 0)

	var count int
	query := `SELECT COUNT(*) FROM reservations WHERE created_at >= $1 AND created_at < $2`
	if err := sqlTx.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, fmt.Errorf("年間予約数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// HasActiveFrom はスペースに指定日以降開始の有効な予約があるかを返す
func (r *ReservationRepository) HasActiveFrom(ctx context.Context, spaceID string, from time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE space_id = $1 AND ` + activeCondition + ` AND start_date >= $2::date)`
	if err := r.db.GetContext(ctx, &exists, query, spaceID, from.In(r.loc).Format(dbDateLayout)); err != nil {
		return false, fmt.Errorf("有効な予約の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// CountByStatus は論理削除されていない予約のステータス別件数を返す
func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM reservations WHERE deleted_at IS NULL GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("ステータス別件数の取得に失敗しました: %w", err)
	}
	counts := make(map[reservation.Status]int, len(rows))
	for _, row := range rows {
		counts[reservation.Status(row.Status)] = row.Count
	}
	return counts, nil
}

func emailsOrEmpty(emails []string) []string {
	if emails == nil {
		return []string{}
	}
	return emails
}

// インターフェースを満たしているか確認
var _ reservation.Repository = (*ReservationRepository)(nil)
