package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
)

// pgTx は sqlx.Tx を transaction.Tx として渡すためのラッパー
type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗しました: %w", err)
	}
	return nil
}

// Rollback はコミット済み・ロールバック済みなら何もしない
func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("ロールバックに失敗しました: %w", err)
	}
	return nil
}

// TxManager は予約・スペース・備品の書き込みを1つのトランザクションにまとめる
// 分離レベルは READ COMMITTED。直列化はスペース行の FOR UPDATE で行う
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// unwrapTx は transaction.Tx から sqlx.Tx を取り出す
func unwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if t, ok := tx.(*pgTx); ok && t.tx != nil {
		return t.tx, nil
	}
	return nil, fmt.Errorf("postgres のトランザクションではありません: %T", tx)
}

var _ transaction.Manager = (*TxManager)(nil)
