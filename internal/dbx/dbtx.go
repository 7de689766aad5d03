// Package dbx はリポジトリ間で共有する小さなDB抽象を提供します。
package dbx

import (
	"context"
	"database/sql"
)

// DBTX はリポジトリが使用する database/sql の最小サブセットです。
// *sql.DB と *sql.Tx の双方が満たします。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
