// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/teamboard/internal/model"
)

var (
	// ErrMemberNotFound は参照先のメンバーが存在しない場合のエラー。
	ErrMemberNotFound = errors.New("member not found")

	// ErrTaskNotFound は参照先のタスクが存在しない場合のエラー。
	ErrTaskNotFound = errors.New("task not found")
)

// MemberRepository はメンバー（識別子と権限）の永続化インターフェース。
type MemberRepository interface {
	// FindRole は指定IDのメンバーの権限を取得する。見つからない場合はnilを返す。
	FindRole(ctx context.Context, id int64) (*model.Role, error)

	// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Member, error)

	// DeleteIfUnassigned は担当タスクが1件もない場合に限りメンバーを削除する。
	// 担当タスクの確認と削除は同一トランザクションで行い、担当タスクがある場合は
	// 削除せずにそのタスク一覧を返す。メンバーが存在しない場合はErrMemberNotFoundを返す。
	DeleteIfUnassigned(ctx context.Context, id int64) ([]model.Task, error)
}

// TaskRepository はタスクの参照インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Task, error)

	// IsAssigned はメンバーがタスクの担当者かどうかを返す。
	IsAssigned(ctx context.Context, taskID, memberID int64) (bool, error)
}

// LedgerRepository は作業時間記録の永続化インターフェース。
type LedgerRepository interface {
	// Create は作業時間記録を追加し、同じトランザクションでタスク担当の紐付けを保証する。
	// 成功するとentryのIDとLoggedAtが設定される。
	// メンバーまたはタスクが存在しない場合はErrMemberNotFound/ErrTaskNotFoundを返す。
	Create(ctx context.Context, entry *model.LedgerEntry) error

	// UpdateDuration は(メンバー, タスク)の合計作業時間をdurationSecondsに置き換え、対象の行数を返す。
	// 最新の記録がdurationSecondsになり、それ以前の記録は0秒になる。記録がなければ0を返す。
	UpdateDuration(ctx context.Context, memberID, taskID, durationSeconds int64) (int64, error)

	// FetchEntries は[from, to)に記録された作業時間を記録日時順に取得する。
	// memberIDがnilの場合は全メンバーが対象になる。
	FetchEntries(ctx context.Context, from, to time.Time, memberID *int64) ([]model.LedgerEntry, error)

	// ListByTask は指定タスクの作業時間記録を取得する。
	ListByTask(ctx context.Context, taskID int64) ([]model.LedgerEntry, error)
}

// queryer は*sql.DBと*sql.Txの共通部分。
// トランザクションの内外で同じクエリ関数を使うために用いる。
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ queryer = (*sql.DB)(nil)
	_ queryer = (*sql.Tx)(nil)
)
