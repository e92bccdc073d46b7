package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/querybuilder"
)

var ledgerColumns = []string{"id", "member_id", "task_id", "duration_seconds", "logged_at"}

// PostgresLedgerRepo はPostgreSQLを使用した作業時間記録リポジトリ。
type PostgresLedgerRepo struct {
	db *sql.DB
}

// NewPostgresLedgerRepo はPostgresLedgerRepoを生成する。
func NewPostgresLedgerRepo(db *sql.DB) *PostgresLedgerRepo {
	return &PostgresLedgerRepo{db: db}
}

// Create は作業時間記録を追加し、同じトランザクションでタスク担当の紐付けを保証する。
// どちらかの書き込みに失敗した場合は両方ともロールバックされる。
func (r *PostgresLedgerRepo) Create(ctx context.Context, entry *model.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ins := querybuilder.Insert("time_ledger", querybuilder.Fields{
		querybuilder.Eq("member_id", entry.MemberID),
		querybuilder.Eq("task_id", entry.TaskID),
		querybuilder.Eq("duration_seconds", entry.DurationSeconds),
	}).Append("RETURNING id, logged_at")

	if err := tx.QueryRowContext(ctx, ins.SQL, ins.Args...).Scan(&entry.ID, &entry.LoggedAt); err != nil {
		if fkErr := classifyFKError(err); fkErr != nil {
			return fkErr
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	link := querybuilder.Insert("task_assignees", querybuilder.Fields{
		querybuilder.Eq("task_id", entry.TaskID),
		querybuilder.Eq("member_id", entry.MemberID),
	}).Append("ON CONFLICT (task_id, member_id) DO NOTHING")

	if _, err := tx.ExecContext(ctx, link.SQL, link.Args...); err != nil {
		if fkErr := classifyFKError(err); fkErr != nil {
			return fkErr
		}
		return fmt.Errorf("failed to link task assignee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateDuration は(メンバー, タスク)の合計作業時間がdurationSecondsになるよう記録を置き換え、
// 対象になった行数を返す。最新の記録にdurationSecondsを設定し、それより前の記録は0秒にする。
// 記録が1件もない場合は何も更新せず0を返す。
func (r *PostgresLedgerRepo) UpdateDuration(ctx context.Context, memberID, taskID, durationSeconds int64) (int64, error) {
	pair := querybuilder.Fields{
		querybuilder.Eq("member_id", memberID),
		querybuilder.Eq("task_id", taskID),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 同じ組への並行した記録・修正と競合しないよう対象行をロックする
	sel := querybuilder.Select("time_ledger", []string{"id"}, pair).
		Append("ORDER BY logged_at DESC, id DESC FOR UPDATE")
	rows, err := tx.QueryContext(ctx, sel.SQL, sel.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to lock ledger entries: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan ledger entry id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate ledger entry ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if len(ids) > 1 {
		reset, err := querybuilder.Update("time_ledger", "id",
			querybuilder.Fields{querybuilder.Eq("duration_seconds", int64(0))},
			pair,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to build ledger reset: %w", err)
		}
		if _, err := tx.ExecContext(ctx, reset.SQL, reset.Args...); err != nil {
			return 0, fmt.Errorf("failed to reset older ledger entries: %w", err)
		}
	}

	set, err := querybuilder.Update("time_ledger", "id",
		querybuilder.Fields{querybuilder.Eq("duration_seconds", durationSeconds)},
		querybuilder.Fields{querybuilder.Eq("id", ids[0])},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to build ledger update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, set.SQL, set.Args...); err != nil {
		return 0, fmt.Errorf("failed to update ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int64(len(ids)), nil
}

// FetchEntries は[from, to)に記録された作業時間を記録日時順に取得する。
// memberIDがnilの場合は全メンバーが対象になる。
func (r *PostgresLedgerRepo) FetchEntries(ctx context.Context, from, to time.Time, memberID *int64) ([]model.LedgerEntry, error) {
	st := querybuilder.Select("time_ledger", ledgerColumns, querybuilder.Fields{
		querybuilder.Opt("member_id", memberID),
		querybuilder.Gte("logged_at", from),
		querybuilder.Lt("logged_at", to),
	}).Append("ORDER BY logged_at, id")

	return r.queryEntries(ctx, st)
}

// ListByTask は指定タスクの作業時間記録を記録日時順に取得する。
func (r *PostgresLedgerRepo) ListByTask(ctx context.Context, taskID int64) ([]model.LedgerEntry, error) {
	st := querybuilder.Select("time_ledger", ledgerColumns, querybuilder.Fields{
		querybuilder.Eq("task_id", taskID),
	}).Append("ORDER BY logged_at, id")

	return r.queryEntries(ctx, st)
}

func (r *PostgresLedgerRepo) queryEntries(ctx context.Context, st querybuilder.Statement) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.MemberID, &e.TaskID, &e.DurationSeconds, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ LedgerRepository = (*PostgresLedgerRepo)(nil)
