package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/querybuilder"
)

// PostgresMemberRepo はPostgreSQLを使用したメンバーリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// FindRole は指定IDのメンバーの権限を取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindRole(ctx context.Context, id int64) (*model.Role, error) {
	st := querybuilder.Select("members", []string{"role"}, querybuilder.Fields{
		querybuilder.Eq("id", id),
	})

	var role model.Role
	err := r.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member role: %w", err)
	}
	return &role, nil
}

// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id int64) (*model.Member, error) {
	st := querybuilder.Select("members",
		[]string{"id", "display_name", "role", "created_at"},
		querybuilder.Fields{querybuilder.Eq("id", id)},
	)

	m := &model.Member{}
	err := r.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&m.ID, &m.DisplayName, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member by ID: %w", err)
	}
	return m, nil
}

// DeleteIfUnassigned は担当タスクが1件もない場合に限りメンバーを削除する。
// 担当タスクがある場合はロールバックし、そのタスク一覧を返す。
func (r *PostgresMemberRepo) DeleteIfUnassigned(ctx context.Context, id int64) ([]model.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 同時に担当が追加されないよう、確認の間メンバー行をロックする
	lock := querybuilder.Select("members", []string{"id"}, querybuilder.Fields{
		querybuilder.Eq("id", id),
	}).Append("FOR UPDATE")
	var locked int64
	err = tx.QueryRowContext(ctx, lock.SQL, lock.Args...).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock member: %w", err)
	}

	blocking, err := listMemberTasks(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if len(blocking) > 0 {
		return blocking, nil
	}

	del, err := querybuilder.Delete("members", querybuilder.Fields{querybuilder.Eq("id", id)})
	if err != nil {
		return nil, fmt.Errorf("failed to build member delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, del.SQL, del.Args...); err != nil {
		return nil, fmt.Errorf("failed to delete member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil, nil
}

// listMemberTasks はメンバーの担当タスクをタスクID順に取得する。
func listMemberTasks(ctx context.Context, q queryer, memberID int64) ([]model.Task, error) {
	st := querybuilder.Select("member_tasks", []string{"task_id", "title"}, querybuilder.Fields{
		querybuilder.Eq("member_id", memberID),
	}).Append("ORDER BY task_id")

	rows, err := q.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list member tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, fmt.Errorf("failed to scan member task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member tasks: %w", err)
	}
	return tasks, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
