package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/querybuilder"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	st := querybuilder.Select("tasks", []string{"id", "title"}, querybuilder.Fields{
		querybuilder.Eq("id", id),
	})

	t := &model.Task{}
	err := r.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&t.ID, &t.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task by ID: %w", err)
	}
	return t, nil
}

// IsAssigned はメンバーがタスクの担当者かどうかを返す。
func (r *PostgresTaskRepo) IsAssigned(ctx context.Context, taskID, memberID int64) (bool, error) {
	st := querybuilder.Select("task_assignees", []string{"1"}, querybuilder.Fields{
		querybuilder.Eq("task_id", taskID),
		querybuilder.Eq("member_id", memberID),
	})

	var one int
	err := r.db.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check task assignment: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
