package repository

import (
	"database/sql"
	"os"
	"testing"

	"github.com/hitoshi/teamboard/internal/database"
)

// openTestDB は結合テスト用のデータベースを開き、マイグレーション適用後に全データを消去する。
// TEST_DATABASE_URLが未設定、または接続できない場合はテストをスキップする。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := database.Open(dbURL)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE time_ledger, task_assignees, tasks, sprints, members RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("テーブルの初期化に失敗: %v", err)
	}
	return db
}

func seedMember(t *testing.T, db *sql.DB, name, email, role string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(
		`INSERT INTO members (display_name, email, role) VALUES ($1, $2, $3) RETURNING id`,
		name, email, role,
	).Scan(&id)
	if err != nil {
		t.Fatalf("メンバー作成に失敗: %v", err)
	}
	return id
}

func seedTask(t *testing.T, db *sql.DB, title string) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRow(`INSERT INTO tasks (title) VALUES ($1) RETURNING id`, title).Scan(&id); err != nil {
		t.Fatalf("タスク作成に失敗: %v", err)
	}
	return id
}

func assign(t *testing.T, db *sql.DB, taskID, memberID int64) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO task_assignees (task_id, member_id) VALUES ($1, $2)`, taskID, memberID); err != nil {
		t.Fatalf("担当の登録に失敗: %v", err)
	}
}
