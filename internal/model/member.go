// Package model はドメインモデルを定義する。
package model

import "time"

// Role はメンバーの権限。レポートの閲覧範囲を決める。
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid は定義済みのRoleかどうかを返す。
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Member はチームのメンバーを表す。
// IDは内部識別子であり、システム外には必ずトークンに変換して渡す。
type Member struct {
	ID          int64
	DisplayName string
	Role        Role
	CreatedAt   time.Time
}

// Task は作業時間の記録対象となるタスクを表す。
type Task struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// LedgerEntry は作業時間の記録1件を表す。
// 追記のみで、修正は(メンバー, タスク)単位の作業時間の置き換えに限られる。
type LedgerEntry struct {
	ID              int64
	MemberID        int64
	TaskID          int64
	DurationSeconds int64
	LoggedAt        time.Time
}
