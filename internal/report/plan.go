package report

import "github.com/hitoshi/teamboard/internal/model"

// Scope はレポートの閲覧範囲。権限の確認後に1度だけ決定する。
type Scope int

const (
	// SelfScope は依頼者自身の記録のみを対象とする。
	SelfScope Scope = iota
	// AdminScope は全メンバーの記録を対象とする。
	AdminScope
)

// String はScopeの文字列表現を返す。
func (s Scope) String() string {
	if s == AdminScope {
		return "admin"
	}
	return "self"
}

// plan は1リクエスト分の取得計画。
type plan struct {
	scope     Scope
	requester int64
}

// choosePlan は権限と自分のみ指定から取得計画を決める。
// 管理者以外はselfOnlyの値にかかわらず常にSelfScopeになる。
func choosePlan(role model.Role, requester int64, selfOnly bool) plan {
	if role == model.RoleAdmin && !selfOnly {
		return plan{scope: AdminScope, requester: requester}
	}
	return plan{scope: SelfScope, requester: requester}
}

// memberFilter は作業時間の取得に使うメンバー絞り込みを返す。AdminScopeではnil。
func (p plan) memberFilter() *int64 {
	if p.scope == AdminScope {
		return nil
	}
	id := p.requester
	return &id
}
