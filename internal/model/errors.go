// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// FieldProblem は入力項目ごとの検証エラーを表す。
type FieldProblem struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, ledger, report, system
	Action   string // ユーザー向け対処方法

	Fields        []FieldProblem // 入力検証エラーの詳細（INVALID_INPUT時）
	BlockingTasks []Task         // 削除を妨げているタスク（MEMBER_HAS_TASKS時）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidRange        = "INVALID_RANGE"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeMemberNotFound      = "MEMBER_NOT_FOUND"
	ErrCodeTaskNotFound        = "TASK_NOT_FOUND"
	ErrCodeLedgerEntryNotFound = "LEDGER_ENTRY_NOT_FOUND"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeMemberHasTasks      = "MEMBER_HAS_TASKS"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewInvalidInputError は入力検証エラーを生成する。
// problemsには問題のあった項目をすべて含める。
func NewInvalidInputError(problems []FieldProblem) *APIError {
	names := make([]string, len(problems))
	for i, p := range problems {
		names[i] = p.Field
	}
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", strings.Join(names, ", ")),
		Category: "validation",
		Action:   "各項目の形式を確認して再度お試しください。",
		Fields:   problems,
	}
}

// NewInvalidRangeError は開始日が終了日より後の場合のエラーを生成する。
func NewInvalidRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRange,
		Message:  "開始日が終了日より後になっています。",
		Category: "validation",
		Action:   "開始日には終了日以前の日付を指定してください。",
		Fields: []FieldProblem{
			{Field: "start_date", Problem: "must not be after end_date"},
		},
	}
}

// NewInvalidTokenError はトークンの検証失敗エラーを生成する。
// 失敗の種類（署名不正・期限切れ・形式不正）は区別しない。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効です。",
		Category: "auth",
		Action:   "画面を再読み込みしてトークンを取得し直してください。",
	}
}

// NewMemberNotFoundError はメンバーが見つからない場合のエラーを生成する。
func NewMemberNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  "メンバーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTaskNotFoundError はタスクが見つからない場合のエラーを生成する。
func NewTaskNotFoundError(taskID int64) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %d", taskID),
		Category: "ledger",
		Action:   "タスクIDを確認してください。",
	}
}

// NewLedgerEntryNotFoundError は修正対象の作業時間記録が存在しない場合のエラーを生成する。
func NewLedgerEntryNotFoundError(taskID int64) *APIError {
	return &APIError{
		Code:     ErrCodeLedgerEntryNotFound,
		Message:  fmt.Sprintf("タスク %d に対する作業時間の記録がありません。", taskID),
		Category: "ledger",
		Action:   "先に作業時間を記録してください。",
	}
}

// NewForbiddenError は権限不足のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に依頼してください。",
	}
}

// NewMemberHasTasksError は担当タスクが残っているメンバーを削除しようとした場合のエラーを生成する。
func NewMemberHasTasksError(tasks []Task) *APIError {
	return &APIError{
		Code:          ErrCodeMemberHasTasks,
		Message:       fmt.Sprintf("担当中のタスクが %d 件あるため削除できません。", len(tasks)),
		Category:      "member",
		Action:        "担当タスクを他のメンバーに引き継いでから削除してください。",
		BlockingTasks: tasks,
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
