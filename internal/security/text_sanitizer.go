// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はメンバーの表示名やタスク名などの利用者入力を
// APIレスポンスに載せる前にプレーンテキストへ正規化する。
// bluemondayのStrictPolicyで全てのタグを除去し、script/styleは中身ごと取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はマークアップを除去したプレーンテキストを返す。
	// 文字実体参照は元の文字に戻し、前後の空白を取り除く。
	// 空文字列の入力には空文字列を返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーは生成後に変更しないため、並行に使ってよい。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はマークアップを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	// StrictPolicyの出力はエスケープ済みHTMLなので、JSONで返すテキストに戻す
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
