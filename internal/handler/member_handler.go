package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MemberServiceInterface はメンバーハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	// Remove はメンバーを削除する。担当タスクが残っている場合は削除しない。
	Remove(ctx context.Context, requesterToken, targetToken string) error
}

// MemberHandler はメンバー管理のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(service MemberServiceInterface) *MemberHandler {
	return &MemberHandler{
		service: service,
	}
}

// Remove はメンバーを削除する。
// DELETE /api/members/{memberToken}?identity_token=
// 担当タスクが残っている場合は409とblocking_tasksを返す。
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	requester := r.URL.Query().Get("identity_token")
	target := chi.URLParam(r, "memberToken")

	if err := h.service.Remove(r.Context(), requester, target); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
