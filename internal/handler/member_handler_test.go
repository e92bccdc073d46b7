package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/teamboard/internal/model"
)

// --- モック定義 ---

// mockMemberService はMemberServiceInterfaceのモック実装。
type mockMemberService struct {
	removeFn func(ctx context.Context, requesterToken, targetToken string) error
}

func (m *mockMemberService) Remove(ctx context.Context, requesterToken, targetToken string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, requesterToken, targetToken)
	}
	return nil
}

// --- DELETE /api/members/{memberToken} テスト ---

func TestMemberHandler_Remove_Success(t *testing.T) {
	removeCalled := false
	svc := &mockMemberService{
		removeFn: func(ctx context.Context, requesterToken, targetToken string) error {
			removeCalled = true
			if requesterToken != "tok-admin" || targetToken != "tok-target" {
				t.Errorf("requester = %q, target = %q", requesterToken, targetToken)
			}
			return nil
		},
	}

	h := NewMemberHandler(svc)
	req := httptest.NewRequest(http.MethodDelete, "/api/members/tok-target?identity_token=tok-admin", nil)
	req = withChiURLParam(req, "memberToken", "tok-target")
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !removeCalled {
		t.Error("expected Remove to be called")
	}
}

func TestMemberHandler_Remove_BlockedByTasks(t *testing.T) {
	svc := &mockMemberService{
		removeFn: func(ctx context.Context, requesterToken, targetToken string) error {
			return model.NewMemberHasTasksError([]model.Task{
				{ID: 1, Title: "設計レビュー"},
				{ID: 2, Title: "リリース準備"},
			})
		},
	}

	h := NewMemberHandler(svc)
	req := httptest.NewRequest(http.MethodDelete, "/api/members/tok-target?identity_token=tok-admin", nil)
	req = withChiURLParam(req, "memberToken", "tok-target")
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeMemberHasTasks {
		t.Errorf("code = %v, want %s", body["code"], model.ErrCodeMemberHasTasks)
	}
	tasks, ok := body["blocking_tasks"].([]any)
	if !ok || len(tasks) != 2 {
		t.Fatalf("blocking_tasks = %v, want 2 entries", body["blocking_tasks"])
	}
	if first := tasks[0].(map[string]any); first["title"] != "設計レビュー" {
		t.Errorf("first blocking task = %v", first)
	}
}

func TestMemberHandler_Remove_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"トークン不正", model.NewInvalidTokenError(), http.StatusBadRequest},
		{"権限なし", model.NewForbiddenError(), http.StatusForbidden},
		{"メンバーなし", model.NewMemberNotFoundError(), http.StatusNotFound},
		{"内部エラー", errors.New("transaction failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockMemberService{
				removeFn: func(ctx context.Context, requesterToken, targetToken string) error {
					return tt.err
				},
			}

			h := NewMemberHandler(svc)
			req := httptest.NewRequest(http.MethodDelete, "/api/members/x", nil)
			req = withChiURLParam(req, "memberToken", "x")
			w := httptest.NewRecorder()

			h.Remove(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
