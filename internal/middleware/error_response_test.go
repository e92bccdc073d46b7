package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/teamboard/internal/model"
)

// decodeErrorBody はレスポンスを統一エラーフォーマットとして読み取る。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

// TestWriteErrorResponse_DomainErrors は各ドメインエラーがそのまま統一フォーマットに載ることを検証する。
func TestWriteErrorResponse_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        *model.APIError
		wantCode   string
		category   string
	}{
		{"トークン不正", http.StatusBadRequest, model.NewInvalidTokenError(), "INVALID_TOKEN", "auth"},
		{"期間不正", http.StatusBadRequest, model.NewInvalidRangeError(), "INVALID_RANGE", "validation"},
		{"権限不足", http.StatusForbidden, model.NewForbiddenError(), "FORBIDDEN", "auth"},
		{"タスクなし", http.StatusNotFound, model.NewTaskNotFoundError(12), "TASK_NOT_FOUND", "ledger"},
		{"記録なし", http.StatusNotFound, model.NewLedgerEntryNotFoundError(12), "LEDGER_ENTRY_NOT_FOUND", "ledger"},
		{"メンバーなし", http.StatusNotFound, model.NewMemberNotFoundError(), "MEMBER_NOT_FOUND", "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.statusCode, tt.err)

			if w.Code != tt.statusCode {
				t.Errorf("status = %d, want %d", w.Code, tt.statusCode)
			}
			body := decodeErrorBody(t, w)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Category != tt.category {
				t.Errorf("category = %q, want %q", body.Category, tt.category)
			}
			if body.Message != tt.err.Message || body.Action != tt.err.Action {
				t.Errorf("message/action not carried over: %+v", body)
			}
		})
	}
}

// TestInternalServerError_ReturnsSystemError は内部エラーが統一フォーマットで返ることを検証する。
func TestInternalServerError_ReturnsSystemError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := decodeErrorBody(t, w)
	if body.Code != "INTERNAL_ERROR" || body.Category != "system" {
		t.Errorf("body = %+v, want INTERNAL_ERROR/system", body)
	}
	if body.Action == "" {
		t.Error("action should not be empty")
	}
}

// TestErrorResponseBody_AllFieldsPresent は全フィールドがJSONレスポンスに含まれることを検証する。
func TestErrorResponseBody_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "CODE",
		Message:  "MSG",
		Category: "CAT",
		Action:   "ACT",
	})

	var raw map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	requiredFields := []string{"code", "message", "category", "action"}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	for _, field := range []string{"fields", "blocking_tasks"} {
		if _, ok := raw[field]; ok {
			t.Errorf("field %s should be omitted when empty", field)
		}
	}
}

// TestWriteErrorResponse_IncludesFieldProblems は入力検証エラーの項目詳細が含まれることを検証する。
func TestWriteErrorResponse_IncludesFieldProblems(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError([]model.FieldProblem{
		{Field: "start_date", Problem: "required"},
		{Field: "end_date", Problem: "required"},
	}))

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body.Fields) != 2 || body.Fields[0].Field != "start_date" || body.Fields[1].Field != "end_date" {
		t.Errorf("fields = %+v", body.Fields)
	}
}

// TestWriteErrorResponse_IncludesBlockingTasks は削除を妨げるタスク一覧が含まれることを検証する。
func TestWriteErrorResponse_IncludesBlockingTasks(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusConflict, model.NewMemberHasTasksError([]model.Task{
		{ID: 3, Title: "設計レビュー"},
	}))

	var raw struct {
		BlockingTasks []map[string]any `json:"blocking_tasks"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(raw.BlockingTasks) != 1 {
		t.Fatalf("blocking_tasks = %v, want 1 entry", raw.BlockingTasks)
	}
	if raw.BlockingTasks[0]["id"] != float64(3) || raw.BlockingTasks[0]["title"] != "設計レビュー" {
		t.Errorf("blocking task = %v", raw.BlockingTasks[0])
	}
}
