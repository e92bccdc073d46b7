package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamboard/internal/ledger"
	"github.com/hitoshi/teamboard/internal/model"
)

// LedgerServiceInterface は作業時間ハンドラーが必要とするサービスインターフェース。
type LedgerServiceInterface interface {
	// Log は作業時間を1件記録し、記録IDを返す。
	Log(ctx context.Context, in ledger.LogInput) (int64, error)
	// Correct は(メンバー, タスク)の合計作業時間を置き換える。
	Correct(ctx context.Context, in ledger.LogInput) error
	// TaskLedger はタスクごとの作業時間集計を返す。記録がない場合はnilを返す。
	TaskLedger(ctx context.Context, token string, taskID int64) (*ledger.TaskLedger, error)
}

// LedgerHandler は作業時間記録のHTTPハンドラー。
type LedgerHandler struct {
	service LedgerServiceInterface
}

// NewLedgerHandler はLedgerHandlerを生成する。
func NewLedgerHandler(service LedgerServiceInterface) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// ledgerEntryRequest は作業時間の記録・修正リクエストのボディ。
// 省略された項目をゼロ値と区別するため、数値項目はポインタで受ける。
type ledgerEntryRequest struct {
	IdentityToken   string `json:"identity_token"`
	TaskID          *int64 `json:"task_id"`
	DurationSeconds *int64 `json:"duration_seconds"`
}

// toInput は必須項目の有無を確認してサービス層の入力に変換する。
// 欠けている数値項目はすべてrequiredとして報告する。トークンの検証はサービス層が行う。
func (req ledgerEntryRequest) toInput() (ledger.LogInput, *model.APIError) {
	var problems []model.FieldProblem
	if req.TaskID == nil {
		problems = append(problems, model.FieldProblem{Field: "task_id", Problem: "required"})
	}
	if req.DurationSeconds == nil {
		problems = append(problems, model.FieldProblem{Field: "duration_seconds", Problem: "required"})
	}
	if len(problems) > 0 {
		return ledger.LogInput{}, model.NewInvalidInputError(problems)
	}
	return ledger.LogInput{
		Token:           req.IdentityToken,
		TaskID:          *req.TaskID,
		DurationSeconds: *req.DurationSeconds,
	}, nil
}

// decodeLedgerEntry はボディを読み取り、必須項目が揃ったLogInputを返す。
func decodeLedgerEntry(w http.ResponseWriter, r *http.Request) (ledger.LogInput, *model.APIError) {
	var req ledgerEntryRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		return ledger.LogInput{}, apiErr
	}
	return req.toInput()
}

// createdEntryResponse は作業時間記録の作成レスポンス。
type createdEntryResponse struct {
	ID int64 `json:"id"`
}

// correctedEntryResponse は作業時間修正のレスポンス。
type correctedEntryResponse struct {
	TaskID          int64 `json:"task_id"`
	DurationSeconds int64 `json:"duration_seconds"`
}

// LogEntry は作業時間を記録する。
// POST /api/ledger-entries
func (h *LedgerHandler) LogEntry(w http.ResponseWriter, r *http.Request) {
	in, apiErr := decodeLedgerEntry(w, r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	id, err := h.service.Log(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdEntryResponse{ID: id})
}

// CorrectEntry は(メンバー, タスク)の合計作業時間を置き換える。
// PATCH /api/ledger-entries
func (h *LedgerHandler) CorrectEntry(w http.ResponseWriter, r *http.Request) {
	in, apiErr := decodeLedgerEntry(w, r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.service.Correct(r.Context(), in); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, correctedEntryResponse{
		TaskID:          in.TaskID,
		DurationSeconds: in.DurationSeconds,
	})
}

// TaskLedger はタスクごとの作業時間集計を返す。
// GET /api/tasks/{taskID}/ledger?identity_token=
func (h *LedgerHandler) TaskLedger(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil || taskID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError([]model.FieldProblem{
			{Field: "task_id", Problem: "must be a positive integer"},
		}))
		return
	}

	tl, err := h.service.TaskLedger(r.Context(), r.URL.Query().Get("identity_token"), taskID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if tl == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, tl)
}
