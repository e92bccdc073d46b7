package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/report"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	// Generate はチームボードレポートを生成する。
	Generate(ctx context.Context, req report.Request) (*report.Result, error)
}

// ReportHandler はチームボードレポートのHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// teamBoardResponse はチームボードレポートのAPIレスポンス。
// end_dateは指定された最終日（その日を含む）を表す。
type teamBoardResponse struct {
	Scope     string                `json:"scope"`
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Days      int                   `json:"days"`
	Members   []report.MemberReport `json:"members"`
}

// TeamBoard はチームボードレポートを返す。
// GET /api/reports/team-board?identity_token=&start_date=&end_date=&self_only=
// 期間内に記録がない場合は204を返す。
func (h *ReportHandler) TeamBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	selfOnly := false
	if v := q.Get("self_only"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError([]model.FieldProblem{
				{Field: "self_only", Problem: "must be a boolean"},
			}))
			return
		}
		selfOnly = parsed
	}

	res, err := h.service.Generate(r.Context(), report.Request{
		Token:     q.Get("identity_token"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		SelfOnly:  selfOnly,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if res.State == report.StateNoData {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, toTeamBoardResponse(res))
}

// toTeamBoardResponse はレポート結果をAPIレスポンスに変換する。
func toTeamBoardResponse(res *report.Result) teamBoardResponse {
	members := res.Members
	if members == nil {
		members = []report.MemberReport{}
	}
	return teamBoardResponse{
		Scope:     res.Scope.String(),
		StartDate: res.Window.Start.Format(report.DateLayout),
		EndDate:   res.Window.End.AddDate(0, 0, -1).Format(report.DateLayout),
		Days:      res.Window.Days(),
		Members:   members,
	}
}
