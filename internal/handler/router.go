package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/teamboard/internal/metrics"
	"github.com/hitoshi/teamboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector

	// 運用エンドポイント
	DB       Pinger
	Gatherer prometheus.Gatherer

	// レポート
	ReportService ReportServiceInterface

	// 作業時間
	LedgerService LedgerServiceInterface

	// メンバー
	MemberService MemberServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → RequestID → Logging → Metrics → SecurityHeaders → CORS
//
// /api 以下にはさらにRateLimit(General)を、書き込み系にはRateLimit(Write)を適用する。
// /health と /metrics はレート制限の対象外。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	reportHandler := NewReportHandler(deps.ReportService)
	ledgerHandler := NewLedgerHandler(deps.LedgerService)
	memberHandler := NewMemberHandler(deps.MemberService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/reports/team-board", reportHandler.TeamBoard)

		r.Route("/ledger-entries", func(r chi.Router) {
			r.Use(deps.RateLimiter.WriteMiddleware())
			r.Post("/", ledgerHandler.LogEntry)
			r.Patch("/", ledgerHandler.CorrectEntry)
		})

		r.Get("/tasks/{taskID}/ledger", ledgerHandler.TaskLedger)

		r.With(deps.RateLimiter.WriteMiddleware()).Delete("/members/{memberToken}", memberHandler.Remove)
	})

	return r
}
