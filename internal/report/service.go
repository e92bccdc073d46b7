// Package report はロール別の閲覧範囲に従ってチームの作業時間を集計する
// チームボードレポートを提供する。
//
// 1リクエストは次の順で処理し、途中で失敗した場合は部分的な結果を返さない。
// 期間の正規化、トークンの検証、権限の確認、閲覧範囲の決定、作業時間の取得、
// メンバー別・日別の集計、表示名の解決とトークンの再発行。
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/teamboard/internal/metrics"
	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/repository"
	"github.com/hitoshi/teamboard/internal/security"
)

// DefaultLookupConcurrency は表示名解決の既定の同時実行数。
const DefaultLookupConcurrency = 8

// IdentityCodec はメンバーIDとトークンの相互変換インターフェース。
type IdentityCodec interface {
	Encode(id int64) (string, error)
	Decode(token string) (int64, bool)
}

// Request はレポート生成の入力。日付はISO-8601形式の文字列のまま受け取る。
type Request struct {
	Token     string
	StartDate string
	EndDate   string
	SelfOnly  bool
}

// State はレポート生成の終了状態。
type State int

const (
	// StateReady は1件以上の記録を集計したことを示す。
	StateReady State = iota
	// StateNoData は期間内に記録が1件もないことを示す。エラーではない。
	StateNoData
)

// DailyHours は1日分の作業時間。
type DailyHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// MemberReport はメンバー1人分のレポート。内部IDは含めず、再発行したトークンで識別する。
type MemberReport struct {
	Token          string       `json:"token"`
	DisplayName    string       `json:"display_name"`
	TotalSeconds   int64        `json:"total_seconds"`
	TotalHours     float64      `json:"total_hours"`
	TotalDays      int          `json:"total_days"`
	AvgPerDay      float64      `json:"avg_per_day"`
	DailyBreakdown []DailyHours `json:"daily_breakdown"`
}

// Result はレポート生成の結果。
type Result struct {
	State   State
	Scope   Scope
	Window  Window
	Members []MemberReport
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithMetrics はメトリクスの記録先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLookupConcurrency は表示名解決の同時実行数を設定する。1未満は無視する。
func WithLookupConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// Service はチームボードレポートのサービス層。
type Service struct {
	codec       IdentityCodec
	members     repository.MemberRepository
	ledger      repository.LedgerRepository
	sanitizer   security.TextSanitizer
	metrics     metrics.MetricsCollector
	concurrency int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	codec IdentityCodec,
	members repository.MemberRepository,
	ledger repository.LedgerRepository,
	sanitizer security.TextSanitizer,
	opts ...Option,
) *Service {
	s := &Service{
		codec:       codec,
		members:     members,
		ledger:      ledger,
		sanitizer:   sanitizer,
		concurrency: DefaultLookupConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate はチームボードレポートを生成する。
// 入力不正・トークン不正・未登録メンバーは*model.APIErrorを返す。
// 期間内に記録がない場合はエラーではなくStateNoDataの結果を返す。
func (s *Service) Generate(ctx context.Context, req Request) (res *Result, err error) {
	started := time.Now()
	defer func() {
		s.recordOutcome(res, err, time.Since(started))
	}()

	window, err := ParseWindow(req.StartDate, req.EndDate, Location)
	if err != nil {
		return nil, err
	}

	requester, ok := s.codec.Decode(req.Token)
	if !ok {
		return nil, model.NewInvalidTokenError()
	}

	role, err := s.members.FindRole(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("権限の取得に失敗しました: %w", err)
	}
	if role == nil {
		return nil, model.NewMemberNotFoundError()
	}

	p := choosePlan(*role, requester, req.SelfOnly)

	entries, err := s.ledger.FetchEntries(ctx, window.Start, window.End, p.memberFilter())
	if err != nil {
		return nil, fmt.Errorf("作業時間の取得に失敗しました: %w", err)
	}
	if len(entries) == 0 {
		return &Result{State: StateNoData, Scope: p.scope, Window: window}, nil
	}

	groups := Group(entries, Location)

	members, err := s.reidentify(ctx, window, groups)
	if err != nil {
		return nil, err
	}

	slog.Info("チームボードレポートを生成しました",
		slog.String("scope", p.scope.String()),
		slog.Int("members", len(members)),
		slog.Int("entries", len(entries)),
	)

	return &Result{State: StateReady, Scope: p.scope, Window: window, Members: members}, nil
}

// resolved は表示名解決済みのレポートと並べ替え用の内部ID。
type resolved struct {
	id     int64
	report MemberReport
}

// reidentify はメンバーごとに表示名の解決とトークンの再発行を並行に行い、
// 表示名順（同名はID順）に並べたレポートを返す。
func (s *Service) reidentify(ctx context.Context, window Window, groups map[int64]*Aggregate) ([]MemberReport, error) {
	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	dates := window.Dates()
	out := make([]resolved, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			m, err := s.members.FindByID(gctx, id)
			if err != nil {
				return fmt.Errorf("メンバーの取得に失敗しました: %w", err)
			}
			if m == nil {
				return model.NewMemberNotFoundError()
			}
			token, err := s.codec.Encode(id)
			if err != nil {
				return fmt.Errorf("トークンの発行に失敗しました: %w", err)
			}

			report := buildMemberReport(dates, groups[id])
			report.Token = token
			report.DisplayName = s.sanitizer.Sanitize(m.DisplayName)
			out[i] = resolved{id: id, report: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].report.DisplayName != out[j].report.DisplayName {
			return out[i].report.DisplayName < out[j].report.DisplayName
		}
		return out[i].id < out[j].id
	})

	reports := make([]MemberReport, len(out))
	for i, r := range out {
		reports[i] = r.report
	}
	return reports, nil
}

// buildMemberReport は集計結果から期間内の全日を含む日別内訳と派生値を組み立てる。
// 記録のない日は0時間として含める。
func buildMemberReport(dates []string, agg *Aggregate) MemberReport {
	daily := make([]DailyHours, len(dates))
	for i, d := range dates {
		daily[i] = DailyHours{Date: d, Hours: Round(Hours(agg.Daily[d]))}
	}
	return MemberReport{
		TotalSeconds:   agg.TotalSeconds,
		TotalHours:     Round(Hours(agg.TotalSeconds)),
		TotalDays:      len(dates),
		AvgPerDay:      Round(AveragePerDay(agg.TotalSeconds, len(dates))),
		DailyBreakdown: daily,
	}
}

func (s *Service) recordOutcome(res *Result, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordReport(outcomeOf(res, err), elapsed)
}

// outcomeOf はレポート生成の結果をメトリクスの結果区分に変換する。
func outcomeOf(res *Result, err error) string {
	if err == nil {
		if res != nil && res.State == StateNoData {
			return metrics.OutcomeNoData
		}
		return metrics.OutcomeOK
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return metrics.OutcomeError
	}
	switch apiErr.Code {
	case model.ErrCodeInvalidInput, model.ErrCodeInvalidRange:
		return metrics.OutcomeInvalidInput
	case model.ErrCodeInvalidToken:
		return metrics.OutcomeInvalidToken
	case model.ErrCodeMemberNotFound:
		return metrics.OutcomeUnknownIdentity
	default:
		return metrics.OutcomeError
	}
}
