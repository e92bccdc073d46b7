// Package ledger は作業時間記録の追記・修正と、タスク別の作業時間一覧を提供する。
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hitoshi/teamboard/internal/metrics"
	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/report"
	"github.com/hitoshi/teamboard/internal/repository"
	"github.com/hitoshi/teamboard/internal/security"
)

// メトリクスの操作区分
const (
	opLog     = "log"
	opCorrect = "correct"
)

// LogInput は作業時間の記録・修正の入力。
type LogInput struct {
	Token           string
	TaskID          int64
	DurationSeconds int64
}

// validate は入力値を検証し、問題のある項目をすべて返す。
func (in LogInput) validate() error {
	var problems []model.FieldProblem
	if in.TaskID <= 0 {
		problems = append(problems, model.FieldProblem{Field: "task_id", Problem: "must be a positive integer"})
	}
	if in.DurationSeconds < 0 {
		problems = append(problems, model.FieldProblem{Field: "duration_seconds", Problem: "must not be negative"})
	}
	if len(problems) > 0 {
		return model.NewInvalidInputError(problems)
	}
	return nil
}

// MemberTotal はタスクに対するメンバー1人分の作業時間。
type MemberTotal struct {
	Token        string  `json:"token"`
	DisplayName  string  `json:"display_name"`
	TotalSeconds int64   `json:"total_seconds"`
	Hours        float64 `json:"hours"`
	DaysLogged   int     `json:"days_logged"`
}

// TaskLedger はタスク別の作業時間一覧。
type TaskLedger struct {
	Task         model.Task    `json:"task"`
	TotalSeconds int64         `json:"total_seconds"`
	TotalHours   float64       `json:"total_hours"`
	Members      []MemberTotal `json:"members"`
}

// Service は作業時間記録のサービス層。
type Service struct {
	codec     report.IdentityCodec
	members   repository.MemberRepository
	tasks     repository.TaskRepository
	ledger    repository.LedgerRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	loc       *time.Location
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(
	codec report.IdentityCodec,
	members repository.MemberRepository,
	tasks repository.TaskRepository,
	ledger repository.LedgerRepository,
	sanitizer security.TextSanitizer,
	m metrics.MetricsCollector,
) *Service {
	return &Service{
		codec:     codec,
		members:   members,
		tasks:     tasks,
		ledger:    ledger,
		sanitizer: sanitizer,
		metrics:   m,
		loc:       report.Location,
	}
}

// Log は作業時間を記録し、記録のIDを返す。
// 記録と同時にタスク担当の紐付けを保証する。
func (s *Service) Log(ctx context.Context, in LogInput) (id int64, err error) {
	defer func() { s.recordWrite(opLog, err) }()

	if err := in.validate(); err != nil {
		return 0, err
	}
	memberID, ok := s.codec.Decode(in.Token)
	if !ok {
		return 0, model.NewInvalidTokenError()
	}

	entry := &model.LedgerEntry{
		MemberID:        memberID,
		TaskID:          in.TaskID,
		DurationSeconds: in.DurationSeconds,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return 0, model.NewTaskNotFoundError(in.TaskID)
		case errors.Is(err, repository.ErrMemberNotFound):
			return 0, model.NewMemberNotFoundError()
		}
		return 0, fmt.Errorf("作業時間の記録に失敗しました: %w", err)
	}

	slog.Info("作業時間を記録しました",
		slog.Int64("entry_id", entry.ID),
		slog.Int64("task_id", entry.TaskID),
		slog.Int64("duration_seconds", entry.DurationSeconds),
	)
	return entry.ID, nil
}

// Correct は(メンバー, タスク)の合計作業時間をDurationSecondsに置き換える。
// 記録が複数ある場合も合計が指定値になるよう、最新の記録以外は0秒になる。
// 対象の記録が1件もない場合はLEDGER_ENTRY_NOT_FOUNDを返す。
func (s *Service) Correct(ctx context.Context, in LogInput) (err error) {
	defer func() { s.recordWrite(opCorrect, err) }()

	if err := in.validate(); err != nil {
		return err
	}
	memberID, ok := s.codec.Decode(in.Token)
	if !ok {
		return model.NewInvalidTokenError()
	}

	n, err := s.ledger.UpdateDuration(ctx, memberID, in.TaskID, in.DurationSeconds)
	if err != nil {
		return fmt.Errorf("作業時間の修正に失敗しました: %w", err)
	}
	if n == 0 {
		return model.NewLedgerEntryNotFoundError(in.TaskID)
	}

	slog.Info("作業時間を修正しました",
		slog.Int64("task_id", in.TaskID),
		slog.Int64("rows", n),
	)
	return nil
}

// TaskLedger はタスクに記録された作業時間をメンバー別に集計して返す。
// 閲覧できるのは管理者とタスクの担当者のみ。記録が1件もない場合は(nil, nil)を返す。
func (s *Service) TaskLedger(ctx context.Context, tok string, taskID int64) (*TaskLedger, error) {
	if taskID <= 0 {
		return nil, model.NewInvalidInputError([]model.FieldProblem{
			{Field: "task_id", Problem: "must be a positive integer"},
		})
	}
	requester, ok := s.codec.Decode(tok)
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

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	if *role != model.RoleAdmin {
		assigned, err := s.tasks.IsAssigned(ctx, taskID, requester)
		if err != nil {
			return nil, fmt.Errorf("担当の確認に失敗しました: %w", err)
		}
		if !assigned {
			return nil, model.NewForbiddenError()
		}
	}

	entries, err := s.ledger.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("作業時間の取得に失敗しました: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	groups := report.Group(entries, s.loc)

	type row struct {
		id    int64
		total MemberTotal
	}
	rows := make([]row, 0, len(groups))
	var total int64
	for id, agg := range groups {
		m, err := s.members.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
		}
		if m == nil {
			return nil, model.NewMemberNotFoundError()
		}
		token, err := s.codec.Encode(id)
		if err != nil {
			return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
		}
		rows = append(rows, row{id: id, total: MemberTotal{
			Token:        token,
			DisplayName:  s.sanitizer.Sanitize(m.DisplayName),
			TotalSeconds: agg.TotalSeconds,
			Hours:        report.Round(report.Hours(agg.TotalSeconds)),
			DaysLogged:   len(agg.Daily),
		}})
		total += agg.TotalSeconds
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].total.DisplayName != rows[j].total.DisplayName {
			return rows[i].total.DisplayName < rows[j].total.DisplayName
		}
		return rows[i].id < rows[j].id
	})

	members := make([]MemberTotal, len(rows))
	for i, r := range rows {
		members[i] = r.total
	}

	return &TaskLedger{
		Task:         model.Task{ID: task.ID, Title: s.sanitizer.Sanitize(task.Title)},
		TotalSeconds: total,
		TotalHours:   report.Round(report.Hours(total)),
		Members:      members,
	}, nil
}

func (s *Service) recordWrite(op string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLedgerWrite(op, outcomeOf(err))
}

// outcomeOf は書き込み結果をメトリクスの結果区分に変換する。
func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return metrics.OutcomeError
	}
	switch apiErr.Code {
	case model.ErrCodeInvalidInput:
		return metrics.OutcomeInvalidInput
	case model.ErrCodeInvalidToken:
		return metrics.OutcomeInvalidToken
	case model.ErrCodeMemberNotFound, model.ErrCodeTaskNotFound, model.ErrCodeLedgerEntryNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
