// Package member はメンバー管理のドメインロジックを提供する。
package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/repository"
	"github.com/hitoshi/teamboard/internal/security"
	"github.com/hitoshi/teamboard/internal/token"
)

// IdentityCodec はメンバー削除に必要なトークン操作のインターフェース。
type IdentityCodec interface {
	Decode(tok string) (int64, bool)
	SameIdentity(a, b string) token.Comparison
}

// Service はメンバー管理のサービス層。
// 担当タスクの残っていないメンバーの削除を提供する。
type Service struct {
	codec     IdentityCodec
	members   repository.MemberRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(codec IdentityCodec, members repository.MemberRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		codec:     codec,
		members:   members,
		sanitizer: sanitizer,
	}
}

// Remove はtargetTokenのメンバーを削除する。
// 本人による削除、または管理者による削除のみ許可する。
// 担当タスクが1件でも残っている場合は削除せず、そのタスク一覧を含むMEMBER_HAS_TASKSを返す。
func (s *Service) Remove(ctx context.Context, requesterToken, targetToken string) error {
	requester, ok := s.codec.Decode(requesterToken)
	if !ok {
		return model.NewInvalidTokenError()
	}

	var target int64
	switch s.codec.SameIdentity(requesterToken, targetToken) {
	case token.Invalid:
		return model.NewInvalidTokenError()
	case token.Same:
		target = requester
	case token.Different:
		role, err := s.members.FindRole(ctx, requester)
		if err != nil {
			return fmt.Errorf("権限の取得に失敗しました: %w", err)
		}
		if role == nil {
			return model.NewMemberNotFoundError()
		}
		if *role != model.RoleAdmin {
			return model.NewForbiddenError()
		}
		target, _ = s.codec.Decode(targetToken)
	}

	slog.Info("メンバー削除を開始します",
		slog.Int64("requester_id", requester),
		slog.Int64("member_id", target),
	)

	blocking, err := s.members.DeleteIfUnassigned(ctx, target)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return model.NewMemberNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}
	if len(blocking) > 0 {
		tasks := make([]model.Task, len(blocking))
		for i, t := range blocking {
			tasks[i] = model.Task{ID: t.ID, Title: s.sanitizer.Sanitize(t.Title)}
		}
		slog.Info("担当タスクが残っているためメンバーを削除しませんでした",
			slog.Int64("member_id", target),
			slog.Int("blocking_tasks", len(tasks)),
		)
		return model.NewMemberHasTasksError(tasks)
	}

	slog.Info("メンバー削除が完了しました",
		slog.Int64("member_id", target),
	)
	return nil
}
