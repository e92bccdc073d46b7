package member

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/hitoshi/teamboard/internal/model"
	"github.com/hitoshi/teamboard/internal/repository"
	"github.com/hitoshi/teamboard/internal/security"
	"github.com/hitoshi/teamboard/internal/token"
)

// --- モック ---

type stubCodec struct{}

func (stubCodec) Decode(tok string) (int64, bool) {
	s, ok := strings.CutPrefix(tok, "tok-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

func (c stubCodec) SameIdentity(a, b string) token.Comparison {
	idA, ok := c.Decode(a)
	if !ok {
		return token.Invalid
	}
	idB, ok := c.Decode(b)
	if !ok {
		return token.Invalid
	}
	if idA == idB {
		return token.Same
	}
	return token.Different
}

type mockMemberRepo struct {
	roles                map[int64]model.Role
	deleteIfUnassignedFn func(ctx context.Context, id int64) ([]model.Task, error)
}

func (m *mockMemberRepo) FindRole(ctx context.Context, id int64) (*model.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id int64) (*model.Member, error) {
	return nil, nil
}

func (m *mockMemberRepo) DeleteIfUnassigned(ctx context.Context, id int64) ([]model.Task, error) {
	return m.deleteIfUnassignedFn(ctx, id)
}

func newRepo(deleteFn func(ctx context.Context, id int64) ([]model.Task, error)) *mockMemberRepo {
	return &mockMemberRepo{
		roles:                map[int64]model.Role{1: model.RoleAdmin, 2: model.RoleMember, 3: model.RoleMember},
		deleteIfUnassignedFn: deleteFn,
	}
}

func assertCode(t *testing.T, err error, want string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != want {
		t.Errorf("Code = %q, want %q", apiErr.Code, want)
	}
	return apiErr
}

// --- テスト ---

// TestService_Remove_ByAdmin は管理者が担当タスクのないメンバーを削除できることを検証する。
func TestService_Remove_ByAdmin(t *testing.T) {
	var deleted int64
	repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
		deleted = id
		return nil, nil
	})
	svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())

	if err := svc.Remove(context.Background(), "tok-1", "tok-2"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
}

// TestService_Remove_Self は本人が自分を削除できることを検証する。
func TestService_Remove_Self(t *testing.T) {
	var deleted int64
	repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
		deleted = id
		return nil, nil
	})
	svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())

	if err := svc.Remove(context.Background(), "tok-3", "tok-3"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}
}

// TestService_Remove_BlockedByTasks は担当タスクが残っていると削除が拒否されることを検証する。
func TestService_Remove_BlockedByTasks(t *testing.T) {
	repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
		return []model.Task{{ID: 10, Title: "<b>設計</b>"}, {ID: 11, Title: "実装"}}, nil
	})
	svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())

	err := svc.Remove(context.Background(), "tok-1", "tok-2")
	apiErr := assertCode(t, err, model.ErrCodeMemberHasTasks)
	if len(apiErr.BlockingTasks) != 2 {
		t.Fatalf("BlockingTasks = %+v, want 2 tasks", apiErr.BlockingTasks)
	}
	if apiErr.BlockingTasks[0].ID != 10 || apiErr.BlockingTasks[0].Title != "設計" {
		t.Errorf("BlockingTasks[0] = %+v", apiErr.BlockingTasks[0])
	}
}

// TestService_Remove_ForbiddenForMember は一般メンバーが他人を削除できないことを検証する。
func TestService_Remove_ForbiddenForMember(t *testing.T) {
	repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
		t.Fatal("delete should not be attempted")
		return nil, nil
	})
	svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())

	err := svc.Remove(context.Background(), "tok-2", "tok-3")
	assertCode(t, err, model.ErrCodeForbidden)
}

// TestService_Remove_InvalidTokens はどちらかのトークンが不正な場合にINVALID_TOKENを返すことを検証する。
func TestService_Remove_InvalidTokens(t *testing.T) {
	repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
		t.Fatal("delete should not be attempted")
		return nil, nil
	})
	svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())

	assertCode(t, svc.Remove(context.Background(), "bad", "tok-2"), model.ErrCodeInvalidToken)
	assertCode(t, svc.Remove(context.Background(), "tok-1", "bad"), model.ErrCodeInvalidToken)
}

// TestService_Remove_Errors は未登録メンバーとストレージ障害の扱いを検証する。
func TestService_Remove_Errors(t *testing.T) {
	t.Run("依頼者が未登録", func(t *testing.T) {
		repo := newRepo(nil)
		svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())
		assertCode(t, svc.Remove(context.Background(), "tok-50", "tok-2"), model.ErrCodeMemberNotFound)
	})

	t.Run("削除対象が存在しない", func(t *testing.T) {
		repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
			return nil, repository.ErrMemberNotFound
		})
		svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())
		assertCode(t, svc.Remove(context.Background(), "tok-1", "tok-60"), model.ErrCodeMemberNotFound)
	})

	t.Run("ストレージ障害", func(t *testing.T) {
		storageErr := errors.New("deadlock detected")
		repo := newRepo(func(ctx context.Context, id int64) ([]model.Task, error) {
			return nil, storageErr
		})
		svc := NewService(stubCodec{}, repo, security.NewTextSanitizer())
		err := svc.Remove(context.Background(), "tok-1", "tok-2")
		if !errors.Is(err, storageErr) {
			t.Errorf("err = %v, want wrapped storage error", err)
		}
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			t.Errorf("storage failure should not be an APIError: %v", apiErr)
		}
	})
}
