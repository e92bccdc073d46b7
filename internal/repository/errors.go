package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// foreignKeyViolation はPostgreSQLの外部キー制約違反のSQLSTATE。
const foreignKeyViolation = "23503"

// classifyFKError は外部キー制約違反を参照先に応じたエラーに変換する。
// 該当しない場合はnilを返す。
func classifyFKError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != foreignKeyViolation {
		return nil
	}
	switch {
	case strings.HasSuffix(pqErr.Constraint, "member_id_fkey"):
		return ErrMemberNotFound
	case strings.HasSuffix(pqErr.Constraint, "task_id_fkey"):
		return ErrTaskNotFound
	default:
		return nil
	}
}
