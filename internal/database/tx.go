package database

import (
	"context"
	"errors"
	"fmt"

	apperrors "eventbook/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxBeginner 交易能力介面；*pgxpool.Pool 直接滿足，
// 任何提供 snapshot 隔離多列交易的儲存都可以實作
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsUniqueViolation 判斷是否違反指定的唯一約束；constraint 為空時不比對名稱
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsTxAborted 判斷錯誤是否屬於「交易無法提交，可整個重試」
func IsTxAborted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperrors.ErrTransactionAborted) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxCommitRollback) {
		return true
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

// WrapTxError 將可重試的儲存錯誤統一包成 ErrTransactionAborted，其他錯誤原樣返回
func WrapTxError(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrTransactionAborted) {
		return err
	}
	if IsTxAborted(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrTransactionAborted, err)
	}
	return err
}
