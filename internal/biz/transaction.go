package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// TransactionEntry 积分流水领域对象（追加写入，落库后不可变更）
// Amount 带符号：正数入账，负数出账；BalanceBefore/After 针对 TotalCredits
type TransactionEntry struct {
	ID            string
	UID           string
	Type          string // recharge/consume/refund/expire/gift
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Source        string
	RelatedID     string
	ModelName     string
	Remark        string
	CreatedAt     time.Time
}

// TransactionRepo 流水数据层接口（定义在 biz 层）
type TransactionRepo interface {
	CreateTransaction(ctx context.Context, entry *TransactionEntry) error
	ListTransactions(ctx context.Context, userID, txType string, page, pageSize int) ([]*TransactionEntry, int64, error)
}

// TransactionUseCase 流水业务逻辑
type TransactionUseCase struct {
	repo TransactionRepo
	log  *log.Helper
}

// NewTransactionUseCase 创建流水 UseCase
func NewTransactionUseCase(repo TransactionRepo, logger log.Logger) *TransactionUseCase {
	return &TransactionUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// ListTransactions 分页获取流水（按时间倒序，txType 为空时不过滤）
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, userID, txType string, page, pageSize int) ([]*TransactionEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return uc.repo.ListTransactions(ctx, userID, txType, page, pageSize)
}
