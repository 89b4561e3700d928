package data

import (
	"context"

	"credit-service/internal/biz"
	"credit-service/internal/data/model"
	creditErrors "credit-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// transactionRepo 积分流水数据访问
type transactionRepo struct {
	data *Data
	log  *log.Helper
}

// NewTransactionRepo 创建流水 repo（返回 biz.TransactionRepo 接口）
func NewTransactionRepo(data *Data, logger log.Logger) biz.TransactionRepo {
	return &transactionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateTransaction 追加一条流水
func (r *transactionRepo) CreateTransaction(ctx context.Context, entry *biz.TransactionEntry) error {
	m := toModelTransaction(entry)
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeTransactionCreateFailed)
	}
	entry.ID = m.TransactionID
	entry.CreatedAt = m.CreatedAt
	return nil
}

// ListTransactions 按时间倒序分页查询流水
func (r *transactionRepo) ListTransactions(ctx context.Context, userID, txType string, page, pageSize int) ([]*biz.TransactionEntry, int64, error) {
	var models []model.CreditTransaction
	var total int64

	db := r.data.db.WithContext(ctx).Model(&model.CreditTransaction{}).Where("uid = ?", userID)
	if txType != "" {
		db = db.Where("type = ?", txType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeTransactionListFailed)
	}

	offset := (page - 1) * pageSize
	if err := db.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, 0, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeTransactionListFailed)
	}

	entries := make([]*biz.TransactionEntry, 0, len(models))
	for i := range models {
		entries = append(entries, toBizTransaction(&models[i]))
	}
	return entries, total, nil
}

// toModelTransaction 领域对象转模型（ID 为空时生成）
func toModelTransaction(entry *biz.TransactionEntry) *model.CreditTransaction {
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &model.CreditTransaction{
		TransactionID: id,
		UID:           entry.UID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		Source:        entry.Source,
		RelatedID:     entry.RelatedID,
		ModelName:     entry.ModelName,
		Remark:        entry.Remark,
	}
}

// toBizTransaction 模型转领域对象
func toBizTransaction(m *model.CreditTransaction) *biz.TransactionEntry {
	return &biz.TransactionEntry{
		ID:            m.TransactionID,
		UID:           m.UID,
		Type:          m.Type,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Source:        m.Source,
		RelatedID:     m.RelatedID,
		ModelName:     m.ModelName,
		Remark:        m.Remark,
		CreatedAt:     m.CreatedAt,
	}
}
