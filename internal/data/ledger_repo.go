package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"credit-service/internal/biz"
	"credit-service/internal/constants"
	"credit-service/internal/data/model"
	creditErrors "credit-service/internal/errors"
	"credit-service/internal/metrics"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerRepo 组合 repo，实现 biz.LedgerRepo 接口
// 跨领域事务（消费/充值/退款/重置）在这里完成，读操作委托给各领域 repo
type ledgerRepo struct {
	data        *Data
	conf        *biz.LedgerConfig
	log         *log.Helper
	sync        *redsync.Redsync
	metrics     *metrics.LedgerMetrics
	balanceRepo biz.BalanceRepo
	recordRepo  biz.ConsumptionRecordRepo
}

// NewLedgerRepo 创建组合 repo
func NewLedgerRepo(
	data *Data,
	conf *biz.LedgerConfig,
	sync *redsync.Redsync,
	logger log.Logger,
	balanceRepo biz.BalanceRepo,
	recordRepo biz.ConsumptionRecordRepo,
) biz.LedgerRepo {
	return &ledgerRepo{
		data:        data,
		conf:        conf,
		log:         log.NewHelper(logger),
		sync:        sync,
		metrics:     metrics.GetMetrics(),
		balanceRepo: balanceRepo,
		recordRepo:  recordRepo,
	}
}

// GetOrCreateBalance 获取用户余额
func (r *ledgerRepo) GetOrCreateBalance(ctx context.Context, userID string) (*biz.UserCreditBalance, error) {
	return r.balanceRepo.GetOrCreateBalance(ctx, userID)
}

// AppendConsumptionRecord 追加消费明细（零费用路径）
func (r *ledgerRepo) AppendConsumptionRecord(ctx context.Context, record *biz.ConsumptionRecord) error {
	return r.recordRepo.CreateConsumptionRecord(ctx, record)
}

// ConsumeCredits 核心扣减逻辑（事务）
// 行锁内按 免费额度 > 赠送 > 付费 分摊；余额更新与两类日志同事务落库
// 多实例部署时外层再加分布式锁，防止锁等待超时被误判为余额不足
func (r *ledgerRepo) ConsumeCredits(ctx context.Context, userID string, required int64, record *biz.ConsumptionRecord, today time.Time) (*biz.UserCreditBalance, *biz.Allocation, error) {
	if unlock, err := r.lockUser(ctx, userID); err != nil {
		return nil, nil, err
	} else if unlock != nil {
		defer unlock()
	}

	var updated *biz.UserCreditBalance
	var alloc *biz.Allocation

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := r.lockBalanceRow(ctx, tx, userID)
		if err != nil {
			return err
		}

		// 跨天未重置时机会性归零（归零的权威所有者仍是定时任务）
		if balance.NeedsQuotaReset(today) {
			balance.ResetDailyQuota(today)
		}

		before := balance.TotalCredits
		a, err := biz.Allocate(required, balance)
		if err != nil {
			// InsufficientBalanceError 原样上抛，事务回滚，无任何写入
			return err
		}
		balance.Apply(a)

		if err := r.saveBalance(ctx, tx, balance); err != nil {
			return err
		}

		// 消费明细：赠送与付费合并记入 used_paid
		record.ID = uuid.New().String()
		record.UsedDailyFree = a.UsedDailyFree
		record.UsedPaid = a.UsedGift + a.UsedPaid
		if err := tx.Create(toModelConsumptionRecord(record)).Error; err != nil {
			return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeConsumptionRecordCreateFailed)
		}

		// 流水：金额只反映 TotalCredits 的变化（纯免费消费时为 0）
		entry := &biz.TransactionEntry{
			UID:           userID,
			Type:          constants.TransactionTypeConsume,
			Amount:        -a.CreditsDeducted(),
			BalanceBefore: before,
			BalanceAfter:  balance.TotalCredits,
			Source:        record.Source,
			RelatedID:     record.RelatedID,
			ModelName:     record.ModelName,
		}
		if err := tx.Create(toModelTransaction(entry)).Error; err != nil {
			return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeTransactionCreateFailed)
		}

		updated = balance
		alloc = a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// 事务提交成功后刷新缓存并发布消费事件
	setBalanceCache(r.data, r.log, updated)
	r.publishConsumeEvent(ctx, record, alloc)

	return updated, alloc, nil
}

// Recharge 充值事务（isGift 时同步入账赠送积分）
func (r *ledgerRepo) Recharge(ctx context.Context, userID string, amount int64, isGift bool, source, relatedID, remark string) (*biz.UserCreditBalance, error) {
	if unlock, err := r.lockUser(ctx, userID); err != nil {
		return nil, err
	} else if unlock != nil {
		defer unlock()
	}

	var updated *biz.UserCreditBalance

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := r.lockBalanceRow(ctx, tx, userID)
		if err != nil {
			return err
		}

		before := balance.TotalCredits
		balance.TotalCredits += amount
		if isGift {
			balance.GiftCredits += amount
		}

		if err := r.saveBalance(ctx, tx, balance); err != nil {
			return err
		}

		txType := constants.TransactionTypeRecharge
		if isGift {
			txType = constants.TransactionTypeGift
		}
		entry := &biz.TransactionEntry{
			UID:           userID,
			Type:          txType,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  balance.TotalCredits,
			Source:        source,
			RelatedID:     relatedID,
			Remark:        remark,
		}
		if err := tx.Create(toModelTransaction(entry)).Error; err != nil {
			return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeTransactionCreateFailed)
		}

		updated = balance
		return nil
	})
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeRechargeFailed)
	}

	setBalanceCache(r.data, r.log, updated)
	return updated, nil
}

// Refund 退款事务
// 不区分档位，整体回补 TotalCredits；UsedCredits 回冲但不为负
func (r *ledgerRepo) Refund(ctx context.Context, userID string, amount int64, source, relatedID, remark string) (*biz.UserCreditBalance, error) {
	if unlock, err := r.lockUser(ctx, userID); err != nil {
		return nil, err
	} else if unlock != nil {
		defer unlock()
	}

	var updated *biz.UserCreditBalance

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := r.lockBalanceRow(ctx, tx, userID)
		if err != nil {
			return err
		}

		before := balance.TotalCredits
		balance.TotalCredits += amount
		if balance.UsedCredits > amount {
			balance.UsedCredits -= amount
		} else {
			balance.UsedCredits = 0
		}

		if err := r.saveBalance(ctx, tx, balance); err != nil {
			return err
		}

		entry := &biz.TransactionEntry{
			UID:           userID,
			Type:          constants.TransactionTypeRefund,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  balance.TotalCredits,
			Source:        source,
			RelatedID:     relatedID,
			Remark:        remark,
		}
		if err := tx.Create(toModelTransaction(entry)).Error; err != nil {
			return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeTransactionCreateFailed)
		}

		updated = balance
		return nil
	})
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeRefundFailed)
	}

	setBalanceCache(r.data, r.log, updated)
	return updated, nil
}

// ResetDailyQuotas 批量归零每日已用额度（幂等：只更新过期的行）
// 与在途消费事务并发时安全：两边都是锁内整行写，后提交者生效
func (r *ledgerRepo) ResetDailyQuotas(ctx context.Context, today time.Time) (int64, error) {
	result := r.data.db.WithContext(ctx).Model(&model.UserCreditBalance{}).
		Where("quota_reset_date < ?", today).
		Updates(map[string]interface{}{
			"daily_used_quota": 0,
			"quota_reset_date": today,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	// 归零后清掉余额缓存，避免 TTL 内读到旧的每日计数
	if result.RowsAffected > 0 && r.data.rdb != nil {
		var userIDs []string
		if err := r.data.db.WithContext(ctx).Model(&model.UserCreditBalance{}).
			Pluck("uid", &userIDs).Error; err != nil {
			r.log.Warnf("list uids for cache invalidation failed: %v", err)
			return result.RowsAffected, nil
		}
		pipe := r.data.rdb.Pipeline()
		for _, userID := range userIDs {
			pipe.Del(ctx, constants.RedisKeyBalance+userID)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			r.log.Warnf("invalidate balance caches failed: %v", err)
		}
	}

	return result.RowsAffected, nil
}

// lockUser 获取按用户的分布式消费锁，返回解锁函数
func (r *ledgerRepo) lockUser(ctx context.Context, userID string) (func(), error) {
	if r.sync == nil {
		return nil, nil
	}

	lockStartTime := time.Now()
	mutex := r.sync.NewMutex(constants.RedisKeyConsumeLock+userID, redsync.WithExpiry(5*time.Second))
	if err := mutex.Lock(); err != nil {
		r.log.Errorf("failed to acquire consume lock: uid=%s, error=%v", userID, err)
		if r.metrics != nil {
			r.metrics.LockAcquireTotal.WithLabelValues(constants.ResultFailed).Inc()
			r.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
		}
		return nil, pkgErrors.NewBizErrorWithLang(ctx, creditErrors.ErrCodeConsumeLockFailed)
	}
	if r.metrics != nil {
		r.metrics.LockAcquireTotal.WithLabelValues(constants.ResultSuccess).Inc()
		r.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
	}

	return func() {
		if ok, err := mutex.Unlock(); !ok || err != nil {
			r.log.Warnf("failed to unlock consume lock: uid=%s, error=%v", userID, err)
		}
	}, nil
}

// lockBalanceRow 行锁读取余额（SELECT ... FOR UPDATE），不存在时在事务内创建
func (r *ledgerRepo) lockBalanceRow(ctx context.Context, tx *gorm.DB, userID string) (*biz.UserCreditBalance, error) {
	var m model.UserCreditBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uid = ?", userID).First(&m).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeBalanceGetFailed)
		}
		m = newBalanceModel(userID, r.conf.DefaultDailyFreeQuota, time.Now())
		if err := tx.Create(&m).Error; err != nil {
			return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeBalanceCreateFailed)
		}
	}
	return toBizBalance(&m), nil
}

// saveBalance 整行回写余额（所有字段一次更新，保证 all-or-nothing）
func (r *ledgerRepo) saveBalance(ctx context.Context, tx *gorm.DB, balance *biz.UserCreditBalance) error {
	err := tx.Model(&model.UserCreditBalance{}).
		Where("uid = ?", balance.UID).
		Updates(map[string]interface{}{
			"total_credits":    balance.TotalCredits,
			"used_credits":     balance.UsedCredits,
			"gift_credits":     balance.GiftCredits,
			"frozen_credits":   balance.FrozenCredits,
			"daily_used_quota": balance.DailyUsedQuota,
			"quota_reset_date": balance.QuotaResetDate,
		}).Error
	if err != nil {
		return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeBalanceUpdateFailed)
	}
	return nil
}

// publishConsumeEvent 发布消费事件到 RocketMQ（尽力而为，失败只记日志）
func (r *ledgerRepo) publishConsumeEvent(ctx context.Context, record *biz.ConsumptionRecord, alloc *biz.Allocation) {
	if r.data.mq == nil || r.data.mqTopic == "" {
		return
	}

	event := &biz.ConsumeEvent{
		RecordID:      record.ID,
		UserID:        record.UID,
		ModelID:       record.ModelID,
		Source:        record.Source,
		TotalCost:     record.TotalCost,
		UsedDailyFree: alloc.UsedDailyFree,
		UsedGift:      alloc.UsedGift,
		UsedPaid:      alloc.UsedPaid,
		InputChars:    record.InputChars,
		OutputChars:   record.OutputChars,
		ConsumeTime:   time.Now(),
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := r.data.mq.SendSync(ctx, primitive.NewMessage(r.data.mqTopic, msgBytes)); err != nil {
		r.log.Warnf("publish consume event failed: uid=%s, record=%s, error=%v", record.UID, record.ID, err)
	}
}
