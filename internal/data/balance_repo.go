package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credit-service/internal/biz"
	"credit-service/internal/constants"
	"credit-service/internal/data/model"
	creditErrors "credit-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// balanceRepo 余额相关数据访问
type balanceRepo struct {
	data *Data
	conf *biz.LedgerConfig
	log  *log.Helper
}

// NewBalanceRepo 创建余额 repo（返回 biz.BalanceRepo 接口）
func NewBalanceRepo(data *Data, conf *biz.LedgerConfig, logger log.Logger) biz.BalanceRepo {
	return &balanceRepo{
		data: data,
		conf: conf,
		log:  log.NewHelper(logger),
	}
}

// GetOrCreateBalance 获取用户余额，首次访问时创建零值记录
// 读路径不加行锁；缓存命中时直接返回（读已提交隔离下不会读到半行）
func (r *balanceRepo) GetOrCreateBalance(ctx context.Context, userID string) (*biz.UserCreditBalance, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}

	// 先尝试从 Redis 获取
	if r.data.rdb != nil {
		balanceKey := constants.RedisKeyBalance + userID
		cached, err := r.data.rdb.Get(ctx, balanceKey).Result()
		if err == nil {
			var balance biz.UserCreditBalance
			if err := json.Unmarshal([]byte(cached), &balance); err == nil {
				return &balance, nil
			}
		}
	}

	// 缓存未命中，从数据库查询
	var m model.UserCreditBalance
	err := r.data.db.WithContext(ctx).Where("uid = ?", userID).First(&m).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Errorf("GetOrCreateBalance query failed: uid=%s, error=%v", userID, err)
			return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeBalanceGetFailed)
		}

		// 首次访问，按默认策略创建
		m = newBalanceModel(userID, r.conf.DefaultDailyFreeQuota, time.Now())
		if err := r.data.db.WithContext(ctx).Create(&m).Error; err != nil {
			// 并发创建冲突时重查一次
			if qErr := r.data.db.WithContext(ctx).Where("uid = ?", userID).First(&m).Error; qErr != nil {
				return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeBalanceCreateFailed)
			}
		}
	}

	result := toBizBalance(&m)
	r.refreshBalanceCache(result)
	return result, nil
}

// refreshBalanceCache 将余额快照写入缓存（独立短超时 context，不阻塞主流程）
func (r *balanceRepo) refreshBalanceCache(balance *biz.UserCreditBalance) {
	setBalanceCache(r.data, r.log, balance)
}

// setBalanceCache 余额缓存写入（balanceRepo 与 ledgerRepo 共用）
func setBalanceCache(data *Data, logger *log.Helper, balance *biz.UserCreditBalance) {
	if data.rdb == nil || balance == nil {
		return
	}
	payload, err := json.Marshal(balance)
	if err != nil {
		return
	}
	cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cacheCancel()
	balanceKey := constants.RedisKeyBalance + balance.UID
	if err := data.rdb.Set(cacheCtx, balanceKey, payload, 5*time.Minute).Err(); err != nil {
		// 缓存更新失败不影响主流程，只记录日志
		logger.Warnf("failed to update balance cache: uid=%s, error=%v", balance.UID, err)
	}
}

// dropBalanceCache 删除余额缓存
func dropBalanceCache(data *Data, logger *log.Helper, userID string) {
	if data.rdb == nil {
		return
	}
	cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cacheCancel()
	if err := data.rdb.Del(cacheCtx, constants.RedisKeyBalance+userID).Err(); err != nil {
		logger.Warnf("failed to drop balance cache: uid=%s, error=%v", userID, err)
	}
}

// newBalanceModel 构造零值余额行（每日免费额度取默认策略）
func newBalanceModel(userID string, dailyFreeQuota int64, now time.Time) model.UserCreditBalance {
	return model.UserCreditBalance{
		BalanceID:      uuid.New().String(),
		UID:            userID,
		DailyFreeQuota: dailyFreeQuota,
		QuotaResetDate: biz.Midnight(now),
	}
}

// toBizBalance 模型转领域对象
func toBizBalance(m *model.UserCreditBalance) *biz.UserCreditBalance {
	return &biz.UserCreditBalance{
		UID:            m.UID,
		TotalCredits:   m.TotalCredits,
		UsedCredits:    m.UsedCredits,
		GiftCredits:    m.GiftCredits,
		FrozenCredits:  m.FrozenCredits,
		DailyFreeQuota: m.DailyFreeQuota,
		DailyUsedQuota: m.DailyUsedQuota,
		QuotaResetDate: m.QuotaResetDate,
		UpdatedAt:      m.UpdatedAt,
	}
}
