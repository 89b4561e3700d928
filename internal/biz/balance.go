package biz

import (
	"context"
	"time"

	"credit-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// UserCreditBalance 账户积分余额领域对象
// TotalCredits 为赠送+付费积分总量（不含每日免费额度）
// GiftCredits/FrozenCredits 均为 TotalCredits 的子集
type UserCreditBalance struct {
	UID            string
	TotalCredits   int64
	UsedCredits    int64
	GiftCredits    int64
	FrozenCredits  int64
	DailyFreeQuota int64
	DailyUsedQuota int64
	QuotaResetDate time.Time
	UpdatedAt      time.Time
}

// AvailableDailyFree 当日剩余免费额度
func (b *UserCreditBalance) AvailableDailyFree() int64 {
	if remaining := b.DailyFreeQuota - b.DailyUsedQuota; remaining > 0 {
		return remaining
	}
	return 0
}

// AvailableGift 可用赠送积分
func (b *UserCreditBalance) AvailableGift() int64 {
	if b.GiftCredits > 0 {
		return b.GiftCredits
	}
	return 0
}

// AvailablePaid 可用付费积分（扣除赠送与冻结部分）
func (b *UserCreditBalance) AvailablePaid() int64 {
	if available := b.TotalCredits - b.GiftCredits - b.FrozenCredits; available > 0 {
		return available
	}
	return 0
}

// Available 当前可消费的积分总量
func (b *UserCreditBalance) Available() int64 {
	return b.AvailableDailyFree() + b.AvailableGift() + b.AvailablePaid()
}

// NeedsQuotaReset 判断每日额度计数是否已过期（跨天未重置）
func (b *UserCreditBalance) NeedsQuotaReset(today time.Time) bool {
	return b.QuotaResetDate.Before(today)
}

// ResetDailyQuota 归零每日已用额度
func (b *UserCreditBalance) ResetDailyQuota(today time.Time) {
	b.DailyUsedQuota = 0
	b.QuotaResetDate = today
}

// DailyQuotaInfo 每日免费额度信息
type DailyQuotaInfo struct {
	DailyFreeQuota      int64
	DailyUsedQuota      int64
	DailyRemainingQuota int64
	QuotaResetDate      time.Time
}

// BalanceRepo 余额数据层接口（定义在 biz 层）
type BalanceRepo interface {
	// GetOrCreateBalance 读取余额，首次访问时创建零值记录（每日免费额度取默认策略）
	GetOrCreateBalance(ctx context.Context, userID string) (*UserCreditBalance, error)
}

// BalanceUseCase 余额查询业务逻辑
type BalanceUseCase struct {
	repo    BalanceRepo
	log     *log.Helper
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewBalanceUseCase 创建余额 UseCase
func NewBalanceUseCase(repo BalanceRepo, logger log.Logger) *BalanceUseCase {
	return &BalanceUseCase{
		repo:    repo,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
		now:     time.Now,
	}
}

// GetBalance 获取余额（get-or-create 语义）
func (uc *BalanceUseCase) GetBalance(ctx context.Context, userID string) (*UserCreditBalance, error) {
	if uc.metrics != nil {
		uc.metrics.BalanceQueryTotal.Inc()
	}
	return uc.repo.GetOrCreateBalance(ctx, userID)
}

// GetDailyQuota 获取每日免费额度信息
// 跨天未重置时按重置后的视图返回，不回写（归零由定时任务负责）
func (uc *BalanceUseCase) GetDailyQuota(ctx context.Context, userID string) (*DailyQuotaInfo, error) {
	balance, err := uc.repo.GetOrCreateBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := Midnight(uc.now())
	used := balance.DailyUsedQuota
	resetDate := balance.QuotaResetDate
	if balance.NeedsQuotaReset(today) {
		used = 0
		resetDate = today
	}

	remaining := balance.DailyFreeQuota - used
	if remaining < 0 {
		remaining = 0
	}
	return &DailyQuotaInfo{
		DailyFreeQuota:      balance.DailyFreeQuota,
		DailyUsedQuota:      used,
		DailyRemainingQuota: remaining,
		QuotaResetDate:      resetDate,
	}, nil
}

// Midnight 将时间归一化到当天零点
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
