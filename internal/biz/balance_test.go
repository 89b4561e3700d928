package biz

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBalanceRepo struct {
	balance *UserCreditBalance
	err     error
}

func (f *fakeBalanceRepo) GetOrCreateBalance(ctx context.Context, userID string) (*UserCreditBalance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.balance, nil
}

func TestAvailablePaid_ExcludesGiftAndFrozen(t *testing.T) {
	balance := &UserCreditBalance{TotalCredits: 1000, GiftCredits: 200, FrozenCredits: 300}
	assert.Equal(t, int64(500), balance.AvailablePaid())

	// 子集之和超过总量时不出现负数
	balance = &UserCreditBalance{TotalCredits: 100, GiftCredits: 80, FrozenCredits: 50}
	assert.Equal(t, int64(0), balance.AvailablePaid())
}

func TestAvailableDailyFree_Floor(t *testing.T) {
	balance := &UserCreditBalance{DailyFreeQuota: 500, DailyUsedQuota: 600}
	assert.Equal(t, int64(0), balance.AvailableDailyFree())
}

func TestNeedsQuotaReset(t *testing.T) {
	today := Midnight(time.Now())

	balance := &UserCreditBalance{QuotaResetDate: today}
	assert.False(t, balance.NeedsQuotaReset(today))

	balance.QuotaResetDate = today.AddDate(0, 0, -1)
	assert.True(t, balance.NeedsQuotaReset(today))

	balance.ResetDailyQuota(today)
	assert.False(t, balance.NeedsQuotaReset(today))
	assert.Equal(t, int64(0), balance.DailyUsedQuota)
}

func TestGetDailyQuota_Fresh(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	today := Midnight(now)

	uc := NewBalanceUseCase(&fakeBalanceRepo{balance: &UserCreditBalance{
		UID:            "u1",
		DailyFreeQuota: 500,
		DailyUsedQuota: 120,
		QuotaResetDate: today,
	}}, log.DefaultLogger)
	uc.now = func() time.Time { return now }

	info, err := uc.GetDailyQuota(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(500), info.DailyFreeQuota)
	assert.Equal(t, int64(120), info.DailyUsedQuota)
	assert.Equal(t, int64(380), info.DailyRemainingQuota)
	assert.Equal(t, today, info.QuotaResetDate)
}

func TestGetDailyQuota_StaleReturnsResetView(t *testing.T) {
	// 跨天未重置时按重置后视图返回，不回写
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.Local)
	yesterday := Midnight(now).AddDate(0, 0, -1)

	stale := &UserCreditBalance{
		UID:            "u1",
		DailyFreeQuota: 500,
		DailyUsedQuota: 500,
		QuotaResetDate: yesterday,
	}
	uc := NewBalanceUseCase(&fakeBalanceRepo{balance: stale}, log.DefaultLogger)
	uc.now = func() time.Time { return now }

	info, err := uc.GetDailyQuota(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(0), info.DailyUsedQuota)
	assert.Equal(t, int64(500), info.DailyRemainingQuota)
	assert.Equal(t, Midnight(now), info.QuotaResetDate)
	// 存储中的对象未被回写
	assert.Equal(t, int64(500), stale.DailyUsedQuota)
}

func TestMidnight(t *testing.T) {
	ts := time.Date(2026, 3, 10, 23, 59, 59, 999, time.Local)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local), Midnight(ts))
}
