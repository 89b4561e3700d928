package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBalance() *UserCreditBalance {
	return &UserCreditBalance{
		UID:            "u1",
		TotalCredits:   1000,
		GiftCredits:    200,
		DailyFreeQuota: 500,
		DailyUsedQuota: 0,
		QuotaResetDate: Midnight(time.Now()),
	}
}

func TestAllocate_DailyFreeOnly(t *testing.T) {
	// 免费额度足够时不动积分
	balance := newTestBalance()

	alloc, err := Allocate(300, balance)
	require.NoError(t, err)

	assert.Equal(t, int64(300), alloc.UsedDailyFree)
	assert.Equal(t, int64(0), alloc.UsedGift)
	assert.Equal(t, int64(0), alloc.UsedPaid)
	assert.Equal(t, int64(0), alloc.CreditsDeducted())
}

func TestAllocate_SpillToGift(t *testing.T) {
	// 免费额度用尽后溢出到赠送积分
	balance := newTestBalance()
	balance.DailyUsedQuota = 400 // 剩 100 免费

	alloc, err := Allocate(250, balance)
	require.NoError(t, err)

	assert.Equal(t, int64(100), alloc.UsedDailyFree)
	assert.Equal(t, int64(150), alloc.UsedGift)
	assert.Equal(t, int64(0), alloc.UsedPaid)
	assert.Equal(t, int64(150), alloc.CreditsDeducted())
}

func TestAllocate_SpillToPaid(t *testing.T) {
	// 三档依次用尽
	balance := newTestBalance()
	balance.DailyUsedQuota = 500 // 免费额度用尽

	alloc, err := Allocate(500, balance)
	require.NoError(t, err)

	assert.Equal(t, int64(0), alloc.UsedDailyFree)
	assert.Equal(t, int64(200), alloc.UsedGift)
	assert.Equal(t, int64(300), alloc.UsedPaid)
	assert.Equal(t, int64(500), alloc.Total())
}

func TestAllocate_Insufficient(t *testing.T) {
	// 总量不足时整体失败并返回各档位可用量
	balance := newTestBalance() // 免费 500 + 赠送 200 + 付费 800 = 1500

	alloc, err := Allocate(1501, balance)
	assert.Nil(t, alloc)

	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(1501), insufficient.Required)
	assert.Equal(t, int64(500), insufficient.AvailableDailyFree)
	assert.Equal(t, int64(200), insufficient.AvailableGift)
	assert.Equal(t, int64(800), insufficient.AvailablePaid)
}

func TestAllocate_InsufficientNoMutation(t *testing.T) {
	// 失败路径不修改余额
	balance := newTestBalance()
	before := *balance

	_, err := Allocate(99999, balance)
	assert.Error(t, err)
	assert.Equal(t, before, *balance)
}

func TestAllocate_ExactBoundary(t *testing.T) {
	// 恰好等于总可用量时成功
	balance := newTestBalance()

	alloc, err := Allocate(1500, balance)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), alloc.Total())
}

func TestAllocate_FrozenExcluded(t *testing.T) {
	// 冻结积分不可用
	balance := newTestBalance()
	balance.FrozenCredits = 800 // 付费部分全部冻结

	alloc, err := Allocate(700, balance)
	require.NoError(t, err)
	assert.Equal(t, int64(500), alloc.UsedDailyFree)
	assert.Equal(t, int64(200), alloc.UsedGift)

	_, err = Allocate(701, balance)
	assert.Error(t, err)
}

func TestAllocate_NegativeRequired(t *testing.T) {
	balance := newTestBalance()
	_, err := Allocate(-1, balance)
	assert.Error(t, err)
}

func TestApply_AllOrNothing(t *testing.T) {
	// 分摊结果一次性落到余额对象
	balance := newTestBalance()
	alloc := &Allocation{UsedDailyFree: 100, UsedGift: 200, UsedPaid: 300}

	balance.Apply(alloc)

	assert.Equal(t, int64(100), balance.DailyUsedQuota)
	assert.Equal(t, int64(0), balance.GiftCredits)
	assert.Equal(t, int64(500), balance.TotalCredits) // 1000 - 200 - 300
	assert.Equal(t, int64(600), balance.UsedCredits)
}

func TestApply_DailyFreeDoesNotTouchCredits(t *testing.T) {
	// 纯免费额度消费不动 TotalCredits
	balance := newTestBalance()
	alloc := &Allocation{UsedDailyFree: 50}

	balance.Apply(alloc)

	assert.Equal(t, int64(1000), balance.TotalCredits)
	assert.Equal(t, int64(200), balance.GiftCredits)
	assert.Equal(t, int64(50), balance.DailyUsedQuota)
	assert.Equal(t, int64(50), balance.UsedCredits)
}
