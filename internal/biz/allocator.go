package biz

import "fmt"

// Allocation 一次消费在三个档位上的分摊结果
type Allocation struct {
	UsedDailyFree int64
	UsedGift      int64
	UsedPaid      int64
}

// Total 实际扣减的积分总数
func (a *Allocation) Total() int64 {
	return a.UsedDailyFree + a.UsedGift + a.UsedPaid
}

// CreditsDeducted 从 TotalCredits 上实际扣减的部分（免费额度不动余额）
func (a *Allocation) CreditsDeducted() int64 {
	return a.UsedGift + a.UsedPaid
}

// InsufficientBalanceError 积分不足错误，携带各档位可用量便于调用方提示
// 不建议重试：余额不会因重试而增加
type InsufficientBalanceError struct {
	Required           int64
	AvailableDailyFree int64
	AvailableGift      int64
	AvailablePaid      int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient credits: required=%d, available=%d (daily_free=%d, gift=%d, paid=%d)",
		e.Required, e.AvailableDailyFree+e.AvailableGift+e.AvailablePaid,
		e.AvailableDailyFree, e.AvailableGift, e.AvailablePaid)
}

// Allocate 按严格优先级分摊消费：每日免费额度 > 赠送积分 > 付费积分
// 只读快照计算，不修改余额；不足时整体失败，不做部分扣减
func Allocate(required int64, balance *UserCreditBalance) (*Allocation, error) {
	if required < 0 {
		return nil, fmt.Errorf("required cost must be non-negative, got %d", required)
	}

	availableDailyFree := balance.AvailableDailyFree()
	availableGift := balance.AvailableGift()
	availablePaid := balance.AvailablePaid()

	if availableDailyFree+availableGift+availablePaid < required {
		return nil, &InsufficientBalanceError{
			Required:           required,
			AvailableDailyFree: availableDailyFree,
			AvailableGift:      availableGift,
			AvailablePaid:      availablePaid,
		}
	}

	alloc := &Allocation{}
	remainder := required

	alloc.UsedDailyFree = min64(availableDailyFree, remainder)
	remainder -= alloc.UsedDailyFree

	alloc.UsedGift = min64(availableGift, remainder)
	remainder -= alloc.UsedGift

	alloc.UsedPaid = min64(availablePaid, remainder)
	remainder -= alloc.UsedPaid

	// 前置总量判断保证余数必然归零
	if remainder != 0 {
		return nil, fmt.Errorf("allocation remainder not zero: %d", remainder)
	}
	return alloc, nil
}

// Apply 将分摊结果一次性落到余额对象上
// 所有字段在同一处更新，保证 all-or-nothing 合约可单测
func (b *UserCreditBalance) Apply(alloc *Allocation) {
	b.DailyUsedQuota += alloc.UsedDailyFree
	b.GiftCredits -= alloc.UsedGift
	b.TotalCredits -= alloc.CreditsDeducted()
	b.UsedCredits += alloc.Total()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
