package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost_Basic(t *testing.T) {
	// 输入 1000 字符 / 费率 100，输出 500 字符 / 费率 50
	model := &ModelPricing{
		ModelID:     "gpt-4",
		InputRatio:  100,
		OutputRatio: 50,
	}

	cost := CalculateCost(model, 1000, 500, nil)

	assert.Equal(t, int64(10), cost.InputCost)
	assert.Equal(t, int64(10), cost.OutputCost)
	assert.Equal(t, int64(20), cost.TotalCost)
	assert.False(t, cost.BenefitApplied)
}

func TestCalculateCost_CeilRounding(t *testing.T) {
	// 101/100 向上取整为 2，不少收
	model := &ModelPricing{InputRatio: 100, OutputRatio: 100}

	cost := CalculateCost(model, 101, 1, nil)

	assert.Equal(t, int64(2), cost.InputCost)
	assert.Equal(t, int64(1), cost.OutputCost)
	assert.Equal(t, int64(3), cost.TotalCost)
}

func TestCalculateCost_MinInputChars(t *testing.T) {
	// 输入低于起计字符数时输入方向免费
	model := &ModelPricing{InputRatio: 100, OutputRatio: 100, MinInputChars: 200}

	cost := CalculateCost(model, 199, 0, nil)
	assert.Equal(t, int64(0), cost.InputCost)
	assert.Equal(t, int64(0), cost.TotalCost)

	cost = CalculateCost(model, 200, 0, nil)
	assert.Equal(t, int64(2), cost.InputCost)
}

func TestCalculateCost_FreeModel(t *testing.T) {
	// 免费模型任何用量均为零费用
	model := &ModelPricing{InputRatio: 100, OutputRatio: 100, IsFree: true}

	cost := CalculateCost(model, 100000, 100000, nil)

	assert.Equal(t, int64(0), cost.TotalCost)
	assert.Equal(t, int64(0), cost.InputCost)
	assert.Equal(t, int64(0), cost.OutputCost)
}

func TestCalculateCost_ZeroRatio(t *testing.T) {
	// 费率为 0 的方向不计费
	model := &ModelPricing{InputRatio: 0, OutputRatio: 100}

	cost := CalculateCost(model, 99999, 100, nil)

	assert.Equal(t, int64(0), cost.InputCost)
	assert.Equal(t, int64(1), cost.OutputCost)
	assert.True(t, model.ZeroRated() == false)

	zero := &ModelPricing{}
	assert.True(t, zero.ZeroRated())
}

func TestCalculateCost_MemberOutputFree(t *testing.T) {
	// 会员输出免费：只抵扣输出费用
	model := &ModelPricing{InputRatio: 100, OutputRatio: 50}
	benefits := &MembershipBenefits{OutputFree: true}

	cost := CalculateCost(model, 1000, 500, benefits)

	assert.Equal(t, int64(10), cost.InputCost)
	assert.Equal(t, int64(0), cost.OutputCost)
	assert.Equal(t, int64(10), cost.TotalCost)
	assert.True(t, cost.BenefitApplied)
}

func TestCalculateCost_MemberFreeInputChars(t *testing.T) {
	// 会员输入豁免：1000 字符中豁免 300，折算 3 积分
	model := &ModelPricing{InputRatio: 100, OutputRatio: 50}
	benefits := &MembershipBenefits{FreeInputChars: 300}

	cost := CalculateCost(model, 1000, 0, benefits)

	assert.Equal(t, int64(7), cost.InputCost)
	assert.Equal(t, int64(300), cost.MemberFreeInput)
	assert.True(t, cost.BenefitApplied)
	assert.Equal(t, int64(7), cost.TotalCost)
}

func TestCalculateCost_MemberExemptionFloor(t *testing.T) {
	// 豁免折算积分超过应收时收 0，不出现负数
	model := &ModelPricing{InputRatio: 100, OutputRatio: 0}
	benefits := &MembershipBenefits{FreeInputChars: 100000}

	cost := CalculateCost(model, 250, 0, benefits)

	assert.Equal(t, int64(0), cost.InputCost)
	assert.Equal(t, int64(0), cost.TotalCost)
	// 豁免量按实际输入封顶
	assert.Equal(t, int64(250), cost.MemberFreeInput)
}

func TestCalculateCost_RatioSnapshot(t *testing.T) {
	// 费率快照随结果返回，供消费明细落库
	model := &ModelPricing{InputRatio: 123.5, OutputRatio: 67.25}

	cost := CalculateCost(model, 0, 0, nil)

	assert.Equal(t, 123.5, cost.InputRatio)
	assert.Equal(t, 67.25, cost.OutputRatio)
}
