package biz

import "math"

// ModelPricing 模型计价信息（来自 ai_model 表，调用方只读）
// InputRatio/OutputRatio 为"每积分可兑换的字符数"，0 表示该方向不计费
type ModelPricing struct {
	ModelID       string
	Name          string
	InputRatio    float64
	OutputRatio   float64
	MinInputChars int64
	IsFree        bool
}

// ZeroRated 两个方向费率均为 0（非 IsFree 标记时仍要求账户已有积分）
func (m *ModelPricing) ZeroRated() bool {
	return m.InputRatio <= 0 && m.OutputRatio <= 0
}

// MembershipBenefits 会员权益（来自会员服务，消费前生效）
type MembershipBenefits struct {
	PlanID          string
	OutputFree      bool  // 输出字符免费
	FreeInputChars  int64 // 每次请求可豁免的输入字符数
	DailyTokenLimit int64
}

// CostResult 费用计算结果
// 费率在计算时冻结，随消费明细落库，事后不重算
type CostResult struct {
	InputCost       int64
	OutputCost      int64
	TotalCost       int64
	MemberFreeInput int64 // 会员豁免的输入字符数
	BenefitApplied  bool
	InputRatio      float64
	OutputRatio     float64
}

// CalculateCost 计算一次 AI 调用的积分费用（纯函数，无副作用）
// 规则：
//   - inputChars >= MinInputChars 且 InputRatio > 0 时，inputCost = ceil(inputChars/InputRatio)
//   - OutputRatio > 0 时，outputCost = ceil(outputChars/OutputRatio)
//   - 会员权益顺序：先输出免费，再豁免输入字符
//   - 取整始终向上，避免少收
func CalculateCost(model *ModelPricing, inputChars, outputChars int64, benefits *MembershipBenefits) *CostResult {
	result := &CostResult{
		InputRatio:  model.InputRatio,
		OutputRatio: model.OutputRatio,
	}

	if model.IsFree {
		return result
	}

	if inputChars >= model.MinInputChars && model.InputRatio > 0 {
		result.InputCost = ceilDiv(inputChars, model.InputRatio)
	}
	if model.OutputRatio > 0 {
		result.OutputCost = ceilDiv(outputChars, model.OutputRatio)
	}

	if benefits != nil {
		if benefits.OutputFree && result.OutputCost > 0 {
			result.OutputCost = 0
			result.BenefitApplied = true
		}
		if benefits.FreeInputChars > 0 && result.InputCost > 0 {
			exempt := benefits.FreeInputChars
			if inputChars < exempt {
				exempt = inputChars
			}
			discount := ceilDiv(exempt, model.InputRatio)
			if discount > result.InputCost {
				discount = result.InputCost
			}
			if discount > 0 {
				result.InputCost -= discount
				result.MemberFreeInput = exempt
				result.BenefitApplied = true
			}
		}
	}

	result.TotalCost = result.InputCost + result.OutputCost
	return result
}

// ceilDiv 字符数除以费率，向上取整
func ceilDiv(chars int64, ratio float64) int64 {
	if chars <= 0 || ratio <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(chars) / ratio))
}
