package biz

import "context"

// ModelRepo 模型计价查询接口（ai_model 表由管理后台维护，这里只读）
type ModelRepo interface {
	// GetModel 返回已上架模型的计价信息，不存在或未上架返回 nil
	GetModel(ctx context.Context, modelID string) (*ModelPricing, error)
}

// MembershipRepo 会员权益查询接口（会员体系由 membership 模块维护，这里只读）
type MembershipRepo interface {
	// GetActiveBenefits 返回用户当前生效会员的套餐权益，非会员返回 nil
	GetActiveBenefits(ctx context.Context, userID string) (*MembershipBenefits, error)
}
