package biz

import (
	"context"
	"errors"
	"time"

	"credit-service/internal/constants"
	creditErrors "credit-service/internal/errors"
	"credit-service/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// LedgerRepo 统一数据层接口（用于跨领域事务）
// 消费/充值/退款必须在一个事务内完成余额更新与流水落库
type LedgerRepo interface {
	// 余额相关
	GetOrCreateBalance(ctx context.Context, userID string) (*UserCreditBalance, error)

	// 消费事务：锁定余额行 -> 分摊 -> 落库余额 + 消费明细 + 流水
	// 分摊在锁内对最新余额执行；积分不足返回 *InsufficientBalanceError，无任何写入
	ConsumeCredits(ctx context.Context, userID string, required int64, record *ConsumptionRecord, today time.Time) (*UserCreditBalance, *Allocation, error)

	// 入账事务
	Recharge(ctx context.Context, userID string, amount int64, isGift bool, source, relatedID, remark string) (*UserCreditBalance, error)
	Refund(ctx context.Context, userID string, amount int64, source, relatedID, remark string) (*UserCreditBalance, error)

	// 零费用消费只追加明细，不动余额
	AppendConsumptionRecord(ctx context.Context, record *ConsumptionRecord) error

	// 每日额度批量重置（幂等），返回受影响行数
	ResetDailyQuotas(ctx context.Context, today time.Time) (int64, error)
}

// ConsumeRequest 消费请求
type ConsumeRequest struct {
	UserID      string
	ModelID     string
	InputChars  int64
	OutputChars int64
	Source      string
	RelatedID   string
}

// ConsumeResult 消费结果
// UsedPaid 仅为付费积分部分，赠送积分的消耗只体现在消费明细里
type ConsumeResult struct {
	Success              bool
	TotalCost            int64
	InputCost            int64
	OutputCost           int64
	UsedDailyFree        int64
	UsedPaid             int64
	MemberBenefitApplied bool
	RemainingBalance     int64
	RemainingDailyFree   int64
}

// LedgerUseCase 积分账本业务逻辑（组合 UseCase）
// 负责协调费用计算、档位分摊与事务落库
type LedgerUseCase struct {
	balanceUseCase *BalanceUseCase
	txUseCase      *TransactionUseCase
	recordUseCase  *ConsumptionRecordUseCase
	modelRepo      ModelRepo
	membershipRepo MembershipRepo

	repo    LedgerRepo // 用于跨领域事务
	conf    *LedgerConfig
	log     *log.Helper
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewLedgerUseCase 创建账本 UseCase
func NewLedgerUseCase(
	balanceUseCase *BalanceUseCase,
	txUseCase *TransactionUseCase,
	recordUseCase *ConsumptionRecordUseCase,
	modelRepo ModelRepo,
	membershipRepo MembershipRepo,
	repo LedgerRepo,
	conf *LedgerConfig,
	logger log.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		balanceUseCase: balanceUseCase,
		txUseCase:      txUseCase,
		recordUseCase:  recordUseCase,
		modelRepo:      modelRepo,
		membershipRepo: membershipRepo,
		repo:           repo,
		conf:           conf,
		log:            log.NewHelper(logger),
		metrics:        metrics.GetMetrics(),
		now:            time.Now,
	}
}

// Consume 消费积分（核心入口）
// 加载模型计价与会员权益 -> 计算费用 -> 事务内分摊扣减并落库两类日志
func (uc *LedgerUseCase) Consume(ctx context.Context, req *ConsumeRequest) (*ConsumeResult, error) {
	startTime := time.Now()

	if req.UserID == "" || req.ModelID == "" || req.InputChars < 0 || req.OutputChars < 0 {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, creditErrors.ErrCodeInvalidAmount)
	}

	// 1. 加载模型计价
	model, err := uc.modelRepo.GetModel(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, creditErrors.ErrCodeModelNotFound)
	}

	// 2. 加载会员权益（非会员返回 nil，不是错误）
	benefits, err := uc.membershipRepo.GetActiveBenefits(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// 3. 计算费用（费率在此刻冻结）
	cost := CalculateCost(model, req.InputChars, req.OutputChars, benefits)

	record := &ConsumptionRecord{
		UID:             req.UserID,
		ModelID:         model.ModelID,
		ModelName:       model.Name,
		InputChars:      req.InputChars,
		OutputChars:     req.OutputChars,
		InputRatio:      cost.InputRatio,
		OutputRatio:     cost.OutputRatio,
		InputCost:       cost.InputCost,
		OutputCost:      cost.OutputCost,
		TotalCost:       cost.TotalCost,
		IsMember:        benefits != nil,
		MemberFreeInput: cost.MemberFreeInput,
		Source:          req.Source,
		RelatedID:       req.RelatedID,
	}

	// 4. 零费用短路：不加锁、不写流水，但消费明细照记（统计口径完整）
	if cost.TotalCost == 0 {
		result, err := uc.consumeFree(ctx, model, record)
		uc.observeConsume(model.ModelID, startTime, err, nil)
		return result, err
	}

	// 5. 事务扣减（行锁内分摊）
	today := Midnight(uc.now())
	balance, alloc, err := uc.repo.ConsumeCredits(ctx, req.UserID, cost.TotalCost, record, today)
	uc.observeConsume(model.ModelID, startTime, err, alloc)
	if err != nil {
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			uc.log.Infof("consume rejected: uid=%s, model=%s, %v", req.UserID, req.ModelID, insufficient)
			return nil, err
		}
		return nil, err
	}

	if balance.TotalCredits < uc.conf.BalanceLowThreshold {
		uc.metrics.BalanceLowAlert.Set(1)
	} else {
		uc.metrics.BalanceLowAlert.Set(0)
	}

	return &ConsumeResult{
		Success:              true,
		TotalCost:            cost.TotalCost,
		InputCost:            cost.InputCost,
		OutputCost:           cost.OutputCost,
		UsedDailyFree:        alloc.UsedDailyFree,
		UsedPaid:             alloc.UsedPaid,
		MemberBenefitApplied: cost.BenefitApplied,
		RemainingBalance:     balance.TotalCredits,
		RemainingDailyFree:   balance.AvailableDailyFree(),
	}, nil
}

// consumeFree 零费用消费路径
// 免费模型直接放行；零费率但未标记免费的模型要求账户已有积分（准入校验）
func (uc *LedgerUseCase) consumeFree(ctx context.Context, model *ModelPricing, record *ConsumptionRecord) (*ConsumeResult, error) {
	balance, err := uc.repo.GetOrCreateBalance(ctx, record.UID)
	if err != nil {
		return nil, err
	}

	if !model.IsFree && model.ZeroRated() && balance.TotalCredits <= 0 {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, creditErrors.ErrCodeNoCreditAccount)
	}

	if err := uc.repo.AppendConsumptionRecord(ctx, record); err != nil {
		return nil, err
	}

	return &ConsumeResult{
		Success:              true,
		MemberBenefitApplied: record.MemberFreeInput > 0 || (record.IsMember && record.OutputCost == 0 && record.OutputChars > 0),
		RemainingBalance:     balance.TotalCredits,
		RemainingDailyFree:   balance.AvailableDailyFree(),
	}, nil
}

// observeConsume 记录消费指标
func (uc *LedgerUseCase) observeConsume(modelID string, startTime time.Time, err error, alloc *Allocation) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ConsumeDuration.WithLabelValues(modelID).Observe(time.Since(startTime).Seconds())

	result := resultLabel(err)
	uc.metrics.ConsumeTotal.WithLabelValues(modelID, result).Inc()

	if err == nil && alloc != nil {
		uc.metrics.ConsumeCredits.WithLabelValues(constants.TierDailyFree).Add(float64(alloc.UsedDailyFree))
		uc.metrics.ConsumeCredits.WithLabelValues(constants.TierGift).Add(float64(alloc.UsedGift))
		uc.metrics.ConsumeCredits.WithLabelValues(constants.TierPaid).Add(float64(alloc.UsedPaid))
	}
}

// Recharge 充值（isGift 时入账到赠送积分）
func (uc *LedgerUseCase) Recharge(ctx context.Context, userID string, amount int64, isGift bool, source, relatedID, remark string) (*UserCreditBalance, error) {
	if amount <= 0 {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, creditErrors.ErrCodeInvalidAmount)
	}

	balance, err := uc.repo.Recharge(ctx, userID, amount, isGift, source, relatedID, remark)
	if uc.metrics != nil {
		uc.metrics.RechargeTotal.WithLabelValues(resultLabel(err)).Inc()
		if err == nil {
			uc.metrics.RechargeCredits.Add(float64(amount))
		}
	}
	if err != nil {
		return nil, err
	}

	uc.log.Infof("recharge ok: uid=%s, amount=%d, gift=%v, source=%s", userID, amount, isGift, source)
	return balance, nil
}

// Refund 退款入账
// 退款不区分档位，整体回补 TotalCredits，UsedCredits 同步回冲但不为负
func (uc *LedgerUseCase) Refund(ctx context.Context, userID string, amount int64, source, relatedID, remark string) (*UserCreditBalance, error) {
	if amount <= 0 {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, creditErrors.ErrCodeInvalidAmount)
	}

	balance, err := uc.repo.Refund(ctx, userID, amount, source, relatedID, remark)
	if uc.metrics != nil {
		uc.metrics.RefundTotal.WithLabelValues(resultLabel(err)).Inc()
		if err == nil {
			uc.metrics.RefundCredits.Add(float64(amount))
		}
	}
	if err != nil {
		return nil, err
	}

	uc.log.Infof("refund ok: uid=%s, amount=%d, source=%s", userID, amount, source)
	return balance, nil
}

// ResetDailyQuotas 重置所有账户的每日免费额度（每日零点执行，幂等）
func (uc *LedgerUseCase) ResetDailyQuotas(ctx context.Context) (int64, error) {
	startTime := time.Now()
	today := Midnight(uc.now())

	rows, err := uc.repo.ResetDailyQuotas(ctx, today)
	if uc.metrics != nil {
		uc.metrics.QuotaResetDuration.Observe(time.Since(startTime).Seconds())
		uc.metrics.QuotaResetTotal.WithLabelValues(resultLabel(err)).Inc()
		if err == nil {
			uc.metrics.QuotaResetRows.Set(float64(rows))
		}
	}
	if err != nil {
		return 0, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeQuotaResetFailed)
	}

	uc.log.Infof("daily quota reset completed: date=%s, rows=%d", today.Format(constants.TimeFormatDate), rows)
	return rows, nil
}

// ListTransactions 分页获取积分流水
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, userID, txType string, page, pageSize int) ([]*TransactionEntry, int64, error) {
	return uc.txUseCase.ListTransactions(ctx, userID, txType, page, pageSize)
}

// ListConsumptionRecords 分页获取消费明细
func (uc *LedgerUseCase) ListConsumptionRecords(ctx context.Context, userID string, filter *ConsumptionFilter, page, pageSize int) ([]*ConsumptionRecord, int64, error) {
	return uc.recordUseCase.ListRecords(ctx, userID, filter, page, pageSize)
}

// GetConsumptionStatistics 获取按来源分组的消费统计
func (uc *LedgerUseCase) GetConsumptionStatistics(ctx context.Context, userID string, start, end time.Time) (*ConsumptionStatistics, error) {
	return uc.recordUseCase.GetStatistics(ctx, userID, start, end)
}

func resultLabel(err error) string {
	if err == nil {
		return constants.ResultSuccess
	}
	var insufficient *InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return constants.ResultInsufficient
	}
	return constants.ResultFailed
}
