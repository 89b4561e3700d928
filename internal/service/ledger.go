package service

import (
	"context"
	"errors"
	"time"

	"credit-service/internal/biz"
	"credit-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// LedgerService 积分账本对外服务
// 传输层无关的 DTO 映射；HTTP 路由在 server 包注册
type LedgerService struct {
	uc        *biz.LedgerUseCase
	balanceUc *biz.BalanceUseCase
	log       *log.Helper
}

// NewLedgerService 创建 LedgerService
func NewLedgerService(uc *biz.LedgerUseCase, balanceUc *biz.BalanceUseCase, logger log.Logger) *LedgerService {
	return &LedgerService{
		uc:        uc,
		balanceUc: balanceUc,
		log:       log.NewHelper(logger),
	}
}

// BalanceReply 余额视图
type BalanceReply struct {
	UserID         string `json:"user_id"`
	TotalCredits   int64  `json:"total_credits"`
	UsedCredits    int64  `json:"used_credits"`
	GiftCredits    int64  `json:"gift_credits"`
	FrozenCredits  int64  `json:"frozen_credits"`
	DailyFreeQuota int64  `json:"daily_free_quota"`
	DailyUsedQuota int64  `json:"daily_used_quota"`
	Available      int64  `json:"available"`
}

// GetBalanceRequest 余额查询请求
type GetBalanceRequest struct {
	UserID string `json:"user_id"`
}

// GetBalance 获取余额（首次访问创建零值账户）
func (s *LedgerService) GetBalance(ctx context.Context, req *GetBalanceRequest) (*BalanceReply, error) {
	balance, err := s.balanceUc.GetBalance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return toBalanceReply(balance), nil
}

// DailyQuotaReply 每日免费额度视图
type DailyQuotaReply struct {
	DailyFreeQuota      int64  `json:"daily_free_quota"`
	DailyUsedQuota      int64  `json:"daily_used_quota"`
	DailyRemainingQuota int64  `json:"daily_remaining_quota"`
	QuotaResetDate      string `json:"quota_reset_date"`
}

// GetDailyQuota 获取每日免费额度信息
func (s *LedgerService) GetDailyQuota(ctx context.Context, req *GetBalanceRequest) (*DailyQuotaReply, error) {
	info, err := s.balanceUc.GetDailyQuota(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &DailyQuotaReply{
		DailyFreeQuota:      info.DailyFreeQuota,
		DailyUsedQuota:      info.DailyUsedQuota,
		DailyRemainingQuota: info.DailyRemainingQuota,
		QuotaResetDate:      info.QuotaResetDate.Format(constants.TimeFormatDate),
	}, nil
}

// ConsumeRequest 消费请求
type ConsumeRequest struct {
	UserID      string `json:"user_id"`
	ModelID     string `json:"model_id"`
	InputChars  int64  `json:"input_chars"`
	OutputChars int64  `json:"output_chars"`
	Source      string `json:"source"`
	RelatedID   string `json:"related_id"`
}

// ConsumeReply 消费结果
// 积分不足时 success=false 并带各档位可用量，HTTP 层仍返回 200
type ConsumeReply struct {
	Success              bool   `json:"success"`
	Message              string `json:"message,omitempty"`
	TotalCost            int64  `json:"total_cost"`
	InputCost            int64  `json:"input_cost"`
	OutputCost           int64  `json:"output_cost"`
	UsedDailyFree        int64  `json:"used_daily_free"`
	UsedPaid             int64  `json:"used_paid"`
	MemberBenefitApplied bool   `json:"member_benefit_applied"`
	RemainingBalance     int64  `json:"remaining_balance"`
	RemainingDailyFree   int64  `json:"remaining_daily_free"`

	// 积分不足时的缺口明细
	Required           int64 `json:"required,omitempty"`
	AvailableDailyFree int64 `json:"available_daily_free,omitempty"`
	AvailableGift      int64 `json:"available_gift,omitempty"`
	AvailablePaid      int64 `json:"available_paid,omitempty"`
}

// Consume 消费积分
func (s *LedgerService) Consume(ctx context.Context, req *ConsumeRequest) (*ConsumeReply, error) {
	result, err := s.uc.Consume(ctx, &biz.ConsumeRequest{
		UserID:      req.UserID,
		ModelID:     req.ModelID,
		InputChars:  req.InputChars,
		OutputChars: req.OutputChars,
		Source:      req.Source,
		RelatedID:   req.RelatedID,
	})
	if err != nil {
		var insufficient *biz.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			return &ConsumeReply{
				Success:            false,
				Message:            "insufficient credits",
				Required:           insufficient.Required,
				AvailableDailyFree: insufficient.AvailableDailyFree,
				AvailableGift:      insufficient.AvailableGift,
				AvailablePaid:      insufficient.AvailablePaid,
			}, nil
		}
		return nil, err
	}

	return &ConsumeReply{
		Success:              result.Success,
		TotalCost:            result.TotalCost,
		InputCost:            result.InputCost,
		OutputCost:           result.OutputCost,
		UsedDailyFree:        result.UsedDailyFree,
		UsedPaid:             result.UsedPaid,
		MemberBenefitApplied: result.MemberBenefitApplied,
		RemainingBalance:     result.RemainingBalance,
		RemainingDailyFree:   result.RemainingDailyFree,
	}, nil
}

// RechargeRequest 充值请求
type RechargeRequest struct {
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	IsGift    bool   `json:"is_gift"`
	Source    string `json:"source"`
	RelatedID string `json:"related_id"`
	Remark    string `json:"remark"`
}

// Recharge 充值入账
func (s *LedgerService) Recharge(ctx context.Context, req *RechargeRequest) (*BalanceReply, error) {
	balance, err := s.uc.Recharge(ctx, req.UserID, req.Amount, req.IsGift, req.Source, req.RelatedID, req.Remark)
	if err != nil {
		return nil, err
	}
	return toBalanceReply(balance), nil
}

// RefundRequest 退款请求
type RefundRequest struct {
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Source    string `json:"source"`
	RelatedID string `json:"related_id"`
	Remark    string `json:"remark"`
}

// Refund 退款入账
func (s *LedgerService) Refund(ctx context.Context, req *RefundRequest) (*BalanceReply, error) {
	balance, err := s.uc.Refund(ctx, req.UserID, req.Amount, req.Source, req.RelatedID, req.Remark)
	if err != nil {
		return nil, err
	}
	return toBalanceReply(balance), nil
}

// ListTransactionsRequest 流水分页查询请求
type ListTransactionsRequest struct {
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// TransactionItem 流水条目
type TransactionItem struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	Source        string `json:"source"`
	RelatedID     string `json:"related_id,omitempty"`
	ModelName     string `json:"model_name,omitempty"`
	Remark        string `json:"remark,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// ListTransactionsReply 流水分页
type ListTransactionsReply struct {
	Total int64              `json:"total"`
	Items []*TransactionItem `json:"items"`
}

// ListTransactions 分页获取流水
func (s *LedgerService) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsReply, error) {
	entries, total, err := s.uc.ListTransactions(ctx, req.UserID, req.Type, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	reply := &ListTransactionsReply{Total: total, Items: make([]*TransactionItem, 0, len(entries))}
	for _, e := range entries {
		reply.Items = append(reply.Items, &TransactionItem{
			ID:            e.ID,
			Type:          e.Type,
			Amount:        e.Amount,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			Source:        e.Source,
			RelatedID:     e.RelatedID,
			ModelName:     e.ModelName,
			Remark:        e.Remark,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}
	return reply, nil
}

// ListConsumptionRecordsRequest 消费明细分页查询请求
type ListConsumptionRecordsRequest struct {
	UserID    string `json:"user_id"`
	ModelID   string `json:"model_id"`
	Source    string `json:"source"`
	StartTime string `json:"start_time"` // RFC3339，可空
	EndTime   string `json:"end_time"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// ConsumptionRecordItem 消费明细条目
type ConsumptionRecordItem struct {
	ID              string  `json:"id"`
	ModelID         string  `json:"model_id"`
	ModelName       string  `json:"model_name"`
	InputChars      int64   `json:"input_chars"`
	OutputChars     int64   `json:"output_chars"`
	InputRatio      float64 `json:"input_ratio"`
	OutputRatio     float64 `json:"output_ratio"`
	InputCost       int64   `json:"input_cost"`
	OutputCost      int64   `json:"output_cost"`
	TotalCost       int64   `json:"total_cost"`
	UsedDailyFree   int64   `json:"used_daily_free"`
	UsedPaid        int64   `json:"used_paid"`
	IsMember        bool    `json:"is_member"`
	MemberFreeInput int64   `json:"member_free_input"`
	Source          string  `json:"source"`
	RelatedID       string  `json:"related_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ListConsumptionRecordsReply 消费明细分页
type ListConsumptionRecordsReply struct {
	Total int64                    `json:"total"`
	Items []*ConsumptionRecordItem `json:"items"`
}

// ListConsumptionRecords 分页获取消费明细
func (s *LedgerService) ListConsumptionRecords(ctx context.Context, req *ListConsumptionRecordsRequest) (*ListConsumptionRecordsReply, error) {
	filter := &biz.ConsumptionFilter{
		ModelID: req.ModelID,
		Source:  req.Source,
	}
	if req.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, req.StartTime); err == nil {
			filter.StartTime = t
		}
	}
	if req.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, req.EndTime); err == nil {
			filter.EndTime = t
		}
	}

	records, total, err := s.uc.ListConsumptionRecords(ctx, req.UserID, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	reply := &ListConsumptionRecordsReply{Total: total, Items: make([]*ConsumptionRecordItem, 0, len(records))}
	for _, r := range records {
		reply.Items = append(reply.Items, &ConsumptionRecordItem{
			ID:              r.ID,
			ModelID:         r.ModelID,
			ModelName:       r.ModelName,
			InputChars:      r.InputChars,
			OutputChars:     r.OutputChars,
			InputRatio:      r.InputRatio,
			OutputRatio:     r.OutputRatio,
			InputCost:       r.InputCost,
			OutputCost:      r.OutputCost,
			TotalCost:       r.TotalCost,
			UsedDailyFree:   r.UsedDailyFree,
			UsedPaid:        r.UsedPaid,
			IsMember:        r.IsMember,
			MemberFreeInput: r.MemberFreeInput,
			Source:          r.Source,
			RelatedID:       r.RelatedID,
			CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		})
	}
	return reply, nil
}

// GetStatisticsRequest 消费统计请求
type GetStatisticsRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD，可空（默认今天）
	EndDate   string `json:"end_date"`   // 闭区间，按天
}

// SourceStatsItem 按来源聚合
type SourceStatsItem struct {
	Source        string `json:"source"`
	TotalCost     int64  `json:"total_cost"`
	TotalCount    int64  `json:"total_count"`
	InputChars    int64  `json:"input_chars"`
	OutputChars   int64  `json:"output_chars"`
	UsedDailyFree int64  `json:"used_daily_free"`
	UsedPaid      int64  `json:"used_paid"`
}

// GetStatisticsReply 消费统计
type GetStatisticsReply struct {
	TotalCost  int64              `json:"total_cost"`
	TotalCount int64              `json:"total_count"`
	Period     string             `json:"period"`
	Sources    []*SourceStatsItem `json:"sources"`
}

// GetStatistics 获取按来源分组的消费统计
func (s *LedgerService) GetStatistics(ctx context.Context, req *GetStatisticsRequest) (*GetStatisticsReply, error) {
	var start, end time.Time
	if req.StartDate != "" && req.EndDate != "" {
		if t, err := time.Parse(constants.TimeFormatDate, req.StartDate); err == nil {
			start = t
		}
		if t, err := time.Parse(constants.TimeFormatDate, req.EndDate); err == nil {
			end = t.Add(24 * time.Hour)
		}
	}

	stats, err := s.uc.GetConsumptionStatistics(ctx, req.UserID, start, end)
	if err != nil {
		return nil, err
	}
	reply := &GetStatisticsReply{
		TotalCost:  stats.TotalCost,
		TotalCount: stats.TotalCount,
		Period:     stats.Period,
		Sources:    make([]*SourceStatsItem, 0, len(stats.Sources)),
	}
	for _, src := range stats.Sources {
		reply.Sources = append(reply.Sources, &SourceStatsItem{
			Source:        src.Source,
			TotalCost:     src.TotalCost,
			TotalCount:    src.TotalCount,
			InputChars:    src.InputChars,
			OutputChars:   src.OutputChars,
			UsedDailyFree: src.UsedDailyFree,
			UsedPaid:      src.UsedPaid,
		})
	}
	return reply, nil
}

func toBalanceReply(b *biz.UserCreditBalance) *BalanceReply {
	return &BalanceReply{
		UserID:         b.UID,
		TotalCredits:   b.TotalCredits,
		UsedCredits:    b.UsedCredits,
		GiftCredits:    b.GiftCredits,
		FrozenCredits:  b.FrozenCredits,
		DailyFreeQuota: b.DailyFreeQuota,
		DailyUsedQuota: b.DailyUsedQuota,
		Available:      b.Available(),
	}
}
