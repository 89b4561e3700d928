package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// ConsumptionRecord AI 消费明细领域对象（追加写入，比流水更细）
// 费率为计算时的快照；UsedPaid 包含赠送积分部分（与流水口径不同）
type ConsumptionRecord struct {
	ID              string
	UID             string
	ModelID         string
	ModelName       string
	InputChars      int64
	OutputChars     int64
	InputRatio      float64
	OutputRatio     float64
	InputCost       int64
	OutputCost      int64
	TotalCost       int64
	UsedDailyFree   int64
	UsedPaid        int64 // 赠送+付费合并记录
	IsMember        bool
	MemberFreeInput int64
	Source          string
	RelatedID       string
	CreatedAt       time.Time
}

// ConsumptionFilter 消费明细查询过滤条件
type ConsumptionFilter struct {
	ModelID   string
	Source    string
	StartTime time.Time
	EndTime   time.Time
}

// SourceStats 按来源聚合的消费统计
type SourceStats struct {
	Source        string
	TotalCost     int64
	TotalCount    int64
	InputChars    int64
	OutputChars   int64
	UsedDailyFree int64
	UsedPaid      int64
}

// ConsumptionStatistics 消费统计汇总
type ConsumptionStatistics struct {
	UID        string
	TotalCost  int64
	TotalCount int64
	Period     string
	Sources    []*SourceStats
}

// ConsumptionRecordRepo 消费明细数据层接口（定义在 biz 层）
type ConsumptionRecordRepo interface {
	CreateConsumptionRecord(ctx context.Context, record *ConsumptionRecord) error
	ListConsumptionRecords(ctx context.Context, userID string, filter *ConsumptionFilter, page, pageSize int) ([]*ConsumptionRecord, int64, error)
	GetConsumptionStatistics(ctx context.Context, userID string, start, end time.Time) (*ConsumptionStatistics, error)
	// AccumulateRealtimeStats 累加实时统计计数（MQ 消费者批量调用）
	AccumulateRealtimeStats(ctx context.Context, events []*ConsumeEvent) error
}

// ConsumptionRecordUseCase 消费明细业务逻辑
type ConsumptionRecordUseCase struct {
	repo ConsumptionRecordRepo
	log  *log.Helper
	now  func() time.Time
}

// NewConsumptionRecordUseCase 创建消费明细 UseCase
func NewConsumptionRecordUseCase(repo ConsumptionRecordRepo, logger log.Logger) *ConsumptionRecordUseCase {
	return &ConsumptionRecordUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
		now:  time.Now,
	}
}

// ListRecords 分页获取消费明细（按时间倒序）
func (uc *ConsumptionRecordUseCase) ListRecords(ctx context.Context, userID string, filter *ConsumptionFilter, page, pageSize int) ([]*ConsumptionRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	if filter == nil {
		filter = &ConsumptionFilter{}
	}
	return uc.repo.ListConsumptionRecords(ctx, userID, filter, page, pageSize)
}

// GetStatistics 获取按来源分组的消费统计
// start/end 为零值时默认统计今天
func (uc *ConsumptionRecordUseCase) GetStatistics(ctx context.Context, userID string, start, end time.Time) (*ConsumptionStatistics, error) {
	if start.IsZero() || end.IsZero() {
		today := Midnight(uc.now())
		start = today
		end = today.Add(24 * time.Hour)
	}
	return uc.repo.GetConsumptionStatistics(ctx, userID, start, end)
}
