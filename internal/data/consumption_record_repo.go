package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"credit-service/internal/biz"
	"credit-service/internal/constants"
	"credit-service/internal/data/model"
	creditErrors "credit-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// consumptionRecordRepo 消费明细数据访问
type consumptionRecordRepo struct {
	data *Data
	log  *log.Helper
}

// NewConsumptionRecordRepo 创建消费明细 repo（返回 biz.ConsumptionRecordRepo 接口）
func NewConsumptionRecordRepo(data *Data, logger log.Logger) biz.ConsumptionRecordRepo {
	return &consumptionRecordRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateConsumptionRecord 追加一条消费明细
func (r *consumptionRecordRepo) CreateConsumptionRecord(ctx context.Context, record *biz.ConsumptionRecord) error {
	m := toModelConsumptionRecord(record)
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		return pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeConsumptionRecordCreateFailed)
	}
	record.ID = m.RecordID
	record.CreatedAt = m.CreatedAt
	return nil
}

// ListConsumptionRecords 按时间倒序分页查询消费明细
func (r *consumptionRecordRepo) ListConsumptionRecords(ctx context.Context, userID string, filter *biz.ConsumptionFilter, page, pageSize int) ([]*biz.ConsumptionRecord, int64, error) {
	var models []model.ConsumptionRecord
	var total int64

	db := r.data.db.WithContext(ctx).Model(&model.ConsumptionRecord{}).Where("uid = ?", userID)
	if filter != nil {
		if filter.ModelID != "" {
			db = db.Where("model_id = ?", filter.ModelID)
		}
		if filter.Source != "" {
			db = db.Where("source = ?", filter.Source)
		}
		if !filter.StartTime.IsZero() {
			db = db.Where("created_at >= ?", filter.StartTime)
		}
		if !filter.EndTime.IsZero() {
			db = db.Where("created_at < ?", filter.EndTime)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeConsumptionRecordListFailed)
	}

	offset := (page - 1) * pageSize
	if err := db.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, 0, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeConsumptionRecordListFailed)
	}

	records := make([]*biz.ConsumptionRecord, 0, len(models))
	for i := range models {
		records = append(records, toBizConsumptionRecord(&models[i]))
	}
	return records, total, nil
}

// GetConsumptionStatistics 按来源分组统计
// 查询区间恰为今天时优先读实时计数（由 MQ 消费者维护），缺失则回落到 SQL 聚合
func (r *consumptionRecordRepo) GetConsumptionStatistics(ctx context.Context, userID string, start, end time.Time) (*biz.ConsumptionStatistics, error) {
	period := constants.StatsPeriodRange
	if isToday(start, end) {
		period = constants.StatsPeriodToday
		if stats := r.realtimeStats(ctx, userID, start); stats != nil {
			return stats, nil
		}
	}

	var rows []struct {
		Source        string
		TotalCost     int64
		TotalCount    int64
		InputChars    int64
		OutputChars   int64
		UsedDailyFree int64
		UsedPaid      int64
	}

	if err := r.data.db.WithContext(ctx).Model(&model.ConsumptionRecord{}).
		Where("uid = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Select(
			"source",
			"SUM(total_cost) as total_cost",
			"COUNT(*) as total_count",
			"SUM(input_chars) as input_chars",
			"SUM(output_chars) as output_chars",
			"SUM(used_daily_free) as used_daily_free",
			"SUM(used_paid) as used_paid",
		).
		Group("source").
		Scan(&rows).Error; err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeStatsFailed)
	}

	stats := &biz.ConsumptionStatistics{
		UID:     userID,
		Period:  period,
		Sources: make([]*biz.SourceStats, 0, len(rows)),
	}
	for _, row := range rows {
		stats.Sources = append(stats.Sources, &biz.SourceStats{
			Source:        row.Source,
			TotalCost:     row.TotalCost,
			TotalCount:    row.TotalCount,
			InputChars:    row.InputChars,
			OutputChars:   row.OutputChars,
			UsedDailyFree: row.UsedDailyFree,
			UsedPaid:      row.UsedPaid,
		})
		stats.TotalCost += row.TotalCost
		stats.TotalCount += row.TotalCount
	}
	return stats, nil
}

// AccumulateRealtimeStats 累加实时统计计数（MQ 消费者批量调用）
// hash key 按用户+日期，field 按 来源:指标 命名，保留 48 小时
func (r *consumptionRecordRepo) AccumulateRealtimeStats(ctx context.Context, events []*biz.ConsumeEvent) error {
	if r.data.rdb == nil || len(events) == 0 {
		return nil
	}

	pipe := r.data.rdb.Pipeline()
	for _, event := range events {
		key := realtimeStatsKey(event.UserID, biz.Midnight(event.ConsumeTime))
		pipe.HIncrBy(ctx, key, event.Source+":cost", event.TotalCost)
		pipe.HIncrBy(ctx, key, event.Source+":count", 1)
		pipe.HIncrBy(ctx, key, event.Source+":input", event.InputChars)
		pipe.HIncrBy(ctx, key, event.Source+":output", event.OutputChars)
		pipe.HIncrBy(ctx, key, event.Source+":free", event.UsedDailyFree)
		pipe.HIncrBy(ctx, key, event.Source+":paid", event.UsedGift+event.UsedPaid)
		pipe.Expire(ctx, key, 48*time.Hour)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("accumulate realtime stats failed: %w", err)
	}
	return nil
}

// realtimeStats 读取当天实时计数，缺失返回 nil（调用方回落 SQL）
func (r *consumptionRecordRepo) realtimeStats(ctx context.Context, userID string, day time.Time) *biz.ConsumptionStatistics {
	if r.data.rdb == nil {
		return nil
	}

	fields, err := r.data.rdb.HGetAll(ctx, realtimeStatsKey(userID, day)).Result()
	if err != nil || len(fields) == 0 {
		return nil
	}

	bySource := make(map[string]*biz.SourceStats)
	for field, raw := range fields {
		idx := strings.LastIndex(field, ":")
		if idx <= 0 {
			continue
		}
		source, metric := field[:idx], field[idx+1:]
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		s, ok := bySource[source]
		if !ok {
			s = &biz.SourceStats{Source: source}
			bySource[source] = s
		}
		switch metric {
		case "cost":
			s.TotalCost = value
		case "count":
			s.TotalCount = value
		case "input":
			s.InputChars = value
		case "output":
			s.OutputChars = value
		case "free":
			s.UsedDailyFree = value
		case "paid":
			s.UsedPaid = value
		}
	}

	stats := &biz.ConsumptionStatistics{
		UID:     userID,
		Period:  constants.StatsPeriodToday,
		Sources: make([]*biz.SourceStats, 0, len(bySource)),
	}
	for _, s := range bySource {
		stats.Sources = append(stats.Sources, s)
		stats.TotalCost += s.TotalCost
		stats.TotalCount += s.TotalCount
	}
	return stats
}

func realtimeStatsKey(userID string, day time.Time) string {
	return constants.RedisKeyStatsDaily + userID + ":" + day.Format(constants.TimeFormatDate)
}

func isToday(start, end time.Time) bool {
	today := biz.Midnight(time.Now())
	return start.Equal(today) && end.Equal(today.Add(24*time.Hour))
}

// toModelConsumptionRecord 领域对象转模型（ID 为空时生成）
func toModelConsumptionRecord(record *biz.ConsumptionRecord) *model.ConsumptionRecord {
	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &model.ConsumptionRecord{
		RecordID:        id,
		UID:             record.UID,
		ModelID:         record.ModelID,
		ModelName:       record.ModelName,
		InputChars:      record.InputChars,
		OutputChars:     record.OutputChars,
		InputRatio:      record.InputRatio,
		OutputRatio:     record.OutputRatio,
		InputCost:       record.InputCost,
		OutputCost:      record.OutputCost,
		TotalCost:       record.TotalCost,
		UsedDailyFree:   record.UsedDailyFree,
		UsedPaid:        record.UsedPaid,
		IsMember:        record.IsMember,
		MemberFreeInput: record.MemberFreeInput,
		Source:          record.Source,
		RelatedID:       record.RelatedID,
	}
}

// toBizConsumptionRecord 模型转领域对象
func toBizConsumptionRecord(m *model.ConsumptionRecord) *biz.ConsumptionRecord {
	return &biz.ConsumptionRecord{
		ID:              m.RecordID,
		UID:             m.UID,
		ModelID:         m.ModelID,
		ModelName:       m.ModelName,
		InputChars:      m.InputChars,
		OutputChars:     m.OutputChars,
		InputRatio:      m.InputRatio,
		OutputRatio:     m.OutputRatio,
		InputCost:       m.InputCost,
		OutputCost:      m.OutputCost,
		TotalCost:       m.TotalCost,
		UsedDailyFree:   m.UsedDailyFree,
		UsedPaid:        m.UsedPaid,
		IsMember:        m.IsMember,
		MemberFreeInput: m.MemberFreeInput,
		Source:          m.Source,
		RelatedID:       m.RelatedID,
		CreatedAt:       m.CreatedAt,
	}
}
