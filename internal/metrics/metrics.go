package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics 积分账本服务指标
type LedgerMetrics struct {
	// 消费相关指标
	ConsumeTotal    *prometheus.CounterVec   // 消费总数（按模型、结果）
	ConsumeDuration *prometheus.HistogramVec // 消费耗时
	ConsumeCredits  *prometheus.CounterVec   // 消费积分数（按档位）

	// 余额相关指标
	BalanceQueryTotal prometheus.Counter     // 余额查询总数
	RechargeTotal     *prometheus.CounterVec // 充值总数（按结果）
	RechargeCredits   prometheus.Counter     // 充值积分总数
	RefundTotal       *prometheus.CounterVec // 退款总数（按结果）
	RefundCredits     prometheus.Counter     // 退款积分总数
	BalanceLowAlert   prometheus.Gauge       // 余额不足告警（余额 < 阈值）

	// 分布式锁相关指标
	LockAcquireTotal    *prometheus.CounterVec // 锁获取总数（按结果）
	LockAcquireDuration prometheus.Histogram   // 锁获取耗时

	// 每日额度重置任务指标
	QuotaResetTotal    *prometheus.CounterVec // 重置执行总数（按结果）
	QuotaResetRows     prometheus.Gauge       // 最近一次重置影响的账户数
	QuotaResetDuration prometheus.Histogram   // 重置耗时
}

// NewLedgerMetrics 创建积分账本服务指标
func NewLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		// 消费指标
		ConsumeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_consume_total",
				Help: "Total number of consume operations",
			},
			[]string{"model", "result"}, // result: success/insufficient/failed
		),
		ConsumeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_consume_duration_seconds",
				Help:    "Duration of consume operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		ConsumeCredits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_consume_credits_total",
				Help: "Total credits consumed",
			},
			[]string{"tier"}, // tier: daily_free/gift/paid
		),

		// 余额指标
		BalanceQueryTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_balance_query_total",
				Help: "Total number of balance queries",
			},
		),
		RechargeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_recharge_total",
				Help: "Total number of recharge operations",
			},
			[]string{"result"}, // result: success/failed
		),
		RechargeCredits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_recharge_credits_total",
				Help: "Total credits recharged",
			},
		),
		RefundTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_refund_total",
				Help: "Total number of refund operations",
			},
			[]string{"result"},
		),
		RefundCredits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_refund_credits_total",
				Help: "Total credits refunded",
			},
		),
		BalanceLowAlert: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "credit_balance_low_alert",
				Help: "Set to 1 when the last mutated balance fell below the threshold",
			},
		),

		// 分布式锁指标
		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_lock_acquire_total",
				Help: "Total number of lock acquisition attempts",
			},
			[]string{"result"}, // result: success/failed
		),
		LockAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_lock_acquire_duration_seconds",
				Help:    "Duration of lock acquisition",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),

		// 重置任务指标
		QuotaResetTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_quota_reset_total",
				Help: "Total number of daily quota reset runs",
			},
			[]string{"result"},
		),
		QuotaResetRows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "credit_quota_reset_rows",
				Help: "Number of balance rows touched by the last daily reset",
			},
		),
		QuotaResetDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_quota_reset_duration_seconds",
				Help:    "Duration of the daily quota reset job",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// 全局指标实例
var defaultMetrics *LedgerMetrics

// InitMetrics 初始化全局指标
func InitMetrics() {
	defaultMetrics = NewLedgerMetrics()
}

// GetMetrics 获取全局指标实例
func GetMetrics() *LedgerMetrics {
	if defaultMetrics == nil {
		InitMetrics()
	}
	return defaultMetrics
}
