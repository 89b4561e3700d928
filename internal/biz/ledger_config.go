package biz

import (
	"credit-service/internal/conf"
)

// LedgerConfig 积分账本配置
type LedgerConfig struct {
	DefaultDailyFreeQuota int64  // 新账户默认每日免费额度
	BalanceLowThreshold   int64  // 余额低告警阈值
	ResetCron             string // 每日额度重置 cron 表达式
}

// NewLedgerConfig 从配置创建 LedgerConfig
func NewLedgerConfig(c *conf.Bootstrap) *LedgerConfig {
	config := &LedgerConfig{
		DefaultDailyFreeQuota: 500,           // 默认值
		BalanceLowThreshold:   100,           // 默认值
		ResetCron:             "0 0 0 * * *", // 每天 00:00:00
	}
	if c.Ledger != nil {
		if c.Ledger.DefaultDailyFreeQuota > 0 {
			config.DefaultDailyFreeQuota = c.Ledger.DefaultDailyFreeQuota
		}
		if c.Ledger.BalanceLowThreshold > 0 {
			config.BalanceLowThreshold = c.Ledger.BalanceLowThreshold
		}
		if c.Ledger.ResetCron != "" {
			config.ResetCron = c.Ledger.ResetCron
		}
	}
	return config
}
