package conf

import (
	"encoding/json"
	"time"
)

// Bootstrap 服务启动配置
// 通过 Kratos config 从 configs/config.yaml 扫描而来
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Ledger *Ledger `json:"ledger"`
}

// Server 服务端配置
type Server struct {
	Http *HTTP `json:"http"`
}

// HTTP HTTP 服务配置
type HTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Data 数据层配置
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
	Rocketmq *Rocketmq `json:"rocketmq"`
}

// Database 数据库配置
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Redis Redis 配置
type Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	Db           int      `json:"db"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

// Rocketmq RocketMQ 配置（未启用时消费事件走降级方案）
type Rocketmq struct {
	Enabled     bool     `json:"enabled"`
	NameServers []string `json:"name_servers"`
	Topic       string   `json:"topic"`
	GroupName   string   `json:"group_name"`
	RetryTimes  int32    `json:"retry_times"`
}

// Ledger 积分账本业务配置
type Ledger struct {
	// DefaultDailyFreeQuota 新账户默认每日免费额度
	DefaultDailyFreeQuota int64 `json:"default_daily_free_quota"`
	// BalanceLowThreshold 余额低告警阈值
	BalanceLowThreshold int64 `json:"balance_low_threshold"`
	// ResetCron 每日额度重置的 cron 表达式（秒级，默认每天 00:00:00）
	ResetCron string `json:"reset_cron"`
}

// Duration 支持 "200ms"/"5s" 这类字符串写法的时长配置
type Duration time.Duration

// UnmarshalJSON 同时接受字符串和纳秒数
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	}
	return nil
}

// AsDuration 转换为 time.Duration
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}
