package constants

// 时间格式常量
const (
	// TimeFormatDate 日期格式 (YYYY-MM-DD)
	TimeFormatDate = "2006-01-02"
)

// Redis Key 前缀常量
const (
	// RedisKeyBalance 余额缓存 key 前缀
	RedisKeyBalance = "credit:balance:"
	// RedisKeyModel 模型定价缓存 key 前缀
	RedisKeyModel = "credit:model:"
	// RedisKeyBenefits 会员权益缓存 key 前缀
	RedisKeyBenefits = "credit:benefits:"
	// RedisKeyConsumeLock 消费锁 key 前缀
	RedisKeyConsumeLock = "credit:consume:lock:"
	// RedisKeyResetLock 每日额度重置任务锁
	RedisKeyResetLock = "credit:quota:reset:lock"
	// RedisKeyStatsDaily 实时统计计数 key 前缀（hash，按来源累计）
	RedisKeyStatsDaily = "credit:stats:daily:"
)

// 流水类型常量
const (
	// TransactionTypeRecharge 充值
	TransactionTypeRecharge = "recharge"
	// TransactionTypeConsume 消费
	TransactionTypeConsume = "consume"
	// TransactionTypeRefund 退款
	TransactionTypeRefund = "refund"
	// TransactionTypeExpire 过期扣除
	TransactionTypeExpire = "expire"
	// TransactionTypeGift 赠送
	TransactionTypeGift = "gift"
)

// 扣费档位常量（用于指标）
const (
	// TierDailyFree 每日免费额度
	TierDailyFree = "daily_free"
	// TierGift 赠送积分
	TierGift = "gift"
	// TierPaid 付费积分
	TierPaid = "paid"
)

// 操作结果常量（用于指标）
const (
	ResultSuccess      = "success"
	ResultFailed       = "failed"
	ResultInsufficient = "insufficient"
)

// 统计周期常量
const (
	// StatsPeriodToday 今日
	StatsPeriodToday = "today"
	// StatsPeriodRange 指定日期范围
	StatsPeriodRange = "range"
)

// 会员状态常量
const (
	// MembershipStatusActive 生效中
	MembershipStatusActive = "active"
)

// 模型状态常量
const (
	// ModelStatusEnabled 已上架
	ModelStatusEnabled = 1
)
