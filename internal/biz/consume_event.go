package biz

import "time"

// ConsumeEvent is the message published to RocketMQ after a consume commits,
// consumed asynchronously to maintain realtime statistics counters.
type ConsumeEvent struct {
	RecordID      string    `json:"record_id"`
	UserID        string    `json:"user_id"`
	ModelID       string    `json:"model_id"`
	Source        string    `json:"source"`
	TotalCost     int64     `json:"total_cost"`
	UsedDailyFree int64     `json:"used_daily_free"`
	UsedGift      int64     `json:"used_gift"`
	UsedPaid      int64     `json:"used_paid"`
	InputChars    int64     `json:"input_chars"`
	OutputChars   int64     `json:"output_chars"`
	ConsumeTime   time.Time `json:"consume_time"`
}
