package model

import (
	"time"
)

// ConsumptionRecord AI 消费明细表（追加写入，计算时的费率随行冻结）
// UsedPaid 包含赠送积分部分，与流水表口径不同
type ConsumptionRecord struct {
	RecordID        string    `gorm:"primaryKey;type:varchar(36)"`
	UID             string    `gorm:"type:varchar(36);not null;index:idx_uid_date,priority:1;column:uid"`
	ModelID         string    `gorm:"type:varchar(64);not null;index"`
	ModelName       string    `gorm:"type:varchar(64)"`
	InputChars      int64     `gorm:"not null;default:0"`
	OutputChars     int64     `gorm:"not null;default:0"`
	InputRatio      float64   `gorm:"type:decimal(10,4);not null;default:0"`
	OutputRatio     float64   `gorm:"type:decimal(10,4);not null;default:0"`
	InputCost       int64     `gorm:"not null;default:0"`
	OutputCost      int64     `gorm:"not null;default:0"`
	TotalCost       int64     `gorm:"not null;default:0"`
	UsedDailyFree   int64     `gorm:"not null;default:0"`
	UsedPaid        int64     `gorm:"not null;default:0"`
	IsMember        bool      `gorm:"not null;default:false"`
	MemberFreeInput int64     `gorm:"not null;default:0"`
	Source          string    `gorm:"type:varchar(64);not null;index"`
	RelatedID       string    `gorm:"type:varchar(64)"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index:idx_uid_date,priority:2"`
}

// TableName 指定表名
func (ConsumptionRecord) TableName() string {
	return "consumption_record"
}
