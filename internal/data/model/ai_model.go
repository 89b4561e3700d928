package model

import (
	"time"
)

// AiModel AI 模型计价表（管理后台维护，本服务只读）
// InputRatio/OutputRatio 为每积分可兑换的字符数
type AiModel struct {
	ModelID       string    `gorm:"primaryKey;type:varchar(64)"`
	Name          string    `gorm:"type:varchar(64);not null"`
	InputRatio    float64   `gorm:"type:decimal(10,4);not null;default:0"`
	OutputRatio   float64   `gorm:"type:decimal(10,4);not null;default:0"`
	MinInputChars int64     `gorm:"not null;default:0"`
	IsFree        bool      `gorm:"not null;default:false"`
	Status        int8      `gorm:"type:tinyint;not null;default:1"` // 1:上架 0:下架
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (AiModel) TableName() string {
	return "ai_model"
}
