package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"credit-service/internal/biz"
	"credit-service/internal/constants"
	"credit-service/internal/data/model"
	creditErrors "credit-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// modelRepo 模型计价数据访问（ai_model 表只读）
type modelRepo struct {
	data *Data
	log  *log.Helper
}

// NewModelRepo 创建模型计价 repo（返回 biz.ModelRepo 接口）
func NewModelRepo(data *Data, logger log.Logger) biz.ModelRepo {
	return &modelRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetModel 返回已上架模型的计价信息，不存在或未上架返回 nil
func (r *modelRepo) GetModel(ctx context.Context, modelID string) (*biz.ModelPricing, error) {
	// 先尝试从 Redis 获取
	if r.data.rdb != nil {
		modelKey := constants.RedisKeyModel + modelID
		cached, err := r.data.rdb.Get(ctx, modelKey).Result()
		if err == nil {
			var pricing biz.ModelPricing
			if err := json.Unmarshal([]byte(cached), &pricing); err == nil {
				return &pricing, nil
			}
		}
	}

	var m model.AiModel
	if err := r.data.db.WithContext(ctx).
		Where("model_id = ? AND status = ?", modelID, constants.ModelStatusEnabled).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, creditErrors.ErrCodeModelNotFound)
	}

	pricing := &biz.ModelPricing{
		ModelID:       m.ModelID,
		Name:          m.Name,
		InputRatio:    m.InputRatio,
		OutputRatio:   m.OutputRatio,
		MinInputChars: m.MinInputChars,
		IsFree:        m.IsFree,
	}

	// 更新缓存（独立短超时 context，不阻塞主流程）
	if r.data.rdb != nil {
		if payload, err := json.Marshal(pricing); err == nil {
			cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cacheCancel()
			if err := r.data.rdb.Set(cacheCtx, constants.RedisKeyModel+modelID, payload, 5*time.Minute).Err(); err != nil {
				r.log.Warnf("failed to update model cache: model_id=%s, error=%v", modelID, err)
			}
		}
	}

	return pricing, nil
}
