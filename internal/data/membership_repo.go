package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credit-service/internal/biz"
	"credit-service/internal/constants"
	"credit-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// membershipRepo 会员权益数据访问（会员表只读）
type membershipRepo struct {
	data *Data
	log  *log.Helper
}

// NewMembershipRepo 创建会员权益 repo（返回 biz.MembershipRepo 接口）
func NewMembershipRepo(data *Data, logger log.Logger) biz.MembershipRepo {
	return &membershipRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// cachedBenefits 权益缓存载体（区分"非会员"与"缓存未命中"）
type cachedBenefits struct {
	Member   bool                    `json:"member"`
	Benefits *biz.MembershipBenefits `json:"benefits,omitempty"`
}

// GetActiveBenefits 返回用户当前生效会员的套餐权益，非会员返回 nil
func (r *membershipRepo) GetActiveBenefits(ctx context.Context, userID string) (*biz.MembershipBenefits, error) {
	benefitsKey := constants.RedisKeyBenefits + userID

	// 先尝试从 Redis 获取（非会员也缓存，避免击穿）
	if r.data.rdb != nil {
		cached, err := r.data.rdb.Get(ctx, benefitsKey).Result()
		if err == nil {
			var c cachedBenefits
			if err := json.Unmarshal([]byte(cached), &c); err == nil {
				if !c.Member {
					return nil, nil
				}
				return c.Benefits, nil
			}
		}
	}

	var membership model.UserMembership
	err := r.data.db.WithContext(ctx).
		Where("uid = ? AND status = ? AND expire_at > ?", userID, constants.MembershipStatusActive, time.Now()).
		Order("expire_at DESC").
		First(&membership).Error

	var benefits *biz.MembershipBenefits
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("query active membership failed: %w", err)
		}
	} else {
		var plan model.MembershipPlan
		if err := r.data.db.WithContext(ctx).Where("plan_id = ?", membership.PlanID).First(&plan).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("query membership plan failed: %w", err)
			}
			// 套餐被删除时按非会员处理
			r.log.Warnf("membership plan missing: uid=%s, plan_id=%s", userID, membership.PlanID)
		} else {
			benefits = &biz.MembershipBenefits{
				PlanID:          plan.PlanID,
				OutputFree:      plan.OutputFree,
				FreeInputChars:  plan.FreeInputChars,
				DailyTokenLimit: plan.DailyTokenLimit,
			}
		}
	}

	// 更新缓存（独立短超时 context，不阻塞主流程）
	if r.data.rdb != nil {
		payload, mErr := json.Marshal(&cachedBenefits{Member: benefits != nil, Benefits: benefits})
		if mErr == nil {
			cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cacheCancel()
			if err := r.data.rdb.Set(cacheCtx, benefitsKey, payload, 5*time.Minute).Err(); err != nil {
				r.log.Warnf("failed to update benefits cache: uid=%s, error=%v", userID, err)
			}
		}
	}

	return benefits, nil
}
