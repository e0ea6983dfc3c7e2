package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"burnlink/internal/model"

	"gorm.io/gorm"
)

// Status 解析结果分类。Expired / LimitReached 是策略判定结果，
// 用值表达而不是错误，调用方据此决定 302 / 404 / 410。
type Status int

// 零值刻意设为 NotFound：未正常赋值的 Resolution 绝不能表现为放行跳转
const (
	StatusNotFound Status = iota
	StatusRedirect
	StatusExpired
	StatusLimitReached
)

// Resolution 一次 slug 解析的结果。Status 为 StatusRedirect 时
// URL 与 LinkID 有效，调用方应恰好调用一次 Record 记账。
type Resolution struct {
	Status Status
	URL    string
	LinkID uint
}

const cacheKeyPrefix = "burnlink:slug:"

// cachedLink 缓存里保存的最小载荷
type cachedLink struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

// Resolve 解析 slug，只读不写：查找 → 过期判定 → 次数上限判定 → 跳转。
// 记账由调用方通过 Record 异步触发，解析路径本身不产生任何写入。
//
// 已知竞态：max_visits=N 的链接在 N 个并发请求的记账尚未落库前，
// 第 N+1 个请求的计数检查可能仍然放行。这是换取跳转低延迟的文档化取舍，
// 需要精确执行时应改为存储层的单条条件更新（计数与判定在一个原子操作内完成）。
func (e *Engine) Resolve(ctx context.Context, s string) (Resolution, error) {
	// 只有无策略链接会进入缓存，命中即可直接跳转
	if e.cache != nil {
		if raw, err := e.cache.Get(ctx, cacheKeyPrefix+s).Result(); err == nil {
			var c cachedLink
			if json.Unmarshal([]byte(raw), &c) == nil && c.URL != "" {
				return Resolution{Status: StatusRedirect, URL: c.URL, LinkID: c.ID}, nil
			}
		}
	}

	var link model.Link
	if err := e.db.WithContext(ctx).Where("slug = ?", s).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{Status: StatusNotFound}, nil
		}
		return Resolution{}, storeErr(err)
	}

	if link.ExpiresAt != nil && !link.ExpiresAt.After(e.now()) {
		return Resolution{Status: StatusExpired}, nil
	}

	if link.MaxVisits != nil {
		var count int64
		if err := e.db.WithContext(ctx).Model(&model.Visit{}).
			Where("link_id = ?", link.ID).Count(&count).Error; err != nil {
			return Resolution{}, storeErr(err)
		}
		if count >= int64(*link.MaxVisits) {
			return Resolution{Status: StatusLimitReached}, nil
		}
	}

	// 带策略的链接不缓存：缓存命中会绕过过期与次数判定
	if e.cache != nil && link.ExpiresAt == nil && link.MaxVisits == nil {
		if payload, err := json.Marshal(cachedLink{ID: link.ID, URL: link.URL}); err == nil {
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			e.cache.Set(cctx, cacheKeyPrefix+s, payload, 24*time.Hour)
			cancel()
		}
	}

	return Resolution{Status: StatusRedirect, URL: link.URL, LinkID: link.ID}, nil
}

// invalidate 删除某个 slug 的缓存条目，所有会改变解析结果的变更都必须调用
func (e *Engine) invalidate(ctx context.Context, slugs ...string) {
	if e.cache == nil || len(slugs) == 0 {
		return
	}
	keys := make([]string, len(slugs))
	for i, s := range slugs {
		keys[i] = cacheKeyPrefix + s
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := e.cache.Del(cctx, keys...).Err(); err != nil {
		e.logger.Warnf("缓存失效失败: %v", err)
	}
}
