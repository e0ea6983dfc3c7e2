package engine

import (
	"errors"
)

// 引擎的错误分类。Expired / LimitReached 不在这里：
// 它们是 Resolve 的正常结果（Resolution.Status），不是错误。
var (
	// ErrInvalidInput 请求参数无效（缺字段、非法 slug、非法数值）
	ErrInvalidInput = errors.New("请求参数无效")
	// ErrInvalidURL 目标 URL 不是语法合法的绝对地址
	ErrInvalidURL = errors.New("URL 格式无效")
	// ErrSlugConflict 自定义 slug 已被占用
	ErrSlugConflict = errors.New("slug 已存在")
	// ErrNotFound 链接不存在
	ErrNotFound = errors.New("链接不存在")
	// ErrQuotaExceeded 今日创建数达到 daily_limit（软限制）
	ErrQuotaExceeded = errors.New("今日创建链接已达上限")
	// ErrAllocationExhausted 随机 slug 连续碰撞耗尽重试次数，
	// 62^6 的空间下这几乎不可能发生，出现说明该稍后重试或加长 slug
	ErrAllocationExhausted = errors.New("短码生成碰撞，请稍后重试")
	// ErrStoreUnavailable 底层存储故障，引擎内部不做重试
	ErrStoreUnavailable = errors.New("存储暂不可用")
)

// storeErr 把底层数据库错误统一包装成 ErrStoreUnavailable
func storeErr(err error) error {
	return errors.Join(ErrStoreUnavailable, err)
}
