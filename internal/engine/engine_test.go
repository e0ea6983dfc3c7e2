package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"burnlink/internal/model"
	"burnlink/internal/slug"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestEngine 为每个测试初始化一个独立的内存数据库和引擎实例
func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "无法连接内存数据库")

	require.NoError(t, db.AutoMigrate(&model.Link{}, &model.Visit{}, &model.Setting{}), "数据库迁移失败")

	logger, _ := zap.NewDevelopment()
	e := New(db, nil, time.UTC, logger.Sugar())

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return e, db
}

func TestAllocateAndResolve(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "", "https://example.com")
	require.NoError(t, err)
	assert.Len(t, link.Slug, slug.Length, "自动生成的 slug 长度应为 %d", slug.Length)
	for _, r := range link.Slug {
		assert.True(t, strings.ContainsRune(slug.Charset, r))
	}
	assert.Nil(t, link.ExpiresAt, "新链接不应带过期策略")
	assert.Nil(t, link.MaxVisits, "新链接不应带次数策略")

	// 无策略链接可反复解析
	for i := 0; i < 3; i++ {
		res, err := e.Resolve(ctx, link.Slug)
		require.NoError(t, err)
		assert.Equal(t, StatusRedirect, res.Status)
		assert.Equal(t, "https://example.com", res.URL)
		assert.Equal(t, link.ID, res.LinkID)
	}

	// 大小写敏感：不同大小写是另一个 slug
	other := strings.ToUpper(link.Slug)
	if other != link.Slug {
		res, err := e.Resolve(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, StatusNotFound, res.Status)
	}
}

func TestAllocateCustomSlug(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "my-link", "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "my-link", link.Slug)

	// 同名 slug 第二次创建必须收到冲突，而不是笼统的失败
	_, err = e.Allocate(ctx, "my-link", "https://example.com/b")
	assert.ErrorIs(t, err, ErrSlugConflict)

	// 非法字符
	_, err = e.Allocate(ctx, "bad slug!", "https://example.com")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAllocateInvalidURL(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	for _, bad := range []string{"", "not-a-url", "example.com/no-scheme", "http://"} {
		_, err := e.Allocate(ctx, "", bad)
		assert.Error(t, err, "url=%q 应被拒绝", bad)
	}
}

func TestResolveNotFound(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Resolve(context.Background(), "nosuch")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestExpiryBoundary(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "", "https://example.com")
	require.NoError(t, err)

	// 一秒之前过期 => Expired
	past := time.Now().Add(-time.Second)
	require.NoError(t, db.Model(&model.Link{}).Where("id = ?", link.ID).Update("expires_at", past).Error)
	res, err := e.Resolve(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, res.Status)

	// 一小时之后过期 => 仍可跳转
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.Model(&model.Link{}).Where("id = ?", link.ID).Update("expires_at", future).Error)
	res, err = e.Resolve(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, StatusRedirect, res.Status)
}

func TestPolicyMutualExclusivity(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "", "https://example.com")
	require.NoError(t, err)

	updated, err := e.SetExpiryDays(ctx, link.ID, 30)
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)
	assert.Nil(t, updated.MaxVisits)

	// 设置阅后即焚必须清掉过期时间
	updated, err = e.SetBurnAfter(ctx, link.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, updated.MaxVisits)
	assert.Equal(t, 1, *updated.MaxVisits)
	assert.Nil(t, updated.ExpiresAt, "互斥不变量被破坏：expires_at 应读回 NULL")

	// 反方向同理
	updated, err = e.SetExpiryDays(ctx, link.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)
	assert.Nil(t, updated.MaxVisits)

	// days <= 0 清除过期策略，回到永久链接
	updated, err = e.SetExpiryDays(ctx, link.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, updated.ExpiresAt)
	assert.Nil(t, updated.MaxVisits)

	_, err = e.SetBurnAfter(ctx, link.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.SetBurnAfter(ctx, 99999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBurnAfterReading(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "", "https://example.com")
	require.NoError(t, err)
	_, err = e.SetBurnAfter(ctx, link.ID, 1)
	require.NoError(t, err)

	// 没有已落库的访问 => 放行
	res, err := e.Resolve(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, StatusRedirect, res.Status)

	// 一条记账提交之后 => 达到上限
	require.NoError(t, db.Create(&model.Visit{LinkID: link.ID, IP: Unknown, UserAgent: Unknown, Referer: Unknown}).Error)
	res, err = e.Resolve(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, StatusLimitReached, res.Status)
}

func TestAccountant(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "", "https://example.com")
	require.NoError(t, err)

	e.Start()
	e.Record(link.ID, "203.0.113.9", "curl/8.0", "")
	e.Stop() // Stop 排空队列，之后记录必然已落库

	var visits []model.Visit
	require.NoError(t, db.Where("link_id = ?", link.ID).Find(&visits).Error)
	require.Len(t, visits, 1)
	assert.Equal(t, "203.0.113.9", visits[0].IP)
	assert.Equal(t, "curl/8.0", visits[0].UserAgent)
	assert.Equal(t, Unknown, visits[0].Referer, "缺失的元数据应写入占位值")
	assert.False(t, visits[0].VisitTime.IsZero())
}

func TestDailyQuota(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	one := 1
	require.NoError(t, e.UpdateSettings(ctx, &one, nil))

	link, err := e.Allocate(ctx, "", "https://example.com/1")
	require.NoError(t, err)

	// 当日第二次创建触发软限制
	_, err = e.Allocate(ctx, "", "https://example.com/2")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// 把已有链接挪到昨天，配额窗口清空后又可以创建
	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Model(&model.Link{}).Where("id = ?", link.ID).Update("created_at", yesterday).Error)
	_, err = e.Allocate(ctx, "", "https://example.com/3")
	assert.NoError(t, err)

	// 0 表示不限制
	zero := 0
	require.NoError(t, e.UpdateSettings(ctx, &zero, nil))
	for i := 0; i < 5; i++ {
		_, err := e.Allocate(ctx, "", fmt.Sprintf("https://example.com/n/%d", i))
		require.NoError(t, err)
	}
}

func TestSettings(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// 缺失键回落默认值
	s, err := e.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultDailyLimit, s.DailyLimit)
	assert.Equal(t, DefaultRetentionDays, s.RetentionDays)

	// 写入即覆盖
	limit, days := 42, 7
	require.NoError(t, e.UpdateSettings(ctx, &limit, &days))
	s, err = e.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, s.DailyLimit)
	assert.Equal(t, 7, s.RetentionDays)

	limit = 10
	require.NoError(t, e.UpdateSettings(ctx, &limit, nil))
	s, _ = e.LoadSettings(ctx)
	assert.Equal(t, 10, s.DailyLimit)
	assert.Equal(t, 7, s.RetentionDays, "未提交的键不应被修改")

	bad := -1
	assert.ErrorIs(t, e.UpdateSettings(ctx, &bad, nil), ErrInvalidInput)
	badDays := 0
	assert.ErrorIs(t, e.UpdateSettings(ctx, nil, &badDays), ErrInvalidInput)
}

func TestSweep(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	old, err := e.Allocate(ctx, "old-link", "https://example.com/old")
	require.NoError(t, err)
	fresh, err := e.Allocate(ctx, "fresh-link", "https://example.com/fresh")
	require.NoError(t, err)

	// 陈年链接 + 它的访问记录 + 新链接上的一条陈年散落访问
	ancient := time.Now().AddDate(0, 0, -60)
	require.NoError(t, db.Model(&model.Link{}).Where("id = ?", old.ID).Update("created_at", ancient).Error)
	require.NoError(t, db.Create(&model.Visit{LinkID: old.ID, IP: Unknown, UserAgent: Unknown, Referer: Unknown}).Error)
	require.NoError(t, db.Model(&model.Visit{}).Where("link_id = ?", old.ID).Update("visit_time", ancient).Error)
	require.NoError(t, db.Create(&model.Visit{LinkID: fresh.ID, IP: Unknown, UserAgent: Unknown, Referer: Unknown}).Error)
	require.NoError(t, db.Model(&model.Visit{}).Where("link_id = ?", fresh.ID).Update("visit_time", ancient).Error)

	deleted, err := e.Sweep(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "应删除 1 条过期链接")

	// 新链接保留，两类过期访问记录都被清掉
	res, err := e.Resolve(ctx, "fresh-link")
	require.NoError(t, err)
	assert.Equal(t, StatusRedirect, res.Status)
	res, err = e.Resolve(ctx, "old-link")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)

	var visitCount int64
	require.NoError(t, db.Model(&model.Visit{}).Count(&visitCount).Error)
	assert.Equal(t, int64(0), visitCount)

	// retention_days 已先行落盘
	s, err := e.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, s.RetentionDays)

	// 幂等：同样的截止时间再跑一次删除 0 条
	deleted, err = e.Sweep(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	_, err = e.Sweep(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteAndList(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Allocate(ctx, "keep", "https://example.com/keep")
	require.NoError(t, err)
	b, err := e.Allocate(ctx, "drop", "https://example.com/drop")
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Visit{LinkID: a.ID, IP: Unknown, UserAgent: Unknown, Referer: Unknown}).Error)
	require.NoError(t, db.Create(&model.Visit{LinkID: b.ID, IP: Unknown, UserAgent: Unknown, Referer: Unknown}).Error)

	require.NoError(t, e.Delete(ctx, b.ID))
	assert.ErrorIs(t, e.Delete(ctx, b.ID), ErrNotFound)

	// 被删链接的访问记录一并消失
	var orphan int64
	require.NoError(t, db.Model(&model.Visit{}).Where("link_id = ?", b.ID).Count(&orphan).Error)
	assert.Equal(t, int64(0), orphan)

	rows, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "keep", rows[0].Slug)
	assert.Equal(t, int64(1), rows[0].Visits)
}

func TestDashboard(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	link, err := e.Allocate(ctx, "", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Visit{LinkID: link.ID, IP: Unknown, UserAgent: Unknown, Referer: Unknown}).Error)

	stats, err := e.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Today.Links)
	assert.Equal(t, int64(1), stats.Today.Visits)
	assert.Equal(t, int64(1), stats.Month.Links)
	assert.Equal(t, int64(1), stats.Total.Links)
	assert.Equal(t, int64(1), stats.Total.Visits)
}
