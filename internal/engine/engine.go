package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"burnlink/internal/model"
	"burnlink/internal/slug"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxAllocateAttempts 随机 slug 撞库后的最大重试次数
const MaxAllocateAttempts = 5

// Engine 短链生命周期引擎：slug 分配、策略判定、访问记账、配额与清理。
// 所有状态都在数据库里，引擎自身无共享可变状态，可按请求并发调用；
// 并发正确性完全依赖数据库的唯一索引与事务。
type Engine struct {
	db         *gorm.DB
	cache      *redis.Client
	loc        *time.Location
	logger     *zap.SugaredLogger
	accountant *Accountant

	// now 可在测试中替换以控制时钟
	now func() time.Time
}

// New 创建引擎实例。cache 允许为 nil（不启用缓存）。
// loc 是配额日界与仪表盘统计共用的唯一时区。
func New(db *gorm.DB, cache *redis.Client, loc *time.Location, logger *zap.SugaredLogger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		db:         db,
		cache:      cache,
		loc:        loc,
		logger:     logger.Named("engine"),
		accountant: NewAccountant(db, logger),
		now:        time.Now,
	}
}

// Start 启动后台访问记账工作协程
func (e *Engine) Start() {
	e.accountant.Start()
}

// Stop 停止引擎，排空未落库的访问记录
func (e *Engine) Stop() {
	e.accountant.Stop()
}

// Record 把一次成功跳转交给记账器，调用方不会被阻塞
func (e *Engine) Record(linkID uint, ip, userAgent, referer string) {
	e.accountant.Record(linkID, ip, userAgent, referer)
}

// Allocate 创建短链接。customSlug 为空时自动生成 6 位随机 slug。
// 新链接不带任何策略：expires_at 与 max_visits 均为 NULL。
//
// 并发安全性：不做 "先查再插" 的预检查，直接插入并依赖 slug 唯一索引，
// 同名自定义 slug 并发创建时数据库保证恰好一个成功，失败方收到 ErrSlugConflict。
func (e *Engine) Allocate(ctx context.Context, customSlug, rawURL string) (*model.Link, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	// 配额检查是 check-then-create，日界附近的并发创建可能小幅超限，
	// 属于文档化的软限制，不是硬性 SLA
	if err := e.checkQuota(ctx); err != nil {
		return nil, err
	}

	if customSlug != "" {
		if err := slug.Validate(customSlug); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return e.insertLink(ctx, customSlug, rawURL)
	}

	for attempt := 0; attempt < MaxAllocateAttempts; attempt++ {
		candidate, err := slug.New()
		if err != nil {
			return nil, fmt.Errorf("生成随机 slug 失败: %w", err)
		}
		link, err := e.insertLink(ctx, candidate, rawURL)
		if errors.Is(err, ErrSlugConflict) {
			e.logger.Warnf("随机 slug 碰撞: %s (第 %d 次)", candidate, attempt+1)
			continue
		}
		return link, err
	}
	return nil, ErrAllocationExhausted
}

// insertLink 插入链接行，唯一索引冲突翻译成 ErrSlugConflict
func (e *Engine) insertLink(ctx context.Context, s, rawURL string) (*model.Link, error) {
	link := &model.Link{Slug: s, URL: rawURL}
	if err := e.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugConflict
		}
		return nil, storeErr(err)
	}
	return link, nil
}

// checkQuota 配额守卫：统计当日（引擎时区的日历日）已创建的链接数
func (e *Engine) checkQuota(ctx context.Context) error {
	settings, err := e.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if settings.DailyLimit <= 0 {
		// 0 表示不限制
		return nil
	}

	start := e.dayStart(e.now())
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := e.db.WithContext(ctx).Model(&model.Link{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error; err != nil {
		return storeErr(err)
	}
	if count >= int64(settings.DailyLimit) {
		return fmt.Errorf("%w（每日 %d 条），请明日再试", ErrQuotaExceeded, settings.DailyLimit)
	}
	return nil
}

// dayStart 返回 t 所在引擎时区日历日的零点
func (e *Engine) dayStart(t time.Time) time.Time {
	y, m, d := t.In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// SetExpiryDays 设置绝对过期时间：days 天后过期，days <= 0 清除过期策略。
// 互斥不变量：写入 expires_at 的同一条 UPDATE 里清空 max_visits。
func (e *Engine) SetExpiryDays(ctx context.Context, id uint, days int) (*model.Link, error) {
	var expiresAt *time.Time
	if days > 0 {
		t := e.now().AddDate(0, 0, days)
		expiresAt = &t
	}
	return e.updatePolicy(ctx, id, map[string]interface{}{
		"expires_at": expiresAt,
		"max_visits": nil,
	})
}

// SetBurnAfter 设置阅后即焚：最多允许 n 次成功跳转，n 必须为正。
// 互斥不变量：写入 max_visits 的同一条 UPDATE 里清空 expires_at。
func (e *Engine) SetBurnAfter(ctx context.Context, id uint, n int) (*model.Link, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: max_visits 必须为正整数", ErrInvalidInput)
	}
	return e.updatePolicy(ctx, id, map[string]interface{}{
		"expires_at": nil,
		"max_visits": n,
	})
}

func (e *Engine) updatePolicy(ctx context.Context, id uint, fields map[string]interface{}) (*model.Link, error) {
	var link model.Link
	if err := e.db.WithContext(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}

	if err := e.db.WithContext(ctx).Model(&link).Updates(fields).Error; err != nil {
		return nil, storeErr(err)
	}

	// 策略变化可能推翻缓存里的裸跳转结果
	e.invalidate(ctx, link.Slug)

	if err := e.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, storeErr(err)
	}
	return &link, nil
}

// UpdateNote 修改链接备注（唯一允许修改的非策略字段）
func (e *Engine) UpdateNote(ctx context.Context, id uint, note string) error {
	res := e.db.WithContext(ctx).Model(&model.Link{}).Where("id = ?", id).Update("note", note)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除链接及其全部访问记录
func (e *Engine) Delete(ctx context.Context, id uint) error {
	var link model.Link
	if err := e.db.WithContext(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storeErr(err)
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外键级联在不同部署上不一定生效，事务内手动清理访问记录
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.Visit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&link).Error
	})
	if err != nil {
		return storeErr(err)
	}

	e.invalidate(ctx, link.Slug)
	return nil
}

// LinkSummary 管理列表里的一行：链接本体加累计访问数
type LinkSummary struct {
	ID        uint       `json:"id"`
	Slug      string     `json:"slug"`
	URL       string     `json:"url"`
	Note      string     `json:"note"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxVisits *int       `json:"max_visits"`
	CreatedAt time.Time  `json:"created_at"`
	Visits    int64      `json:"visits"`
}

// List 返回全部链接及各自的访问计数，按创建时间倒序
func (e *Engine) List(ctx context.Context) ([]LinkSummary, error) {
	var rows []LinkSummary
	err := e.db.WithContext(ctx).Model(&model.Link{}).
		Select("links.id, links.slug, links.url, links.note, links.expires_at, links.max_visits, links.created_at, COUNT(visits.id) AS visits").
		Joins("LEFT JOIN visits ON visits.link_id = links.id").
		Group("links.id").
		Order("links.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}

// Tally 一组链接数/访问数计数
type Tally struct {
	Links  int64 `json:"links"`
	Visits int64 `json:"visits"`
}

// DashboardStats 仪表盘统计：今日、当月、累计
type DashboardStats struct {
	Today Tally `json:"today"`
	Month Tally `json:"month"`
	Total Tally `json:"total"`
}

// Dashboard 统计今日/当月/累计的链接与访问数量，时间边界用引擎时区
func (e *Engine) Dashboard(ctx context.Context) (DashboardStats, error) {
	now := e.now().In(e.loc)
	dayStart := e.dayStart(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, e.loc)

	var stats DashboardStats
	db := e.db.WithContext(ctx)

	type span struct {
		tally *Tally
		since *time.Time
	}
	for _, s := range []span{
		{&stats.Today, &dayStart},
		{&stats.Month, &monthStart},
		{&stats.Total, nil},
	} {
		links := db.Model(&model.Link{})
		visits := db.Model(&model.Visit{})
		if s.since != nil {
			links = links.Where("created_at >= ?", *s.since)
			visits = visits.Where("visit_time >= ?", *s.since)
		}
		if err := links.Count(&s.tally.Links).Error; err != nil {
			return stats, storeErr(err)
		}
		if err := visits.Count(&s.tally.Visits).Error; err != nil {
			return stats, storeErr(err)
		}
	}
	return stats, nil
}

// validateURL 只做语法检查：必须是带 scheme 和 host 的绝对 URL
func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: url 不能为空", ErrInvalidInput)
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
