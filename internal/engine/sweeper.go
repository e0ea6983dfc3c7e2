package engine

import (
	"context"
	"fmt"
	"strconv"

	"burnlink/internal/model"

	"gorm.io/gorm"
)

// Sweep 批量清理：删除创建时间早于 now - retentionDays 天的链接（连带其
// 访问记录），再单独删除更早的散落访问记录（比如永久链接上的陈年访问）。
// 由运维手动触发，不做调度；同一截止时间重复执行第二次删除 0 条。
//
// retentionDays 先落盘到设置表，保证后续读取设置的路径拿到最新值。
// 返回删除的链接条数。
func (e *Engine) Sweep(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("%w: 保留天数必须大于 0", ErrInvalidInput)
	}

	if err := e.saveSetting(ctx, KeyRetentionDays, strconv.Itoa(retentionDays)); err != nil {
		return 0, err
	}

	cutoff := e.now().AddDate(0, 0, -retentionDays)

	var deleted int64
	var doomed []model.Link
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "slug").
			Where("created_at < ?", cutoff).Find(&doomed).Error; err != nil {
			return err
		}

		if len(doomed) > 0 {
			ids := make([]uint, len(doomed))
			for i, l := range doomed {
				ids[i] = l.ID
			}
			// 外键级联不一定在所有部署上生效，事务内手动删
			if err := tx.Where("link_id IN ?", ids).Delete(&model.Visit{}).Error; err != nil {
				return err
			}
			res := tx.Where("id IN ?", ids).Delete(&model.Link{})
			if res.Error != nil {
				return res.Error
			}
			deleted = res.RowsAffected
		}

		return tx.Where("visit_time < ?", cutoff).Delete(&model.Visit{}).Error
	})
	if err != nil {
		return 0, storeErr(err)
	}

	if len(doomed) > 0 {
		slugs := make([]string, len(doomed))
		for i, l := range doomed {
			slugs[i] = l.Slug
		}
		e.invalidate(ctx, slugs...)
	}

	e.logger.Infof("清理完成：删除 %d 条过期链接 (保留 %d 天)", deleted, retentionDays)
	return deleted, nil
}
