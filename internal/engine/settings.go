package engine

import (
	"context"
	"strconv"

	"burnlink/internal/model"

	"gorm.io/gorm/clause"
)

// 设置键名与默认值
const (
	KeyDailyLimit    = "daily_limit"
	KeyRetentionDays = "retention_days"

	DefaultDailyLimit    = 100
	DefaultRetentionDays = 30
)

// Settings 全局设置的类型化视图。
// 底层存储是键值表，读取时解析已知键，未知键忽略，缺失键回落默认值。
type Settings struct {
	DailyLimit    int `json:"daily_limit"`    // 每日创建上限，0 表示不限制
	RetentionDays int `json:"retention_days"` // 清理保留天数
}

// LoadSettings 读取全局设置
func (e *Engine) LoadSettings(ctx context.Context) (Settings, error) {
	s := Settings{
		DailyLimit:    DefaultDailyLimit,
		RetentionDays: DefaultRetentionDays,
	}

	var rows []model.Setting
	if err := e.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return s, storeErr(err)
	}

	for _, row := range rows {
		switch row.Key {
		case KeyDailyLimit:
			if v, err := strconv.Atoi(row.Value); err == nil && v >= 0 {
				s.DailyLimit = v
			}
		case KeyRetentionDays:
			if v, err := strconv.Atoi(row.Value); err == nil && v >= 1 {
				s.RetentionDays = v
			}
		}
	}
	return s, nil
}

// UpdateSettings 更新全局设置，nil 表示不修改该项。
// 非法取值（daily_limit < 0 或 retention_days < 1）返回 ErrInvalidInput。
func (e *Engine) UpdateSettings(ctx context.Context, dailyLimit, retentionDays *int) error {
	if dailyLimit != nil {
		if *dailyLimit < 0 {
			return ErrInvalidInput
		}
		if err := e.saveSetting(ctx, KeyDailyLimit, strconv.Itoa(*dailyLimit)); err != nil {
			return err
		}
	}
	if retentionDays != nil {
		if *retentionDays < 1 {
			return ErrInvalidInput
		}
		if err := e.saveSetting(ctx, KeyRetentionDays, strconv.Itoa(*retentionDays)); err != nil {
			return err
		}
	}
	return nil
}

// saveSetting 以 upsert 语义写入单个设置键，同名键覆盖旧值
func (e *Engine) saveSetting(ctx context.Context, key, value string) error {
	err := e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.Setting{Key: key, Value: value}).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}
