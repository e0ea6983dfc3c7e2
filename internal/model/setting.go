package model

// Setting 全局设置的键值存储，写入同名键即覆盖旧值。
// 已知键：daily_limit（默认 100）、retention_days（默认 30），
// 未知键读取时忽略。
type Setting struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Key   string `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Value string `gorm:"size:255;not null" json:"value"`
}

func (Setting) TableName() string {
	return "settings"
}
