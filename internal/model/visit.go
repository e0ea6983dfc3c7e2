package model

import (
	"time"
)

// Visit 访问记录，只追加不更新；链接删除时级联删除。
// IP / UserAgent / Referer 对引擎是不透明字符串，缺失时由调用方填 "unknown"。
type Visit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	LinkID    uint      `gorm:"not null;index" json:"link_id"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserAgent string    `gorm:"type:text" json:"user_agent"`
	Referer   string    `gorm:"type:text" json:"referer"`
	VisitTime time.Time `gorm:"autoCreateTime" json:"visit_time"`
}

func (Visit) TableName() string {
	return "visits"
}
