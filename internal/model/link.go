package model

import (
	"time"
)

// Link 短链接模型
// ExpiresAt 和 MaxVisits 互斥：策略更新接口写入其中一个时会清空另一个，
// 两者都为 NULL 表示永久且不限次数的链接。
// Slug 匹配是大小写敏感的，MySQL 部署需要给该列配二进制 collation
// （如 utf8mb4_bin），否则 "Abc" 和 "abc" 会被撞成同一条。
type Link struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Slug      string     `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	URL       string     `gorm:"type:text;not null" json:"url"`
	Note      string     `gorm:"type:text" json:"note"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxVisits *int       `json:"max_visits"`
	CreatedAt time.Time  `json:"created_at"`

	Visits []Visit `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Link) TableName() string {
	return "links"
}
