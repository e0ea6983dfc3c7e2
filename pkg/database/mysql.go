package database

import (
	"fmt"

	"burnlink/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitMySQL 建立 MySQL 连接并迁移表结构。
// TranslateError 必须开启：引擎靠 gorm.ErrDuplicatedKey 区分
// "slug 被占用"（409）和一般的存储故障（500）。
func InitMySQL(host string, port int, user, password, dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbName)

	connection, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %v", err)
	}

	// 自动迁移表
	err = connection.AutoMigrate(
		&model.Link{},
		&model.Visit{},
		&model.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %v", err)
	}

	return connection, nil
}
