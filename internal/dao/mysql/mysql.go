package mysql

import (
	"fmt"

	"github.com/vinayak200306/Veluno/config"
	"github.com/vinayak200306/Veluno/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var (
	db *gorm.DB
)

func InitDB(cfg *config.MySQLConfig) (*gorm.DB, error) {

	// 构造DSN数据源字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)
	// 如果这里不声明err  那么下面:=会导致不赋值给全局变量db 而是另外创建一个局部变量db
	var err error
	db, err = gorm.Open(mysql.Open(dsn), NewGormConfig())
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %v", err)
	}

	// 获取原生sql.DB对象
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取原生DB失败: %v", err)
	}

	// 设置连接池参数（从配置读取）
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return db, nil
}

func GetDB() *gorm.DB {
	return db
}

// NewGormConfig 统一的gorm配置。
// TranslateError必须开启，否则唯一键冲突只能拿到原生驱动错误，
// DAO层的 gorm.ErrDuplicatedKey 判断永远不会命中
func NewGormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
	}
}

// AutoMigrate 建表/升级表结构，由 cmd/tools 与测试环境调用
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Product{},
		&model.Category{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusLog{},
		&model.Admin{},
	)
}
