package main

import (
	"context"
	"flag"
	"time"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/dao/mysql"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/app"
	"github.com/vinayak200306/Veluno/pkg/logger"
)

// 运维工具：建表 + 种子超管账号
func main() {
	migrate := flag.Bool("migrate", true, "run schema migration")
	seedEmail := flag.String("seed-email", "", "create a superadmin with this email")
	seedName := flag.String("seed-name", "Admin", "superadmin display name")
	seedPassword := flag.String("seed-password", "", "superadmin password (min 8 chars)")
	flag.Parse()

	cfg := app.BootstrapApp()

	db, err := mysql.InitDB(&cfg.Database.Mysql)
	if err != nil {
		logger.Fatal("Failed to init MySQL", "err", err)
	}

	if *migrate {
		if err := mysql.AutoMigrate(db); err != nil {
			logger.Fatal("schema migration failed", "err", err)
		}
		logger.Info("Schema migration complete")
	}

	if *seedEmail != "" {
		if len(*seedPassword) < 8 {
			logger.Fatal("seed-password must be at least 8 characters")
		}
		seedSuperadmin(dao.NewAdminDao(db), *seedName, *seedEmail, *seedPassword)
	}
}

// seedSuperadmin 已存在超管时跳过，避免重复创建
func seedSuperadmin(admins *dao.AdminDao, name, email, password string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := admins.CountSuperadmins(ctx)
	if err != nil {
		logger.Fatal("superadmin count failed", "err", err)
	}
	if n > 0 {
		logger.Info("Superadmin already exists, skipping seed")
		return
	}

	admin := &model.Admin{
		Name:     name,
		Email:    email,
		Role:     model.RoleSuperadmin,
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		logger.Fatal("password hash failed", "err", err)
	}
	if err := admins.Create(ctx, admin); err != nil {
		logger.Fatal("superadmin create failed", "err", err)
	}
	logger.Info("Superadmin seeded", "email", email)
}
