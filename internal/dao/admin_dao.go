package dao

import (
	"context"
	"errors"
	"time"

	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
	"gorm.io/gorm"
)

type AdminDao struct {
	db *gorm.DB
}

func NewAdminDao(db *gorm.DB) *AdminDao {
	return &AdminDao{
		db: db,
	}
}

func (d *AdminDao) Create(ctx context.Context, a *model.Admin) error {
	err := d.db.WithContext(ctx).Create(a).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return e.New(e.ERROR_ADMIN_EXISTS)
	}
	return err
}

func (d *AdminDao) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := d.db.WithContext(ctx).Where("email = ?", email).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_ADMIN_NOT_EXISTS)
		}
		return nil, err
	}
	return &a, nil
}

func (d *AdminDao) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	var a model.Admin
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.New(e.ERROR_ADMIN_NOT_EXISTS)
		}
		return nil, err
	}
	return &a, nil
}

func (d *AdminDao) TouchLastLogin(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Model(&model.Admin{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
}

// CountSuperadmins 种子工具用，避免重复创建超管
func (d *AdminDao) CountSuperadmins(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&model.Admin{}).
		Where("role = ?", model.RoleSuperadmin).
		Count(&n).Error
	return n, err
}
