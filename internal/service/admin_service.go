package service

import (
	"context"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/model"
	"github.com/vinayak200306/Veluno/pkg/e"
	"github.com/vinayak200306/Veluno/pkg/logger"
	"github.com/vinayak200306/Veluno/pkg/utils"
)

type AdminService struct {
	dao *dao.AdminDao
	jwt *utils.JWTUtil
}

func NewAdminService(d *dao.AdminDao, jwt *utils.JWTUtil) *AdminService {
	return &AdminService{dao: d, jwt: jwt}
}

type LoginResult struct {
	Token string       `json:"token"`
	Admin *model.Admin `json:"admin"`
}

// Login 邮箱密码登录，签发JWT。
// 密码错误与账号不存在返回同一个错误码，避免枚举账号
func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "email and password are required")
	}
	admin, err := s.dao.GetByEmail(ctx, email)
	if err != nil {
		if e.IsCode(err, e.ERROR_ADMIN_NOT_EXISTS) {
			return nil, e.New(e.ERROR_PASSWORD)
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, e.New(e.ERROR_ADMIN_DISABLED)
	}
	if !admin.CheckPassword(password) {
		return nil, e.New(e.ERROR_PASSWORD)
	}

	token, err := s.jwt.GenerateToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		logger.ErrorContext(ctx, "token generation failed", "admin_id", admin.ID, "err", err)
		return nil, err
	}
	if err := s.dao.TouchLastLogin(ctx, admin.ID); err != nil {
		logger.WarnContext(ctx, "failed to record last login", "admin_id", admin.ID, "err", err)
	}
	return &LoginResult{Token: token, Admin: admin}, nil
}

// Register 创建管理员账号，仅超管可调用（由路由层限制角色）
func (s *AdminService) Register(ctx context.Context, name, email, password, role string) (*model.Admin, error) {
	if name == "" || email == "" || len(password) < 8 {
		return nil, e.Newf(e.INVALID_PARAMS, "name, email and a password of at least 8 characters are required")
	}
	if role == "" {
		role = model.RoleAdmin
	}
	if role != model.RoleSuperadmin && role != model.RoleAdmin && role != model.RoleManager {
		return nil, e.Newf(e.INVALID_PARAMS, "unknown role %q", role)
	}

	admin := &model.Admin{Name: name, Email: email, Role: role, IsActive: true}
	if err := admin.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.dao.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *AdminService) Profile(ctx context.Context, adminID int64) (*model.Admin, error) {
	return s.dao.GetByID(ctx, adminID)
}
