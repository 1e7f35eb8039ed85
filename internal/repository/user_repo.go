package repository

import (
	"context"
	"errors"

	"auth-service/internal/model"

	"gorm.io/gorm"
)

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) Create(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUserStore) ByID(ctx context.Context, id uint) (*model.User, bool, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *gormUserStore) ByEmail(ctx context.Context, email string) (*model.User, bool, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *gormUserStore) ByTenantAndUsername(ctx context.Context, tenantID uint, username string) (*model.User, bool, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND username = ?", tenantID, username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *gormUserStore) TenantOwner(ctx context.Context, tenantID uint) (*model.User, bool, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ?", tenantID, model.RoleOwner).
		Order("id").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *gormUserStore) ListByTenant(ctx context.Context, tenantID uint, offset, limit int) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (s *gormUserStore) Update(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *gormUserStore) SetTOTPSecret(ctx context.Context, id uint, secret string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("totp_secret", secret)
	return result.RowsAffected > 0, result.Error
}

func (s *gormUserStore) EnableTOTP(ctx context.Context, id uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("is_totp_enabled", true)
	return result.RowsAffected > 0, result.Error
}

func (s *gormUserStore) CascadeTenantName(ctx context.Context, tenantID uint, name string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("tenant_id = ?", tenantID).
		Update("tenant_name", name)
	return result.RowsAffected, result.Error
}

func (s *gormUserStore) CascadeActive(ctx context.Context, tenantID uint, active bool) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("tenant_id = ?", tenantID).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

func (s *gormUserStore) CountByTenant(ctx context.Context, tenantID uint) (total, active int64, err error) {
	err = s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error
	if err != nil {
		return 0, 0, err
	}
	err = s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Count(&active).Error
	if err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
